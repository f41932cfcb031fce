package server

import (
	"bufio"
	"bytes"
	"fmt"
	"io"

	"github.com/klauspost/compress/gzip"
	"github.com/pkg/errors"
)

const (
	StatusOK       = "HTTP/1.1 200 OK"
	StatusNotFound = "HTTP/1.1 404 NOT FOUND"
)

var (
	getRoot  = []byte("GET / HTTP/1.1\r\n")
	getSleep = []byte("GET /sleep HTTP/1.1\r\n")
)

// Route is the outcome of matching a request
type Route struct {
	Status string
	Page   string
	Sleep  bool
}

// Match picks the response for a raw request. Only the request line matters.
func Match(request []byte) Route {
	switch {
	case bytes.HasPrefix(request, getRoot):
		return Route{Status: StatusOK, Page: HelloPage}
	case bytes.HasPrefix(request, getSleep):
		return Route{Status: StatusOK, Page: HelloPage, Sleep: true}
	default:
		return Route{Status: StatusNotFound, Page: NotFoundPage}
	}
}

// AcceptsGzip reports whether the request headers include gzip in Accept-Encoding
func AcceptsGzip(request []byte) bool {
	lines := bytes.Split(request, []byte("\r\n"))
	for _, line := range lines[1:] {
		if len(line) == 0 {
			break
		}
		name, value, ok := bytes.Cut(line, []byte(":"))
		if !ok || !bytes.EqualFold(bytes.TrimSpace(name), []byte("Accept-Encoding")) {
			continue
		}
		for _, enc := range bytes.Split(value, []byte(",")) {
			enc, _, _ = bytes.Cut(enc, []byte(";"))
			if bytes.EqualFold(bytes.TrimSpace(enc), []byte("gzip")) {
				return true
			}
		}
	}
	return false
}

// WriteResponse writes a minimal HTTP/1.1 response, gzipping body when asked
func WriteResponse(w io.Writer, status string, body []byte, compress bool) error {
	headers := ""
	if compress {
		var buf bytes.Buffer
		zw := gzip.NewWriter(&buf)
		if _, err := zw.Write(body); err != nil {
			return errors.Wrap(err, "gzip body")
		}
		if err := zw.Close(); err != nil {
			return errors.Wrap(err, "gzip body")
		}
		body = buf.Bytes()
		headers = "Content-Encoding: gzip\r\n"
	}

	bw := bufio.NewWriter(w)
	if _, err := fmt.Fprintf(bw, "%s\r\nContent-Length: %d\r\n%s\r\n", status, len(body), headers); err != nil {
		return errors.Wrap(err, "write headers")
	}
	if _, err := bw.Write(body); err != nil {
		return errors.Wrap(err, "write body")
	}
	return errors.Wrap(bw.Flush(), "flush response")
}
