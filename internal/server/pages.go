package server

import (
	"embed"
	"io/fs"
	"os"

	"github.com/pkg/errors"
)

const (
	// HelloPage is served for known routes
	HelloPage = "hello.html"
	// NotFoundPage is served for everything else
	NotFoundPage = "404.html"
)

//go:embed static/*.html
var embedded embed.FS

// Pages reads response bodies from a file system on every request, so pages
// edited on disk are picked up without a restart.
type Pages struct {
	fsys fs.FS
}

// EmbeddedPages returns the built-in pages
func EmbeddedPages() *Pages {
	sub, err := fs.Sub(embedded, "static")
	if err != nil {
		// static/ is compiled in
		panic(err)
	}
	return &Pages{fsys: sub}
}

// LoadPages serves pages from dir, or the built-in pages when dir is empty.
// Both pages must exist in dir.
func LoadPages(dir string) (*Pages, error) {
	if dir == "" {
		return EmbeddedPages(), nil
	}

	p := &Pages{fsys: os.DirFS(dir)}
	for _, name := range []string{HelloPage, NotFoundPage} {
		if _, err := fs.Stat(p.fsys, name); err != nil {
			return nil, errors.Wrapf(err, "static page %s", name)
		}
	}
	return p, nil
}

// PagesFromFS serves pages from fsys
func PagesFromFS(fsys fs.FS) *Pages {
	return &Pages{fsys: fsys}
}

// Read returns the contents of the named page
func (p *Pages) Read(name string) ([]byte, error) {
	body, err := fs.ReadFile(p.fsys, name)
	if err != nil {
		return nil, errors.Wrapf(err, "read page %s", name)
	}
	return body, nil
}
