package cmd

import (
	"context"
	"net"
	"net/http"
	"os"
	"time"

	"github.com/pkg/errors"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"golang.org/x/sync/errgroup"

	"github.com/jzx17/threadpool/internal/cli"
	"github.com/jzx17/threadpool/internal/config"
	"github.com/jzx17/threadpool/internal/server"
	"github.com/jzx17/threadpool/pkg/observer"
	"github.com/jzx17/threadpool/pkg/types"
	"github.com/jzx17/threadpool/pkg/worker"
)

const (
	metricsNamespace = "threadpool"
	metricsSubsystem = ""
	shutdownTimeout  = 5 * time.Second
)

// listeners reports the bound addresses once the server is accepting
type listeners func(serverAddr, metricsAddr net.Addr)

// serve runs the webserver until ctx is done or the request limit is reached,
// then closes the pool and prints a summary.
func serve(ctx context.Context, cfg *config.Config, console *cli.Console, onListen listeners) error {
	logger, err := cfg.Log.NewLogger(os.Stderr)
	if err != nil {
		return err
	}

	pages, err := server.LoadPages(cfg.StaticDir)
	if err != nil {
		return err
	}

	metrics := observer.NewMetrics(metricsNamespace, metricsSubsystem)
	pool := worker.New(cfg.Workers,
		worker.WithObserver(types.MultiObserver{observer.NewLogObserver(logger), metrics}),
		worker.WithContinueOnPanic(cfg.ContinueOnPanic),
	)

	var metricsLn net.Listener
	var metricsSrv *http.Server
	if cfg.MetricsAddress != "" {
		reg := prometheus.NewRegistry()
		if err := registerMetrics(reg, metrics, pool); err != nil {
			_ = pool.Close()
			return err
		}
		metricsLn, err = net.Listen("tcp", cfg.MetricsAddress)
		if err != nil {
			_ = pool.Close()
			return errors.Wrap(err, "listen for metrics")
		}
		mux := http.NewServeMux()
		mux.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{Registry: reg}))
		metricsSrv = &http.Server{Handler: mux, ReadHeaderTimeout: 10 * time.Second}
	}

	ln, err := net.Listen("tcp", cfg.Address)
	if err != nil {
		if metricsLn != nil {
			_ = metricsLn.Close()
		}
		_ = pool.Close()
		return errors.Wrap(err, "listen")
	}

	srv := server.New(pool, pages, server.Options{
		ReadBufferSize: cfg.ReadBufferSize,
		SleepDelay:     cfg.SleepDelay,
		Compress:       cfg.Compress,
		MaxRequests:    cfg.MaxRequests,
		IOTimeout:      server.DefaultOptions().IOTimeout,
	}, logger)

	var metricsAddr net.Addr
	if metricsLn != nil {
		metricsAddr = metricsLn.Addr()
	}
	console.Banner(ln.Addr().String(), cfg.Workers, addrString(metricsAddr))
	logger.Info("server started", "address", ln.Addr().String(), "workers", cfg.Workers)
	if onListen != nil {
		onListen(ln.Addr(), metricsAddr)
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		// the metrics endpoint goes down with the server
		defer cancel()
		return srv.Serve(gctx, ln)
	})

	if metricsSrv != nil {
		g.Go(func() error {
			if err := metricsSrv.Serve(metricsLn); err != nil && !errors.Is(err, http.ErrServerClosed) {
				return errors.Wrap(err, "metrics server")
			}
			return nil
		})
		g.Go(func() error {
			<-gctx.Done()
			shutdownCtx, done := context.WithTimeout(context.Background(), shutdownTimeout)
			defer done()
			return metricsSrv.Shutdown(shutdownCtx)
		})
	}

	serveErr := g.Wait()

	console.Info("Shutting down.")
	if err := pool.Close(); err != nil {
		logger.Warn("close pool", "error", err)
	}
	console.PoolSummary(pool.Stats())

	return serveErr
}

func registerMetrics(reg *prometheus.Registry, metrics *observer.Metrics, pool *worker.Pool) error {
	if err := metrics.Register(reg); err != nil {
		return errors.Wrap(err, "register pool metrics")
	}
	cs := observer.NewStatsCollectors(metricsNamespace, metricsSubsystem, pool)
	cs = append(cs, collectors.NewGoCollector())
	for _, c := range cs {
		if err := reg.Register(c); err != nil {
			return errors.Wrap(err, "register collector")
		}
	}
	return nil
}

func addrString(addr net.Addr) string {
	if addr == nil {
		return ""
	}
	return addr.String()
}
