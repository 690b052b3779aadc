package main

import (
	"context"
	"errors"
	"flag"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"golang.org/x/sync/errgroup"

	"dqx0.com/go/tinyhttp/httpx"
	"dqx0.com/go/tinyhttp/internal/obs"
)

func main() {
	port := flag.Int("port", 8080, "port to listen on (127.0.0.1 only)")
	verbose := flag.Bool("verbose", false, "log per-connection diagnostics to stderr")
	metricsAddr := flag.String("metrics-addr", "", "serve Prometheus metrics on this address, e.g. 127.0.0.1:9090")
	flag.Parse()

	app := httpx.NewApp()
	app.Meter = obs.NewPromMeter("tinyhttp", prometheus.DefaultRegisterer)
	routes(app)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		err := app.Start(*port, *verbose)
		if errors.Is(err, httpx.ErrServerClosed) {
			return nil
		}
		return err
	})
	g.Go(func() error {
		<-ctx.Done()
		return app.Close()
	})

	if *metricsAddr != "" {
		ms := &http.Server{Addr: *metricsAddr, Handler: promhttp.Handler()}
		g.Go(func() error {
			if err := ms.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
				return err
			}
			return nil
		})
		g.Go(func() error {
			<-ctx.Done()
			return ms.Shutdown(context.Background())
		})
	}

	if err := g.Wait(); err != nil {
		log.Fatal(err)
	}
}

func routes(app *httpx.App) {
	app.HandleFunc("hello", httpx.MethodGET, func(r httpx.Request) *httpx.Response {
		name, ok := r.Param("name")
		if !ok {
			name = "world"
		}
		return httpx.Text(200, "OK", "hello, "+name+"\n")
	})
	app.HandleFunc("echo", httpx.MethodPOST, func(r httpx.Request) *httpx.Response {
		res := &httpx.Response{StatusCode: 200, Reason: "OK", Header: httpx.Header{}, Body: r.Body}
		if ct, ok := r.Header.Lookup("Content-Type"); ok {
			res.Header.Set("Content-Type", ct)
		}
		return res
	})
	app.HandleFunc("headers", httpx.MethodGET, func(r httpx.Request) *httpx.Response {
		res, err := httpx.JSON(200, "OK", r.Header)
		if err != nil {
			return httpx.Text(500, "Internal Server Error", err.Error())
		}
		return res
	})
	// Closes the connection without a response.
	app.HandleFunc("silent", httpx.MethodGET, func(httpx.Request) *httpx.Response {
		return nil
	})
}
