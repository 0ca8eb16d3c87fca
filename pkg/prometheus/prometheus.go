package prometheus

import (
	"context"
	"errors"
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/questx-lab/raffle/internal/common"
	"github.com/questx-lab/raffle/pkg/xcontext"
)

func NewHandler() http.Handler {
	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector())
	registry.MustRegister(collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	for _, counter := range common.PromCounters {
		registry.MustRegister(counter)
	}

	for _, histogram := range common.PromHistograms {
		registry.MustRegister(histogram)
	}

	return promhttp.HandlerFor(registry, promhttp.HandlerOpts{})
}

// Serve exposes the metrics on addr until the context is done.
func Serve(ctx context.Context, addr string) error {
	httpSrv := &http.Server{Addr: addr, Handler: NewHandler()}
	go func() {
		<-ctx.Done()
		httpSrv.Close()
	}()

	xcontext.Logger(ctx).Infof("Starting prometheus on %s", addr)
	if err := httpSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}

	xcontext.Logger(ctx).Infof("Server prometheus stop")
	return nil
}
