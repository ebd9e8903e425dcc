// license-sweep persiste periódicamente el estado calculado (expired, active) de las licencias
// cuyo estado almacenado quedó desfasado. Las lecturas de la API no dependen de este proceso.
//
// Uso: go run ./cmd/license-sweep [once]
// Con "once" ejecuta un solo barrido y termina; si no, repite cada LICENSE_SWEEP_INTERVAL_MINUTES.
// Con LICENSE_SWEEP_METRICS_ADDR el proceso continuo expone /metrics en esa dirección.
package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/jhoicas/Licencias-api/internal/application/access"
	"github.com/jhoicas/Licencias-api/internal/application/license"
	"github.com/jhoicas/Licencias-api/internal/application/ports"
	inframetrics "github.com/jhoicas/Licencias-api/internal/infrastructure/metrics"
	infranats "github.com/jhoicas/Licencias-api/internal/infrastructure/nats"
	"github.com/jhoicas/Licencias-api/internal/infrastructure/postgres"
	"github.com/jhoicas/Licencias-api/pkg/config"
	"github.com/jhoicas/Licencias-api/pkg/logger"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "cargar configuración: %v\n", err)
		os.Exit(1)
	}
	log := logger.New(logger.Config{
		Env:     cfg.App.Env,
		Level:   cfg.App.LogLevel,
		Service: "license-sweep",
	})
	once := len(os.Args) > 1 && os.Args[1] == "once"
	if err := run(cfg, log, once); err != nil {
		log.Error().Err(err).Msg("barrido terminado con error")
		os.Exit(1)
	}
}

func run(cfg *config.Config, log *logger.Logger, once bool) error {
	if cfg.DB.Storage != config.StoragePostgres {
		return fmt.Errorf("el barrido requiere APP_STORAGE=postgres (actual %q)", cfg.DB.Storage)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	pool, err := postgres.NewPool(ctx, cfg.DB)
	if err != nil {
		return fmt.Errorf("conexión a PostgreSQL: %w", err)
	}
	defer pool.Close()

	var publisher ports.EventPublisher = ports.NoopPublisher{}
	if cfg.NATS.URL != "" {
		nc, err := infranats.Connect(cfg.NATS.URL, "license-sweep", log.Component("nats"))
		if err != nil {
			return fmt.Errorf("conexión a NATS: %w", err)
		}
		defer func() { _ = nc.Drain() }()
		publisher = infranats.NewPublisher(nc, cfg.NATS.SubjectPrefix, log.Component("nats"))
	}

	// Sin un /metrics que las exponga, las métricas serían invisibles: se usan las nulas.
	var metrics ports.Metrics
	if !once && cfg.License.SweepMetricsAddr != "" {
		registry := prometheus.NewRegistry()
		registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
		metrics = inframetrics.NewMetrics(registry, "licencias")

		mux := http.NewServeMux()
		mux.Handle("/metrics", promhttp.HandlerFor(registry, promhttp.HandlerOpts{}))
		srv := &http.Server{Addr: cfg.License.SweepMetricsAddr, Handler: mux, ReadHeaderTimeout: 5 * time.Second}
		go func() {
			if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				log.Error().Err(err).Str("addr", srv.Addr).Msg("servidor de métricas")
			}
		}()
		defer func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			_ = srv.Shutdown(shutdownCtx)
		}()
		log.Info().Str("addr", srv.Addr).Msg("métricas del barrido en /metrics")
	}

	companies := postgres.NewCompanyRepository(pool)
	uc := license.NewUseCase(
		postgres.NewTxRunner(pool),
		postgres.NewLicenseRepository(pool),
		postgres.NewClientRepository(pool),
		postgres.NewProductRepository(pool),
		access.NewAuthorizer(companies),
		publisher,
		metrics,
		log.Component("license"),
	)

	sweep := func() error {
		start := time.Now()
		res, err := uc.Sweep(ctx, start)
		if err != nil {
			log.Error().Err(err).Int("scanned", res.Scanned).Int("updated", res.Updated).Msg("barrido interrumpido")
			return err
		}
		log.Info().Int("scanned", res.Scanned).Int("updated", res.Updated).Dur("elapsed", time.Since(start)).Msg("barrido")
		return nil
	}

	if once {
		return sweep()
	}
	_ = sweep()
	ticker := time.NewTicker(cfg.License.SweepInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			log.Info().Msg("barrido detenido")
			return nil
		case <-ticker.C:
			_ = sweep()
		}
	}
}
