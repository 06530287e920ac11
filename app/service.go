package app

import (
	"context"
	"fmt"
	"net/http"
	"time"

	apioptimize "github.com/voltmesh/bessopt/api/optimize"
	"github.com/voltmesh/bessopt/config"
	"github.com/voltmesh/bessopt/core/forecast"
	coremetrics "github.com/voltmesh/bessopt/core/metrics"
	"github.com/voltmesh/bessopt/core/pipeline"
	"github.com/voltmesh/bessopt/core/publish"
	"github.com/voltmesh/bessopt/core/resultstore"
	"github.com/voltmesh/bessopt/infra/history"
	"github.com/voltmesh/bessopt/infra/logger"
	"github.com/voltmesh/bessopt/infra/metrics"
	"github.com/voltmesh/bessopt/infra/mqtt"
	infraresultstore "github.com/voltmesh/bessopt/infra/resultstore"
	"github.com/voltmesh/bessopt/internal/eventbus"
)

// Service orchestrates the optimization engine and its HTTP surface.
type Service struct {
	Engine *pipeline.Engine

	bus         *eventbus.Bus
	log         logger.Logger
	addr        string
	apiToken    string
	promEnabled bool
	promAddr    string
	store       resultstore.Store
	querier     apioptimize.ResultQuerier
	publisher   publish.Publisher
}

// New creates a Service from the configuration. historyPath points at the CSV
// file holding the load history.
func New(cfg *config.Config, historyPath string) (*Service, error) {
	logg := logger.New("service")

	prices, err := cfg.Prices.Expand()
	if err != nil {
		return nil, fmt.Errorf("price schedule: %w", err)
	}

	var sinks []coremetrics.MetricsSink
	if cfg.Metrics.PrometheusEnabled {
		sink, err := metrics.NewPromSink(cfg.Metrics)
		if err != nil {
			return nil, fmt.Errorf("prom sink: %w", err)
		}
		sinks = append(sinks, sink)
	}
	if cfg.Metrics.InfluxEnabled {
		sinks = append(sinks, metrics.NewInfluxSinkWithFallback(cfg.Metrics))
	}
	var sink coremetrics.MetricsSink
	switch len(sinks) {
	case 0:
		sink = coremetrics.NopSink{}
	case 1:
		sink = sinks[0]
	default:
		sink = metrics.NewMultiSink(sinks...)
	}

	var store resultstore.Store = resultstore.NopStore{}
	var querier apioptimize.ResultQuerier
	if cfg.Results.Enabled {
		jsonl, err := infraresultstore.NewRotatingJSONLStore(cfg.Results)
		if err != nil {
			return nil, fmt.Errorf("result store: %w", err)
		}
		store = jsonl
		querier = jsonl
	}

	var pub publish.Publisher = publish.NopPublisher{}
	if cfg.MQTT.Enabled {
		p, err := mqtt.NewPublisher(cfg.MQTT)
		if err != nil {
			return nil, fmt.Errorf("mqtt publisher: %w", err)
		}
		pub = p
	}

	bus := eventbus.New()
	engine := &pipeline.Engine{
		History:        history.NewCSVProvider(historyPath),
		Prices:         prices,
		Battery:        cfg.Battery.ToModel(),
		Pool:           forecast.DefaultPool(forecast.Options{Seed: cfg.Forecast.Seed}),
		Selector:       forecast.Selector{
			Folds:           cfg.Forecast.Folds,
			HoldoutFraction: cfg.Forecast.HoldoutFraction,
			TieTolerance:    cfg.Forecast.TieTolerance,
			Workers:         cfg.Forecast.Workers,
			Log:             logger.New("selector"),
		},
		SolverOpts:     cfg.Solver.Options(),
		MinHistoryDays: cfg.Forecast.MinHistoryDays,
		Log:            logger.New("pipeline"),
		Sink:           sink,
		Bus:            bus,
		Store:          store,
		Publisher:      pub,
	}

	return &Service{
		Engine:      engine,
		bus:         bus,
		log:         logg,
		addr:        cfg.Server.Addr,
		apiToken:    cfg.Server.APIToken,
		promEnabled: cfg.Metrics.PrometheusEnabled,
		promAddr:    cfg.Metrics.PrometheusAddr,
		store:       store,
		querier:     querier,
		publisher:   pub,
	}, nil
}

// Run starts the HTTP servers and blocks until the context is cancelled.
func (s *Service) Run(ctx context.Context) error {
	events := s.bus.Subscribe(64)
	go func() {
		for ev := range events {
			if ev.Err != nil {
				s.log.Warnf("run %s: stage %s failed after %s: %v", ev.RunID, ev.Stage, ev.Duration, ev.Err)
				continue
			}
			s.log.Debugf("run %s: stage %s done in %s", ev.RunID, ev.Stage, ev.Duration)
		}
	}()

	if s.promEnabled {
		go func() {
			if err := metrics.StartPromServer(ctx, s.promAddr); err != nil {
				s.log.Errorf("prom server: %v", err)
			}
		}()
	}

	mux := http.NewServeMux()
	mux.Handle("/api/optimize", apioptimize.NewHandler(s.Engine))
	if s.querier != nil {
		mux.Handle("/api/optimize/results", apioptimize.NewResultsHandler(s.querier, s.apiToken))
	}
	srv := &http.Server{Addr: s.addr, Handler: mux}
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			s.log.Errorf("http shutdown: %v", err)
		}
	}()
	s.log.Infof("listening on %s", s.addr)
	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return err
	}
	return nil
}

// Close releases resources held by the service.
func (s *Service) Close() error {
	s.bus.Close()
	if err := s.publisher.Close(); err != nil {
		return err
	}
	return s.store.Close()
}
