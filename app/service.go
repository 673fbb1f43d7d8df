package app

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/matriforce/dispatch/api/cases"
	"github.com/matriforce/dispatch/config"
	"github.com/matriforce/dispatch/core/dispatch"
	"github.com/matriforce/dispatch/core/events"
	"github.com/matriforce/dispatch/core/fallback"
	"github.com/matriforce/dispatch/core/intake"
	"github.com/matriforce/dispatch/core/lifecycle"
	coremetrics "github.com/matriforce/dispatch/core/metrics"
	"github.com/matriforce/dispatch/core/model"
	"github.com/matriforce/dispatch/core/registry"
	"github.com/matriforce/dispatch/infra/logger"
	"github.com/matriforce/dispatch/infra/memstore"
	"github.com/matriforce/dispatch/infra/metrics"
	"github.com/matriforce/dispatch/infra/mqtt"
	"github.com/matriforce/dispatch/internal/eventbus"
)

// Service wires the registry, intake, matcher and gateway together around a
// shared event bus and MQTT connection.
type Service struct {
	Registry  *registry.Registry
	Intake    *intake.Intake
	Lifecycle *lifecycle.Manager
	Matcher   *dispatch.Matcher
	Gateway   *fallback.Gateway
	Cases     *memstore.CaseStore
	Trail     *memstore.AuditStore

	client      *mqtt.PahoClient
	bus         *eventbus.Bus
	transitions *eventbus.TypedBus[events.CaseTransitioned]
	sink        coremetrics.MetricsSink
	cfg         *config.Config
	log         logger.Logger
}

// New creates a Service from the configuration.
func New(cfg *config.Config) (*Service, error) {
	logg := logger.New("service")
	client, err := mqtt.NewPahoClient(cfg.MQTT)
	if err != nil {
		return nil, fmt.Errorf("mqtt client: %w", err)
	}

	sink, err := coremetrics.NewMetricsSink(cfg.Metrics.Sinks)
	if err != nil {
		return nil, fmt.Errorf("metrics sink: %w", err)
	}

	bus := eventbus.New()
	cases := memstore.NewCaseStore()
	responders := memstore.NewRegistryStore()
	trail := memstore.NewAuditStore(cfg.Audit.Size)

	reg := registry.New(responders, cfg.Dispatch.RadiusTiersKm, logger.New("registry"))
	lm := lifecycle.NewManager(cases, reg, bus, client, logger.New("lifecycle"))
	in := intake.New(cases, cfg.Intake.Region, bus, logger.New("intake"))
	gw := fallback.NewGateway(in, bus, logger.New("gateway"))

	matcher, err := dispatch.NewMatcher(reg, lm, cases, client, bus, trail, cfg.Dispatch, logger.New("matcher"))
	if err != nil {
		return nil, fmt.Errorf("matcher: %w", err)
	}

	return &Service{
		Registry:    reg,
		Intake:      in,
		Lifecycle:   lm,
		Matcher:     matcher,
		Gateway:     gw,
		Cases:       cases,
		Trail:       trail,
		client:      client,
		bus:         bus,
		transitions: eventbus.NewTyped[events.CaseTransitioned](),
		sink:        sink,
		cfg:         cfg,
		log:         logg,
	}, nil
}

// Run starts the service and blocks until the context is cancelled.
func (s *Service) Run(ctx context.Context) error {
	metrics.StartEventCollector(ctx, s.bus, s.sink)

	if err := s.client.SubscribeStatus(s.handleStatus(ctx)); err != nil {
		return fmt.Errorf("subscribe status: %w", err)
	}
	if err := s.client.SubscribeGateway(func(payload string) {
		if _, err := s.Gateway.DecodeAndSubmit(ctx, payload); err != nil {
			s.log.Warnf("fallback payload dropped: %v", err)
		}
	}); err != nil {
		return fmt.Errorf("subscribe gateway: %w", err)
	}

	sub := s.bus.Subscribe()
	go s.Matcher.Run(ctx, sub)
	go s.forwardTransitions(ctx)
	go s.sweepLoop(ctx)

	if s.cfg.API.Addr != "" {
		go s.serveAPI(ctx)
	}
	if s.cfg.Metrics.PrometheusAddr != "" {
		go func() {
			if err := metrics.StartPromServer(ctx, s.cfg.Metrics.PrometheusAddr); err != nil {
				s.log.Errorf("prom server: %v", err)
			}
		}()
	}

	<-ctx.Done()
	return nil
}

func (s *Service) handleStatus(ctx context.Context) func(mqtt.StatusUpdate) {
	return func(u mqtt.StatusUpdate) {
		kind, err := model.ParseResponderKind(u.Kind)
		if err != nil {
			s.log.Warnf("status update for %s: %v", u.ResponderID, err)
			return
		}
		status, err := model.ParseResponderStatus(u.Status)
		if err != nil {
			s.log.Warnf("status update for %s: %v", u.ResponderID, err)
			return
		}
		loc := model.Location{Latitude: u.Latitude, Longitude: u.Longitude, CapturedAt: u.Captured()}
		if err := s.Registry.UpsertStatus(ctx, u.ResponderID, kind, status, loc); err != nil {
			s.log.Errorf("upsert status for %s: %v", u.ResponderID, err)
		}
	}
}

// forwardTransitions taps committed case transitions off the main bus into
// the typed stream the watch endpoint serves.
func (s *Service) forwardTransitions(ctx context.Context) {
	sub := s.bus.Subscribe()
	defer s.bus.Unsubscribe(sub)
	for {
		select {
		case <-ctx.Done():
			return
		case ev, ok := <-sub:
			if !ok {
				return
			}
			if tr, isTr := ev.(events.CaseTransitioned); isTr {
				s.transitions.Publish(tr)
			}
		}
	}
}

func (s *Service) sweepLoop(ctx context.Context) {
	interval := time.Duration(s.cfg.Lifecycle.SweepIntervalSeconds) * time.Second
	maxPending := time.Duration(s.cfg.Lifecycle.MaxPendingMinutes) * time.Minute
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			n, err := s.Lifecycle.SweepExpired(ctx, maxPending)
			if err != nil {
				s.log.Errorf("expiry sweep: %v", err)
				continue
			}
			if n > 0 {
				s.log.Infof("expired %d stale pending cases", n)
			}
		}
	}
}

func (s *Service) serveAPI(ctx context.Context) {
	mux := http.NewServeMux()
	handler := cases.NewCaseHandler(s.Cases)
	mux.Handle("/api/cases", handler)
	mux.Handle("/api/cases/", handler)
	mux.Handle("/api/cases/watch", cases.NewWatchHandler(s.transitions))
	mux.Handle("/api/responders", cases.NewResponderHandler(s.Registry))
	mux.Handle("/api/dispatch/audit", cases.NewAuditHandler(s.Trail))
	mux.Handle("/healthz", cases.NewHealthHandler())
	srv := &http.Server{Addr: s.cfg.API.Addr, Handler: mux}
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			s.log.Errorf("api shutdown: %v", err)
		}
	}()
	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		s.log.Errorf("api server: %v", err)
	}
}

// Close releases resources held by the service.
func (s *Service) Close() error {
	s.client.Disconnect()
	s.transitions.Close()
	s.bus.Close()
	if closer, ok := s.sink.(interface{ Close() }); ok {
		closer.Close()
	}
	return nil
}
