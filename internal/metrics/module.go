package metrics

import (
	"context"

	"leadexchange_backend/internal/events"
	apphttp "leadexchange_backend/internal/http"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Module wires domain events into Prometheus collectors and serves /metrics.
type Module struct{}

// NewModule creates the metrics module and subscribes its event handlers.
func NewModule(bus events.Bus) *Module {
	m := &Module{}
	bus.Subscribe("leads.lead.created", events.HandlerFunc(m.onLeadCreated))
	bus.Subscribe("leads.lead.status_changed", events.HandlerFunc(m.onStatusChanged))
	bus.Subscribe("auction.completed", events.HandlerFunc(m.onAuctionCompleted))
	return m
}

// Name returns the module identifier.
func (m *Module) Name() string {
	return "metrics"
}

// RegisterRoutes exposes the Prometheus endpoint at the engine root and
// installs the HTTP instrumentation middleware.
func (m *Module) RegisterRoutes(ctx *apphttp.RouterContext) {
	ctx.Engine.Use(HTTPMiddleware())
	ctx.Engine.GET("/metrics", gin.WrapH(promhttp.Handler()))
}

func (m *Module) onLeadCreated(_ context.Context, _ events.Event) error {
	leadsCreated.Inc()
	return nil
}

func (m *Module) onStatusChanged(_ context.Context, event events.Event) error {
	changed, ok := event.(events.LeadStatusChanged)
	if !ok {
		return nil
	}
	statusTransitions.WithLabelValues(changed.PrevStatus, changed.NewStatus, changed.Source).Inc()
	return nil
}

func (m *Module) onAuctionCompleted(_ context.Context, event events.Event) error {
	completed, ok := event.(events.AuctionCompleted)
	if !ok {
		return nil
	}
	auctionsCompleted.WithLabelValues(completed.Outcome).Inc()
	if completed.Outcome == "sold" {
		winningBids.Observe(completed.WinningBid)
	}
	return nil
}

var _ apphttp.Module = (*Module)(nil)
