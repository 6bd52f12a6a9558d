package auction

import (
	"time"

	"leadexchange_backend/internal/auction/handler"
	"leadexchange_backend/internal/auction/repository"
	"leadexchange_backend/internal/events"
	apphttp "leadexchange_backend/internal/http"
	"leadexchange_backend/platform/config"
	"leadexchange_backend/platform/logger"

	"github.com/redis/go-redis/v9"
)

// guardTTL bounds how long a crashed worker can block re-auctioning a lead.
const guardTTL = 5 * time.Minute

// Module is the auction bounded context module implementing http.Module.
type Module struct {
	handler      *handler.Handler
	coordinator  *Coordinator
	transactions *repository.Repository
}

// NewModule creates and initializes the auction module with all its dependencies.
func NewModule(
	db repository.DB,
	rdb *redis.Client,
	leads LeadService,
	coverage CoverageResolver,
	enqueuer handler.AuctionEnqueuer,
	bus events.Bus,
	cfg config.AuctionConfig,
	log *logger.Logger,
) *Module {
	txns := repository.New(db)
	coordinator := NewCoordinator(
		leads, coverage, txns, NewClient(), NewRunGuard(rdb, guardTTL), bus, cfg, log,
	)
	h := handler.New(txns, enqueuer)
	return &Module{handler: h, coordinator: coordinator, transactions: txns}
}

// Name returns the module identifier.
func (m *Module) Name() string {
	return "auction"
}

// Coordinator returns the auction coordinator for the worker process.
func (m *Module) Coordinator() *Coordinator {
	return m.coordinator
}

// Transactions returns the audit log repository.
func (m *Module) Transactions() *repository.Repository {
	return m.transactions
}

// RegisterRoutes mounts the audit log and manual trigger on the admin group.
func (m *Module) RegisterRoutes(ctx *apphttp.RouterContext) {
	m.handler.RegisterRoutes(ctx.Admin)
}

var _ apphttp.Module = (*Module)(nil)

// APIModule is the slice of the auction module the API process serves: the
// audit log and the manual trigger. Running auctions belongs to the worker.
type APIModule struct {
	handler *handler.Handler
}

// NewAPIModule creates the HTTP-only auction module. A nil enqueuer disables
// the manual trigger.
func NewAPIModule(db repository.DB, enqueuer handler.AuctionEnqueuer) *APIModule {
	return &APIModule{handler: handler.New(repository.New(db), enqueuer)}
}

// Name returns the module identifier.
func (m *APIModule) Name() string {
	return "auction"
}

// RegisterRoutes mounts the audit log and manual trigger on the admin group.
func (m *APIModule) RegisterRoutes(ctx *apphttp.RouterContext) {
	m.handler.RegisterRoutes(ctx.Admin)
}

var _ apphttp.Module = (*APIModule)(nil)
