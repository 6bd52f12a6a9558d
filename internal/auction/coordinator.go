// Package auction runs the two-phase ping/post auction for a lead: collect
// bids from every eligible buyer, pick a winner, deliver, and drive the lead
// status machine to a terminal outcome.
package auction

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"leadexchange_backend/internal/auction/repository"
	buyersdomain "leadexchange_backend/internal/buyers/domain"
	coverageservice "leadexchange_backend/internal/coverage/service"
	"leadexchange_backend/internal/events"
	leadsdomain "leadexchange_backend/internal/leads/domain"
	leadsrepo "leadexchange_backend/internal/leads/repository"
	leadsservice "leadexchange_backend/internal/leads/service"
	"leadexchange_backend/internal/mapping"
	"leadexchange_backend/internal/normalize"
	"leadexchange_backend/platform/config"
	"leadexchange_backend/platform/logger"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"
)

// LeadService is the slice of the leads service the coordinator drives.
type LeadService interface {
	Get(ctx context.Context, id uuid.UUID) (leadsrepo.Lead, error)
	Transition(ctx context.Context, params leadsservice.TransitionParams) (leadsrepo.Lead, error)
}

// CoverageResolver yields the buyers eligible to bid on a lead cell.
type CoverageResolver interface {
	FindEligibleBuyers(ctx context.Context, serviceType, zipCode string) ([]coverageservice.Candidate, error)
}

// TransactionLog records every outbound buyer call.
type TransactionLog interface {
	Create(ctx context.Context, params repository.CreateParams) (repository.Transaction, error)
	GetLastPost(ctx context.Context, leadID uuid.UUID) (repository.Transaction, error)
}

// BuyerCaller performs one HTTP call to a buyer endpoint.
type BuyerCaller interface {
	Call(ctx context.Context, buyer buyersdomain.Buyer, payload *mapping.Payload, timeout time.Duration) (CallResult, error)
}

// Guard is the in-flight marker preventing duplicate concurrent runs.
type Guard interface {
	Acquire(ctx context.Context, leadID uuid.UUID) (bool, error)
	Release(ctx context.Context, leadID uuid.UUID) error
}

// Result classifies how an auction run ended.
type Result string

const (
	ResultSold           Result = "sold"
	ResultRejected       Result = "rejected"
	ResultDeliveryFailed Result = "delivery_failed"
	// ResultSkipped means the run did nothing: another run was in flight or
	// the lead was already terminal.
	ResultSkipped Result = "skipped"
)

// Outcome summarizes one auction run.
type Outcome struct {
	LeadID         uuid.UUID
	Result         Result
	Reason         string
	Candidates     int
	WinningBuyerID *uuid.UUID
	WinningBid     float64
}

// Coordinator orchestrates the full auction flow for one lead at a time.
type Coordinator struct {
	leads    LeadService
	coverage CoverageResolver
	txns     TransactionLog
	client   BuyerCaller
	guard    Guard
	bus      events.Bus
	cfg      config.AuctionConfig
	log      *logger.Logger
}

func NewCoordinator(
	leads LeadService,
	coverage CoverageResolver,
	txns TransactionLog,
	client BuyerCaller,
	guard Guard,
	bus events.Bus,
	cfg config.AuctionConfig,
	log *logger.Logger,
) *Coordinator {
	return &Coordinator{
		leads:    leads,
		coverage: coverage,
		txns:     txns,
		client:   client,
		guard:    guard,
		bus:      bus,
		cfg:      cfg,
		log:      log,
	}
}

// bid is one buyer's accepted offer, after bid range rules.
type bid struct {
	candidate coverageservice.Candidate
	amount    float64
	latency   time.Duration
	ok        bool
}

// Run executes one auction for the lead. The call is idempotent: re-running a
// lead whose delivery already concluded only settles the recorded outcome.
func (c *Coordinator) Run(ctx context.Context, leadID uuid.UUID) (Outcome, error) {
	acquired, err := c.guard.Acquire(ctx, leadID)
	if err != nil {
		return Outcome{}, fmt.Errorf("acquire run guard: %w", err)
	}
	if !acquired {
		return Outcome{LeadID: leadID, Result: ResultSkipped, Reason: "auction already in flight"}, nil
	}
	defer func() {
		if err := c.guard.Release(context.WithoutCancel(ctx), leadID); err != nil {
			c.log.Error("failed to release run guard", "lead_id", leadID, "error", err)
		}
	}()

	lead, err := c.leads.Get(ctx, leadID)
	if err != nil {
		return Outcome{}, err
	}

	log := c.log.WithLeadID(leadID.String())

	switch lead.Status {
	case leadsdomain.StatusPending:
		lead, err = c.leads.Transition(ctx, leadsservice.TransitionParams{
			LeadID:    leadID,
			NewStatus: leadsdomain.StatusProcessing,
			Reason:    "auction started",
			Source:    leadsdomain.SourceSystem,
		})
		if err != nil {
			return Outcome{}, err
		}
	case leadsdomain.StatusProcessing, leadsdomain.StatusAuctioned:
		// A previous run died mid-flight, possibly after the winner was
		// already marked. If delivery already happened its transaction tells
		// us the outcome; otherwise rerun from the top.
		if outcome, settled, err := c.resume(ctx, lead, log); err != nil {
			return Outcome{}, err
		} else if settled {
			return outcome, nil
		}
	default:
		return Outcome{
			LeadID: leadID,
			Result: ResultSkipped,
			Reason: fmt.Sprintf("lead status %s needs no auction", lead.Status),
		}, nil
	}

	candidates, err := c.coverage.FindEligibleBuyers(ctx, lead.ServiceType, lead.ZipCode)
	if err != nil {
		return Outcome{}, err
	}
	if len(candidates) == 0 {
		return c.reject(ctx, lead, "no coverage", 0)
	}

	bids := c.collectBids(ctx, lead, candidates)

	winnerIdx := selectWinner(bids)
	if winnerIdx < 0 {
		return c.reject(ctx, lead, "no acceptable bids", len(candidates))
	}
	winner := bids[winnerIdx]

	// A rerun of an already-AUCTIONED lead keeps its status; the graph has no
	// self-transitions and the delivery below records the fresh winner.
	if lead.Status != leadsdomain.StatusAuctioned {
		lead, err = c.leads.Transition(ctx, leadsservice.TransitionParams{
			LeadID:    leadID,
			NewStatus: leadsdomain.StatusAuctioned,
			Reason:    fmt.Sprintf("winner %s at %.2f", winner.candidate.Buyer.Name, winner.amount),
			Source:    leadsdomain.SourceSystem,
		})
		if err != nil {
			return Outcome{}, err
		}
	}

	delivered := c.deliver(ctx, lead, winner, log)

	buyerID := winner.candidate.Buyer.ID
	if delivered {
		disposition := leadsdomain.DispositionDelivered
		if _, err := c.leads.Transition(ctx, leadsservice.TransitionParams{
			LeadID:         leadID,
			NewStatus:      leadsdomain.StatusSold,
			NewDisposition: &disposition,
			Reason:         "delivered to winning buyer",
			Source:         leadsdomain.SourceSystem,
			WinningBuyerID: &buyerID,
			WinningBid:     &winner.amount,
		}); err != nil {
			return Outcome{}, err
		}
		return c.finish(ctx, Outcome{
			LeadID:         leadID,
			Result:         ResultSold,
			Candidates:     len(candidates),
			WinningBuyerID: &buyerID,
			WinningBid:     winner.amount,
		}), nil
	}

	if _, err := c.leads.Transition(ctx, leadsservice.TransitionParams{
		LeadID:    leadID,
		NewStatus: leadsdomain.StatusDeliveryFailed,
		Reason:    "delivery failed after retry",
		Source:    leadsdomain.SourceSystem,
	}); err != nil {
		return Outcome{}, err
	}
	return c.finish(ctx, Outcome{
		LeadID:         leadID,
		Result:         ResultDeliveryFailed,
		Reason:         "delivery failed after retry",
		Candidates:     len(candidates),
		WinningBuyerID: &buyerID,
		WinningBid:     winner.amount,
	}), nil
}

// resume settles a PROCESSING or AUCTIONED lead whose delivery already
// concluded. The returned bool reports whether the outcome was settled here;
// when false the caller reruns the auction from routing.
func (c *Coordinator) resume(ctx context.Context, lead leadsrepo.Lead, log *logger.Logger) (Outcome, bool, error) {
	lastPost, err := c.txns.GetLastPost(ctx, lead.ID)
	if errors.Is(err, repository.ErrNotFound) {
		return Outcome{}, false, nil
	}
	if err != nil {
		return Outcome{}, false, err
	}

	log.Info("resuming interrupted auction from delivery record",
		"buyer_id", lastPost.BuyerID, "normalized_status", lastPost.NormalizedStatus)

	// A lead interrupted after winner selection already carries AUCTIONED.
	if lead.Status == leadsdomain.StatusProcessing {
		if _, err := c.leads.Transition(ctx, leadsservice.TransitionParams{
			LeadID:    lead.ID,
			NewStatus: leadsdomain.StatusAuctioned,
			Reason:    "resumed after interrupted delivery",
			Source:    leadsdomain.SourceSystem,
		}); err != nil {
			return Outcome{}, false, err
		}
	}

	if lastPost.NormalizedStatus == string(normalize.StatusDelivered) {
		winningBid := 0.0
		if lastPost.Bid != nil {
			winningBid = *lastPost.Bid
		}
		buyerID := lastPost.BuyerID
		disposition := leadsdomain.DispositionDelivered
		if _, err := c.leads.Transition(ctx, leadsservice.TransitionParams{
			LeadID:         lead.ID,
			NewStatus:      leadsdomain.StatusSold,
			NewDisposition: &disposition,
			Reason:         "delivery confirmed by transaction log",
			Source:         leadsdomain.SourceSystem,
			WinningBuyerID: &buyerID,
			WinningBid:     &winningBid,
		}); err != nil {
			return Outcome{}, false, err
		}
		return c.finish(ctx, Outcome{
			LeadID:         lead.ID,
			Result:         ResultSold,
			Reason:         "resumed",
			WinningBuyerID: &buyerID,
			WinningBid:     winningBid,
		}), true, nil
	}

	if _, err := c.leads.Transition(ctx, leadsservice.TransitionParams{
		LeadID:    lead.ID,
		NewStatus: leadsdomain.StatusDeliveryFailed,
		Reason:    "delivery failure confirmed by transaction log",
		Source:    leadsdomain.SourceSystem,
	}); err != nil {
		return Outcome{}, false, err
	}
	return c.finish(ctx, Outcome{
		LeadID: lead.ID,
		Result: ResultDeliveryFailed,
		Reason: "resumed",
	}), true, nil
}

// collectBids pings every candidate concurrently and waits for all of them.
// A slow or failing buyer never aborts the others; its slot just stays empty.
func (c *Coordinator) collectBids(ctx context.Context, lead leadsrepo.Lead, candidates []coverageservice.Candidate) []bid {
	answers := renderContext(lead)

	ceiling := c.maxPingTimeout(candidates) + c.cfg.GetAuctionCeilingMargin()
	pingCtx, cancel := context.WithTimeout(ctx, ceiling)
	defer cancel()

	bids := make([]bid, len(candidates))
	g := new(errgroup.Group)
	if limit := c.cfg.GetMaxInFlightPings(); limit > 0 {
		g.SetLimit(limit)
	}
	for i, candidate := range candidates {
		g.Go(func() error {
			bids[i] = c.pingOne(pingCtx, lead, answers, candidate)
			return nil
		})
	}
	// The goroutines record their own failures and never return errors.
	_ = g.Wait()

	return bids
}

// pingOne renders, sends and records one PING. The returned bid has ok set
// only for an accepted response whose amount clears the minimum.
func (c *Coordinator) pingOne(ctx context.Context, lead leadsrepo.Lead, answers map[string]any, candidate coverageservice.Candidate) bid {
	out := bid{candidate: candidate}
	buyer := candidate.Buyer

	payload, transformErrs, err := mapping.Render(answers, &candidate.Config, buyersdomain.PhasePing)
	if err != nil {
		c.recordRenderFailure(ctx, lead, buyer.ID, repository.ActionPing, err)
		return out
	}
	for _, terr := range transformErrs {
		c.log.Warn("optional field dropped from ping payload",
			"lead_id", lead.ID, "buyer_id", buyer.ID, "field", terr.Field, "error", terr.Err)
	}

	timeout := buyer.PingTimeout
	if timeout <= 0 {
		timeout = c.cfg.GetDefaultPingTimeout()
	}

	res, callErr := c.client.Call(ctx, buyer, payload, timeout)
	requestJSON, _ := payload.MarshalJSON()

	if callErr != nil {
		normalized := string(normalize.StatusError)
		if errors.Is(callErr, context.DeadlineExceeded) {
			normalized = repository.StatusTimeout
		}
		msg := callErr.Error()
		c.recordTxn(ctx, lead, repository.CreateParams{
			LeadID:           lead.ID,
			BuyerID:          buyer.ID,
			Action:           repository.ActionPing,
			RequestPayload:   requestJSON,
			NormalizedStatus: normalized,
			Latency:          res.Latency,
			ErrorMessage:     &msg,
		})
		c.log.BuyerCall(string(repository.ActionPing), buyer.ID.String(), 0, normalized, res.Latency, callErr)
		return out
	}

	result := normalize.Parse(buyersdomain.PhasePing, res.StatusCode, res.Body, &candidate.Config.Response)

	var bidPtr *float64
	if result.Status == normalize.StatusAccepted {
		bidPtr = &result.Bid
	}
	c.recordTxn(ctx, lead, repository.CreateParams{
		LeadID:           lead.ID,
		BuyerID:          buyer.ID,
		Action:           repository.ActionPing,
		RequestPayload:   requestJSON,
		ResponseStatus:   &res.StatusCode,
		ResponseBody:     res.Body,
		NormalizedStatus: string(result.Status),
		RawStatus:        result.RawStatus,
		Bid:              bidPtr,
		Latency:          res.Latency,
	})
	c.log.BuyerCall(string(repository.ActionPing), buyer.ID.String(), res.StatusCode, string(result.Status), res.Latency, nil)

	if result.Status != normalize.StatusAccepted {
		return out
	}

	amount := result.Bid
	if amount < candidate.Bids.Min {
		c.log.Info("bid below buyer minimum, excluded",
			"lead_id", lead.ID, "buyer_id", buyer.ID, "bid", amount, "min", candidate.Bids.Min)
		return out
	}
	if candidate.Bids.Max > 0 && amount > candidate.Bids.Max {
		amount = candidate.Bids.Max
	}

	out.amount = amount
	out.latency = res.Latency
	out.ok = true
	return out
}

// selectWinner picks the highest bid; ties break on lower latency, then on
// candidate order, which FindEligibleBuyers already sorted by priority.
func selectWinner(bids []bid) int {
	winner := -1
	for i := range bids {
		if !bids[i].ok {
			continue
		}
		if winner < 0 {
			winner = i
			continue
		}
		if bids[i].amount > bids[winner].amount {
			winner = i
			continue
		}
		if bids[i].amount == bids[winner].amount && bids[i].latency < bids[winner].latency {
			winner = i
		}
	}
	return winner
}

// deliver POSTs the full lead to the winner, retrying once after a fixed
// backoff when the failure looks transient.
func (c *Coordinator) deliver(ctx context.Context, lead leadsrepo.Lead, winner bid, log *logger.Logger) bool {
	answers := renderContext(lead)
	buyer := winner.candidate.Buyer

	payload, transformErrs, err := mapping.Render(answers, &winner.candidate.Config, buyersdomain.PhasePost)
	if err != nil {
		c.recordRenderFailure(ctx, lead, buyer.ID, repository.ActionPost, err)
		return false
	}
	for _, terr := range transformErrs {
		log.Warn("optional field dropped from post payload",
			"buyer_id", buyer.ID, "field", terr.Field, "error", terr.Err)
	}

	delivered, retryable := c.postOnce(ctx, lead, winner, payload)
	if delivered || !retryable {
		return delivered
	}

	log.Info("retrying delivery", "buyer_id", buyer.ID, "backoff", c.cfg.GetPostRetryBackoff())
	select {
	case <-ctx.Done():
		return false
	case <-time.After(c.cfg.GetPostRetryBackoff()):
	}

	delivered, _ = c.postOnce(ctx, lead, winner, payload)
	return delivered
}

// postOnce sends one POST attempt and records its transaction. The second
// return reports whether a retry might help.
func (c *Coordinator) postOnce(ctx context.Context, lead leadsrepo.Lead, winner bid, payload *mapping.Payload) (delivered, retryable bool) {
	buyer := winner.candidate.Buyer
	timeout := buyer.PostTimeout
	if timeout <= 0 {
		timeout = c.cfg.GetDefaultPostTimeout()
	}

	res, callErr := c.client.Call(ctx, buyer, payload, timeout)
	requestJSON, _ := payload.MarshalJSON()

	if callErr != nil {
		normalized := string(normalize.StatusFailed)
		if errors.Is(callErr, context.DeadlineExceeded) {
			normalized = repository.StatusTimeout
		}
		msg := callErr.Error()
		c.recordTxn(ctx, lead, repository.CreateParams{
			LeadID:           lead.ID,
			BuyerID:          buyer.ID,
			Action:           repository.ActionPost,
			RequestPayload:   requestJSON,
			NormalizedStatus: normalized,
			Bid:              &winner.amount,
			Latency:          res.Latency,
			ErrorMessage:     &msg,
		})
		c.log.BuyerCall(string(repository.ActionPost), buyer.ID.String(), 0, normalized, res.Latency, callErr)
		return false, true
	}

	result := normalize.Parse(buyersdomain.PhasePost, res.StatusCode, res.Body, &winner.candidate.Config.Response)
	c.recordTxn(ctx, lead, repository.CreateParams{
		LeadID:           lead.ID,
		BuyerID:          buyer.ID,
		Action:           repository.ActionPost,
		RequestPayload:   requestJSON,
		ResponseStatus:   &res.StatusCode,
		ResponseBody:     res.Body,
		NormalizedStatus: string(result.Status),
		RawStatus:        result.RawStatus,
		Bid:              &winner.amount,
		Latency:          res.Latency,
	})
	c.log.BuyerCall(string(repository.ActionPost), buyer.ID.String(), res.StatusCode, string(result.Status), res.Latency, nil)

	return result.Status == normalize.StatusDelivered, result.ShouldRetry
}

func (c *Coordinator) reject(ctx context.Context, lead leadsrepo.Lead, reason string, candidates int) (Outcome, error) {
	if _, err := c.leads.Transition(ctx, leadsservice.TransitionParams{
		LeadID:    lead.ID,
		NewStatus: leadsdomain.StatusRejected,
		Reason:    reason,
		Source:    leadsdomain.SourceSystem,
	}); err != nil {
		return Outcome{}, err
	}
	return c.finish(ctx, Outcome{
		LeadID:     lead.ID,
		Result:     ResultRejected,
		Reason:     reason,
		Candidates: candidates,
	}), nil
}

// finish publishes the completion event and logs the outcome.
func (c *Coordinator) finish(ctx context.Context, outcome Outcome) Outcome {
	c.log.AuctionOutcome(outcome.LeadID.String(), string(outcome.Result), outcome.Reason, outcome.Candidates, outcome.WinningBid)
	if c.bus != nil {
		c.bus.Publish(ctx, events.AuctionCompleted{
			BaseEvent:  events.NewBaseEvent(),
			LeadID:     outcome.LeadID,
			Outcome:    string(outcome.Result),
			Reason:     outcome.Reason,
			Candidates: outcome.Candidates,
			WinningBid: outcome.WinningBid,
		})
	}
	return outcome
}

func (c *Coordinator) recordTxn(ctx context.Context, lead leadsrepo.Lead, params repository.CreateParams) {
	params.ComplianceFlags = complianceFlags(lead)
	if _, err := c.txns.Create(ctx, params); err != nil {
		c.log.DatabaseError("transactions.create", err)
	}
}

func (c *Coordinator) recordRenderFailure(ctx context.Context, lead leadsrepo.Lead, buyerID uuid.UUID, action repository.Action, err error) {
	msg := err.Error()
	c.recordTxn(ctx, lead, repository.CreateParams{
		LeadID:           lead.ID,
		BuyerID:          buyerID,
		Action:           action,
		NormalizedStatus: string(normalize.StatusInvalid),
		ErrorMessage:     &msg,
	})
	c.log.Warn("payload render failed, buyer excluded",
		"lead_id", lead.ID, "buyer_id", buyerID, "action", action, "error", err)
}

// complianceFlags lists which consent artifacts the lead carried when the
// call went out. Disputes hinge on what evidence existed at delivery time,
// so every transaction snapshots the artifact names.
func complianceFlags(lead leadsrepo.Lead) []string {
	if len(lead.Compliance) == 0 {
		return nil
	}
	flags := make([]string, 0, len(lead.Compliance))
	for name := range lead.Compliance {
		flags = append(flags, name)
	}
	sort.Strings(flags)
	return flags
}

func (c *Coordinator) maxPingTimeout(candidates []coverageservice.Candidate) time.Duration {
	max := c.cfg.GetDefaultPingTimeout()
	for _, candidate := range candidates {
		if candidate.Buyer.PingTimeout > max {
			max = candidate.Buyer.PingTimeout
		}
	}
	return max
}

// renderContext is the flat answer map the mapping engine reads from: the
// form answers plus the lead's structural fields under fixed keys.
func renderContext(lead leadsrepo.Lead) map[string]any {
	answers := make(map[string]any, len(lead.FormAnswers)+5)
	for k, v := range lead.FormAnswers {
		answers[k] = v
	}
	answers["lead_id"] = lead.ID.String()
	answers["service_type"] = lead.ServiceType
	answers["zip_code"] = lead.ZipCode
	answers["home_owner"] = lead.HomeOwner
	answers["timeframe"] = lead.Timeframe
	return answers
}
