package auction

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"reflect"
	"sync"
	"testing"
	"time"

	"leadexchange_backend/internal/auction/repository"
	buyersdomain "leadexchange_backend/internal/buyers/domain"
	coverageservice "leadexchange_backend/internal/coverage/service"
	leadsdomain "leadexchange_backend/internal/leads/domain"
	leadsrepo "leadexchange_backend/internal/leads/repository"
	leadsservice "leadexchange_backend/internal/leads/service"
	"leadexchange_backend/platform/logger"

	"github.com/google/uuid"
)

const (
	fmtUnexpectedResult = "result = %s, want %s"
	fmtUnexpectedStatus = "lead status = %s, want %s"
)

type testAuctionCfg struct{}

func (testAuctionCfg) GetDefaultPingTimeout() time.Duration   { return 150 * time.Millisecond }
func (testAuctionCfg) GetDefaultPostTimeout() time.Duration   { return 150 * time.Millisecond }
func (testAuctionCfg) GetPostRetryBackoff() time.Duration     { return 10 * time.Millisecond }
func (testAuctionCfg) GetAuctionCeilingMargin() time.Duration { return 200 * time.Millisecond }
func (testAuctionCfg) GetMaxInFlightPings() int               { return 4 }

type fakeLeads struct {
	mu          sync.Mutex
	lead        leadsrepo.Lead
	transitions []leadsservice.TransitionParams
}

func (f *fakeLeads) Get(ctx context.Context, id uuid.UUID) (leadsrepo.Lead, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.lead, nil
}

func (f *fakeLeads) Transition(ctx context.Context, params leadsservice.TransitionParams) (leadsrepo.Lead, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.transitions = append(f.transitions, params)
	f.lead.Status = params.NewStatus
	if params.NewDisposition != nil {
		f.lead.Disposition = *params.NewDisposition
	}
	if params.WinningBuyerID != nil {
		f.lead.WinningBuyerID = params.WinningBuyerID
	}
	if params.WinningBid != nil {
		f.lead.WinningBid = params.WinningBid
	}
	return f.lead, nil
}

func (f *fakeLeads) statusTrail() []leadsdomain.Status {
	f.mu.Lock()
	defer f.mu.Unlock()
	trail := make([]leadsdomain.Status, len(f.transitions))
	for i, tr := range f.transitions {
		trail[i] = tr.NewStatus
	}
	return trail
}

type fakeCoverage struct {
	candidates []coverageservice.Candidate
}

func (f *fakeCoverage) FindEligibleBuyers(ctx context.Context, serviceType, zipCode string) ([]coverageservice.Candidate, error) {
	return f.candidates, nil
}

type fakeTxns struct {
	mu       sync.Mutex
	created  []repository.CreateParams
	lastPost *repository.Transaction
}

func (f *fakeTxns) Create(ctx context.Context, params repository.CreateParams) (repository.Transaction, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.created = append(f.created, params)
	return repository.Transaction{ID: uuid.New(), LeadID: params.LeadID, BuyerID: params.BuyerID}, nil
}

func (f *fakeTxns) GetLastPost(ctx context.Context, leadID uuid.UUID) (repository.Transaction, error) {
	if f.lastPost == nil {
		return repository.Transaction{}, repository.ErrNotFound
	}
	return *f.lastPost, nil
}

func (f *fakeTxns) byAction(action repository.Action) []repository.CreateParams {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []repository.CreateParams
	for _, p := range f.created {
		if p.Action == action {
			out = append(out, p)
		}
	}
	return out
}

type fakeGuard struct {
	held bool
}

func (f *fakeGuard) Acquire(ctx context.Context, leadID uuid.UUID) (bool, error) {
	return !f.held, nil
}

func (f *fakeGuard) Release(ctx context.Context, leadID uuid.UUID) error { return nil }

func testLead(status leadsdomain.Status) leadsrepo.Lead {
	return leadsrepo.Lead{
		ID:          uuid.New(),
		ServiceType: "roofing",
		ZipCode:     "97210",
		FormAnswers: map[string]any{"first_name": "Dana"},
		Status:      status,
		Disposition: leadsdomain.DispositionNew,
	}
}

// buyerServer responds per protocol phase, keyed on the "phase" static field
// the test configs inject into every payload.
func buyerServer(t *testing.T, ping, post http.HandlerFunc) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var body map[string]any
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			t.Errorf("malformed payload: %v", err)
			w.WriteHeader(http.StatusBadRequest)
			return
		}
		if body["phase"] == "post" {
			post(w, r)
			return
		}
		ping(w, r)
	}))
}

func respondJSON(status int, body string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(status)
		_, _ = w.Write([]byte(body))
	}
}

func testCandidate(name, endpoint string, priority int, bids buyersdomain.BidRange) coverageservice.Candidate {
	return coverageservice.Candidate{
		Buyer: buyersdomain.Buyer{
			ID:          uuid.New(),
			Name:        name,
			EndpointURL: endpoint,
			Active:      true,
		},
		Config: buyersdomain.Config{
			ServiceType: "roofing",
			Mappings: []buyersdomain.FieldMapping{
				{Source: "zip_code", Target: "zip", IncludeInPing: true, IncludeInPost: true},
				{Source: "first_name", Target: "first_name", IncludeInPost: true},
			},
			StaticPing: []buyersdomain.StaticField{{Target: "phase", Value: "ping"}},
			StaticPost: []buyersdomain.StaticField{{Target: "phase", Value: "post"}},
			Response: buyersdomain.ResponseMapping{
				StatusPath: "status",
				Statuses: buyersdomain.StatusVocabulary{
					Accepted:  []string{"accepted"},
					Rejected:  []string{"rejected"},
					Delivered: []string{"delivered"},
					Failed:    []string{"failed"},
				},
				BidPaths: []string{"bid"},
			},
			Active: true,
		},
		Priority: priority,
		Bids:     bids,
	}
}

func newTestCoordinator(leads *fakeLeads, cov *fakeCoverage, txns *fakeTxns, guard Guard) *Coordinator {
	return NewCoordinator(
		leads, cov, txns, NewClient(), guard,
		nil, testAuctionCfg{}, logger.New("development"),
	)
}

func TestRunHigherBidBeatsPriority(t *testing.T) {
	low := buyerServer(t,
		respondJSON(200, `{"status":"accepted","bid":40}`),
		respondJSON(200, `{"status":"delivered"}`),
	)
	defer low.Close()
	high := buyerServer(t,
		respondJSON(200, `{"status":"accepted","bid":60}`),
		respondJSON(200, `{"status":"delivered"}`),
	)
	defer high.Close()

	// The lower bidder carries the higher routing priority.
	cov := &fakeCoverage{candidates: []coverageservice.Candidate{
		testCandidate("low-bid", low.URL, 10, buyersdomain.BidRange{}),
		testCandidate("high-bid", high.URL, 1, buyersdomain.BidRange{}),
	}}
	leads := &fakeLeads{lead: testLead(leadsdomain.StatusPending)}
	txns := &fakeTxns{}

	outcome, err := newTestCoordinator(leads, cov, txns, &fakeGuard{}).Run(context.Background(), leads.lead.ID)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if outcome.Result != ResultSold {
		t.Fatalf(fmtUnexpectedResult, outcome.Result, ResultSold)
	}
	if outcome.WinningBid != 60 {
		t.Fatalf("winning bid = %v", outcome.WinningBid)
	}
	wantBuyer := cov.candidates[1].Buyer.ID
	if outcome.WinningBuyerID == nil || *outcome.WinningBuyerID != wantBuyer {
		t.Fatalf("winning buyer = %v, want %s", outcome.WinningBuyerID, wantBuyer)
	}

	trail := leads.statusTrail()
	want := []leadsdomain.Status{
		leadsdomain.StatusProcessing,
		leadsdomain.StatusAuctioned,
		leadsdomain.StatusSold,
	}
	if len(trail) != len(want) {
		t.Fatalf("transitions = %v, want %v", trail, want)
	}
	for i := range want {
		if trail[i] != want[i] {
			t.Fatalf("transitions = %v, want %v", trail, want)
		}
	}
	if leads.lead.Disposition != leadsdomain.DispositionDelivered {
		t.Fatalf("disposition = %s", leads.lead.Disposition)
	}

	if pings := txns.byAction(repository.ActionPing); len(pings) != 2 {
		t.Fatalf("ping transactions = %d", len(pings))
	}
	posts := txns.byAction(repository.ActionPost)
	if len(posts) != 1 {
		t.Fatalf("post transactions = %d", len(posts))
	}
	if posts[0].BuyerID != wantBuyer {
		t.Fatal("delivery went to the wrong buyer")
	}
}

func TestRunNoCoverage(t *testing.T) {
	leads := &fakeLeads{lead: testLead(leadsdomain.StatusPending)}

	outcome, err := newTestCoordinator(leads, &fakeCoverage{}, &fakeTxns{}, &fakeGuard{}).Run(context.Background(), leads.lead.ID)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if outcome.Result != ResultRejected {
		t.Fatalf(fmtUnexpectedResult, outcome.Result, ResultRejected)
	}
	if outcome.Reason != "no coverage" {
		t.Fatalf("reason = %q", outcome.Reason)
	}
	if leads.lead.Status != leadsdomain.StatusRejected {
		t.Fatalf(fmtUnexpectedStatus, leads.lead.Status, leadsdomain.StatusRejected)
	}
}

func TestRunTimeoutRecordsTransactionAndRejects(t *testing.T) {
	slow := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(400 * time.Millisecond)
	}))
	defer slow.Close()

	candidate := testCandidate("sleepy", slow.URL, 1, buyersdomain.BidRange{})
	candidate.Buyer.PingTimeout = 40 * time.Millisecond

	leads := &fakeLeads{lead: testLead(leadsdomain.StatusPending)}
	txns := &fakeTxns{}

	outcome, err := newTestCoordinator(
		leads, &fakeCoverage{candidates: []coverageservice.Candidate{candidate}}, txns, &fakeGuard{},
	).Run(context.Background(), leads.lead.ID)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if outcome.Result != ResultRejected {
		t.Fatalf(fmtUnexpectedResult, outcome.Result, ResultRejected)
	}
	if outcome.Reason != "no acceptable bids" {
		t.Fatalf("reason = %q", outcome.Reason)
	}

	pings := txns.byAction(repository.ActionPing)
	if len(pings) != 1 {
		t.Fatalf("ping transactions = %d", len(pings))
	}
	if pings[0].NormalizedStatus != repository.StatusTimeout {
		t.Fatalf("normalized status = %q", pings[0].NormalizedStatus)
	}
	if pings[0].ErrorMessage == nil {
		t.Fatal("timeout transaction should carry an error message")
	}
}

func TestRunDeliveryRetrySucceeds(t *testing.T) {
	var mu sync.Mutex
	postCalls := 0
	srv := buyerServer(t,
		respondJSON(200, `{"status":"accepted","bid":25}`),
		func(w http.ResponseWriter, r *http.Request) {
			mu.Lock()
			postCalls++
			first := postCalls == 1
			mu.Unlock()
			if first {
				respondJSON(503, `{"status":"failed"}`)(w, r)
				return
			}
			respondJSON(200, `{"status":"delivered"}`)(w, r)
		},
	)
	defer srv.Close()

	leads := &fakeLeads{lead: testLead(leadsdomain.StatusPending)}
	txns := &fakeTxns{}
	cov := &fakeCoverage{candidates: []coverageservice.Candidate{
		testCandidate("flaky", srv.URL, 1, buyersdomain.BidRange{}),
	}}

	outcome, err := newTestCoordinator(leads, cov, txns, &fakeGuard{}).Run(context.Background(), leads.lead.ID)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if outcome.Result != ResultSold {
		t.Fatalf(fmtUnexpectedResult, outcome.Result, ResultSold)
	}
	if posts := txns.byAction(repository.ActionPost); len(posts) != 2 {
		t.Fatalf("post transactions = %d, want 2", len(posts))
	}
}

func TestRunDeliveryFailsAfterRetry(t *testing.T) {
	srv := buyerServer(t,
		respondJSON(200, `{"status":"accepted","bid":25}`),
		respondJSON(503, `{"status":"failed"}`),
	)
	defer srv.Close()

	leads := &fakeLeads{lead: testLead(leadsdomain.StatusPending)}
	txns := &fakeTxns{}
	cov := &fakeCoverage{candidates: []coverageservice.Candidate{
		testCandidate("down", srv.URL, 1, buyersdomain.BidRange{}),
	}}

	outcome, err := newTestCoordinator(leads, cov, txns, &fakeGuard{}).Run(context.Background(), leads.lead.ID)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if outcome.Result != ResultDeliveryFailed {
		t.Fatalf(fmtUnexpectedResult, outcome.Result, ResultDeliveryFailed)
	}
	if leads.lead.Status != leadsdomain.StatusDeliveryFailed {
		t.Fatalf(fmtUnexpectedStatus, leads.lead.Status, leadsdomain.StatusDeliveryFailed)
	}
	// One attempt plus exactly one retry.
	if posts := txns.byAction(repository.ActionPost); len(posts) != 2 {
		t.Fatalf("post transactions = %d, want 2", len(posts))
	}
}

func TestRunCleanRejectIsNotRetried(t *testing.T) {
	srv := buyerServer(t,
		respondJSON(200, `{"status":"accepted","bid":25}`),
		respondJSON(200, `{"status":"failed"}`),
	)
	defer srv.Close()

	leads := &fakeLeads{lead: testLead(leadsdomain.StatusPending)}
	txns := &fakeTxns{}
	cov := &fakeCoverage{candidates: []coverageservice.Candidate{
		testCandidate("declines-post", srv.URL, 1, buyersdomain.BidRange{}),
	}}

	outcome, err := newTestCoordinator(leads, cov, txns, &fakeGuard{}).Run(context.Background(), leads.lead.ID)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if outcome.Result != ResultDeliveryFailed {
		t.Fatalf(fmtUnexpectedResult, outcome.Result, ResultDeliveryFailed)
	}
	if posts := txns.byAction(repository.ActionPost); len(posts) != 1 {
		t.Fatalf("post transactions = %d, want 1", len(posts))
	}
}

func TestRunBidRangeRules(t *testing.T) {
	belowMin := buyerServer(t,
		respondJSON(200, `{"status":"accepted","bid":10}`),
		respondJSON(200, `{"status":"delivered"}`),
	)
	defer belowMin.Close()
	aboveMax := buyerServer(t,
		respondJSON(200, `{"status":"accepted","bid":100}`),
		respondJSON(200, `{"status":"delivered"}`),
	)
	defer aboveMax.Close()

	cov := &fakeCoverage{candidates: []coverageservice.Candidate{
		testCandidate("below-min", belowMin.URL, 1, buyersdomain.BidRange{Min: 20}),
		testCandidate("above-max", aboveMax.URL, 2, buyersdomain.BidRange{Max: 50}),
	}}
	leads := &fakeLeads{lead: testLead(leadsdomain.StatusPending)}

	outcome, err := newTestCoordinator(leads, cov, &fakeTxns{}, &fakeGuard{}).Run(context.Background(), leads.lead.ID)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if outcome.Result != ResultSold {
		t.Fatalf(fmtUnexpectedResult, outcome.Result, ResultSold)
	}
	// The sub-minimum bid is excluded; the over-maximum bid is clamped.
	if outcome.WinningBid != 50 {
		t.Fatalf("winning bid = %v, want 50", outcome.WinningBid)
	}
	wantBuyer := cov.candidates[1].Buyer.ID
	if outcome.WinningBuyerID == nil || *outcome.WinningBuyerID != wantBuyer {
		t.Fatal("wrong winning buyer")
	}
}

func TestRunSkippedWhenGuardHeld(t *testing.T) {
	leads := &fakeLeads{lead: testLead(leadsdomain.StatusPending)}

	outcome, err := newTestCoordinator(leads, &fakeCoverage{}, &fakeTxns{}, &fakeGuard{held: true}).Run(context.Background(), leads.lead.ID)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if outcome.Result != ResultSkipped {
		t.Fatalf(fmtUnexpectedResult, outcome.Result, ResultSkipped)
	}
	if len(leads.transitions) != 0 {
		t.Fatal("skipped run must not transition the lead")
	}
}

func TestRunSkippedWhenAlreadySettled(t *testing.T) {
	leads := &fakeLeads{lead: testLead(leadsdomain.StatusSold)}

	outcome, err := newTestCoordinator(leads, &fakeCoverage{}, &fakeTxns{}, &fakeGuard{}).Run(context.Background(), leads.lead.ID)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if outcome.Result != ResultSkipped {
		t.Fatalf(fmtUnexpectedResult, outcome.Result, ResultSkipped)
	}
}

func TestRunResumesConfirmedDelivery(t *testing.T) {
	lead := testLead(leadsdomain.StatusProcessing)
	buyerID := uuid.New()
	bid := 33.0
	leads := &fakeLeads{lead: lead}
	txns := &fakeTxns{lastPost: &repository.Transaction{
		ID:               uuid.New(),
		LeadID:           lead.ID,
		BuyerID:          buyerID,
		Action:           repository.ActionPost,
		NormalizedStatus: "delivered",
		Bid:              &bid,
	}}

	outcome, err := newTestCoordinator(leads, &fakeCoverage{}, txns, &fakeGuard{}).Run(context.Background(), lead.ID)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if outcome.Result != ResultSold {
		t.Fatalf(fmtUnexpectedResult, outcome.Result, ResultSold)
	}
	if outcome.Reason != "resumed" {
		t.Fatalf("reason = %q", outcome.Reason)
	}
	if outcome.WinningBuyerID == nil || *outcome.WinningBuyerID != buyerID {
		t.Fatal("winner not restored from the transaction log")
	}
	if outcome.WinningBid != bid {
		t.Fatalf("winning bid = %v", outcome.WinningBid)
	}
	if leads.lead.Status != leadsdomain.StatusSold {
		t.Fatalf(fmtUnexpectedStatus, leads.lead.Status, leadsdomain.StatusSold)
	}
}

func TestRunResumesConfirmedFailure(t *testing.T) {
	lead := testLead(leadsdomain.StatusProcessing)
	leads := &fakeLeads{lead: lead}
	txns := &fakeTxns{lastPost: &repository.Transaction{
		ID:               uuid.New(),
		LeadID:           lead.ID,
		BuyerID:          uuid.New(),
		Action:           repository.ActionPost,
		NormalizedStatus: "failed",
	}}

	outcome, err := newTestCoordinator(leads, &fakeCoverage{}, txns, &fakeGuard{}).Run(context.Background(), lead.ID)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if outcome.Result != ResultDeliveryFailed {
		t.Fatalf(fmtUnexpectedResult, outcome.Result, ResultDeliveryFailed)
	}
	if leads.lead.Status != leadsdomain.StatusDeliveryFailed {
		t.Fatalf(fmtUnexpectedStatus, leads.lead.Status, leadsdomain.StatusDeliveryFailed)
	}
}

func TestRunTransactionsCarryComplianceFlags(t *testing.T) {
	srv := buyerServer(t,
		respondJSON(200, `{"status":"accepted","bid":30}`),
		respondJSON(200, `{"status":"delivered"}`),
	)
	defer srv.Close()

	lead := testLead(leadsdomain.StatusPending)
	lead.Compliance = map[string]any{
		"trusted_form_cert": "https://cert.example.com/abc",
		"tcpa_text":         "I agree to be contacted",
	}
	leads := &fakeLeads{lead: lead}
	txns := &fakeTxns{}
	cov := &fakeCoverage{candidates: []coverageservice.Candidate{
		testCandidate("compliant", srv.URL, 1, buyersdomain.BidRange{}),
	}}

	outcome, err := newTestCoordinator(leads, cov, txns, &fakeGuard{}).Run(context.Background(), lead.ID)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if outcome.Result != ResultSold {
		t.Fatalf(fmtUnexpectedResult, outcome.Result, ResultSold)
	}

	want := []string{"tcpa_text", "trusted_form_cert"}
	if len(txns.created) != 2 {
		t.Fatalf("transactions = %d, want 2", len(txns.created))
	}
	for _, txn := range txns.created {
		if !reflect.DeepEqual(txn.ComplianceFlags, want) {
			t.Fatalf("%s compliance flags = %v, want %v", txn.Action, txn.ComplianceFlags, want)
		}
	}
}

func TestRunRerunsStrandedAuctionedLead(t *testing.T) {
	// Interrupted after winner selection but before any POST: the transaction
	// log has no delivery record, so the auction reruns from routing.
	srv := buyerServer(t,
		respondJSON(200, `{"status":"accepted","bid":45}`),
		respondJSON(200, `{"status":"delivered"}`),
	)
	defer srv.Close()

	leads := &fakeLeads{lead: testLead(leadsdomain.StatusAuctioned)}
	txns := &fakeTxns{}
	cov := &fakeCoverage{candidates: []coverageservice.Candidate{
		testCandidate("still-interested", srv.URL, 1, buyersdomain.BidRange{}),
	}}

	outcome, err := newTestCoordinator(leads, cov, txns, &fakeGuard{}).Run(context.Background(), leads.lead.ID)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if outcome.Result != ResultSold {
		t.Fatalf(fmtUnexpectedResult, outcome.Result, ResultSold)
	}
	if leads.lead.Status != leadsdomain.StatusSold {
		t.Fatalf(fmtUnexpectedStatus, leads.lead.Status, leadsdomain.StatusSold)
	}
	// The lead already carries AUCTIONED; the only transition is the sale.
	trail := leads.statusTrail()
	if len(trail) != 1 || trail[0] != leadsdomain.StatusSold {
		t.Fatalf("transitions = %v, want [SOLD]", trail)
	}
	if posts := txns.byAction(repository.ActionPost); len(posts) != 1 {
		t.Fatalf("post transactions = %d, want 1", len(posts))
	}
}

func TestRunResumesAuctionedConfirmedDelivery(t *testing.T) {
	// Interrupted after the POST went out: the logged delivery settles the
	// lead without contacting any buyer again.
	lead := testLead(leadsdomain.StatusAuctioned)
	buyerID := uuid.New()
	bid := 52.0
	leads := &fakeLeads{lead: lead}
	txns := &fakeTxns{lastPost: &repository.Transaction{
		ID:               uuid.New(),
		LeadID:           lead.ID,
		BuyerID:          buyerID,
		Action:           repository.ActionPost,
		NormalizedStatus: "delivered",
		Bid:              &bid,
	}}

	outcome, err := newTestCoordinator(leads, &fakeCoverage{}, txns, &fakeGuard{}).Run(context.Background(), lead.ID)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if outcome.Result != ResultSold {
		t.Fatalf(fmtUnexpectedResult, outcome.Result, ResultSold)
	}
	if outcome.WinningBuyerID == nil || *outcome.WinningBuyerID != buyerID {
		t.Fatal("winner not restored from the transaction log")
	}
	trail := leads.statusTrail()
	if len(trail) != 1 || trail[0] != leadsdomain.StatusSold {
		t.Fatalf("transitions = %v, want [SOLD]", trail)
	}
	if len(txns.created) != 0 {
		t.Fatal("settling a logged delivery must not call any buyer")
	}
}

func TestSelectWinner(t *testing.T) {
	mk := func(ok bool, amount float64, latency time.Duration) bid {
		return bid{ok: ok, amount: amount, latency: latency}
	}

	cases := []struct {
		name string
		bids []bid
		want int
	}{
		{name: "no bids", bids: nil, want: -1},
		{name: "all declined", bids: []bid{mk(false, 0, 0), mk(false, 0, 0)}, want: -1},
		{name: "highest amount wins", bids: []bid{mk(true, 40, time.Millisecond), mk(true, 60, time.Second)}, want: 1},
		{
			name: "tie breaks on latency",
			bids: []bid{mk(true, 50, 200*time.Millisecond), mk(true, 50, 20*time.Millisecond)},
			want: 1,
		},
		{
			name: "full tie keeps candidate order",
			bids: []bid{mk(true, 50, time.Millisecond), mk(true, 50, time.Millisecond)},
			want: 0,
		},
		{name: "declined slots skipped", bids: []bid{mk(false, 99, 0), mk(true, 10, 0)}, want: 1},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := selectWinner(tc.bids); got != tc.want {
				t.Fatalf("selectWinner = %d, want %d", got, tc.want)
			}
		})
	}
}
