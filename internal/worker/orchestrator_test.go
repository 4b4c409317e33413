package worker

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/leePettigrew/it-triage-demo/internal/classifier"
	"github.com/leePettigrew/it-triage-demo/internal/corpus"
	"github.com/leePettigrew/it-triage-demo/internal/models"
)

// fakeTicketRepo is an in-memory TicketRepository.
type fakeTicketRepo struct {
	mu      sync.Mutex
	tickets map[int64]*models.Ticket
}

func newFakeTicketRepo(tickets ...*models.Ticket) *fakeTicketRepo {
	repo := &fakeTicketRepo{tickets: make(map[int64]*models.Ticket)}
	for _, t := range tickets {
		repo.tickets[t.ID] = t
	}
	return repo
}

func (r *fakeTicketRepo) Create(ticket *models.Ticket) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.tickets[ticket.ID] = ticket
	return nil
}

func (r *fakeTicketRepo) GetByID(id int64) (*models.Ticket, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	t, ok := r.tickets[id]
	if !ok {
		return nil, nil
	}
	copied := *t
	return &copied, nil
}

func (r *fakeTicketRepo) GetAll() ([]*models.Ticket, error) { return nil, nil }

func (r *fakeTicketRepo) UpdateRouting(id int64, team models.Team, confidence float64, priority models.Priority, level models.SupportLevel, status models.TicketStatus) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	t, ok := r.tickets[id]
	if !ok {
		return nil
	}
	t.AssignedTo = team
	t.Confidence = confidence
	t.Priority = priority
	t.Level = level
	t.Status = status
	return nil
}

func (r *fakeTicketRepo) Patch(int64, models.TicketPatch) (*models.Ticket, error) { return nil, nil }
func (r *fakeTicketRepo) Delete(int64) error                                      { return nil }

// fakeLoader returns a fixed snapshot or error.
type fakeLoader struct {
	snapshot *corpus.Snapshot
	err      error
}

func (f *fakeLoader) Load(context.Context) (*corpus.Snapshot, error) {
	return f.snapshot, f.err
}

// fixedEmbedder returns the same vector for any single-text batch.
type fixedEmbedder struct {
	vector []float64
	err    error
}

func (f *fixedEmbedder) EmbedBatch(_ context.Context, texts []string) ([][]float64, error) {
	if f.err != nil {
		return nil, f.err
	}
	out := make([][]float64, len(texts))
	for i := range texts {
		out[i] = f.vector
	}
	return out, nil
}

// recordingPublisher captures published tickets.
type recordingPublisher struct {
	mu     sync.Mutex
	events []models.Ticket
}

func (p *recordingPublisher) PublishTicketRouted(ticket *models.Ticket) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, *ticket)
}

func (p *recordingPublisher) count() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.events)
}

// recordingAlerter captures operator failure reports.
type recordingAlerter struct {
	failed []int64
}

func (a *recordingAlerter) RoutingFailed(ticketID int64, _ error) {
	a.failed = append(a.failed, ticketID)
}

// scriptedCompleter answers advisor and estimator prompts differently.
type scriptedCompleter struct {
	advisorReply   string
	estimatorReply string
	err            error
}

func (s *scriptedCompleter) Complete(_ context.Context, systemPrompt, _ string, _ int64) (string, error) {
	if s.err != nil {
		return "", s.err
	}
	if strings.Contains(systemPrompt, "route") {
		return s.advisorReply, nil
	}
	return s.estimatorReply, nil
}

func networkSnapshot() *corpus.Snapshot {
	return &corpus.Snapshot{
		Teams: []models.Team{
			models.TeamNetwork, models.TeamNetwork, models.TeamNetwork,
			models.TeamHardware, models.TeamHR,
		},
		Vectors: [][]float64{
			{1, 0}, {0.9, 0.1}, {0.8, 0.2}, {0, 1}, {-1, 0},
		},
		Mean: []float64{0, 0},
	}
}

func testTimeouts() Timeouts {
	return Timeouts{
		Corpus:     time.Second,
		Embedding:  time.Second,
		Completion: time.Second,
	}
}

func newTestOrchestrator(repo *fakeTicketRepo, loader *fakeLoader, embedder *fixedEmbedder, completer classifier.Completer, publisher *recordingPublisher, alerter *recordingAlerter) *Orchestrator {
	logger := zap.NewNop()
	var a Alerter
	if alerter != nil {
		a = alerter
	}
	return NewOrchestrator(
		repo, loader, embedder,
		classifier.NewAdvisor(completer, 5),
		classifier.NewEstimator(completer, logger),
		publisher, a, 5, testTimeouts(), logger,
	)
}

func pendingTicket(id int64) *models.Ticket {
	return &models.Ticket{
		ID:          id,
		Title:       "VPN keeps disconnecting every 10 minutes",
		Description: "It drops whenever I join a call from home.",
		Status:      models.StatusPending,
		CreatedAt:   time.Now(),
	}
}

func TestRouteSuccess(t *testing.T) {
	repo := newFakeTicketRepo(pendingTicket(1))
	publisher := &recordingPublisher{}
	completer := &scriptedCompleter{
		advisorReply:   `{"team": "Network Team"}`,
		estimatorReply: `{"priority": "High", "level": "Tier 2"}`,
	}
	o := newTestOrchestrator(repo, &fakeLoader{snapshot: networkSnapshot()}, &fixedEmbedder{vector: []float64{1, 0}}, completer, publisher, nil)

	if err := o.Route(context.Background(), 1); err != nil {
		t.Fatalf("Route failed: %v", err)
	}

	ticket, _ := repo.GetByID(1)
	if ticket.Status != models.StatusRouted {
		t.Errorf("status = %q, want routed", ticket.Status)
	}
	if ticket.AssignedTo != models.TeamNetwork {
		t.Errorf("assigned_to = %q, want Network Team", ticket.AssignedTo)
	}
	if ticket.Confidence != 0.6 {
		t.Errorf("confidence = %f, want 0.6 (3 of 5 network votes)", ticket.Confidence)
	}
	if ticket.Priority != models.PriorityHigh || ticket.Level != models.LevelTier2 {
		t.Errorf("estimation = (%q, %q), want (High, Tier 2)", ticket.Priority, ticket.Level)
	}
	if publisher.count() != 1 {
		t.Errorf("expected exactly 1 ticket_routed event, got %d", publisher.count())
	}
}

func TestRouteIsDeterministicAcrossRuns(t *testing.T) {
	repo := newFakeTicketRepo(pendingTicket(1))
	publisher := &recordingPublisher{}
	completer := &scriptedCompleter{
		advisorReply:   `{"team": "Network Team"}`,
		estimatorReply: `{"priority": "High", "level": "Tier 2"}`,
	}
	o := newTestOrchestrator(repo, &fakeLoader{snapshot: networkSnapshot()}, &fixedEmbedder{vector: []float64{1, 0}}, completer, publisher, nil)

	if err := o.Route(context.Background(), 1); err != nil {
		t.Fatalf("first Route failed: %v", err)
	}
	first, _ := repo.GetByID(1)

	if err := o.Route(context.Background(), 1); err != nil {
		t.Fatalf("second Route failed: %v", err)
	}
	second, _ := repo.GetByID(1)

	if first.AssignedTo != second.AssignedTo || first.Confidence != second.Confidence {
		t.Errorf("reruns disagree: (%q, %f) vs (%q, %f)",
			first.AssignedTo, first.Confidence, second.AssignedTo, second.Confidence)
	}
}

func TestRouteCorpusFailureLeavesTicketUntouched(t *testing.T) {
	repo := newFakeTicketRepo(pendingTicket(1))
	publisher := &recordingPublisher{}
	alerter := &recordingAlerter{}
	loader := &fakeLoader{err: fmt.Errorf("%w: embedding service outage", corpus.ErrUnavailable)}
	o := newTestOrchestrator(repo, loader, &fixedEmbedder{vector: []float64{1, 0}}, &scriptedCompleter{}, publisher, alerter)

	err := o.Route(context.Background(), 1)
	if !errors.Is(err, corpus.ErrUnavailable) {
		t.Fatalf("expected ErrUnavailable, got %v", err)
	}

	ticket, _ := repo.GetByID(1)
	if ticket.Status != models.StatusPending {
		t.Errorf("status = %q, want pending (no partial write)", ticket.Status)
	}
	if ticket.AssignedTo != "" {
		t.Errorf("assigned_to = %q, want unset", ticket.AssignedTo)
	}
	if publisher.count() != 0 {
		t.Errorf("no event must be published on corpus failure, got %d", publisher.count())
	}
	if len(alerter.failed) != 1 || alerter.failed[0] != 1 {
		t.Errorf("expected operator alert for ticket 1, got %v", alerter.failed)
	}
}

func TestRouteQueryEmbeddingFailureIsUnavailable(t *testing.T) {
	repo := newFakeTicketRepo(pendingTicket(1))
	publisher := &recordingPublisher{}
	o := newTestOrchestrator(repo, &fakeLoader{snapshot: networkSnapshot()},
		&fixedEmbedder{err: fmt.Errorf("timeout")}, &scriptedCompleter{}, publisher, nil)

	err := o.Route(context.Background(), 1)
	if !errors.Is(err, corpus.ErrUnavailable) {
		t.Fatalf("expected ErrUnavailable, got %v", err)
	}
	ticket, _ := repo.GetByID(1)
	if ticket.Status != models.StatusPending {
		t.Errorf("status = %q, want pending", ticket.Status)
	}
}

func TestRouteMissingTicketIsNoOp(t *testing.T) {
	repo := newFakeTicketRepo()
	publisher := &recordingPublisher{}
	o := newTestOrchestrator(repo, &fakeLoader{snapshot: networkSnapshot()}, &fixedEmbedder{vector: []float64{1, 0}}, &scriptedCompleter{}, publisher, nil)

	if err := o.Route(context.Background(), 42); err != nil {
		t.Fatalf("missing ticket must be a no-op, got %v", err)
	}
	if publisher.count() != 0 {
		t.Errorf("no event for a missing ticket, got %d", publisher.count())
	}
}

func TestRouteAdvisorFailureFallsBackToManualReview(t *testing.T) {
	repo := newFakeTicketRepo(pendingTicket(1))
	publisher := &recordingPublisher{}
	completer := &scriptedCompleter{
		advisorReply:   `{"team": "Department of Mysteries"}`,
		estimatorReply: `{"priority": "Low", "level": "Tier 1"}`,
	}
	o := newTestOrchestrator(repo, &fakeLoader{snapshot: networkSnapshot()}, &fixedEmbedder{vector: []float64{1, 0}}, completer, publisher, nil)

	if err := o.Route(context.Background(), 1); err != nil {
		t.Fatalf("Route must complete despite advisor failure: %v", err)
	}

	ticket, _ := repo.GetByID(1)
	if ticket.AssignedTo != models.TeamManualReview {
		t.Errorf("assigned_to = %q, want Manual Review", ticket.AssignedTo)
	}
	if ticket.Confidence != 0.0 {
		t.Errorf("confidence = %f, want 0.0", ticket.Confidence)
	}
	if ticket.Status != models.StatusRouted {
		t.Errorf("status = %q, want routed (attempt still succeeds)", ticket.Status)
	}
	if publisher.count() != 1 {
		t.Errorf("fallback routing still publishes, got %d events", publisher.count())
	}
}

func TestRouteEstimatorFailureUsesDefaults(t *testing.T) {
	repo := newFakeTicketRepo(pendingTicket(1))
	publisher := &recordingPublisher{}
	completer := &scriptedCompleter{
		advisorReply:   `{"team": "Network Team"}`,
		estimatorReply: "not json at all",
	}
	o := newTestOrchestrator(repo, &fakeLoader{snapshot: networkSnapshot()}, &fixedEmbedder{vector: []float64{1, 0}}, completer, publisher, nil)

	if err := o.Route(context.Background(), 1); err != nil {
		t.Fatalf("Route failed: %v", err)
	}

	ticket, _ := repo.GetByID(1)
	if ticket.Priority != models.DefaultPriority || ticket.Level != models.DefaultLevel {
		t.Errorf("estimation = (%q, %q), want defaults (%q, %q)",
			ticket.Priority, ticket.Level, models.DefaultPriority, models.DefaultLevel)
	}
	if ticket.Status != models.StatusRouted {
		t.Errorf("status = %q, want routed", ticket.Status)
	}
}

func TestPoolRoutesEnqueuedTickets(t *testing.T) {
	repo := newFakeTicketRepo(pendingTicket(1), pendingTicket(2))
	publisher := &recordingPublisher{}
	completer := &scriptedCompleter{
		advisorReply:   `{"team": "Network Team"}`,
		estimatorReply: `{"priority": "Medium", "level": "Tier 1"}`,
	}
	o := newTestOrchestrator(repo, &fakeLoader{snapshot: networkSnapshot()}, &fixedEmbedder{vector: []float64{1, 0}}, completer, publisher, nil)

	pool := NewPool(o, 2, 8, zap.NewNop())
	ctx, cancel := context.WithCancel(context.Background())
	pool.Start(ctx)

	if !pool.Enqueue(1) || !pool.Enqueue(2) {
		t.Fatal("enqueue rejected with room in the queue")
	}

	deadline := time.After(2 * time.Second)
	for publisher.count() < 2 {
		select {
		case <-deadline:
			t.Fatalf("timed out waiting for routing, %d events so far", publisher.count())
		case <-time.After(10 * time.Millisecond):
		}
	}

	cancel()
	pool.Wait()

	for _, id := range []int64{1, 2} {
		ticket, _ := repo.GetByID(id)
		if ticket.Status != models.StatusRouted {
			t.Errorf("ticket %d status = %q, want routed", id, ticket.Status)
		}
	}
}

func TestPoolEnqueueRejectsWhenFull(t *testing.T) {
	o := newTestOrchestrator(newFakeTicketRepo(), &fakeLoader{}, &fixedEmbedder{}, &scriptedCompleter{}, &recordingPublisher{}, nil)
	pool := NewPool(o, 1, 1, zap.NewNop())
	// Pool not started: the single buffer slot fills and the next enqueue
	// must drop instead of blocking.
	if !pool.Enqueue(1) {
		t.Fatal("first enqueue should fit the buffer")
	}
	if pool.Enqueue(2) {
		t.Fatal("second enqueue should be dropped")
	}
}
