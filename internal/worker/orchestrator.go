package worker

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/leePettigrew/it-triage-demo/internal/classifier"
	"github.com/leePettigrew/it-triage-demo/internal/corpus"
	"github.com/leePettigrew/it-triage-demo/internal/models"
	"github.com/leePettigrew/it-triage-demo/internal/repository"
)

// SnapshotLoader builds a fresh corpus snapshot for one routing attempt.
type SnapshotLoader interface {
	Load(ctx context.Context) (*corpus.Snapshot, error)
}

// Publisher emits the ticket_routed event. Implementations must be
// fire-and-forget.
type Publisher interface {
	PublishTicketRouted(ticket *models.Ticket)
}

// Alerter surfaces failed routing attempts to an operator channel.
type Alerter interface {
	RoutingFailed(ticketID int64, reason error)
}

// Timeouts bounds each class of external call inside one routing attempt.
type Timeouts struct {
	Corpus     time.Duration
	Embedding  time.Duration
	Completion time.Duration
}

// Orchestrator drives one ticket through the routing pipeline: normalize,
// load corpus, rank, disambiguate, estimate, persist, publish. Stages run
// strictly in order; each stage's output feeds the next.
type Orchestrator struct {
	tickets   repository.TicketRepository
	loader    SnapshotLoader
	embedder  corpus.Embedder
	advisor   *classifier.Advisor
	estimator *classifier.Estimator
	publisher Publisher
	alerter   Alerter
	topK      int
	timeouts  Timeouts
	logger    *zap.Logger
}

func NewOrchestrator(
	tickets repository.TicketRepository,
	loader SnapshotLoader,
	embedder corpus.Embedder,
	advisor *classifier.Advisor,
	estimator *classifier.Estimator,
	publisher Publisher,
	alerter Alerter,
	topK int,
	timeouts Timeouts,
	logger *zap.Logger,
) *Orchestrator {
	return &Orchestrator{
		tickets:   tickets,
		loader:    loader,
		embedder:  embedder,
		advisor:   advisor,
		estimator: estimator,
		publisher: publisher,
		alerter:   alerter,
		topK:      topK,
		timeouts:  timeouts,
		logger:    logger,
	}
}

// SetAlerter attaches the operator alert channel. The alerter depends on
// the routing queue, which depends on this orchestrator, so it is attached
// after construction. Call before any routing job runs.
func (o *Orchestrator) SetAlerter(alerter Alerter) {
	o.alerter = alerter
}

// Route classifies the ticket with the given id and persists the result.
//
// A missing ticket is a no-op, not a failure, so routing is idempotent
// against deletion races. A corpus failure aborts the attempt with the
// ticket left untouched and the failure surfaced to the operator channel;
// the attempt is not auto-retried, since a stale corpus mid-retry could
// silently use inconsistent data. Disambiguation and estimation failures
// degrade instead of aborting, so a successful attempt always ends with the
// ticket in a deterministic routed state.
func (o *Orchestrator) Route(ctx context.Context, ticketID int64) error {
	ticket, err := o.tickets.GetByID(ticketID)
	if err != nil {
		return fmt.Errorf("fetching ticket %d: %w", ticketID, err)
	}
	if ticket == nil {
		o.logger.Info("Ticket gone before routing, skipping", zap.Int64("ticket_id", ticketID))
		return nil
	}

	query := classifier.Normalize(ticket.Text())

	corpusCtx, corpusCancel := context.WithTimeout(ctx, o.timeouts.Corpus)
	snapshot, err := o.loader.Load(corpusCtx)
	corpusCancel()
	if err != nil {
		o.reportFailure(ticketID, err)
		return fmt.Errorf("routing ticket %d: %w", ticketID, err)
	}

	embedCtx, embedCancel := context.WithTimeout(ctx, o.timeouts.Embedding)
	vectors, err := o.embedder.EmbedBatch(embedCtx, []string{query})
	embedCancel()
	if err != nil {
		// The query cannot be placed in the corpus space, which is the same
		// failure class as not having the corpus at all.
		err = fmt.Errorf("%w: embedding query: %v", corpus.ErrUnavailable, err)
		o.reportFailure(ticketID, err)
		return fmt.Errorf("routing ticket %d: %w", ticketID, err)
	}

	matches := classifier.Rank(vectors[0], snapshot, o.topK)

	advisorCtx, advisorCancel := context.WithTimeout(ctx, o.timeouts.Completion)
	team, confidence, err := o.advisor.Decide(advisorCtx, ticket.Title, matches)
	advisorCancel()
	if err != nil {
		if !errors.Is(err, classifier.ErrBadAdvisorReply) {
			o.logger.Error("Disambiguation failed unexpectedly", zap.Int64("ticket_id", ticketID), zap.Error(err))
		}
		o.logger.Warn("Falling back to manual review",
			zap.Int64("ticket_id", ticketID), zap.Error(err))
		team = models.TeamManualReview
		confidence = 0.0
	}

	estimateCtx, estimateCancel := context.WithTimeout(ctx, o.timeouts.Completion)
	priority, level := o.estimator.Estimate(estimateCtx, ticket.Text())
	estimateCancel()

	if err := o.tickets.UpdateRouting(ticketID, team, confidence, priority, level, models.StatusRouted); err != nil {
		return fmt.Errorf("persisting routing for ticket %d: %w", ticketID, err)
	}

	ticket.AssignedTo = team
	ticket.Confidence = confidence
	ticket.Priority = priority
	ticket.Level = level
	ticket.Status = models.StatusRouted

	o.logger.Info("Ticket routed",
		zap.Int64("ticket_id", ticketID),
		zap.String("team", string(team)),
		zap.Float64("confidence", confidence),
		zap.String("priority", string(priority)),
		zap.String("level", string(level)))

	o.publisher.PublishTicketRouted(ticket)
	return nil
}

func (o *Orchestrator) reportFailure(ticketID int64, err error) {
	o.logger.Error("Routing attempt failed, ticket left unrouted",
		zap.Int64("ticket_id", ticketID), zap.Error(err))
	if o.alerter != nil {
		o.alerter.RoutingFailed(ticketID, err)
	}
}
