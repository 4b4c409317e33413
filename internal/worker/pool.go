package worker

import (
	"context"
	"sync"

	"go.uber.org/zap"
)

// Pool consumes routing jobs from a buffered queue with a fixed set of
// workers. Jobs for different tickets run concurrently; each job is one
// sequential pipeline. No ordering is guaranteed between jobs.
type Pool struct {
	jobs         chan int64
	orchestrator *Orchestrator
	workers      int
	logger       *zap.Logger
	wg           sync.WaitGroup
}

func NewPool(orchestrator *Orchestrator, workers, queueSize int, logger *zap.Logger) *Pool {
	return &Pool{
		jobs:         make(chan int64, queueSize),
		orchestrator: orchestrator,
		workers:      workers,
		logger:       logger,
	}
}

// Start launches the workers. They drain until ctx is cancelled.
func (p *Pool) Start(ctx context.Context) {
	p.logger.Info("Routing worker pool started", zap.Int("workers", p.workers))
	for i := 0; i < p.workers; i++ {
		p.wg.Add(1)
		go p.run(ctx, i)
	}
}

// Wait blocks until all workers have exited.
func (p *Pool) Wait() {
	p.wg.Wait()
}

func (p *Pool) run(ctx context.Context, id int) {
	defer p.wg.Done()
	for {
		select {
		case <-ctx.Done():
			p.logger.Info("Routing worker stopped", zap.Int("worker", id))
			return
		case ticketID := <-p.jobs:
			if err := p.orchestrator.Route(ctx, ticketID); err != nil {
				// Already reported by the orchestrator; nothing is requeued,
				// operators retrigger failed tickets by hand.
				p.logger.Debug("Routing job finished with error",
					zap.Int("worker", id), zap.Int64("ticket_id", ticketID), zap.Error(err))
			}
		}
	}
}

// Enqueue submits a ticket for routing without blocking the caller. A full
// queue drops the job: the ticket stays visibly pending and can be
// retriggered manually.
func (p *Pool) Enqueue(ticketID int64) bool {
	select {
	case p.jobs <- ticketID:
		return true
	default:
		p.logger.Warn("Routing queue full, dropping job", zap.Int64("ticket_id", ticketID))
		return false
	}
}
