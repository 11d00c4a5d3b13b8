package research

import (
	"context"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/researchkit/deep-research-mcp/internal/agents"
)

// RunBackend is the subset of the agents API the poller needs.
type RunBackend interface {
	GetRun(ctx context.Context, threadID, runID string) (*agents.Run, error)
	GetLastMessageByRole(ctx context.Context, threadID, role string) (*agents.Message, error)
}

// runPhase is the poller's position in the run lifecycle.
type runPhase int

const (
	phaseSubmitted runPhase = iota
	phasePolling
	phaseTerminal
)

// Poller drives a run to a terminal status by periodic re-fetching, and
// surfaces every newly appended agent message exactly once through the sink.
type Poller struct {
	backend  RunBackend
	sink     ProgressSink
	interval time.Duration
}

func NewPoller(backend RunBackend, sink ProgressSink, interval time.Duration) *Poller {
	if sink == nil {
		sink = NopSink{}
	}
	return &Poller{backend: backend, sink: sink, interval: interval}
}

// Wait blocks until the run leaves {queued, in_progress}, the context is
// cancelled, or a poll fails. It returns the last observed run state; on
// cancellation the error is ctx.Err().
func (p *Poller) Wait(ctx context.Context, threadID string, run *agents.Run) (*agents.Run, error) {
	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()

	phase := phaseSubmitted
	var lastMessageID string

	for phase != phaseTerminal {
		switch phase {
		case phaseSubmitted:
			if !run.Status.Active() {
				phase = phaseTerminal
				continue
			}
			phase = phasePolling

		case phasePolling:
			select {
			case <-ctx.Done():
				return run, ctx.Err()
			case <-ticker.C:
			}

			updated, err := p.backend.GetRun(ctx, threadID, run.ID)
			if err != nil {
				return run, fmt.Errorf("poll run %s: %w", run.ID, err)
			}
			run = updated

			lastMessageID = p.emitNewMessage(ctx, threadID, lastMessageID)
			p.sink.Info(ctx, "Run status: "+string(run.Status))

			if !run.Status.Active() {
				phase = phaseTerminal
			}
		}
	}
	return run, nil
}

// emitNewMessage fetches the newest agent message and forwards it when its
// ID differs from the last one reported. Repeated polls that see the same
// message emit nothing.
func (p *Poller) emitNewMessage(ctx context.Context, threadID, lastID string) string {
	msg, err := p.backend.GetLastMessageByRole(ctx, threadID, agents.RoleAgent)
	if err != nil {
		log.Printf("fetch agent message: %v", err)
		return lastID
	}
	if msg == nil || msg.ID == lastID {
		return lastID
	}

	p.sink.Info(ctx, "Agent response:\n"+strings.Join(msg.TextSegments(), "\n"))
	for _, c := range msg.URLCitations() {
		p.sink.Citation(ctx, c.Title, c.URL)
	}
	return msg.ID
}
