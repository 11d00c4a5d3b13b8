package research

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/researchkit/deep-research-mcp/internal/agents"
)

// fakeRunBackend scripts a sequence of run statuses; each GetRun consumes
// the next one. The newest agent message is fixed.
type fakeRunBackend struct {
	statuses []agents.RunStatus
	idx      int
	message  *agents.Message
	runErr   error
}

func (f *fakeRunBackend) GetRun(ctx context.Context, threadID, runID string) (*agents.Run, error) {
	if f.runErr != nil {
		return nil, f.runErr
	}
	st := f.statuses[f.idx]
	if f.idx < len(f.statuses)-1 {
		f.idx++
	}
	return &agents.Run{ID: runID, ThreadID: threadID, Status: st}, nil
}

func (f *fakeRunBackend) GetLastMessageByRole(ctx context.Context, threadID, role string) (*agents.Message, error) {
	return f.message, nil
}

// recordSink collects everything emitted through it.
type recordSink struct {
	infos     []string
	errors    []string
	citations []string
}

func (s *recordSink) Info(_ context.Context, msg string)  { s.infos = append(s.infos, msg) }
func (s *recordSink) Error(_ context.Context, msg string) { s.errors = append(s.errors, msg) }
func (s *recordSink) Citation(_ context.Context, title, url string) {
	s.citations = append(s.citations, title+"|"+url)
}

func (s *recordSink) countInfos(prefix string) int {
	n := 0
	for _, m := range s.infos {
		if strings.HasPrefix(m, prefix) {
			n++
		}
	}
	return n
}

func TestPollerWait_TerminatesOnCompleted(t *testing.T) {
	backend := &fakeRunBackend{
		statuses: []agents.RunStatus{agents.RunStatusInProgress, agents.RunStatusCompleted},
	}
	sink := &recordSink{}
	poller := NewPoller(backend, sink, time.Millisecond)

	run, err := poller.Wait(context.Background(), "thread_1", &agents.Run{ID: "run_1", Status: agents.RunStatusQueued})
	require.NoError(t, err)
	assert.Equal(t, agents.RunStatusCompleted, run.Status)

	// Exactly one terminal status notification.
	assert.Equal(t, 1, sink.countInfos("Run status: completed"))
	assert.Equal(t, "Run status: completed", sink.infos[len(sink.infos)-1])
}

func TestPollerWait_AlreadyTerminalRunSkipsPolling(t *testing.T) {
	backend := &fakeRunBackend{statuses: []agents.RunStatus{agents.RunStatusFailed}}
	sink := &recordSink{}
	poller := NewPoller(backend, sink, time.Millisecond)

	run, err := poller.Wait(context.Background(), "thread_1", &agents.Run{ID: "run_1", Status: agents.RunStatusCompleted})
	require.NoError(t, err)
	assert.Equal(t, agents.RunStatusCompleted, run.Status)
	assert.Empty(t, sink.infos)
}

func TestPollerWait_SameMessageEmittedOnce(t *testing.T) {
	backend := &fakeRunBackend{
		statuses: []agents.RunStatus{
			agents.RunStatusInProgress,
			agents.RunStatusInProgress,
			agents.RunStatusCompleted,
		},
		message: &agents.Message{
			ID:   "msg_1",
			Role: agents.RoleAgent,
			Content: []agents.ContentPart{
				textPart("Partial findings.", citation("Src", "https://example.com/src")),
			},
		},
	}
	sink := &recordSink{}
	poller := NewPoller(backend, sink, time.Millisecond)

	_, err := poller.Wait(context.Background(), "thread_1", &agents.Run{ID: "run_1", Status: agents.RunStatusQueued})
	require.NoError(t, err)

	assert.Equal(t, 1, sink.countInfos("Agent response:"), "repeated polls must not re-emit the same message")
	assert.Equal(t, []string{"Src|https://example.com/src"}, sink.citations)
}

func TestPollerWait_CancellationAborts(t *testing.T) {
	backend := &fakeRunBackend{statuses: []agents.RunStatus{agents.RunStatusInProgress}}
	sink := &recordSink{}
	poller := NewPoller(backend, sink, time.Millisecond)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := poller.Wait(ctx, "thread_1", &agents.Run{ID: "run_1", Status: agents.RunStatusInProgress})
	require.ErrorIs(t, err, context.Canceled)
}

func TestPollerWait_PollErrorPropagates(t *testing.T) {
	backend := &fakeRunBackend{runErr: errors.New("boom")}
	poller := NewPoller(backend, &recordSink{}, time.Millisecond)

	_, err := poller.Wait(context.Background(), "thread_1", &agents.Run{ID: "run_1", Status: agents.RunStatusQueued})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "poll run run_1")
}
