package research

import (
	"context"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/researchkit/deep-research-mcp/internal/agents"
	"github.com/researchkit/deep-research-mcp/internal/models"
)

// Report depth literals accepted by the tool.
const (
	ReportTypeBrief         = "brief"
	ReportTypeMedium        = "medium"
	ReportTypeComprehensive = "comprehensive"

	DefaultReportType = ReportTypeComprehensive
	DefaultLanguage   = "en"
)

// FallbackReport is returned when the run produced no agent message at all.
const FallbackReport = "No report content generated."

const agentInstructions = "You are a helpful Agent that assists in researching topics that user provides."

// Request is a single research invocation. Immutable once submitted.
type Request struct {
	Topic             string
	ReportType        string // brief | medium | comprehensive
	Language          string // ISO 639-1 code
	OtherInstructions string
}

// Normalize validates the request and fills in defaults.
func (r *Request) Normalize() error {
	if strings.TrimSpace(r.Topic) == "" {
		return fmt.Errorf("research topic is required")
	}
	if r.ReportType == "" {
		r.ReportType = DefaultReportType
	}
	switch r.ReportType {
	case ReportTypeBrief, ReportTypeMedium, ReportTypeComprehensive:
	default:
		return fmt.Errorf("unknown report type %q", r.ReportType)
	}
	if r.Language == "" {
		r.Language = DefaultLanguage
	}
	return nil
}

// ComposeInstructions renders the user message that drives the run.
func ComposeInstructions(req Request) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Provide a %s report on the topic: '%s'.\n", req.ReportType, req.Topic)
	fmt.Fprintf(&b, "Use the language %s for the report.\n", req.Language)
	b.WriteString("Do not ask the user for any additional information, just provide the report.\n")
	if req.OtherInstructions != "" {
		fmt.Fprintf(&b, "# Other Instructions\n\n%s\n\n", req.OtherInstructions)
	}
	return b.String()
}

// Backend is the full agents API surface the service drives. Satisfied by
// *agents.Client.
type Backend interface {
	RunBackend
	GetConnection(ctx context.Context, name string) (*agents.Connection, error)
	CreateAgent(ctx context.Context, spec agents.AgentSpec) (*agents.Agent, error)
	DeleteAgent(ctx context.Context, agentID string) error
	CreateThread(ctx context.Context) (*agents.Thread, error)
	CreateMessage(ctx context.Context, threadID, role, content string) (*agents.Message, error)
	CreateRun(ctx context.Context, threadID, agentID string) (*agents.Run, error)
}

// ReportStore persists completed report documents.
type ReportStore interface {
	Insert(ctx context.Context, rep *models.Report) (string, error)
}

// ArtifactStore persists report markdown artifacts.
type ArtifactStore interface {
	Put(ctx context.Context, key string, data []byte, contentType string) error
}

// Options configures a Service. Reports and Artifacts are optional; when
// nil, completed reports are returned to the caller only.
type Options struct {
	ModelDeployment        string
	DeepResearchDeployment string
	BingConnectionName     string
	PollInterval           time.Duration
	RunTimeout             time.Duration // 0 disables the ceiling
	Reports                ReportStore
	Artifacts              ArtifactStore
}

// Service orchestrates one deep research run per call: agent and thread
// setup, the polling loop, report assembly, persistence and cleanup.
// A Service is immutable after construction and safe for concurrent use;
// concurrent invocations share nothing but the backend client.
type Service struct {
	backend Backend
	opts    Options
}

func NewService(backend Backend, opts Options) *Service {
	if opts.PollInterval <= 0 {
		opts.PollInterval = 10 * time.Second
	}
	return &Service{backend: backend, opts: opts}
}

// Run executes the research pipeline for one request and returns the
// assembled markdown report. Progress is forwarded to sink as the run
// advances. A failed run is not an error: whatever partial agent output
// exists is still assembled and returned.
func (s *Service) Run(ctx context.Context, req Request, sink ProgressSink) (string, error) {
	if err := req.Normalize(); err != nil {
		return "", err
	}
	if sink == nil {
		sink = NopSink{}
	}
	if s.opts.RunTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.opts.RunTimeout)
		defer cancel()
	}

	started := time.Now()

	conn, err := s.backend.GetConnection(ctx, s.opts.BingConnectionName)
	if err != nil {
		return "", fmt.Errorf("resolve grounding connection %q: %w", s.opts.BingConnectionName, err)
	}

	agent, err := s.backend.CreateAgent(ctx, agents.AgentSpec{
		Name:         "deep-research-agent",
		Model:        s.opts.ModelDeployment,
		Instructions: agentInstructions,
		Tools: []agents.ToolDefinition{
			agents.DeepResearchTool(s.opts.DeepResearchDeployment, conn.ID),
		},
	})
	if err != nil {
		return "", fmt.Errorf("create agent: %w", err)
	}
	// The agent is a remote resource: release it on every exit path from
	// here on. Deletion failures are logged, never propagated.
	defer func() {
		if err := s.backend.DeleteAgent(context.WithoutCancel(ctx), agent.ID); err != nil {
			log.Printf("delete agent %s: %v", agent.ID, err)
			return
		}
		log.Printf("deleted agent %s", agent.ID)
	}()
	sink.Info(ctx, "Agent created.")
	log.Printf("created agent, ID: %s", agent.ID)

	thread, err := s.backend.CreateThread(ctx)
	if err != nil {
		return "", fmt.Errorf("create thread: %w", err)
	}
	sink.Info(ctx, "Thread created.")
	log.Printf("created thread, ID: %s", thread.ID)

	msg, err := s.backend.CreateMessage(ctx, thread.ID, agents.RoleUser, ComposeInstructions(req))
	if err != nil {
		return "", fmt.Errorf("create message: %w", err)
	}
	log.Printf("created message, ID: %s", msg.ID)

	sink.Info(ctx, "Starting the research process... this may take a few minutes. Be patient!")
	run, err := s.backend.CreateRun(ctx, thread.ID, agent.ID)
	if err != nil {
		return "", fmt.Errorf("create run: %w", err)
	}

	poller := NewPoller(s.backend, sink, s.opts.PollInterval)
	run, err = poller.Wait(ctx, thread.ID, run)
	if err != nil {
		return "", err
	}
	sink.Info(ctx, "Run finished with status: "+string(run.Status))
	log.Printf("run finished with status: %s, ID: %s", run.Status, run.ID)

	if run.Status == agents.RunStatusFailed {
		detail := "unknown error"
		if run.LastError != nil {
			detail = fmt.Sprintf("%s: %s", run.LastError.Code, run.LastError.Message)
		}
		log.Printf("run failed: %s", detail)
		sink.Error(ctx, "Run failed: "+detail)
	}

	final, err := s.backend.GetLastMessageByRole(ctx, thread.ID, agents.RoleAgent)
	if err != nil {
		return "", fmt.Errorf("fetch final message: %w", err)
	}
	report := AssembleReport(final)
	if report == "" {
		return FallbackReport, nil
	}

	s.persist(context.WithoutCancel(ctx), req, run, final, report, time.Since(started))
	return report, nil
}

// persist stores the completed report document and its markdown artifact.
// Both are best-effort: a storage failure loses history, not the report the
// caller receives.
func (s *Service) persist(ctx context.Context, req Request, run *agents.Run, final *agents.Message, report string, took time.Duration) {
	if s.opts.Reports == nil {
		return
	}

	artifactKey := ""
	if s.opts.Artifacts != nil {
		key := uuid.NewString() + ".md"
		if err := s.opts.Artifacts.Put(ctx, key, []byte(report), "text/markdown"); err != nil {
			log.Printf("artifact upload: %v", err)
		} else {
			artifactKey = key
		}
	}

	rep := &models.Report{
		Topic:             req.Topic,
		ReportType:        req.ReportType,
		Language:          req.Language,
		OtherInstructions: req.OtherInstructions,
		Markdown:          report,
		Citations:         DedupCitations(final),
		RunID:             run.ID,
		RunStatus:         string(run.Status),
		Model:             s.opts.DeepResearchDeployment,
		DurationMS:        took.Milliseconds(),
		ArtifactObjectKey: artifactKey,
	}
	if _, err := s.opts.Reports.Insert(ctx, rep); err != nil {
		log.Printf("report insert: %v", err)
	}
}
