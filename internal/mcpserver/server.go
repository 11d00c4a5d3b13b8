// Package mcpserver exposes the research pipeline as an MCP tool over the
// streamable HTTP transport.
package mcpserver

import (
	"context"
	"fmt"
	"log"
	"net/http"

	"github.com/google/uuid"
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/researchkit/deep-research-mcp/internal/research"
)

const (
	serverName    = "Deep Research Server"
	serverVersion = "1.0.0"

	toolName = "retrieve_deep_research_report"
)

// Runner executes one research request, forwarding progress to the sink.
type Runner interface {
	Run(ctx context.Context, req research.Request, sink research.ProgressSink) (string, error)
}

// Server wires the research runner into an MCP server with a single tool.
type Server struct {
	mcp      *server.MCPServer
	http     *server.StreamableHTTPServer
	runner   Runner
	progress research.ProgressCache // optional; nil disables job tracking
}

func New(runner Runner, progress research.ProgressCache) *Server {
	m := server.NewMCPServer(
		serverName,
		serverVersion,
		server.WithToolCapabilities(false),
		server.WithLogging(),
		server.WithRecovery(),
	)

	s := &Server{mcp: m, runner: runner, progress: progress}
	m.AddTool(researchTool(), s.handleRetrieveReport)
	s.http = server.NewStreamableHTTPServer(m)
	return s
}

// Handler returns the streamable HTTP handler, suitable for mounting on a
// router.
func (s *Server) Handler() http.Handler {
	return s.http
}

func researchTool() mcp.Tool {
	return mcp.NewTool(toolName,
		mcp.WithDescription("Retrieve a Deep Research report on a specific topic based on user input."),
		mcp.WithString("research_topic",
			mcp.Required(),
			mcp.Description("The topic to research"),
		),
		mcp.WithString("report_type",
			mcp.Description("The type of report to generate, one of ('brief', 'medium', 'comprehensive')"),
			mcp.Enum(research.ReportTypeBrief, research.ReportTypeMedium, research.ReportTypeComprehensive),
			mcp.DefaultString(research.DefaultReportType),
		),
		mcp.WithString("language",
			mcp.Description("The language to use for the report in ISO 639-1 format, e.g., 'en' for English, 'zh' for Chinese"),
			mcp.DefaultString(research.DefaultLanguage),
		),
		mcp.WithString("other_instructions",
			mcp.Description("Additional instructions for the agent, if any"),
		),
	)
}

func (s *Server) handleRetrieveReport(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	topic, err := req.RequireString("research_topic")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	r := research.Request{
		Topic:             topic,
		ReportType:        req.GetString("report_type", research.DefaultReportType),
		Language:          req.GetString("language", research.DefaultLanguage),
		OtherInstructions: req.GetString("other_instructions", ""),
	}

	sinks := research.MultiSink{notifySink{srv: s.mcp}}
	if s.progress != nil {
		jobID := uuid.NewString()
		sinks = append(sinks, research.CacheSink{Cache: s.progress, JobID: jobID})
		sinks.Info(ctx, "Job "+jobID+" accepted.")
		defer func() {
			if err := s.progress.Clear(context.WithoutCancel(ctx), jobID); err != nil {
				log.Printf("clear job %s: %v", jobID, err)
			}
		}()
	}

	report, err := s.runner.Run(ctx, r, sinks)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return mcp.NewToolResultText(report), nil
}

// notifySink forwards progress to the MCP client as notifications/message
// notifications on the caller's session.
type notifySink struct {
	srv *server.MCPServer
}

func (n notifySink) Info(ctx context.Context, msg string) {
	n.notify(ctx, "info", msg)
}

func (n notifySink) Error(ctx context.Context, msg string) {
	n.notify(ctx, "error", msg)
}

func (n notifySink) Citation(ctx context.Context, title, url string) {
	n.notify(ctx, "info", fmt.Sprintf("URL Citation: [%s](%s)", title, url))
}

func (n notifySink) notify(ctx context.Context, level, msg string) {
	err := n.srv.SendNotificationToClient(ctx, "notifications/message", map[string]any{
		"level": level,
		"data":  msg,
	})
	if err != nil {
		log.Printf("notify client: %v", err)
	}
}
