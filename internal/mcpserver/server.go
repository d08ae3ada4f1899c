// Package mcpserver provides an MCP (Model Context Protocol) server
// that exposes the recording library to LLM clients via stdio
// transport.
package mcpserver

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/starford/murmur/internal/process"
	"github.com/starford/murmur/internal/store"
)

// Server wraps the MCP server with recording tools.
type Server struct {
	mcp      *server.MCPServer
	store    *store.Store
	pipeline *process.Orchestrator
}

// New creates an MCP server with all recording tools registered.
func New(st *store.Store, pipeline *process.Orchestrator) *Server {
	s := &Server{store: st, pipeline: pipeline}

	s.mcp = server.NewMCPServer(
		"Murmur",
		"1.0.0",
		server.WithToolCapabilities(false),
		server.WithResourceCapabilities(false, false),
	)

	s.mcp.AddTool(mcp.NewTool("list_recordings",
		mcp.WithDescription("List recordings in the library, newest first. "+
			"Set trashed=true to list the trash instead."),
		mcp.WithBoolean("trashed", mcp.Description("List trashed recordings instead of active ones")),
	), s.listRecordings)

	s.mcp.AddTool(mcp.NewTool("get_transcript",
		mcp.WithDescription("Read the transcript of a recording."),
		mcp.WithString("id", mcp.Required(), mcp.Description("Recording id")),
	), s.getTranscript)

	s.mcp.AddTool(mcp.NewTool("get_summary",
		mcp.WithDescription("Read the summary of a recording."),
		mcp.WithString("id", mcp.Required(), mcp.Description("Recording id")),
	), s.getSummary)

	s.mcp.AddTool(mcp.NewTool("transcribe_recording",
		mcp.WithDescription("Start transcription for a recording. Runs in the "+
			"background; poll get_transcript for the result."),
		mcp.WithString("id", mcp.Required(), mcp.Description("Recording id")),
	), s.transcribeRecording)

	s.mcp.AddTool(mcp.NewTool("summarize_recording",
		mcp.WithDescription("Start summarization for a recording that already "+
			"has a transcript. Runs in the background; poll get_summary for the result."),
		mcp.WithString("id", mcp.Required(), mcp.Description("Recording id")),
	), s.summarizeRecording)

	return s
}

// ServeStdio starts the MCP server on stdin/stdout.
func (s *Server) ServeStdio() error {
	return server.ServeStdio(s.mcp)
}

// MCPServer returns the underlying server for testing.
func (s *Server) MCPServer() *server.MCPServer {
	return s.mcp
}

type recordingSummary struct {
	ID            string `json:"id"`
	Title         string `json:"title"`
	CreatedAt     string `json:"created_at"`
	Method        string `json:"method"`
	Favourite     bool   `json:"favourite"`
	DurationMS    int64  `json:"duration_ms,omitempty"`
	HasTranscript bool   `json:"has_transcript"`
	HasSummary    bool   `json:"has_summary"`
}

func (s *Server) listRecordings(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	recs := s.store.Active()
	if req.GetBool("trashed", false) {
		recs = s.store.Trashed()
	}

	items := make([]recordingSummary, 0, len(recs))
	for _, r := range recs {
		items = append(items, recordingSummary{
			ID:            r.ID,
			Title:         r.Title,
			CreatedAt:     r.CreatedAt.Format("2006-01-02 15:04:05"),
			Method:        string(r.Method),
			Favourite:     r.IsFavourite,
			DurationMS:    r.Duration,
			HasTranscript: r.Transcription != "",
			HasSummary:    r.Summary != "",
		})
	}
	out, _ := json.MarshalIndent(items, "", "  ")
	return mcp.NewToolResultText(string(out)), nil
}

func (s *Server) getTranscript(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	id, err := req.RequireString("id")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	rec, err := s.store.Get(id)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("not found: %s", id)), nil
	}
	if rec.Transcription == "" {
		return mcp.NewToolResultError(fmt.Sprintf("recording %s has no transcript yet; call transcribe_recording first", id)), nil
	}
	return mcp.NewToolResultText(rec.Transcription), nil
}

func (s *Server) getSummary(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	id, err := req.RequireString("id")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	rec, err := s.store.Get(id)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("not found: %s", id)), nil
	}
	if rec.Summary == "" {
		return mcp.NewToolResultError(fmt.Sprintf("recording %s has no summary yet; call summarize_recording first", id)), nil
	}
	return mcp.NewToolResultText(rec.Summary), nil
}

func (s *Server) transcribeRecording(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	id, err := req.RequireString("id")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	if err := s.pipeline.StartTranscribe(ctx, id); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return mcp.NewToolResultText(fmt.Sprintf("transcription started for %s", id)), nil
}

func (s *Server) summarizeRecording(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	id, err := req.RequireString("id")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	if err := s.pipeline.StartSummarize(ctx, id); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return mcp.NewToolResultText(fmt.Sprintf("summarization started for %s", id)), nil
}
