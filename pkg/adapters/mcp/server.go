package mcp

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/aretw0/history"
	"github.com/aretw0/history/internal/logging"
	"github.com/aretw0/history/pkg/domain"
	"github.com/aretw0/history/pkg/session"
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
)

// SessionResponse provides a unified structure across adapters.
type SessionResponse struct {
	Session  string            `json:"session" jsonschema_description:"The session ID"`
	Location domain.Location   `json:"location" jsonschema_description:"The current location"`
	Entries  []domain.Location `json:"entries" jsonschema_description:"Every entry of the session history"`
	Index    int               `json:"index" jsonschema_description:"Position of the current entry"`
}

// Server exposes session histories as an MCP Server.
type Server struct {
	sessions  *session.Manager
	logger    *slog.Logger
	mcpServer *server.MCPServer
}

// NewServer creates a new MCP Server instance.
func NewServer(sessions *session.Manager, logger *slog.Logger) *Server {
	if logger == nil {
		logger = logging.NewNop()
	}
	s := &Server{
		sessions:  sessions,
		logger:    logger,
		mcpServer: server.NewMCPServer("history-mcp", strings.TrimSpace(history.Version)),
	}
	s.registerTools()
	s.registerResources()
	return s
}

// ServeStdio starts the server on Stdin/Stdout.
func (s *Server) ServeStdio() error {
	return server.ServeStdio(s.mcpServer)
}

// ServeSSE starts the server on the given port using SSE and stops when ctx is done.
func (s *Server) ServeSSE(ctx context.Context, port int) error {
	addr := fmt.Sprintf(":%d", port)
	baseURL := fmt.Sprintf("http://localhost:%d", port)

	sseServer := server.NewSSEServer(s.mcpServer, server.WithBaseURL(baseURL))

	mux := http.NewServeMux()
	mux.Handle("/sse", corsMiddleware(sseServer.SSEHandler()))
	mux.Handle("/message", corsMiddleware(sseServer.MessageHandler()))

	httpServer := &http.Server{
		Addr:    addr,
		Handler: mux,
	}

	serverErrors := make(chan error, 1)
	go func() {
		s.logger.Info("MCP Server listening (SSE)", "address", addr)
		serverErrors <- httpServer.ListenAndServe()
	}()

	select {
	case err := <-serverErrors:
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		s.logger.Info("shutting down MCP server")
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("could not stop server gracefully: %w", err)
		}
		return nil
	}
}

func corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization, X-Requested-With")

		if r.Method == "OPTIONS" {
			w.WriteHeader(http.StatusOK)
			return
		}

		next.ServeHTTP(w, r)
	})
}

func (s *Server) registerTools() {
	s.mcpServer.AddTool(mcp.NewTool("history_create_session",
		mcp.WithDescription("Start a new navigation history at \"/\" and return its session ID."),
		mcp.WithOutputSchema[SessionResponse](),
	), mcp.NewStructuredToolHandler(s.handleCreate))

	s.mcpServer.AddTool(mcp.NewTool("history_push",
		mcp.WithDescription("Push a new location onto the session history, dropping any forward entries."),
		mcp.WithString("session", mcp.Required(), mcp.Description("Session ID")),
		mcp.WithString("path", mcp.Required(), mcp.Description("Path such as /a?x=1#top")),
		mcp.WithString("state", mcp.Description("JSON value attached to the entry (optional)")),
		mcp.WithOutputSchema[SessionResponse](),
	), mcp.NewStructuredToolHandler(s.command(history.OpPush)))

	s.mcpServer.AddTool(mcp.NewTool("history_replace",
		mcp.WithDescription("Replace the current location of the session history."),
		mcp.WithString("session", mcp.Required(), mcp.Description("Session ID")),
		mcp.WithString("path", mcp.Required(), mcp.Description("Path such as /a?x=1#top")),
		mcp.WithString("state", mcp.Description("JSON value attached to the entry (optional)")),
		mcp.WithOutputSchema[SessionResponse](),
	), mcp.NewStructuredToolHandler(s.command(history.OpReplace)))

	s.mcpServer.AddTool(mcp.NewTool("history_go",
		mcp.WithDescription("Move through the session history by delta entries (negative goes back)."),
		mcp.WithString("session", mcp.Required(), mcp.Description("Session ID")),
		mcp.WithNumber("delta", mcp.Required(), mcp.Description("Number of entries to move")),
		mcp.WithOutputSchema[SessionResponse](),
	), mcp.NewStructuredToolHandler(s.command(history.OpGo)))

	s.mcpServer.AddTool(mcp.NewTool("history_location",
		mcp.WithDescription("Return the current location and entries of a session."),
		mcp.WithString("session", mcp.Required(), mcp.Description("Session ID")),
		mcp.WithOutputSchema[SessionResponse](),
	), mcp.NewStructuredToolHandler(s.handleLocation))
}

func (s *Server) handleCreate(ctx context.Context, request mcp.CallToolRequest, args map[string]interface{}) (SessionResponse, error) {
	id, err := s.sessions.Create(ctx)
	if err != nil {
		return SessionResponse{}, fmt.Errorf("create failed: %w", err)
	}
	snap, err := s.sessions.Snapshot(ctx, id)
	if err != nil {
		return SessionResponse{}, fmt.Errorf("create failed: %w", err)
	}
	return newSessionResponse(id, snap), nil
}

func (s *Server) handleLocation(ctx context.Context, request mcp.CallToolRequest, args map[string]interface{}) (SessionResponse, error) {
	id, _ := args["session"].(string)
	snap, err := s.sessions.Snapshot(ctx, id)
	if err != nil {
		return SessionResponse{}, fmt.Errorf("location failed: %w", err)
	}
	return newSessionResponse(id, snap), nil
}

func (s *Server) command(op history.Op) func(context.Context, mcp.CallToolRequest, map[string]interface{}) (SessionResponse, error) {
	return func(ctx context.Context, request mcp.CallToolRequest, args map[string]interface{}) (SessionResponse, error) {
		id, _ := args["session"].(string)
		cmd := history.Command{Op: op}
		cmd.Path, _ = args["path"].(string)
		if delta, ok := args["delta"].(float64); ok {
			cmd.Delta = int(delta)
		}
		if raw, ok := args["state"].(string); ok && raw != "" {
			if err := json.Unmarshal([]byte(raw), &cmd.State); err != nil {
				return SessionResponse{}, fmt.Errorf("state is not valid JSON: %w", err)
			}
		}
		if err := cmd.Validate(); err != nil {
			return SessionResponse{}, err
		}

		snap, err := s.sessions.Do(ctx, id, func(h *history.History) error {
			return h.Apply(cmd)
		})
		if err != nil {
			s.logger.Warn("MCP command failed", "op", op, "session_id", id, "err", err)
			return SessionResponse{}, fmt.Errorf("%s failed: %w", op, err)
		}
		return newSessionResponse(id, snap), nil
	}
}

func newSessionResponse(id string, snap *domain.Snapshot) SessionResponse {
	return SessionResponse{
		Session:  id,
		Location: snap.Entries[snap.Current],
		Entries:  snap.Entries,
		Index:    snap.Current,
	}
}

func (s *Server) registerResources() {
	s.mcpServer.AddResource(mcp.NewResource("history://sessions", "Stored Sessions",
		mcp.WithMIMEType("application/json"),
	), func(ctx context.Context, request mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
		ids, err := s.sessions.List(ctx)
		if err != nil {
			return nil, fmt.Errorf("failed to list sessions: %w", err)
		}
		if ids == nil {
			ids = []string{}
		}
		jsonBytes, _ := json.Marshal(ids)

		return []mcp.ResourceContents{
			mcp.TextResourceContents{
				URI:      "history://sessions",
				MIMEType: "application/json",
				Text:     string(jsonBytes),
			},
		}, nil
	})
}
