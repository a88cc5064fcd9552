// Package toolserver exposes the assessment pipeline over a line-oriented
// JSON protocol on a Unix domain socket, for long-lived callers (editor
// integrations, agent harnesses) that would rather not pay process-startup
// cost per request. Grounded on untoldecay/BeadsLog's internal/rpc package
// (Request/Response envelope shape, one socket per workspace) but scoped
// down to the four read/write ops this system needs — none of BeadsLog's
// daemon lifecycle, autostart, or multi-client locking machinery applies
// here, since each request is independent and stateless.
package toolserver

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/evo-hydra/seraph/internal/analyzers/mutation"
	"github.com/evo-hydra/seraph/internal/config"
	"github.com/evo-hydra/seraph/internal/orchestrator"
	"github.com/evo-hydra/seraph/internal/render"
	"github.com/evo-hydra/seraph/internal/store"
	"github.com/evo-hydra/seraph/internal/store/sqlite"
	"github.com/evo-hydra/seraph/internal/types"
)

// Operation names, mirroring the CLI's four verbs with a trailing
// underscore, per spec's server surface naming.
const (
	OpAssess   = "assess_"
	OpMutate   = "mutate_"
	OpHistory  = "history_"
	OpFeedback = "feedback_"
)

// Request is one line of JSON sent by the client.
type Request struct {
	Operation    string   `json:"operation"`
	RepoPath     string   `json:"repo_path"`
	RefBefore    string   `json:"ref_before,omitempty"`
	RefAfter     string   `json:"ref_after,omitempty"`
	Files        []string `json:"files,omitempty"`
	Limit        int      `json:"limit,omitempty"`
	Offset       int      `json:"offset,omitempty"`
	AssessmentID string   `json:"assessment_id,omitempty"`
	Outcome      string   `json:"outcome,omitempty"`
	Context      string   `json:"context,omitempty"`
}

// Response is one line of JSON returned to the client. Text is the rendered
// plain-text result, truncated to the configured character budget.
type Response struct {
	Success bool   `json:"success"`
	Text    string `json:"text,omitempty"`
	Error   string `json:"error,omitempty"`
}

// Server accepts connections on a Unix socket and dispatches each line as
// one request/response round trip.
type Server struct {
	SocketPath string
	Log        *slog.Logger

	repoPath string
	live     *liveConfig
	listener net.Listener
}

// New constructs a Server bound to <repoPath>/.seraph/seraph.sock.
func New(repoPath string, log *slog.Logger) *Server {
	return &Server{
		SocketPath: filepath.Join(repoPath, ".seraph", "seraph.sock"),
		Log:        log,
		repoPath:   repoPath,
	}
}

// Serve listens and handles connections until ctx is cancelled. Also starts
// a background watch of .seraph/config.toml: an edit re-resolves the whole
// Config, which later requests use without restarting the listener. The
// logger built at startup is not rebuilt, so a changed log level does not
// take effect until restart.
func (s *Server) Serve(ctx context.Context) error {
	live, err := newLiveConfig(s.repoPath, s.Log)
	if err != nil {
		return fmt.Errorf("loading configuration: %w", err)
	}
	s.live = live
	go watchConfig(ctx, live)

	if err := os.MkdirAll(filepath.Dir(s.SocketPath), 0o755); err != nil {
		return fmt.Errorf("create socket directory: %w", err)
	}
	_ = os.Remove(s.SocketPath)

	ln, err := net.Listen("unix", s.SocketPath)
	if err != nil {
		return fmt.Errorf("listen on %s: %w", s.SocketPath, err)
	}
	s.listener = ln
	defer ln.Close()
	defer os.Remove(s.SocketPath)

	go func() {
		<-ctx.Done()
		ln.Close()
	}()

	for {
		conn, err := ln.Accept()
		if err != nil {
			if errors.Is(ctx.Err(), context.Canceled) {
				return nil
			}
			return err
		}
		go s.handle(ctx, conn)
	}
}

func (s *Server) handle(ctx context.Context, conn net.Conn) {
	defer conn.Close()
	scanner := bufio.NewScanner(conn)
	scanner.Buffer(make([]byte, 64*1024), 10*1024*1024)

	for scanner.Scan() {
		var req Request
		resp := Response{}
		if err := json.Unmarshal(scanner.Bytes(), &req); err != nil {
			resp.Error = fmt.Sprintf("invalid request: %v", err)
			s.writeResponse(conn, resp)
			continue
		}

		text, err := s.dispatch(ctx, req)
		if err != nil {
			s.Log.Error("request failed", "op", req.Operation, "error", err)
			resp.Error = err.Error()
		} else {
			resp.Success = true
			resp.Text = text
		}
		s.writeResponse(conn, resp)
	}
}

func (s *Server) writeResponse(conn net.Conn, resp Response) {
	b, err := json.Marshal(resp)
	if err != nil {
		return
	}
	b = append(b, '\n')
	_, _ = conn.Write(b)
}

func (s *Server) dispatch(ctx context.Context, req Request) (string, error) {
	if req.RepoPath == "" {
		return "", errors.New("repo_path is required")
	}
	cfg := s.live.get()

	switch req.Operation {
	case OpAssess:
		return s.handleAssess(ctx, cfg, req)
	case OpMutate:
		return s.handleMutate(ctx, cfg, req)
	case OpHistory:
		return s.handleHistory(ctx, cfg, req)
	case OpFeedback:
		return s.handleFeedback(ctx, cfg, req)
	default:
		return "", fmt.Errorf("unknown operation %q", req.Operation)
	}
}

func (s *Server) handleAssess(ctx context.Context, cfg *config.Config, req Request) (string, error) {
	st, err := sqlite.Open(cfg.DBPath(req.RepoPath))
	if err != nil {
		return "", fmt.Errorf("opening store: %w", err)
	}
	defer st.Close()

	pipeline := orchestrator.New(cfg, s.Log, st)

	var before, after *string
	if req.RefBefore != "" {
		before = &req.RefBefore
	}
	if req.RefAfter != "" {
		after = &req.RefAfter
	}

	report, err := pipeline.Assess(ctx, req.RepoPath, before, after)
	if err != nil {
		return "", err
	}
	return truncate(render.Full(report, false), cfg.Pipeline.MaxOutputChars), nil
}

func (s *Server) handleMutate(ctx context.Context, cfg *config.Config, req Request) (string, error) {
	st, err := sqlite.Open(cfg.DBPath(req.RepoPath))
	if err != nil {
		return "", fmt.Errorf("opening store: %w", err)
	}
	defer st.Close()

	pipeline := orchestrator.New(cfg, s.Log, st)
	result := pipeline.MutateOnly(ctx, req.RepoPath, req.Files)
	if !result.ToolAvailable {
		return "mutation tool unavailable", nil
	}
	score := mutation.ComputeScore(result.Results)
	var b strings.Builder
	fmt.Fprintf(&b, "%d mutant(s) analyzed, score %.1f\n", len(result.Results), score)
	for _, m := range result.Results {
		fmt.Fprintf(&b, "%s:%s %s\n", m.FilePath, m.MutantID, m.Status)
	}
	return truncate(b.String(), cfg.Pipeline.MaxOutputChars), nil
}

func (s *Server) handleHistory(ctx context.Context, cfg *config.Config, req Request) (string, error) {
	st, err := sqlite.Open(cfg.DBPath(req.RepoPath))
	if err != nil {
		return "", fmt.Errorf("opening store: %w", err)
	}
	defer st.Close()

	limit := req.Limit
	if limit <= 0 {
		limit = 20
	}
	rows, err := st.ListAssessments(ctx, limit, req.Offset)
	if err != nil {
		return "", err
	}
	var b strings.Builder
	for _, a := range rows {
		fmt.Fprintf(&b, "%s  grade=%s  flaky=%d  created=%s\n", a.ID, a.Grade, a.BaselineFlaky, a.CreatedAt.Format(time.RFC3339))
	}
	return truncate(b.String(), cfg.Pipeline.MaxOutputChars), nil
}

func (s *Server) handleFeedback(ctx context.Context, cfg *config.Config, req Request) (string, error) {
	outcome, ok := types.ParseFeedbackOutcome(req.Outcome)
	if !ok {
		return "", fmt.Errorf("invalid outcome %q", req.Outcome)
	}

	st, err := sqlite.Open(cfg.DBPath(req.RepoPath))
	if err != nil {
		return "", fmt.Errorf("opening store: %w", err)
	}
	defer st.Close()

	if _, err := st.GetAssessment(ctx, req.AssessmentID); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return "", fmt.Errorf("no such assessment: %s", req.AssessmentID)
		}
		return "", err
	}

	fb := &types.Feedback{
		ID:           uuid.NewString(),
		AssessmentID: req.AssessmentID,
		Outcome:      outcome,
		Context:      req.Context,
		CreatedAt:    time.Now(),
	}
	if err := st.SaveFeedback(ctx, fb); err != nil {
		return "", err
	}
	return "feedback recorded", nil
}

func truncate(s string, max int) string {
	if max <= 0 || len(s) <= max {
		return s
	}
	return s[:max] + "… (output truncated)"
}
