package main

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"golang.org/x/time/rate"

	"github.com/bturcanu/pipedrive-connector/pkg/auth"
	"github.com/bturcanu/pipedrive-connector/pkg/connectors"
	"github.com/bturcanu/pipedrive-connector/pkg/evidence"
	"github.com/bturcanu/pipedrive-connector/pkg/pipedrive"
	"github.com/bturcanu/pipedrive-connector/pkg/tools"
	"github.com/bturcanu/pipedrive-connector/pkg/types"
)

const (
	maxBodyBytes    = 1 << 20 // 1 MB
	maxRateLimiters = 10_000
	// execTool is the ExecRequest.Tool value this connector answers to.
	execTool = "pipedrive"
)

// Server exposes the tool registry over HTTP.
type Server struct {
	log            *slog.Logger
	tools          toolInvoker
	journal        Journal
	forceLegacy    bool
	rateLimiters   map[string]*rate.Limiter
	rlOrder        []string
	rlMu           sync.Mutex
	perTenantLimit int
}

type toolInvoker interface {
	Descriptors() []tools.Descriptor
	Invoke(ctx context.Context, callID, name string, args map[string]any) (*tools.Result, error)
}

type invocationJournal interface {
	Record(context.Context, *evidence.Invocation) error
}

type journalReader interface {
	GetInvocation(ctx context.Context, callID string) (*evidence.Invocation, error)
	ChainLinks(ctx context.Context, tenantID string) ([]evidence.ChainLink, error)
}

// Journal wires the optional invocation journal. The zero value disables
// both recording and the read endpoints.
type Journal struct {
	Recorder invocationJournal
	Reader   journalReader
}

// VerifyResult is the body of GET /v1/journal/verify.
type VerifyResult struct {
	TenantID string `json:"tenant_id"`
	Links    int    `json:"links"`
	Valid    bool   `json:"valid"`
	Error    string `json:"error,omitempty"`
}

// NewServer builds a Server.
func NewServer(log *slog.Logger, reg toolInvoker, journal Journal, forceLegacy bool, perTenantLimit int) *Server {
	return &Server{
		log:            log,
		tools:          reg,
		journal:        journal,
		forceLegacy:    forceLegacy,
		rateLimiters:   make(map[string]*rate.Limiter),
		perTenantLimit: perTenantLimit,
	}
}

// HandleListTools returns the catalog as it would be invoked.
func (s *Server) HandleListTools(w http.ResponseWriter, _ *http.Request) {
	ds := s.tools.Descriptors()
	list := types.ToolList{Tools: make([]types.ToolInfo, 0, len(ds))}
	for _, d := range ds {
		list.Tools = append(list.Tools, types.NewToolInfo(d, s.forceLegacy))
	}
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(list)
}

// HandleInvoke runs one tool: POST /v1/tools/{name}.
func (s *Server) HandleInvoke(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	name := chi.URLParam(r, "name")

	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	var req types.InvokeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil && !errors.Is(err, io.EOF) {
		types.ErrBadRequest("invalid JSON body").WriteJSON(w)
		return
	}
	if err := req.Validate(); err != nil {
		types.ErrValidation(err).WriteJSON(w)
		return
	}

	tenantID := auth.TenantFromContext(ctx)
	if !s.allowRate(tenantID) {
		types.ErrRateLimited().WriteJSON(w)
		return
	}

	args, err := types.DecodeArguments(req.Arguments)
	if err != nil {
		types.ErrValidation(err).WriteJSON(w)
		return
	}
	if req.CallID == "" {
		req.CallID = uuid.NewString()
	}

	res, elapsed, err := s.invoke(ctx, req.CallID, tenantID, req.AgentID, name, args)
	if err != nil {
		toAPIError(name, err).WriteJSON(w)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(types.InvokeResponse{
		CallID:     req.CallID,
		Tool:       name,
		Content:    res.Content,
		DurationMS: elapsed.Milliseconds(),
	})
}

// Exec serves the connector /exec protocol. Action carries the tool name.
func (s *Server) Exec(ctx context.Context, req connectors.ExecRequest) connectors.ExecResponse {
	if req.Tool != execTool {
		return connectors.Failure("UNKNOWN_TOOL", "connector serves tool "+execTool+", got "+req.Tool)
	}
	args, err := types.DecodeArguments(req.Params)
	if err != nil {
		return connectors.Failure("VALIDATION_ERROR", "params must be a JSON object")
	}
	callID := req.EventID
	if callID == "" {
		callID = uuid.NewString()
	}

	res, _, err := s.invoke(ctx, callID, req.TenantID, req.AgentID, req.Action, args)
	if err != nil {
		apiErr := toAPIError(req.Action, err)
		return connectors.Failure(apiErr.Code, err.Error())
	}

	out := json.RawMessage(res.Text())
	if !json.Valid(out) {
		out, _ = json.Marshal(res.Text())
	}
	return connectors.Success(out)
}

// invoke runs the tool and journals the outcome. Journal failures are
// logged by the journal and never fail the call.
func (s *Server) invoke(ctx context.Context, callID, tenantID, agentID, name string, args map[string]any) (*tools.Result, time.Duration, error) {
	start := time.Now()
	res, err := s.tools.Invoke(ctx, callID, name, args)
	elapsed := time.Since(start)

	if s.journal.Recorder != nil {
		inv, jerr := evidence.NewInvocation(callID, tenantID, agentID, name, args)
		if jerr != nil {
			s.log.ErrorContext(ctx, "journal entry build failed", "call_id", callID, "error", jerr)
		} else {
			inv.Complete(res, err, elapsed)
			_ = s.journal.Recorder.Record(ctx, inv)
		}
	}
	return res, elapsed, err
}

// HandleGetInvocation returns one journal entry of the caller's tenant.
func (s *Server) HandleGetInvocation(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	callID := chi.URLParam(r, "call_id")

	inv, err := s.journal.Reader.GetInvocation(ctx, callID)
	if err != nil {
		s.log.ErrorContext(ctx, "journal read failed", "call_id", callID, "error", err)
		types.ErrInternal("failed to read journal").WriteJSON(w)
		return
	}
	// Other tenants' entries are reported as absent.
	if inv == nil || inv.TenantID != auth.TenantFromContext(ctx) {
		types.ErrNotFound("invocation not found").WriteJSON(w)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(inv)
}

// HandleVerifyJournal checks the caller's tenant chain end to end.
func (s *Server) HandleVerifyJournal(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	tenantID := auth.TenantFromContext(ctx)

	n, err := evidence.VerifyTenant(ctx, s.journal.Reader, tenantID)
	res := VerifyResult{TenantID: tenantID, Links: n, Valid: err == nil}
	if err != nil {
		if !errors.Is(err, evidence.ErrChainBroken) {
			s.log.ErrorContext(ctx, "journal read failed", "tenant_id", tenantID, "error", err)
			types.ErrInternal("failed to read journal").WriteJSON(w)
			return
		}
		s.log.WarnContext(ctx, "journal chain broken", "tenant_id", tenantID, "error", err)
		res.Error = err.Error()
	}
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(res)
}

// toAPIError maps an invocation failure onto the HTTP error envelope.
func toAPIError(name string, err error) *types.APIError {
	var ve *tools.ValidationError
	var pdErr *pipedrive.APIError
	switch {
	case errors.As(err, &ve):
		return types.ErrValidation(err)
	case errors.Is(err, tools.ErrUnknownTool):
		return types.ErrUnknownTool(name)
	case errors.As(err, &pdErr):
		return types.ErrUpstream(pdErr.StatusCode, pdErr.Body)
	case errors.Is(err, context.DeadlineExceeded):
		return types.ErrUpstreamTimeout()
	default:
		return types.ErrUpstreamUnavailable(err.Error())
	}
}

// ──────────────────────────────────────────────────────────────────────────────
// Rate limiting (bounded map with eviction)
// ──────────────────────────────────────────────────────────────────────────────

func (s *Server) allowRate(tenantID string) bool {
	s.rlMu.Lock()
	defer s.rlMu.Unlock()

	lim, ok := s.rateLimiters[tenantID]
	if ok {
		// Move to end of LRU order.
		for i, k := range s.rlOrder {
			if k == tenantID {
				s.rlOrder = append(s.rlOrder[:i], s.rlOrder[i+1:]...)
				break
			}
		}
		s.rlOrder = append(s.rlOrder, tenantID)
		return lim.Allow()
	}

	if len(s.rateLimiters) >= maxRateLimiters {
		oldest := s.rlOrder[0]
		s.rlOrder = s.rlOrder[1:]
		delete(s.rateLimiters, oldest)
	}

	lim = rate.NewLimiter(rate.Limit(s.perTenantLimit), s.perTenantLimit*2)
	s.rateLimiters[tenantID] = lim
	s.rlOrder = append(s.rlOrder, tenantID)
	return lim.Allow()
}
