// Package sdk serves the connector /exec protocol over HTTP.
package sdk

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/bturcanu/pipedrive-connector/pkg/connectors"
)

const maxBodyBytes = 1 << 20

const defaultTimeout = 15 * time.Second

type Executor interface {
	Exec(context.Context, connectors.ExecRequest) connectors.ExecResponse
}

// Config tunes Handler. Callers authenticate the route themselves, e.g.
// with auth.InternalToken.
type Config struct {
	Timeout time.Duration
	Logger  *slog.Logger
}

// Handler decodes an ExecRequest, runs it with a deadline and writes the
// ExecResponse. Execution failures are reported in the body with status 200.
func Handler(executor Executor, cfg Config) http.HandlerFunc {
	log := cfg.Logger
	if log == nil {
		log = slog.Default()
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	return func(w http.ResponseWriter, r *http.Request) {
		r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
		var req connectors.ExecRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "invalid body", http.StatusBadRequest)
			return
		}
		ctx, cancel := context.WithTimeout(r.Context(), timeout)
		defer cancel()
		resp := executor.Exec(ctx, req)
		w.Header().Set("Content-Type", "application/json")
		if err := json.NewEncoder(w).Encode(resp); err != nil {
			log.ErrorContext(ctx, "encode response failed", "error", err)
		}
	}
}
