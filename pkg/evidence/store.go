package evidence

import (
	"context"
	_ "embed"
	"encoding/binary"
	"errors"
	"fmt"
	"hash/fnv"
	"net"
	"net/url"
	"os"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/bturcanu/pipedrive-connector/pkg/config"
)

//go:embed schema.sql
var schemaSQL string

// Store persists invocations in Postgres.
type Store struct {
	pool *pgxpool.Pool
}

// NewStore creates a new journal store backed by the given connection pool.
func NewStore(pool *pgxpool.Pool) *Store {
	return &Store{pool: pool}
}

// DSNFromEnv returns DATABASE_URL, or a DSN assembled from POSTGRES_*
// variables when POSTGRES_HOST is set. Empty means the journal is disabled.
func DSNFromEnv() string {
	if dsn := os.Getenv("DATABASE_URL"); dsn != "" {
		return dsn
	}
	host := os.Getenv("POSTGRES_HOST")
	if host == "" {
		return ""
	}
	u := &url.URL{
		Scheme:   "postgres",
		User:     url.UserPassword(config.EnvOr("POSTGRES_USER", "pipedrive"), config.EnvOr("POSTGRES_PASSWORD", "changeme")),
		Host:     net.JoinHostPort(host, config.EnvOr("POSTGRES_PORT", "5432")),
		Path:     config.EnvOr("POSTGRES_DB", "pipedrive"),
		RawQuery: "sslmode=" + url.QueryEscape(config.EnvOr("POSTGRES_SSLMODE", "disable")),
	}
	return u.String()
}

// EnsureSchema creates the journal table if it does not exist.
func (s *Store) EnsureSchema(ctx context.Context) error {
	if _, err := s.pool.Exec(ctx, schemaSQL); err != nil {
		return fmt.Errorf("evidence.EnsureSchema: %w", err)
	}
	return nil
}

// Ping checks database connectivity.
func (s *Store) Ping(ctx context.Context) error {
	return s.pool.Ping(ctx)
}

// ──────────────────────────────────────────────────────────────────────────────
// Write path
// ──────────────────────────────────────────────────────────────────────────────

// Record seals inv onto its tenant's chain and inserts it. A per-tenant
// advisory lock serialises appends so concurrent writers cannot fork the chain.
func (s *Store) Record(ctx context.Context, inv *Invocation) error {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("evidence.Record begin tx: %w", err)
	}
	defer tx.Rollback(ctx) //nolint:errcheck // no-op after commit

	if _, err := tx.Exec(ctx, "SELECT pg_advisory_xact_lock($1)", tenantLockID(inv.TenantID)); err != nil {
		return fmt.Errorf("evidence.Record advisory lock: %w", err)
	}

	prevHash, err := lastHashTx(ctx, tx, inv.TenantID)
	if err != nil {
		return fmt.Errorf("evidence.Record last hash: %w", err)
	}

	callCanon, outcomeCanon, err := inv.Seal(prevHash)
	if err != nil {
		return fmt.Errorf("evidence.Record canonical: %w", err)
	}

	_, err = tx.Exec(ctx, `
		INSERT INTO tool_invocations (
			call_id, tenant_id, agent_id, tool, args_hash,
			status, upstream_status, error_msg, result_hash, duration_ms,
			received_at, call_canon, outcome_canon,
			hash, prev_hash
		) VALUES (
			$1,$2,$3,$4,$5,
			$6,$7,$8,$9,$10,
			$11,$12,$13,
			$14,$15
		)`,
		inv.CallID, inv.TenantID, inv.AgentID, inv.Tool, inv.ArgsHash,
		inv.Status, inv.UpstreamStatus, inv.Error, inv.ResultHash, inv.DurationMS,
		inv.ReceivedAt, callCanon, outcomeCanon,
		inv.Hash, inv.PrevHash,
	)
	if err != nil {
		return fmt.Errorf("evidence.Record insert: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("evidence.Record commit: %w", err)
	}
	return nil
}

// ──────────────────────────────────────────────────────────────────────────────
// Read path
// ──────────────────────────────────────────────────────────────────────────────

// GetInvocation retrieves a single invocation by call ID. Returns nil if absent.
func (s *Store) GetInvocation(ctx context.Context, callID string) (*Invocation, error) {
	row := s.pool.QueryRow(ctx, `
		SELECT call_id, tenant_id, agent_id, tool, args_hash,
		       status, upstream_status, error_msg, result_hash, duration_ms,
		       received_at, hash, prev_hash
		FROM tool_invocations WHERE call_id = $1`, callID)

	var inv Invocation
	err := row.Scan(
		&inv.CallID, &inv.TenantID, &inv.AgentID, &inv.Tool, &inv.ArgsHash,
		&inv.Status, &inv.UpstreamStatus, &inv.Error, &inv.ResultHash, &inv.DurationMS,
		&inv.ReceivedAt, &inv.Hash, &inv.PrevHash,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("evidence.GetInvocation: %w", err)
	}
	return &inv, nil
}

// ChainLinks returns a tenant's links in append order, starting at the
// beginning of the chain.
func (s *Store) ChainLinks(ctx context.Context, tenantID string) ([]ChainLink, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT call_id, hash, prev_hash, call_canon, outcome_canon
		FROM tool_invocations
		WHERE tenant_id = $1
		ORDER BY seq ASC`, tenantID)
	if err != nil {
		return nil, fmt.Errorf("evidence.ChainLinks: %w", err)
	}
	defer rows.Close()

	var links []ChainLink
	for rows.Next() {
		var l ChainLink
		if err := rows.Scan(&l.CallID, &l.Hash, &l.PrevHash, &l.CanonCall, &l.CanonOutcome); err != nil {
			return nil, fmt.Errorf("evidence.ChainLinks scan: %w", err)
		}
		links = append(links, l)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("evidence.ChainLinks iteration: %w", err)
	}
	return links, nil
}

// ──────────────────────────────────────────────────────────────────────────────
// Helpers
// ──────────────────────────────────────────────────────────────────────────────

func lastHashTx(ctx context.Context, tx pgx.Tx, tenantID string) (string, error) {
	row := tx.QueryRow(ctx, `
		SELECT hash FROM tool_invocations
		WHERE tenant_id = $1
		ORDER BY seq DESC LIMIT 1`, tenantID)

	var h string
	err := row.Scan(&h)
	if errors.Is(err, pgx.ErrNoRows) {
		return "", nil
	}
	return h, err
}

// tenantLockID derives a deterministic advisory-lock key from a tenant ID.
func tenantLockID(tenantID string) int64 {
	h := fnv.New64a()
	h.Write([]byte(tenantID))
	return int64(binary.BigEndian.Uint64(h.Sum(nil)))
}
