// Package evidence journals tool invocations into Postgres as a per-tenant
// SHA-256 hash chain. Only hashes of arguments and CRM responses are stored.
package evidence

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
)

// ErrChainBroken is wrapped by every VerifyChain failure.
var ErrChainBroken = errors.New("chain broken")

// CanonicalJSON produces a stable byte representation of v: object keys
// sorted, no insignificant whitespace, numbers preserved as written.
func CanonicalJSON(v any) ([]byte, error) {
	raw, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("canonical json marshal: %w", err)
	}

	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()
	var generic any
	if err := dec.Decode(&generic); err != nil {
		return nil, fmt.Errorf("canonical json decode: %w", err)
	}
	// encoding/json writes map keys in sorted order.
	out, err := json.Marshal(generic)
	if err != nil {
		return nil, fmt.Errorf("canonical json re-marshal: %w", err)
	}
	return out, nil
}

// HashBytes returns the hex-encoded SHA-256 of data.
func HashBytes(data []byte) string {
	h := sha256.Sum256(data)
	return hex.EncodeToString(h[:])
}

// HashPayload canonicalizes v and returns its SHA-256.
func HashPayload(v any) (string, error) {
	canon, err := CanonicalJSON(v)
	if err != nil {
		return "", err
	}
	return HashBytes(canon), nil
}

// ChainHash computes the next link of a tenant's chain.
//
//	hash = SHA-256( prevHash || canonicalCall || canonicalOutcome )
func ChainHash(prevHash string, canonCall, canonOutcome []byte) string {
	h := sha256.New()
	h.Write([]byte(prevHash))
	h.Write(canonCall)
	h.Write(canonOutcome)
	return hex.EncodeToString(h.Sum(nil))
}

// ChainLink is the stored shape needed to verify one link.
type ChainLink struct {
	CallID       string
	Hash         string
	PrevHash     string
	CanonCall    []byte
	CanonOutcome []byte
}

// VerifyChain walks links in append order and checks every hash and
// back-pointer. The first link must start from the empty hash.
func VerifyChain(links []ChainLink) error {
	prev := ""
	for i, l := range links {
		if l.PrevHash != prev {
			return fmt.Errorf("%w at index %d (call %s): prev_hash %s, want %s",
				ErrChainBroken, i, l.CallID, l.PrevHash, prev)
		}
		want := ChainHash(prev, l.CanonCall, l.CanonOutcome)
		if l.Hash != want {
			return fmt.Errorf("%w at index %d (call %s): expected %s, got %s",
				ErrChainBroken, i, l.CallID, want, l.Hash)
		}
		prev = l.Hash
	}
	return nil
}

// ChainReader loads a tenant's full chain in append order.
type ChainReader interface {
	ChainLinks(ctx context.Context, tenantID string) ([]ChainLink, error)
}

// VerifyTenant loads and verifies a tenant's chain and returns how many
// links it holds. A tampered chain yields an error wrapping ErrChainBroken.
func VerifyTenant(ctx context.Context, r ChainReader, tenantID string) (int, error) {
	links, err := r.ChainLinks(ctx, tenantID)
	if err != nil {
		return 0, err
	}
	if err := VerifyChain(links); err != nil {
		return len(links), err
	}
	return len(links), nil
}
