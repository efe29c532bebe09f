package auth

import (
	"crypto/sha256"
	"crypto/subtle"
	"encoding/hex"
	"strings"
	"sync"
)

// KeyStore maps hashed API keys to caller (tenant) IDs. Thread-safe.
// Keys are stored as SHA-256 hashes so plaintext keys never stay in memory.
type KeyStore struct {
	mu   sync.RWMutex
	keys map[string]string // SHA-256(apiKey) → tenantID
}

// NewKeyStore creates a KeyStore from a comma-separated "tenant:key" string.
// Example: "sales-bot:sk-abc,support-bot:sk-def"
func NewKeyStore(raw string) *KeyStore {
	ks := &KeyStore{keys: make(map[string]string)}
	for _, pair := range strings.Split(raw, ",") {
		parts := strings.SplitN(strings.TrimSpace(pair), ":", 2)
		if len(parts) != 2 {
			continue
		}
		tenant := strings.TrimSpace(parts[0])
		key := strings.TrimSpace(parts[1])
		if tenant == "" || key == "" {
			continue
		}
		ks.keys[hashKey(key)] = tenant
	}
	return ks
}

// Lookup returns the tenant ID for a given API key.
func (ks *KeyStore) Lookup(apiKey string) (tenantID string, ok bool) {
	if apiKey == "" {
		return "", false
	}
	ks.mu.RLock()
	defer ks.mu.RUnlock()
	tenantID, ok = ks.keys[hashKey(apiKey)]
	return
}

// Len returns the number of configured keys.
func (ks *KeyStore) Len() int {
	ks.mu.RLock()
	defer ks.mu.RUnlock()
	return len(ks.keys)
}

// TokenEqual compares a presented shared secret in constant time.
func TokenEqual(presented, expected string) bool {
	if expected == "" {
		return false
	}
	return subtle.ConstantTimeCompare([]byte(presented), []byte(expected)) == 1
}

func hashKey(key string) string {
	h := sha256.Sum256([]byte(key))
	return hex.EncodeToString(h[:])
}
