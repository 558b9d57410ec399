package jwtx

import (
	"context"
	"crypto"
	"crypto/rsa"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"math/big"
	"net/http"
	"sync"
	"time"
)

// KeySet holds the IdP's public keys indexed by kid. Refresh replaces the
// whole set; lookups are safe for concurrent use with refreshes.
type KeySet struct {
	mu   sync.RWMutex
	keys map[string]crypto.PublicKey

	url    string
	client *http.Client
}

// NewKeySet builds an empty key set that refreshes from the given JWKS URL.
func NewKeySet(jwksURL string) *KeySet {
	return &KeySet{
		keys:   make(map[string]crypto.PublicKey),
		url:    jwksURL,
		client: &http.Client{Timeout: 10 * time.Second},
	}
}

// Get returns the public key for a kid.
func (ks *KeySet) Get(kid string) (crypto.PublicKey, error) {
	ks.mu.RLock()
	defer ks.mu.RUnlock()

	pub, ok := ks.keys[kid]
	if !ok {
		return nil, ErrUnknownKID
	}
	return pub, nil
}

// IsReady reports whether at least one key has been loaded.
func (ks *KeySet) IsReady() bool {
	ks.mu.RLock()
	defer ks.mu.RUnlock()
	return len(ks.keys) > 0
}

type jwksDocument struct {
	Keys []jwksKey `json:"keys"`
}

type jwksKey struct {
	Kty string `json:"kty"`
	Kid string `json:"kid"`
	Use string `json:"use"`
	N   string `json:"n"`
	E   string `json:"e"`
}

// Refresh fetches the JWKS document and swaps in the parsed keys. Keys the
// IdP has dropped disappear from the set, which is how rotation retires them.
func (ks *KeySet) Refresh(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, ks.url, nil)
	if err != nil {
		return err
	}

	resp, err := ks.client.Do(req)
	if err != nil {
		return fmt.Errorf("jwtx: fetch jwks: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("jwtx: fetch jwks: unexpected status %d", resp.StatusCode)
	}

	var doc jwksDocument
	if err := json.NewDecoder(resp.Body).Decode(&doc); err != nil {
		return fmt.Errorf("jwtx: decode jwks: %w", err)
	}

	next := make(map[string]crypto.PublicKey, len(doc.Keys))
	for _, k := range doc.Keys {
		if k.Kty != "RSA" || k.Kid == "" {
			continue // only RSA signing keys are supported
		}
		pub, err := parseRSAKey(k)
		if err != nil {
			return fmt.Errorf("jwtx: parse jwks key %q: %w", k.Kid, err)
		}
		next[k.Kid] = pub
	}

	ks.mu.Lock()
	ks.keys = next
	ks.mu.Unlock()
	return nil
}

// StartRefreshing refreshes the key set on an interval until ctx is done.
// Failed refreshes keep the previous keys; onError observes the failure.
func (ks *KeySet) StartRefreshing(ctx context.Context, every time.Duration, onError func(error)) {
	go func() {
		ticker := time.NewTicker(every)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				if err := ks.Refresh(ctx); err != nil && onError != nil {
					onError(err)
				}
			}
		}
	}()
}

func parseRSAKey(k jwksKey) (*rsa.PublicKey, error) {
	nb, err := base64.RawURLEncoding.DecodeString(k.N)
	if err != nil {
		return nil, err
	}
	eb, err := base64.RawURLEncoding.DecodeString(k.E)
	if err != nil {
		return nil, err
	}

	e := 0
	for _, b := range eb {
		e = e<<8 | int(b)
	}

	return &rsa.PublicKey{
		N: new(big.Int).SetBytes(nb),
		E: e,
	}, nil
}
