// Package auth provides credential policies for the HTTP layer.
package auth

import (
	"context"
	"fmt"
)

// StaticKeyPolicy maps pre-shared API keys to user IDs. An empty key set
// means auth is disabled and every caller is anonymous.
type StaticKeyPolicy struct {
	keys map[string]string
}

// NewStaticKeyPolicy builds a policy from a key -> user ID map.
func NewStaticKeyPolicy(keys map[string]string) *StaticKeyPolicy {
	return &StaticKeyPolicy{keys: keys}
}

// Authorize resolves the presented key to its user ID. With no keys
// configured everyone passes as anonymous; otherwise unknown keys are
// rejected.
func (p *StaticKeyPolicy) Authorize(ctx context.Context, credential string) (string, error) {
	if len(p.keys) == 0 {
		return "", nil
	}
	if userID, ok := p.keys[credential]; ok {
		return userID, nil
	}
	return "", fmt.Errorf("unknown API key")
}
