package github

import (
	"math/rand"
	"strings"
	"sync"

	perr "leakhound/internal/platform/errors"
)

// ErrNoCredentials is returned when the pool has no tokens left to hand out
var ErrNoCredentials = perr.New(perr.ErrorCodeNoCredentials, "access token pool is empty")

// TokenPool hands out API access tokens and evicts the ones the remote API
// rejects. Eviction is atomic with respect to concurrent sampling so a dead
// token is never handed out after Remove returns
type TokenPool struct {
	mu     sync.Mutex
	tokens []string
	pick   func(n int) int
}

// NewTokenPool builds a pool from a token list, dropping blanks
func NewTokenPool(tokens []string) *TokenPool {
	p := &TokenPool{pick: rand.Intn}
	for _, t := range tokens {
		if t = strings.TrimSpace(t); t != "" {
			p.tokens = append(p.tokens, t)
		}
	}
	return p
}

// NewTokenPoolCSV builds a pool from a comma separated token string
func NewTokenPoolCSV(csv string) *TokenPool {
	return NewTokenPool(strings.Split(csv, ","))
}

// Sample returns one token with no preference order
// Returns ErrNoCredentials when the pool is empty
func (p *TokenPool) Sample() (string, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if len(p.tokens) == 0 {
		return "", ErrNoCredentials
	}
	return p.tokens[p.pick(len(p.tokens))], nil
}

// Remove evicts a token from the pool; removing an absent token is a no-op
func (p *TokenPool) Remove(token string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	for i, t := range p.tokens {
		if t == token {
			p.tokens = append(p.tokens[:i], p.tokens[i+1:]...)
			return
		}
	}
}

// Size reports how many tokens remain
func (p *TokenPool) Size() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.tokens)
}
