package workflowsync

import (
	"context"
	"errors"
	"strings"
)

const (
	scopeEpisode   = "episode"
	scopeSelection = "selection"
)

type requestScope struct {
	ctx    context.Context
	cancel context.CancelFunc
}

// requestScopes owns named cancellable contexts. Replacing a scope cancels
// every timer and request started under its previous context.
type requestScopes struct {
	parent context.Context
	scopes map[string]requestScope
}

func newRequestScopes(parent context.Context) requestScopes {
	if parent == nil {
		parent = context.Background()
	}
	return requestScopes{parent: parent, scopes: map[string]requestScope{}}
}

func (s *requestScopes) replace(name string) context.Context {
	name = strings.TrimSpace(name)
	if name == "" {
		return s.parent
	}
	s.cancel(name)
	ctx, cancel := context.WithCancel(s.parent)
	s.scopes[name] = requestScope{ctx: ctx, cancel: cancel}
	return ctx
}

// contextFor returns the live context for name, creating it if needed.
func (s *requestScopes) contextFor(name string) context.Context {
	scope, ok := s.scopes[strings.TrimSpace(name)]
	if !ok || scope.ctx == nil || scope.ctx.Err() != nil {
		return s.replace(name)
	}
	return scope.ctx
}

func (s *requestScopes) has(name string) bool {
	_, ok := s.scopes[strings.TrimSpace(name)]
	return ok
}

func (s *requestScopes) cancel(name string) {
	name = strings.TrimSpace(name)
	scope, ok := s.scopes[name]
	if !ok {
		return
	}
	if scope.cancel != nil {
		scope.cancel()
	}
	delete(s.scopes, name)
}

func (s *requestScopes) cancelAll() {
	for name := range s.scopes {
		s.cancel(name)
	}
}

func isCanceledRequestError(err error) bool {
	if err == nil {
		return false
	}
	return errors.Is(err, context.Canceled)
}
