package db

import (
	"fmt"
	"sort"
	"strings"
)

// Backend identifies a storage implementation
type Backend string

const (
	BackendPostgres Backend = "postgres"
	BackendMongoDB  Backend = "mongodb"
)

// ParseBackend parses a backend name case-insensitively
func ParseBackend(s string) (Backend, error) {
	switch Backend(strings.ToLower(strings.TrimSpace(s))) {
	case BackendPostgres:
		return BackendPostgres, nil
	case BackendMongoDB:
		return BackendMongoDB, nil
	default:
		return "", fmt.Errorf("unknown database backend %q", s)
	}
}

// Registry maps each configured backend to its Database implementation.
// It is built once at startup and only read afterwards.
type Registry struct {
	backends map[Backend]Database
	fallback Backend
}

// NewRegistry creates a registry whose default backend is fallback
func NewRegistry(fallback Backend) *Registry {
	return &Registry{
		backends: make(map[Backend]Database),
		fallback: fallback,
	}
}

// Register adds an implementation for a backend
func (r *Registry) Register(b Backend, database Database) {
	r.backends[b] = database
}

// Default returns the backend used when a request does not choose one
func (r *Registry) Default() Backend {
	return r.fallback
}

// For returns the implementation for a backend, or ErrBackendUnavailable
func (r *Registry) For(b Backend) (Database, error) {
	database, ok := r.backends[b]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrBackendUnavailable, b)
	}
	return database, nil
}

// Resolve maps a raw selector (typically a cookie value) to a backend.
// Empty or unknown values resolve to the default.
func (r *Registry) Resolve(raw string) Backend {
	if raw == "" {
		return r.fallback
	}
	b, err := ParseBackend(raw)
	if err != nil {
		return r.fallback
	}
	return b
}

// Backends returns the configured backends in name order
func (r *Registry) Backends() []Backend {
	out := make([]Backend, 0, len(r.backends))
	for b := range r.backends {
		out = append(out, b)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}
