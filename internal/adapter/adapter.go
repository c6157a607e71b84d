// Package adapter converts raw provider payloads into intermediate records.
//
// Each upstream tool (source-control host, issue tracker) has its own webhook
// shape; an Adapter knows one shape and extracts the five fields the
// normalizer needs. Adapters are registered by provider kind so new sources
// can be added without touching the pipeline.
package adapter

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/shiplog-systems/shiplog-signals/internal/models"
)

// ErrUnknownProvider is returned when no adapter is registered for the
// requested provider kind.
var ErrUnknownProvider = errors.New("unknown provider kind")

// ValidationError reports a malformed or incomplete upstream payload.
// It is caller-visible and non-retryable: no signal is created for it.
type ValidationError struct {
	Source string // provider kind that rejected the payload
	Field  string // dotted path of the offending field
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s payload invalid: field %q %s", e.Source, e.Field, e.Reason)
}

// IsValidation reports whether err is (or wraps) a ValidationError.
func IsValidation(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}

// Adapter parses one provider's raw payload into an IntermediateRecord.
type Adapter interface {
	// Parse extracts the intermediate record from a raw payload.
	// It returns a *ValidationError when a required field is absent or
	// of the wrong shape.
	Parse(payload json.RawMessage) (*models.IntermediateRecord, error)

	// Kind returns the provider kind this adapter handles.
	Kind() string
}

// Registry maps provider kinds to adapters.
type Registry struct {
	items map[string]Adapter
}

// NewRegistry constructs a registry with the provided adapters.
func NewRegistry(adapters ...Adapter) *Registry {
	r := &Registry{items: make(map[string]Adapter, len(adapters))}
	for _, a := range adapters {
		r.items[a.Kind()] = a
	}
	return r
}

// Register adds or replaces the adapter for its kind.
func (r *Registry) Register(a Adapter) {
	r.items[a.Kind()] = a
}

// Find returns the adapter for the given kind, or ErrUnknownProvider.
func (r *Registry) Find(kind string) (Adapter, error) {
	a, ok := r.items[kind]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownProvider, kind)
	}
	return a, nil
}

// Kinds returns the registered provider kinds.
func (r *Registry) Kinds() []string {
	kinds := make([]string, 0, len(r.items))
	for k := range r.items {
		kinds = append(kinds, k)
	}
	return kinds
}
