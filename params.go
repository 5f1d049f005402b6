package stint

import "encoding/json"

// Collaborator marks a parameter value as a live process-local handle
// (a storage client, a cache client). Collaborators are stripped before
// parameters are persisted and must be re-attached by the resumption
// entry point.
type Collaborator interface {
	Collaborator()
}

// Params carries job parameters through execution, suspension, and
// resumption. Values must be JSON-serializable except for collaborators,
// which survive only within a single process invocation.
type Params map[string]any

// Clone returns a shallow copy of the parameter map.
func (p Params) Clone() Params {
	if p == nil {
		return nil
	}
	out := make(Params, len(p))
	for k, v := range p {
		out[k] = v
	}
	return out
}

// Sanitize returns a copy with collaborator handles and any value that
// cannot be JSON-marshaled removed. The result is safe to persist.
func (p Params) Sanitize() Params {
	out := make(Params, len(p))
	for k, v := range p {
		if _, ok := v.(Collaborator); ok {
			continue
		}
		if _, err := json.Marshal(v); err != nil {
			continue
		}
		out[k] = v
	}
	return out
}
