package engine

// Registry is the read-only set of target wallets for one session. It is
// built from persisted user records at session start and never mutated;
// changing targets means a new session with a fresh registry.
type Registry struct {
	targets map[string]struct{}
}

// NewRegistry creates a registry from a target address list.
func NewRegistry(targets []string) *Registry {
	r := &Registry{targets: make(map[string]struct{}, len(targets))}
	for _, t := range targets {
		if t != "" {
			r.targets[t] = struct{}{}
		}
	}
	return r
}

// IsTarget reports whether addr is a tracked copy-target.
func (r *Registry) IsTarget(addr string) bool {
	_, ok := r.targets[addr]
	return ok
}

// Len returns the number of tracked targets.
func (r *Registry) Len() int {
	return len(r.targets)
}
