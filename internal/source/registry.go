package source

import (
	"sort"

	"github.com/rotisserie/eris"
)

// Policy decides how custom sources combine with the built-in ones.
type Policy string

const (
	// PolicyAppend adds custom sources to the defaults.
	PolicyAppend Policy = "append"
	// PolicyReplace uses only the custom sources.
	PolicyReplace Policy = "replace"
)

// ParsePolicy validates a policy name. Empty means append.
func ParsePolicy(s string) (Policy, error) {
	switch Policy(s) {
	case "", PolicyAppend:
		return PolicyAppend, nil
	case PolicyReplace:
		return PolicyReplace, nil
	}
	return "", eris.Errorf("unknown sources policy %q (want append or replace)", s)
}

// Registry holds the configured sources keyed by origin.
type Registry struct {
	order   []string
	configs map[string]Config
}

// NewRegistry merges defaults and custom sources under policy. Duplicate or
// empty origins are configuration errors.
func NewRegistry(defaults, custom []Config, policy Policy) (*Registry, error) {
	var all []Config
	switch policy {
	case PolicyAppend, "":
		all = append(append(all, defaults...), custom...)
	case PolicyReplace:
		all = append(all, custom...)
	default:
		return nil, eris.Errorf("unknown sources policy %q", policy)
	}
	if len(all) == 0 {
		return nil, eris.New("no sources configured")
	}

	r := &Registry{configs: make(map[string]Config, len(all))}
	for _, cfg := range all {
		if cfg.Origin == "" {
			return nil, eris.New("source with empty origin")
		}
		if _, dup := r.configs[cfg.Origin]; dup {
			return nil, eris.Errorf("duplicate source origin %q", cfg.Origin)
		}
		r.configs[cfg.Origin] = cfg
		r.order = append(r.order, cfg.Origin)
	}
	return r, nil
}

// Get returns the config for origin.
func (r *Registry) Get(origin string) (Config, error) {
	cfg, ok := r.configs[origin]
	if !ok {
		known := append([]string(nil), r.order...)
		sort.Strings(known)
		return Config{}, eris.Errorf("unknown source %q (configured: %v)", origin, known)
	}
	return cfg, nil
}

// All returns the configs in registration order.
func (r *Registry) All() []Config {
	out := make([]Config, 0, len(r.order))
	for _, o := range r.order {
		out = append(out, r.configs[o])
	}
	return out
}

// Origins returns the configured origin names in registration order.
func (r *Registry) Origins() []string {
	return append([]string(nil), r.order...)
}
