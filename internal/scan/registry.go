package scan

import (
	"fmt"
	"strings"

	sharedErrors "github.com/khanhnv2901/vigilante/internal/shared/errors"
)

// Registry is an ordered set of uniquely named rules. Registration order is
// the evaluation and report order. Registries are composed at startup and
// treated as read-only once a scan begins.
type Registry struct {
	rules []Rule
	index map[string]int
}

// NewRegistry returns a registry holding rules, in order.
func NewRegistry(rules ...Rule) (*Registry, error) {
	r := &Registry{index: make(map[string]int)}
	if err := r.Register(rules...); err != nil {
		return nil, err
	}
	return r, nil
}

// Compose builds a registry from rule groups appended in the given order.
func Compose(groups ...[]Rule) (*Registry, error) {
	r := &Registry{index: make(map[string]int)}
	for _, g := range groups {
		if err := r.Register(g...); err != nil {
			return nil, err
		}
	}
	return r, nil
}

// Register appends rules. It fails without modifying the registry when a rule
// is nil, unnamed, or shares its name with a registered rule.
func (r *Registry) Register(rules ...Rule) error {
	if r.index == nil {
		r.index = make(map[string]int)
	}
	pending := make(map[string]struct{}, len(rules))
	for _, rule := range rules {
		if rule == nil {
			return sharedErrors.ErrNilRule
		}
		name := rule.Name()
		if strings.TrimSpace(name) == "" {
			return sharedErrors.ErrEmptyRuleName
		}
		if _, ok := r.index[name]; ok {
			return fmt.Errorf("%w: %q", sharedErrors.ErrDuplicateRule, name)
		}
		if _, ok := pending[name]; ok {
			return fmt.Errorf("%w: %q", sharedErrors.ErrDuplicateRule, name)
		}
		pending[name] = struct{}{}
	}
	for _, rule := range rules {
		r.index[rule.Name()] = len(r.rules)
		r.rules = append(r.rules, rule)
	}
	return nil
}

// MustRegister is Register for static catalogs; it panics on error.
func (r *Registry) MustRegister(rules ...Rule) *Registry {
	if err := r.Register(rules...); err != nil {
		panic(err)
	}
	return r
}

// Rules returns the rules in registry order. The slice is a copy.
func (r *Registry) Rules() []Rule {
	out := make([]Rule, len(r.rules))
	copy(out, r.rules)
	return out
}

// Len returns the number of registered rules.
func (r *Registry) Len() int {
	return len(r.rules)
}

// Lookup returns the rule registered under name.
func (r *Registry) Lookup(name string) (Rule, bool) {
	i, ok := r.index[name]
	if !ok {
		return nil, false
	}
	return r.rules[i], true
}

// Without returns a copy of the registry minus the named rules.
// Names that are not registered are reported with ErrUnknownRule.
func (r *Registry) Without(names ...string) (*Registry, error) {
	drop := make(map[string]struct{}, len(names))
	for _, name := range names {
		if _, ok := r.index[name]; !ok {
			return nil, fmt.Errorf("%w: %q", sharedErrors.ErrUnknownRule, name)
		}
		drop[name] = struct{}{}
	}
	kept := make([]Rule, 0, len(r.rules))
	for _, rule := range r.rules {
		if _, ok := drop[rule.Name()]; !ok {
			kept = append(kept, rule)
		}
	}
	return NewRegistry(kept...)
}

// RuleInfo describes a registered rule for listings.
type RuleInfo struct {
	Order       int    `json:"order" yaml:"order"`
	Name        string `json:"name" yaml:"name"`
	Description string `json:"description" yaml:"description"`
}

// Catalog describes the registered rules in order.
func (r *Registry) Catalog() []RuleInfo {
	out := make([]RuleInfo, len(r.rules))
	for i, rule := range r.rules {
		out[i] = RuleInfo{Order: i + 1, Name: rule.Name(), Description: rule.Description()}
	}
	return out
}
