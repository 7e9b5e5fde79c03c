package scan

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	sharedErrors "github.com/khanhnv2901/vigilante/internal/shared/errors"
)

func staticRule(name string, out Outcome) Rule {
	return NewRule(name, name+" description", func(context.Context, *PageContext) (Outcome, error) {
		return out, nil
	})
}

func TestRegistryPreservesOrder(t *testing.T) {
	reg, err := NewRegistry(
		staticRule("b", Outcome{Status: StatusPass}),
		staticRule("a", Outcome{Status: StatusPass}),
		staticRule("c", Outcome{Status: StatusPass}),
	)
	require.NoError(t, err)

	var names []string
	for _, r := range reg.Rules() {
		names = append(names, r.Name())
	}
	assert.Equal(t, []string{"b", "a", "c"}, names)

	catalog := reg.Catalog()
	require.Len(t, catalog, 3)
	assert.Equal(t, 1, catalog[0].Order)
	assert.Equal(t, "b description", catalog[0].Description)
}

func TestRegistryRejectsDuplicates(t *testing.T) {
	reg, err := NewRegistry(staticRule("HSTS Validation", Outcome{Status: StatusPass}))
	require.NoError(t, err)

	err = reg.Register(staticRule("Other", Outcome{}), staticRule("HSTS Validation", Outcome{}))
	require.Error(t, err)
	assert.True(t, errors.Is(err, sharedErrors.ErrDuplicateRule))
	assert.Equal(t, 1, reg.Len(), "failed registration must not partially apply")

	_, err = NewRegistry(staticRule("x", Outcome{}), staticRule("x", Outcome{}))
	assert.ErrorIs(t, err, sharedErrors.ErrDuplicateRule)
}

func TestRegistryRejectsInvalidRules(t *testing.T) {
	_, err := NewRegistry(nil)
	assert.ErrorIs(t, err, sharedErrors.ErrNilRule)

	_, err = NewRegistry(staticRule("  ", Outcome{}))
	assert.ErrorIs(t, err, sharedErrors.ErrEmptyRuleName)
}

func TestComposeAppendsGroups(t *testing.T) {
	core := []Rule{staticRule("one", Outcome{}), staticRule("two", Outcome{})}
	extra := []Rule{staticRule("three", Outcome{})}

	reg, err := Compose(core, extra)
	require.NoError(t, err)
	assert.Equal(t, 3, reg.Len())

	rule, ok := reg.Lookup("three")
	require.True(t, ok)
	assert.Equal(t, "three", rule.Name())

	_, err = Compose(core, core)
	assert.ErrorIs(t, err, sharedErrors.ErrDuplicateRule)
}

func TestRegistryWithout(t *testing.T) {
	reg := (&Registry{}).MustRegister(
		staticRule("one", Outcome{}),
		staticRule("two", Outcome{}),
		staticRule("three", Outcome{}),
	)

	trimmed, err := reg.Without("two")
	require.NoError(t, err)
	assert.Equal(t, 2, trimmed.Len())
	_, ok := trimmed.Lookup("two")
	assert.False(t, ok)
	assert.Equal(t, 3, reg.Len(), "original registry is untouched")

	_, err = reg.Without("missing")
	assert.ErrorIs(t, err, sharedErrors.ErrUnknownRule)
}

func TestMustRegisterPanicsOnDuplicate(t *testing.T) {
	assert.Panics(t, func() {
		(&Registry{}).MustRegister(staticRule("x", Outcome{}), staticRule("x", Outcome{}))
	})
}

func TestRulesReturnsCopy(t *testing.T) {
	reg := (&Registry{}).MustRegister(staticRule("one", Outcome{}))
	rules := reg.Rules()
	rules[0] = staticRule("replaced", Outcome{})

	again := reg.Rules()
	assert.Equal(t, "one", again[0].Name())
}
