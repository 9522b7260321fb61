package enumerator

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// walkAll drives e the way the walker does: discover whatever is missing,
// record the combination, stop when exhausted, otherwise advance.
// listing receives the labels chosen so far for the earlier stages.
func walkAll(t *testing.T, e *Enumerator, listing func(prefix []string) []string) []string {
	t.Helper()
	var seen []string
	for guard := 0; guard < 10000; guard++ {
		for e.Exploring() {
			prefix := make([]string, 0, e.Cursor()+1)
			for i := 0; i <= e.Cursor(); i++ {
				l, ok := e.Choice(i)
				require.True(t, ok)
				prefix = append(prefix, l)
			}
			require.NoError(t, e.Discover(listing(prefix)))
		}
		combo, err := e.Combination()
		require.NoError(t, err)
		labels := make([]string, len(combo))
		for i, ch := range combo {
			labels[i] = ch.Label
		}
		seen = append(seen, strings.Join(labels, ","))
		if e.Exhausted() {
			return seen
		}
		require.NoError(t, e.Advance())
	}
	t.Fatal("enumeration did not terminate")
	return nil
}

func fixed(lists ...[]string) func([]string) []string {
	return func(prefix []string) []string { return lists[len(prefix)] }
}

func TestEnumerator_TwoStageExample(t *testing.T) {
	e := New("A", "B")
	got := walkAll(t, e, fixed(
		[]string{"a1", "a2"},
		[]string{"b1", "b2", "b3"},
	))

	assert.Equal(t, []string{
		"a1,b1", "a1,b2", "a1,b3",
		"a2,b1", "a2,b2", "a2,b3",
	}, got)
	assert.True(t, e.Exhausted())
}

func TestEnumerator_SingleStageSingleOption(t *testing.T) {
	e := New("only")
	require.NoError(t, e.Discover([]string{"x"}))

	assert.True(t, e.Exhausted())
	assert.False(t, e.Exploring())

	combo, err := e.Combination()
	require.NoError(t, err)
	assert.Equal(t, Combination{{Stage: "only", Label: "x"}}, combo)
}

func TestEnumerator_Termination(t *testing.T) {
	tests := []struct {
		name  string
		sizes []int
	}{
		{"one stage", []int{4}},
		{"unit radix in the middle", []int{2, 1, 3}},
		{"unit radix last", []int{3, 1}},
		{"all unit", []int{1, 1, 1}},
		{"four stages", []int{2, 3, 2, 2}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			stages := make([]Stage, len(tt.sizes))
			lists := make([][]string, len(tt.sizes))
			want := 1
			for i, n := range tt.sizes {
				stages[i] = Stage(string(rune('A' + i)))
				for j := 0; j < n; j++ {
					lists[i] = append(lists[i], string(rune('a'+i))+string(rune('0'+j)))
				}
				want *= n
			}

			e := New(stages...)
			got := walkAll(t, e, fixed(lists...))

			assert.Len(t, got, want)
			unique := make(map[string]struct{}, len(got))
			for _, c := range got {
				unique[c] = struct{}{}
			}
			assert.Len(t, unique, want, "combinations must not repeat")
			assert.IsIncreasing(t, got, "combinations must be in stage-major order")
		})
	}
}

func TestEnumerator_DependentOptions(t *testing.T) {
	// The second stage offers a different number of options depending on
	// the first choice, like a dependent dropdown.
	listing := func(prefix []string) []string {
		switch len(prefix) {
		case 0:
			return []string{"p", "q"}
		default:
			if prefix[0] == "p" {
				return []string{"p1"}
			}
			return []string{"q1", "q2", "q3"}
		}
	}

	got := walkAll(t, New("first", "second"), listing)
	assert.Equal(t, []string{"p,p1", "q,q1", "q,q2", "q,q3"}, got)
}

func TestEnumerator_CarryInvalidation(t *testing.T) {
	e := New("A", "B", "C")
	require.NoError(t, e.Discover([]string{"a1", "a2"}))
	require.NoError(t, e.Discover([]string{"b1"}))
	require.NoError(t, e.Discover([]string{"c1"}))
	assert.False(t, e.Exploring())

	// C and B are both at their last option, so the carry lands on A.
	require.NoError(t, e.Advance())

	assert.True(t, e.Exploring())
	assert.Equal(t, 0, e.Cursor())
	assert.Nil(t, e.Options(1))
	assert.Nil(t, e.Options(2))
	_, ok := e.Choice(1)
	assert.False(t, ok)

	label, ok := e.Choice(0)
	require.True(t, ok)
	assert.Equal(t, "a2", label)

	_, err := e.Combination()
	assert.ErrorIs(t, err, ErrNoCurrentCombination)

	next, ok := e.NextStage()
	require.True(t, ok)
	assert.Equal(t, Stage("B"), next)

	require.NoError(t, e.Discover([]string{"b1"}))
	_, err = e.Combination()
	assert.ErrorIs(t, err, ErrNoCurrentCombination)

	require.NoError(t, e.Discover([]string{"c1"}))
	combo, err := e.Combination()
	require.NoError(t, err)
	assert.Equal(t, map[string]string{"A": "a2", "B": "b1", "C": "c1"}, combo.Map())
	assert.True(t, e.Exhausted())
}

func TestEnumerator_ExhaustedIsTerminal(t *testing.T) {
	e := New("A")
	require.NoError(t, e.Discover([]string{"a1", "a2"}))
	require.NoError(t, e.Advance())
	require.True(t, e.Exhausted())

	assert.ErrorIs(t, e.Advance(), ErrAlreadyExhausted)
	assert.ErrorIs(t, e.Discover([]string{"z"}), ErrAlreadyExhausted)
	assert.True(t, e.Exhausted())

	combo, err := e.Combination()
	require.NoError(t, err)
	l, _ := combo.Label("A")
	assert.Equal(t, "a2", l)
}

func TestEnumerator_ContractViolations(t *testing.T) {
	t.Run("empty listing leaves state unchanged", func(t *testing.T) {
		e := New("A", "B")
		require.NoError(t, e.Discover([]string{"a1"}))

		err := e.Discover(nil)
		require.ErrorIs(t, err, ErrInvalidOptionSet)
		assert.Contains(t, err.Error(), `"B"`)

		assert.Equal(t, 0, e.Cursor())
		assert.True(t, e.Exploring())
		assert.Nil(t, e.Options(1))
	})

	t.Run("discover past the last stage", func(t *testing.T) {
		e := New("A")
		require.NoError(t, e.Discover([]string{"a1", "a2"}))
		assert.ErrorIs(t, e.Discover([]string{"x"}), ErrNoNextStage)
	})

	t.Run("advance during discovery", func(t *testing.T) {
		e := New("A", "B")
		assert.ErrorIs(t, e.Advance(), ErrIncompleteDiscovery)

		require.NoError(t, e.Discover([]string{"a1", "a2"}))
		assert.ErrorIs(t, e.Advance(), ErrIncompleteDiscovery)
		label, _ := e.Choice(0)
		assert.Equal(t, "a1", label)
	})

	t.Run("combination before discovery", func(t *testing.T) {
		e := New("A")
		_, err := e.Combination()
		assert.ErrorIs(t, err, ErrNoCurrentCombination)
	})
}

func TestEnumerator_DiscoverCopiesListing(t *testing.T) {
	listing := []string{"a1", "a2"}
	e := New("A")
	require.NoError(t, e.Discover(listing))
	listing[0] = "mutated"

	label, _ := e.Choice(0)
	assert.Equal(t, "a1", label)
}

func TestEnumerator_NoStages(t *testing.T) {
	e := New()

	assert.True(t, e.Exploring())
	assert.False(t, e.Exhausted())
	assert.ErrorIs(t, e.Discover([]string{"a"}), ErrNoNextStage)
	assert.ErrorIs(t, e.Advance(), ErrIncompleteDiscovery)
	_, err := e.Combination()
	assert.ErrorIs(t, err, ErrNoCurrentCombination)
	assert.True(t, e.Exploring(), "an empty enumerator never leaves exploration")
}
