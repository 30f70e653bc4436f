package game

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestContainsAll(t *testing.T) {
	cases := []struct {
		name  string
		prior []string
		next  []string
		want  bool
	}{
		{name: "empty prior matches anything", prior: nil, next: []string{"x", "y"}, want: true},
		{name: "empty prior matches empty", prior: nil, next: nil, want: true},
		{name: "shorter next fails", prior: []string{"a", "b"}, next: []string{"a"}, want: false},
		{name: "repeated word satisfies length", prior: []string{"a"}, next: []string{"a", "a"}, want: true},
		{name: "order does not matter", prior: []string{"a", "b"}, next: []string{"b", "c", "a"}, want: true},
		{name: "missing word fails", prior: []string{"a", "b"}, next: []string{"a", "c"}, want: false},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			require.Equal(t, tc.want, ContainsAll(tc.prior, tc.next))
		})
	}
}

func TestAdvance_FirstItem(t *testing.T) {
	res := Advance(nil, []string{"apple"}, "apple")

	require.True(t, res.Continue)
	require.False(t, res.Rearm)
	require.Equal(t, []string{"apple"}, res.Words)
	require.Equal(t, []string{
		"So all that you want to bring is:",
		"an apple,",
		"And what else?",
	}, res.Lines)
}

func TestAdvance_SecondItem(t *testing.T) {
	res := Advance([]string{"apple"}, []string{"apple", "banana"}, "apple banana")

	require.True(t, res.Continue)
	require.Equal(t, []string{"apple", "banana"}, res.Words)
	require.Equal(t, []string{
		"So all that you want to bring are:",
		"an apple,",
		"a banana,",
		"And what else?",
	}, res.Lines)
}

func TestAdvance_TooManyOnFirstTurn(t *testing.T) {
	res := Advance(nil, []string{"apple", "banana"}, "apple banana")

	require.False(t, res.Continue)
	require.True(t, res.Rearm)
	require.Nil(t, res.Words)
	require.Len(t, res.Lines, 3)
	require.Equal(t, "Whoa, one thing at a time!", res.Lines[0])
}

func TestAdvance_MissedPreviousItems(t *testing.T) {
	res := Advance([]string{"apple", "banana"}, []string{"apple"}, "apple")

	require.False(t, res.Continue)
	require.False(t, res.Rearm)
	require.Equal(t, []string{
		"You didn't say all the previous items",
		"apple",
		"apple",
	}, res.Lines)
}

func TestAdvance_NoNewItem(t *testing.T) {
	res := Advance([]string{"apple"}, []string{"apple"}, "apple")

	require.False(t, res.Continue)
	require.False(t, res.Rearm)
	require.Equal(t, []string{
		"You've only said the same items and forgot to add a new one",
		"apple",
		"apple",
	}, res.Lines)
}

func TestAdvance_TooManyNewItems(t *testing.T) {
	res := Advance([]string{"apple"}, []string{"apple", "banana", "kiwi"}, "apple banana kiwi")

	require.False(t, res.Continue)
	require.Equal(t, "You've mentioned 1 too many items", res.Lines[0])
	require.Equal(t, "apple banana kiwi", res.Lines[1])
	require.Equal(t, []string{"apple", "banana", "kiwi"}, res.Lines[2:])
}

func TestAdvance_EmptyUtterance(t *testing.T) {
	res := Advance([]string{"apple"}, nil, "")

	require.True(t, res.Continue)
	require.Empty(t, res.Words)
	require.NotNil(t, res.Words)
	require.Equal(t, []string{
		"So all that you want to bring are:",
		"And what else?",
	}, res.Lines)
}

func TestArticle(t *testing.T) {
	require.Equal(t, "an", article("apple"))
	require.Equal(t, "an", article("orange"))
	require.Equal(t, "a", article("banana"))
	require.Equal(t, "a", article(""))
}
