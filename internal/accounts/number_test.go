package accounts

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestStandardizeNumber(t *testing.T) {
	require.Equal(t, "1000-2", StandardizeNumber(" 1000 - 2 "))
	require.Equal(t, "1000", StandardizeNumber(" 1000 "))
	require.Equal(t, "1000-2-15", StandardizeNumber("1000 - 2 - 15"))
	require.Equal(t, "", StandardizeNumber("   "))
}

func TestIsSubNumber(t *testing.T) {
	require.False(t, IsSubNumber("1000"))
	require.True(t, IsSubNumber("1000-1"))
}

func TestNextSubNumber(t *testing.T) {
	t.Run("first child", func(t *testing.T) {
		require.Equal(t, "1000-1", NextSubNumber("1000", nil))
	})

	t.Run("gap in sequence", func(t *testing.T) {
		next := NextSubNumber("1000", []string{"1000-1", "1000-3"})
		require.Equal(t, "1000-4", next)
	})

	t.Run("ignores other parents", func(t *testing.T) {
		next := NextSubNumber("1000", []string{"2000-7", "1000-2"})
		require.Equal(t, "1000-3", next)
	})

	t.Run("malformed suffix counts as zero", func(t *testing.T) {
		next := NextSubNumber("1000", []string{"1000-x"})
		require.Equal(t, "1000-1", next)
	})

	t.Run("nested parent", func(t *testing.T) {
		next := NextSubNumber("1000-2", []string{"1000-2-1", "1000-2-2"})
		require.Equal(t, "1000-2-3", next)
	})
}

func TestSuffixSequence(t *testing.T) {
	seq, ok := suffixSequence("1000-12", "1000")
	require.True(t, ok)
	require.Equal(t, 12, seq)

	seq, ok = suffixSequence("1000-12a", "1000")
	require.True(t, ok)
	require.Equal(t, 12, seq)

	_, ok = suffixSequence("2000-1", "1000")
	require.False(t, ok)

	seq, ok = suffixSequence("1000-", "1000")
	require.True(t, ok)
	require.Equal(t, 0, seq)
}
