package idx_test

import (
	"testing"
	"time"

	"github.com/dimbox/dimbox/pkg/idx"
	"github.com/stretchr/testify/require"
)

func TestNewAndParse(t *testing.T) {
	id := idx.New()
	require.False(t, id.IsZero())

	parsed, err := idx.Parse(id.String())
	require.NoError(t, err)
	require.Equal(t, id, parsed)
}

func TestParseRejectsGarbage(t *testing.T) {
	_, err := idx.Parse("")
	require.ErrorIs(t, err, idx.ErrInvalid)

	_, err = idx.Parse("not-a-ulid")
	require.ErrorIs(t, err, idx.ErrInvalid)
}

func TestMonotonicOrdering(t *testing.T) {
	a := idx.NewAt(time.Unix(1, 0).UTC())
	b := idx.NewAt(time.Unix(2, 0).UTC())
	require.Less(t, a.String(), b.String())
}

func TestFromHeader(t *testing.T) {
	t.Run("keeps a valid id", func(t *testing.T) {
		id := idx.New()
		require.Equal(t, id, idx.FromHeader(id.String()))
	})

	t.Run("replaces an invalid id", func(t *testing.T) {
		id := idx.FromHeader("abc")
		require.False(t, id.IsZero())
		require.NotEqual(t, "abc", id.String())
	})
}

func TestTimeExtraction(t *testing.T) {
	tm := time.Unix(1700000000, 0).UTC()
	require.WithinDuration(t, tm, idx.NewAt(tm).Time(), time.Millisecond)
	require.True(t, idx.ID("bogus").Time().IsZero())
}
