package buffer

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFreshBufferIsEmpty(t *testing.T) {
	b := New(16)
	assert.Equal(t, 0, b.Len())
	assert.False(t, b.Overflowed())
	assert.Equal(t, int64(16), b.Limit())
}

func TestDefaultHighWatermark(t *testing.T) {
	b := New(0)
	assert.Equal(t, DefaultHighWatermark, b.Limit())

	b = New(-5)
	assert.Equal(t, DefaultHighWatermark, b.Limit())
}

func TestWriteWithinLimit(t *testing.T) {
	b := New(4)
	n, err := b.Write([]byte("ab"))
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	// Filling to exactly the limit is still allowed.
	n, err = b.Write([]byte("cd"))
	require.NoError(t, err)
	assert.Equal(t, 2, n)
	assert.Equal(t, 4, b.Len())
	assert.Equal(t, []byte("abcd"), b.Bytes())
	assert.False(t, b.Overflowed())
}

func TestWriteOverLimitIsAtomic(t *testing.T) {
	b := New(4)
	_, err := b.Write([]byte("abc"))
	require.NoError(t, err)

	// 3 + 2 > 4: rejected as a whole, no partial write observable.
	n, err := b.Write([]byte("de"))
	assert.ErrorIs(t, err, ErrOverflow)
	assert.Equal(t, 0, n)
	assert.Equal(t, 3, b.Len())
	assert.Equal(t, []byte("abc"), b.Bytes())
}

func TestOverflowLatches(t *testing.T) {
	b := New(1)
	_, err := b.Write([]byte("xy"))
	require.ErrorIs(t, err, ErrOverflow)
	assert.True(t, b.Overflowed())

	// A later successful write does not clear the flag.
	_, err = b.Write([]byte("z"))
	require.NoError(t, err)
	assert.True(t, b.Overflowed())
}
