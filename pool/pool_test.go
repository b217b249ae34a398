package pool

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewFixedBlockPoolRejectsBadSize(t *testing.T) {
	_, err := NewFixedBlockPool(0)
	require.Error(t, err)
}

func TestFixedBlockPoolReusesReleasedBuffers(t *testing.T) {
	p, err := NewFixedBlockPool(4)
	require.NoError(t, err)

	buf := p.Acquire()
	require.Len(t, buf, 4)
	buf[0] = 99
	p.Release(buf)
	assert.Equal(t, 1, p.Free())

	reused := p.Acquire()
	assert.Equal(t, 0.0, reused[0])
	assert.Equal(t, 0, p.Free())
}

func TestFixedBlockPoolIgnoresMismatchedRelease(t *testing.T) {
	p, err := NewFixedBlockPool(4)
	require.NoError(t, err)
	p.Release(make([]float64, 8))
	assert.Equal(t, 0, p.Free())
}

func TestVariableBlockPoolRejectsNonPositiveLength(t *testing.T) {
	p := NewVariableBlockPool()
	_, err := p.Acquire(0)
	require.Error(t, err)
}

func TestVariableBlockPoolReusesSameSizeClass(t *testing.T) {
	p := NewVariableBlockPool()
	buf, err := p.Acquire(10)
	require.NoError(t, err)
	require.Len(t, buf, 10)
	buf[0] = 5
	p.Release(buf)

	reused, err := p.Acquire(9)
	require.NoError(t, err)
	assert.Len(t, reused, 9)
	assert.Equal(t, 0.0, reused[0])
}
