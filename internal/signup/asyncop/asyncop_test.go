package asyncop

import (
	"sync"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOp_Lifecycle(t *testing.T) {
	var op Op
	assert.Equal(t, Idle, op.State())

	tok, ok := op.Begin()
	require.True(t, ok)
	assert.Equal(t, InFlight, op.State())

	_, again := op.Begin()
	assert.False(t, again, "second Begin while in flight must be refused")

	assert.True(t, tok.Fail())
	assert.Equal(t, Failed, op.State())

	tok2, ok := op.Begin()
	require.True(t, ok, "failed operations can be retried")
	assert.False(t, tok.Succeed(), "stale token must not resolve the new attempt")
	assert.True(t, tok2.Succeed())
	assert.Equal(t, Done, op.State())

	_, ok = op.Begin()
	assert.False(t, ok, "done is terminal until Reset")
}

func TestOp_ResetRefusedWhileInFlight(t *testing.T) {
	var op Op
	tok, _ := op.Begin()

	assert.False(t, op.Reset())
	assert.True(t, tok.Release())
	assert.Equal(t, Idle, op.State())
	assert.True(t, op.Reset())
}

func TestOp_ResetInvalidatesTokens(t *testing.T) {
	var op Op
	tok, _ := op.Begin()
	require.True(t, tok.Succeed())
	require.True(t, op.Reset())

	assert.False(t, tok.Fail())
	assert.Equal(t, Idle, op.State())
}

func TestToken_ZeroValue(t *testing.T) {
	var tok Token
	assert.False(t, tok.Succeed())
	assert.False(t, tok.Fail())
	assert.False(t, tok.Release())
}

func TestOp_ConcurrentBeginAdmitsOne(t *testing.T) {
	var (
		op      Op
		wg      sync.WaitGroup
		winners int32
	)
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, ok := op.Begin(); ok {
				atomic.AddInt32(&winners, 1)
			}
		}()
	}
	wg.Wait()
	assert.Equal(t, int32(1), winners)
}

func TestState_String(t *testing.T) {
	assert.Equal(t, "idle", Idle.String())
	assert.Equal(t, "in-flight", InFlight.String())
	assert.Equal(t, "done", Done.String())
	assert.Equal(t, "failed", Failed.String())
	assert.Equal(t, "unknown", State(9).String())
}
