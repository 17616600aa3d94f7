package future

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestResolveDelivers(t *testing.T) {
	p, f := New[int]()
	assert.False(t, f.Ready())
	go p.Resolve(42)
	v, err := f.Wait()
	require.NoError(t, err)
	assert.Equal(t, 42, v)
	assert.True(t, f.Ready())
}

func TestRejectDelivers(t *testing.T) {
	p, f := New[int]()
	wantErr := errors.New("boom")
	p.Reject(wantErr)
	_, err := f.Wait()
	assert.ErrorIs(t, err, wantErr)
}

func TestOnlyFirstResolutionWins(t *testing.T) {
	p, f := New[int]()
	p.Resolve(1)
	p.Resolve(2)
	v, err := f.Wait()
	require.NoError(t, err)
	assert.Equal(t, 1, v)
}

func TestDoneChannelUsableInSelect(t *testing.T) {
	p, f := New[int]()
	go func() {
		time.Sleep(time.Millisecond)
		p.Resolve(7)
	}()
	select {
	case <-f.Done():
	case <-time.After(time.Second):
		t.Fatal("future never resolved")
	}
	v, err := f.Wait()
	require.NoError(t, err)
	assert.Equal(t, 7, v)
}
