package breaker

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestBreakerStartsClosed(t *testing.T) {
	b := New("test", nil)
	assert.Equal(t, StateClosed, b.State())
	assert.True(t, b.IsAvailable())
}

func TestBreakerOpensAfterThreeConsecutiveFailures(t *testing.T) {
	b := New("test", nil)
	b.RecordFailure()
	b.RecordFailure()
	assert.Equal(t, StateClosed, b.State())
	b.RecordFailure()
	assert.Equal(t, StateOpen, b.State())
	assert.False(t, b.IsAvailable())
}

func TestBreakerSuccessResetsFailureCountWhenClosed(t *testing.T) {
	b := New("test", nil)
	b.RecordFailure()
	b.RecordFailure()
	b.RecordSuccess()
	b.RecordFailure()
	b.RecordFailure()
	// two consecutive failures again, not three in a row since success reset.
	assert.Equal(t, StateClosed, b.State())
}

func TestBreakerHalfOpenAfterTimeout(t *testing.T) {
	b := New("test", nil)
	b.timeout = 10 * time.Millisecond
	b.RecordFailure()
	b.RecordFailure()
	b.RecordFailure()
	assert.Equal(t, StateOpen, b.State())

	time.Sleep(20 * time.Millisecond)
	assert.True(t, b.IsAvailable())
	assert.Equal(t, StateHalfOpen, b.State())
}

func TestBreakerHalfOpenClosesAfterTwoSuccesses(t *testing.T) {
	b := New("test", nil)
	b.timeout = 10 * time.Millisecond
	b.RecordFailure()
	b.RecordFailure()
	b.RecordFailure()
	time.Sleep(20 * time.Millisecond)
	b.IsAvailable() // transitions to half-open

	b.RecordSuccess()
	assert.Equal(t, StateHalfOpen, b.State())
	b.RecordSuccess()
	assert.Equal(t, StateClosed, b.State())
}

func TestBreakerHalfOpenReopensOnAnyFailure(t *testing.T) {
	b := New("test", nil)
	b.timeout = 10 * time.Millisecond
	b.RecordFailure()
	b.RecordFailure()
	b.RecordFailure()
	time.Sleep(20 * time.Millisecond)
	b.IsAvailable()

	b.RecordFailure()
	assert.Equal(t, StateOpen, b.State())
}

func TestExecuteSkipsCallWhenOpen(t *testing.T) {
	b := New("test", nil)
	b.RecordFailure()
	b.RecordFailure()
	b.RecordFailure()

	called := false
	err := b.Execute(func() error {
		called = true
		return nil
	})
	assert.Error(t, err)
	assert.False(t, called)
}

func TestExecuteRecordsFailure(t *testing.T) {
	b := New("test", nil)
	wantErr := errors.New("boom")
	err := b.Execute(func() error { return wantErr })
	assert.Equal(t, wantErr, err)
	assert.Equal(t, 1, b.consecutiveFailures)
}

func TestManagerGetOrCreateReusesBreaker(t *testing.T) {
	m := NewManager(nil)
	a := m.GetOrCreate("arxiv")
	b := m.GetOrCreate("arxiv")
	assert.Same(t, a, b)
}

func TestManagerStatesSnapshot(t *testing.T) {
	m := NewManager(nil)
	m.GetOrCreate("arxiv")
	m.GetOrCreate("pubmed")
	states := m.States()
	assert.Len(t, states, 2)
	assert.Equal(t, StateClosed, states["arxiv"])
}
