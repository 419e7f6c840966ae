package core

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/sony/gobreaker"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func testBreakerSettings() BreakerSettings {
	s := DefaultBreakerSettings("test")
	s.MinRequests = 2
	s.FailureThreshold = 1
	s.Timeout = time.Hour
	return s
}

func TestBreakerCompletion_PassesThrough(t *testing.T) {
	next := &fakeCompletion{reply: "fine"}
	b := NewBreakerCompletion(next, testBreakerSettings(), zap.NewNop())

	reply, err := b.Complete(context.Background(), CompletionRequest{Message: "hi"})
	require.NoError(t, err)
	assert.Equal(t, "fine", reply)
	assert.Equal(t, gobreaker.StateClosed, b.State())
}

func TestBreakerCompletion_OpensAndFailsFast(t *testing.T) {
	upstream := &UpstreamError{Status: 500, Body: "down"}
	next := &fakeCompletion{err: upstream}
	b := NewBreakerCompletion(next, testBreakerSettings(), zap.NewNop())

	for i := 0; i < 2; i++ {
		_, err := b.Complete(context.Background(), CompletionRequest{Message: "hi"})
		assert.ErrorIs(t, err, upstream)
	}
	require.Equal(t, gobreaker.StateOpen, b.State())

	_, err := b.Complete(context.Background(), CompletionRequest{Message: "hi"})
	var ue *UpstreamError
	require.ErrorAs(t, err, &ue)
	assert.Equal(t, 503, ue.Status)
	assert.ErrorIs(t, err, gobreaker.ErrOpenState)
	assert.ErrorIs(t, err, ErrCompletionUnavailable)
	assert.Equal(t, 2, next.calls(), "an open breaker must not reach the upstream")
}

func TestBreakerCompletion_CancellationDoesNotTrip(t *testing.T) {
	next := &fakeCompletion{err: &UpstreamError{Err: context.Canceled}}
	b := NewBreakerCompletion(next, testBreakerSettings(), zap.NewNop())

	for i := 0; i < 3; i++ {
		_, err := b.Complete(context.Background(), CompletionRequest{Message: "hi"})
		assert.True(t, errors.Is(err, context.Canceled))
	}
	assert.Equal(t, gobreaker.StateClosed, b.State())
}
