package context

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestTraceRoundTrip(t *testing.T) {
	ctx := context.Background()
	assert.Nil(t, GetTrace(ctx))
	assert.Empty(t, GetRequestID(ctx))

	trace := NewTraceContext()
	ctx = WithTrace(ctx, trace)

	assert.Same(t, trace, GetTrace(ctx))
	assert.Equal(t, trace.RequestID, GetRequestID(ctx))
	assert.Len(t, trace.SpanID, 16)
}

func TestChannelScope(t *testing.T) {
	ctx := context.Background()
	assert.Empty(t, GetChannel(ctx))

	ctx = WithChannel(ctx, "WEB_EU")
	assert.Equal(t, "WEB_EU", GetChannel(ctx))
}
