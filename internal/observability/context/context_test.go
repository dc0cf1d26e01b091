package context

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestContextValuesRoundTrip(t *testing.T) {
	ctx := WithRequestID(context.Background(), "req-1")
	ctx = WithDeviceID(ctx, "7")
	ctx = WithComponent(ctx, "gateway")

	assert.Equal(t, "req-1", RequestIDFromContext(ctx))
	assert.Equal(t, "7", DeviceIDFromContext(ctx))
	assert.Equal(t, "gateway", ComponentFromContext(ctx))
}

func TestEmptyValuesAreIgnored(t *testing.T) {
	ctx := WithDeviceID(context.Background(), "")
	assert.Equal(t, "", DeviceIDFromContext(ctx))
	assert.Equal(t, "", RequestIDFromContext(nil))
}
