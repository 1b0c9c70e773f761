package errors

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestIngestError_Error(t *testing.T) {
	err := NewNetwork("mgs", "fetch failed", errors.New("connection refused"))
	assert.Equal(t, "[network] mgs: fetch failed - connection refused", err.Error())

	err = NewRateLimit("duga", 300*time.Second)
	assert.Equal(t, "[rate_limit] duga: rate limited for 5m0s", err.Error())
}

func TestIngestError_Unwrap(t *testing.T) {
	inner := errors.New("connection refused")
	err := NewNetwork("mgs", "fetch failed", inner)
	assert.ErrorIs(t, err, inner)
}

func TestIngestError_IsRetryable(t *testing.T) {
	assert.True(t, NewNetwork("mgs", "fetch failed", nil).IsRetryable())
	assert.True(t, NewDatabase("", "insert failed", nil).IsRetryable())
	assert.False(t, NewParsing("mgs", "bad JSON", nil).IsRetryable())
	assert.False(t, NewEncoding("caribbeancom", "bad bytes", nil).IsRetryable())
	assert.False(t, NewAuth("missing token").IsRetryable())
	assert.False(t, NewRateLimit("duga", time.Minute).IsRetryable())
}

func TestIngestError_As(t *testing.T) {
	var ingestErr *IngestError
	err := error(NewValidation("fc2", "missing id"))
	assert.ErrorAs(t, err, &ingestErr)
	assert.Equal(t, ErrorTypeValidation, ingestErr.Type)
	assert.Equal(t, "fc2", ingestErr.Provider)
}
