package types

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestErrorFormatting(t *testing.T) {
	err := NewError(ErrWorkerNotFound, "worker missing")
	assert.Equal(t, "[WORKER_NOT_FOUND] worker missing", err.Error())

	cause := errors.New("connection refused")
	err = NewError(ErrCallTimeout, "call failed").WithCause(cause).WithWorker("booker")
	assert.Contains(t, err.Error(), "CALL_TIMEOUT")
	assert.Contains(t, err.Error(), "connection refused")
	assert.Equal(t, "booker", err.Worker)
	assert.ErrorIs(t, err, cause)
}

func TestErrorCodeExtraction(t *testing.T) {
	err := NewError(ErrInvalidRoute, "not a child")
	assert.Equal(t, ErrInvalidRoute, GetErrorCode(err))
	assert.Equal(t, ErrorCode(""), GetErrorCode(errors.New("plain")))
	assert.Equal(t, ErrorCode(""), GetErrorCode(nil))
}

func TestErrorRetryable(t *testing.T) {
	err := NewError(ErrCallTimeout, "slow backend").WithRetryable(true)
	assert.True(t, IsRetryable(err))
	assert.False(t, IsRetryable(NewError(ErrInvalidTree, "bad tree")))
	assert.False(t, IsRetryable(errors.New("plain")))
}
