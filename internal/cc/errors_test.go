package cc

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"go.etcd.io/etcd/client/v3/concurrency"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

func TestClassifyNilStaysNil(t *testing.T) {
	assert.Nil(t, Classify("get", nil))
}

func TestClassifyWrapsWithOpAndKind(t *testing.T) {
	err := Classify("get", context.DeadlineExceeded)
	var coordErr *CoordinationError
	ok := errors.As(err, &coordErr)
	assert.True(t, ok)
	assert.Equal(t, "get", coordErr.Op)
	assert.Equal(t, KindTransient, coordErr.Kind)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestClassifyKindDeadlineExceededIsTransient(t *testing.T) {
	assert.Equal(t, KindTransient, classifyKind(context.DeadlineExceeded))
}

func TestClassifyKindCanceledIsFatalNotTransient(t *testing.T) {
	assert.Equal(t, KindFatal, classifyKind(context.Canceled))
}

func TestClassifyKindSessionExpiredIsSessionLost(t *testing.T) {
	assert.Equal(t, KindSessionLost, classifyKind(concurrency.ErrSessionExpired))
}

func TestClassifyKindGRPCStatusCodes(t *testing.T) {
	cases := []struct {
		code codes.Code
		want Kind
	}{
		{codes.Unavailable, KindTransient},
		{codes.DeadlineExceeded, KindTransient},
		{codes.Aborted, KindTransient},
		{codes.ResourceExhausted, KindTransient},
		{codes.Unknown, KindFatal},
		{codes.NotFound, KindFatal},
		{codes.PermissionDenied, KindFatal},
	}
	for _, c := range cases {
		got := classifyKind(status.Error(c.code, "boom"))
		assert.Equal(t, c.want, got, "code %s", c.code)
	}
}

func TestKindString(t *testing.T) {
	assert.Equal(t, "transient", KindTransient.String())
	assert.Equal(t, "session-lost", KindSessionLost.String())
	assert.Equal(t, "fatal", KindFatal.String())
}
