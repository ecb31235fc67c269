package errors

import (
	stderrors "errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestErrorFormatting(t *testing.T) {
	err := New(ErrorTypeBadRequest, 400, "invalid page number")
	assert.Equal(t, "bad_request error (code 400): invalid page number", err.Error())

	cause := stderrors.New("connection refused")
	wrapped := Wrap(ErrorTypeNetwork, 0, "request failed", cause)
	assert.Equal(t, "network error (code 0): request failed: connection refused", wrapped.Error())
	assert.ErrorIs(t, wrapped, cause)
}

func TestTypeOf(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want ErrorType
	}{
		{"typed", New(ErrorTypeProtocol, 500, "server error"), ErrorTypeProtocol},
		{"wrapped typed", fmt.Errorf("fetch media: %w", New(ErrorTypeBadRequest, 400, "bad")), ErrorTypeBadRequest},
		{"plain", stderrors.New("boom"), ErrorTypeUnknown},
		{"nil", nil, ErrorTypeUnknown},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, TypeOf(tt.err))
		})
	}
}

func TestIsType(t *testing.T) {
	assert.True(t, IsType(New(ErrorTypeNetwork, 0, "timeout"), ErrorTypeNetwork))
	assert.False(t, IsType(nil, ErrorTypeUnknown))
	assert.False(t, IsType(New(ErrorTypeNetwork, 0, "timeout"), ErrorTypeParsing))
}

func TestTypeForStatus(t *testing.T) {
	assert.Equal(t, ErrorTypeBadRequest, TypeForStatus(400))
	assert.Equal(t, ErrorTypeNotFound, TypeForStatus(404))
	assert.Equal(t, ErrorTypeProtocol, TypeForStatus(403))
	assert.Equal(t, ErrorTypeProtocol, TypeForStatus(503))
	assert.Equal(t, ErrorTypeNetwork, TypeForStatus(0))
}
