package errors

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestErrorMessage(t *testing.T) {
	err := Authentication("login not confirmed", fmt.Errorf("landmark missing"))
	assert.Equal(t, "authentication error: login not confirmed: landmark missing", err.Error())

	assert.Equal(t, "missing_input error: missing url", MissingInput("missing url").Error())
}

func TestUnwrap(t *testing.T) {
	cause := fmt.Errorf("boom")
	err := ResourceInit("chrome failed", cause)
	assert.True(t, errors.Is(err, cause))
}

func TestTypeOf(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want ErrorType
	}{
		{"nil", nil, ""},
		{"typed", TargetNotFound("no opener"), ErrorTypeTargetNotFound},
		{"wrapped typed", fmt.Errorf("run: %w", Timeout("dialog", nil)), ErrorTypeTimeout},
		{"deadline", context.DeadlineExceeded, ErrorTypeTimeout},
		{"wrapped deadline", fmt.Errorf("wait: %w", context.DeadlineExceeded), ErrorTypeTimeout},
		{"canceled", context.Canceled, ErrorTypeUnknown},
		{"plain", fmt.Errorf("plain"), ErrorTypeUnknown},
		{"outermost wins", Unknown("outer", Timeout("inner", nil)), ErrorTypeUnknown},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, TypeOf(tt.err))
		})
	}
}

func TestIsWalksChain(t *testing.T) {
	err := Unknown("outer", Authentication("inner", nil))

	assert.True(t, IsAuthentication(err))
	assert.False(t, IsTimeout(err))
	assert.False(t, IsTargetNotFound(err))

	assert.True(t, IsTimeout(fmt.Errorf("x: %w", context.DeadlineExceeded)))
	assert.True(t, IsTimeout(Unknown("outer", context.DeadlineExceeded)))
	assert.False(t, IsTimeout(nil))
}

func TestHTTPStatus(t *testing.T) {
	assert.Equal(t, http.StatusBadRequest, HTTPStatus(ErrorTypeMissingInput))
	assert.Equal(t, http.StatusBadGateway, HTTPStatus(ErrorTypeAuthentication))
	assert.Equal(t, http.StatusBadGateway, HTTPStatus(ErrorTypeTargetNotFound))
	assert.Equal(t, http.StatusServiceUnavailable, HTTPStatus(ErrorTypeResourceInit))
	assert.Equal(t, http.StatusGatewayTimeout, HTTPStatus(ErrorTypeTimeout))
	assert.Equal(t, http.StatusInternalServerError, HTTPStatus(ErrorTypeUnknown))
}
