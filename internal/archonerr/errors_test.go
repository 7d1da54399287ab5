package archonerr

import (
	"errors"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestKindOfAndStatusCode(t *testing.T) {
	cases := []struct {
		name string
		err  error
		kind Kind
		code int
	}{
		{"validation", Validation("bad field %q", "x"), KindValidation, http.StatusBadRequest},
		{"not found", NotFound("scan %d", 7), KindNotFound, http.StatusNotFound},
		{"conflict", Conflict("dup"), KindConflict, http.StatusConflict},
		{"unauthorized", Unauthorized("no token"), KindUnauthorized, http.StatusUnauthorized},
		{"forbidden", Forbidden("role"), KindForbidden, http.StatusForbidden},
		{"rate limited", RateLimited("slow down"), KindRateLimited, http.StatusTooManyRequests},
		{"plain error defaults internal", errors.New("boom"), KindInternal, http.StatusInternalServerError},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.kind, KindOf(tc.err))
			assert.Equal(t, tc.code, StatusCode(KindOf(tc.err)))
		})
	}
}

func TestWrapPreservesCause(t *testing.T) {
	cause := errors.New("underlying")
	wrapped := Internal(cause, "failed to save scan")

	assert.ErrorIs(t, wrapped, cause)
	assert.Equal(t, KindInternal, KindOf(wrapped))
	assert.Contains(t, wrapped.Error(), "underlying")
}
