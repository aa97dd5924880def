package httpx

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDecodeJSON(t *testing.T) {
	type payload struct {
		Email string `json:"email"`
	}

	t.Run("valid", func(t *testing.T) {
		var p payload
		rec := httptest.NewRecorder()
		ok := DecodeJSON(rec, httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"email":"a@b.c"}`)), &p)
		require.True(t, ok)
		assert.Equal(t, "a@b.c", p.Email)
	})

	t.Run("unknown field", func(t *testing.T) {
		var p payload
		rec := httptest.NewRecorder()
		ok := DecodeJSON(rec, httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"mail":"x"}`)), &p)
		require.False(t, ok)
		assert.Equal(t, http.StatusBadRequest, rec.Code)
		assert.Contains(t, rec.Body.String(), errCodeInvalidJSON)
	})

	t.Run("oversized body", func(t *testing.T) {
		var p payload
		body := `{"email":"` + strings.Repeat("a", maxJSONBody) + `"}`
		rec := httptest.NewRecorder()
		ok := DecodeJSON(rec, httptest.NewRequest(http.MethodPost, "/", strings.NewReader(body)), &p)
		require.False(t, ok)
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})
}

func TestWriteError(t *testing.T) {
	rec := httptest.NewRecorder()
	WriteError(rec, ErrorParams{Code: http.StatusUnauthorized, ErrCode: "invalid_credentials", Err: errors.New("nope")})

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, "no-store", rec.Header().Get("Cache-Control"))
	assert.JSONEq(t, `{"error":"invalid_credentials","message":"nope"}`, rec.Body.String())

	rec = httptest.NewRecorder()
	WriteError(rec, ErrorParams{Code: http.StatusServiceUnavailable, ErrCode: "sync_unavailable"})
	assert.JSONEq(t, `{"error":"sync_unavailable","message":"Service Unavailable"}`, rec.Body.String())
}
