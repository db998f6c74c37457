package api

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGetJSON(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "application/json", r.Header.Get("Accept"))
		assert.Equal(t, "v1", r.Header.Get("X-Api-Version"))
		switch r.URL.Path {
		case "/ok":
			_, _ = w.Write([]byte(`{"name":"fund"}`))
		case "/bad":
			_, _ = w.Write([]byte(`not json`))
		case "/slow":
			time.Sleep(200 * time.Millisecond)
		default:
			w.WriteHeader(http.StatusServiceUnavailable)
			_, _ = w.Write([]byte("maintenance"))
		}
	}))
	defer srv.Close()

	c := NewClient(WithBaseURL(srv.URL), WithHeader("X-Api-Version", "v1"), WithTimeout(50*time.Millisecond))
	ctx := context.Background()

	var out struct{ Name string }
	require.NoError(t, c.GetJSON(ctx, "/ok", &out))
	assert.Equal(t, "fund", out.Name)

	var de *DecodeError
	assert.True(t, errors.As(c.GetJSON(ctx, "/bad", &out), &de))

	var se *StatusError
	err := c.GetJSON(ctx, "/down", &out)
	require.True(t, errors.As(err, &se))
	assert.Equal(t, http.StatusServiceUnavailable, se.StatusCode)
	assert.Equal(t, "maintenance", se.Body)
	assert.True(t, se.Temporary())
	assert.False(t, (&StatusError{StatusCode: http.StatusNotFound}).Temporary())

	err = c.GetJSON(ctx, "/slow", &out)
	require.Error(t, err)
	assert.False(t, errors.As(err, &se))
}
