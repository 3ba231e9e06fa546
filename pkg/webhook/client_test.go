package webhook

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPostSuccess(t *testing.T) {
	var hits atomic.Int32
	var gotBody map[string]any
	var gotContentType, gotAccept string

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		gotContentType = r.Header.Get("Content-Type")
		gotAccept = r.Header.Get("Accept")
		require.NoError(t, json.NewDecoder(r.Body).Decode(&gotBody))
		w.Write([]byte(`{"available": true, "price": "$120/month"}`))
	}))
	defer srv.Close()

	c := New(srv.URL)
	res := c.Post(context.Background(), "check_availability", map[string]any{
		"location": "downtown",
		"size":     50,
	})

	require.NoError(t, res.Err)
	assert.True(t, res.OK)
	assert.Equal(t, http.StatusOK, res.Status)
	assert.Equal(t, `{"available": true, "price": "$120/month"}`, res.Body)

	assert.Equal(t, int32(1), hits.Load(), "exactly one POST per invocation")
	assert.Equal(t, "application/json", gotContentType)
	assert.Equal(t, "application/json", gotAccept)
	assert.Equal(t, "check_availability", gotBody["tool_name"])
	assert.Equal(t, "downtown", gotBody["location"])
	assert.EqualValues(t, 50, gotBody["size"])
}

func TestPostNonSuccessStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
		w.Write([]byte("backend exploded"))
	}))
	defer srv.Close()

	c := New(srv.URL)
	res := c.Post(context.Background(), "book_unit", map[string]any{"email": "a@b.com"})

	assert.False(t, res.OK)
	assert.Equal(t, http.StatusInternalServerError, res.Status)
	assert.Equal(t, "backend exploded", res.Body)
	assert.Error(t, res.Err)
}

func TestPostConnectionFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	srv.Close() // Nothing listening anymore

	c := New(srv.URL)
	res := c.Post(context.Background(), "check_availability", nil)

	assert.False(t, res.OK)
	assert.Error(t, res.Err)
	assert.Empty(t, res.Body)
}

func TestPostContextCancelled(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(200 * time.Millisecond)
	}))
	defer srv.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	c := New(srv.URL)
	res := c.Post(ctx, "check_availability", map[string]any{"location": "uptown", "size": 100})

	assert.False(t, res.OK)
	assert.Error(t, res.Err)
}

func TestPostNilPayload(t *testing.T) {
	var gotBody map[string]any

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, json.NewDecoder(r.Body).Decode(&gotBody))
		w.Write([]byte("ok"))
	}))
	defer srv.Close()

	c := New(srv.URL)
	res := c.Post(context.Background(), "check_availability", nil)

	require.NoError(t, res.Err)
	assert.Equal(t, map[string]any{"tool_name": "check_availability"}, gotBody)
	assert.Equal(t, "ok", res.Body)
}

func TestPostDoesNotCacheResponses(t *testing.T) {
	var hits atomic.Int32

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		n := hits.Add(1)
		if n == 1 {
			w.Write([]byte("first"))
		} else {
			w.Write([]byte("second"))
		}
	}))
	defer srv.Close()

	c := New(srv.URL)
	payload := map[string]any{"location": "downtown", "size": 50}

	first := c.Post(context.Background(), "check_availability", payload)
	second := c.Post(context.Background(), "check_availability", payload)

	assert.Equal(t, "first", first.Body)
	assert.Equal(t, "second", second.Body)
	assert.Equal(t, int32(2), hits.Load())
}
