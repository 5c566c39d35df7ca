package persistence

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/felixbrock/dockflow/internal/app"
)

func TestRequestSendsHeaders(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "Bearer abc:def", r.Header.Get("Authorization"))
		assert.Equal(t, "1", r.URL.Query().Get("page"))
		w.WriteHeader(http.StatusCreated)
		_, _ = w.Write([]byte(`{"ok":true}`))
	}))
	t.Cleanup(srv.Close)

	type result struct {
		Ok bool `json:"ok"`
	}
	got, err := request[result](context.Background(), srv.Client(), reqConfig{
		Method:  http.MethodGet,
		Url:     srv.URL + "?page=1",
		Headers: []string{"Authorization: Bearer abc:def", "malformed"},
	}, http.StatusCreated)

	require.NoError(t, err)
	assert.True(t, got.Ok)
}

func TestRequestRedactsQueryInStatusError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
	}))
	t.Cleanup(srv.Close)

	_, err := request[struct{}](context.Background(), srv.Client(), reqConfig{
		Method: http.MethodGet,
		Url:    srv.URL + "/capture?api_key=secret",
	}, 0)

	var serr *app.StatusError
	require.ErrorAs(t, err, &serr)
	assert.Equal(t, http.StatusForbidden, serr.Code)
	assert.NotContains(t, serr.Error(), "secret")
}

func TestStatusOk(t *testing.T) {
	assert.True(t, statusOk(200, 0))
	assert.True(t, statusOk(299, 0))
	assert.False(t, statusOk(300, 0))
	assert.False(t, statusOk(201, 200))
	assert.True(t, statusOk(201, 201))
}
