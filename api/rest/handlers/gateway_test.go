package handlers

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGatewayRelaysVerbatim(t *testing.T) {
	var gotBody, gotPath string
	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		b, _ := io.ReadAll(r.Body)
		gotBody, gotPath = string(b), r.URL.Path
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusTeapot)
		w.Write([]byte(`{"items":[],"note":"kept"}`))
	}))
	defer upstream.Close()

	gw := NewGatewayHandler(upstream.URL+"/orchestrate", nil, nil)
	rec := httptest.NewRecorder()
	gw.Build(rec, httptest.NewRequest(http.MethodPost, "/api/build", strings.NewReader(`{"query":"a logo"}`)))

	assert.Equal(t, `{"query":"a logo"}`, gotBody)
	assert.Equal(t, "/orchestrate", gotPath)
	assert.Equal(t, http.StatusTeapot, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))
	assert.Equal(t, `{"items":[],"note":"kept"}`, rec.Body.String())
}

func TestGatewayRejectsNonJSON(t *testing.T) {
	called := false
	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		called = true
	}))
	defer upstream.Close()

	gw := NewGatewayHandler(upstream.URL, nil, nil)
	rec := httptest.NewRecorder()
	gw.Build(rec, httptest.NewRequest(http.MethodPost, "/build", strings.NewReader("not json")))

	assert.False(t, called)
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	var body ErrorResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.NotEmpty(t, body.Error)
}

func TestGatewayTransportFailure(t *testing.T) {
	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	url := upstream.URL
	upstream.Close()

	gw := NewGatewayHandler(url, nil, nil)
	rec := httptest.NewRecorder()
	gw.Build(rec, httptest.NewRequest(http.MethodPost, "/build", strings.NewReader(`{"query":"x"}`)))

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	var body ErrorResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.NotEmpty(t, body.Error)
}
