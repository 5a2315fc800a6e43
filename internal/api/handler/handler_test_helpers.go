package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/mock"
)

// newRequest creates a new HTTP request with an optional JSON body.
func newRequest(method, target string, body any) *http.Request {
	var buf bytes.Buffer
	if body != nil {
		json.NewEncoder(&buf).Encode(body)
	}
	r := httptest.NewRequest(method, target, &buf)
	r.Header.Set("Content-Type", "application/json")
	return r
}

// newRequestRaw creates a new HTTP request with a raw string body.
func newRequestRaw(method, target, body string) *http.Request {
	r := httptest.NewRequest(method, target, bytes.NewBufferString(body))
	r.Header.Set("Content-Type", "application/json")
	return r
}

// withChiURLParam adds a chi URL parameter to the request context.
func withChiURLParam(r *http.Request, key, value string) *http.Request {
	rctx := chi.NewRouteContext()
	rctx.URLParams.Add(key, value)
	return r.WithContext(context.WithValue(r.Context(), chi.RouteCtxKey, rctx))
}

// decodeBody parses a JSON response body into a map.
func decodeBody(rec *httptest.ResponseRecorder) map[string]any {
	var body map[string]any
	json.Unmarshal(rec.Body.Bytes(), &body)
	return body
}

// sqlContains matches any SQL statement containing the given fragment.
func sqlContains(fragment string) any {
	return mock.MatchedBy(func(sql string) bool { return strings.Contains(sql, fragment) })
}

const validID = "test-id-1"
