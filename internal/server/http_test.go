package server

import (
	"bytes"
	"compress/gzip"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/andybalholm/brotli"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	_ "sumcache/cmd/sumcache/docs"
	"sumcache/internal/core"
	"sumcache/internal/fingerprint"
	"sumcache/internal/memo"
)

func newTestServer(t *testing.T, cfg *Config) (*Server, *memo.MemoryStore) {
	t.Helper()
	store := memo.NewMemoryStore()
	m, err := memo.New(store, memo.Options{Coalesce: true})
	require.NoError(t, err)
	return New(m, cfg), store
}

func postSum(t *testing.T, srv http.Handler, path string, body []byte, encoding string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, path, bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	if encoding != "" {
		req.Header.Set("Content-Encoding", encoding)
	}
	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, req)
	return rec
}

func decodeSum(t *testing.T, rec *httptest.ResponseRecorder) core.SumResponse {
	t.Helper()
	var resp core.SumResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	return resp
}

func gzipBytes(t *testing.T, payload []byte) []byte {
	t.Helper()
	var buf bytes.Buffer
	zw := gzip.NewWriter(&buf)
	_, err := zw.Write(payload)
	require.NoError(t, err)
	require.NoError(t, zw.Close())
	return buf.Bytes()
}

// assertAPIError checks the status and the {"error": {"type", "message"}} body shape.
func assertAPIError(t *testing.T, rec *httptest.ResponseRecorder, status int, errType core.ErrorType) {
	t.Helper()
	assert.Equal(t, status, rec.Code, rec.Body.String())

	var body struct {
		Error struct {
			Type    string `json:"type"`
			Message string `json:"message"`
		} `json:"error"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body), rec.Body.String())
	assert.Equal(t, string(errType), body.Error.Type)
	assert.NotEmpty(t, body.Error.Message)
}

func TestSumEndToEnd(t *testing.T) {
	srv, store := newTestServer(t, nil)

	rec := postSum(t, srv, "/sum", []byte(`{"numbers": [3, 1, 2]}`), "")
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, core.SumResponse{Sum: 6, Cached: false}, decodeSum(t, rec))
	fp := rec.Header().Get(HeaderFingerprint)
	assert.Equal(t, fingerprint.Of([]int64{1, 2, 3}).String(), fp)

	rec = postSum(t, srv, "/sum/", []byte(`{"numbers": [2, 3, 1]}`), "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, core.SumResponse{Sum: 6, Cached: true}, decodeSum(t, rec))
	assert.Equal(t, 1, store.Len())

	req := httptest.NewRequest(http.MethodGet, "/sum/"+fp, nil)
	lookup := httptest.NewRecorder()
	srv.ServeHTTP(lookup, req)
	require.Equal(t, http.StatusOK, lookup.Code)

	var record core.RecordResponse
	require.NoError(t, json.Unmarshal(lookup.Body.Bytes(), &record))
	assert.Equal(t, fp, record.Fingerprint)
	assert.Equal(t, []int64{3, 1, 2}, record.RawInput)
	assert.Equal(t, int64(6), record.Result)
}

func TestSumEmptyList(t *testing.T) {
	srv, _ := newTestServer(t, nil)

	rec := postSum(t, srv, "/sum", []byte(`{"numbers": []}`), "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, core.SumResponse{Sum: 0, Cached: false}, decodeSum(t, rec))

	rec = postSum(t, srv, "/sum", []byte(`{"numbers": []}`), "")
	assert.Equal(t, core.SumResponse{Sum: 0, Cached: true}, decodeSum(t, rec))
}

func TestSumOverflowOverHTTP(t *testing.T) {
	srv, store := newTestServer(t, nil)

	rec := postSum(t, srv, "/sum", []byte(`{"numbers": [9223372036854775807, 1]}`), "")
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Contains(t, rec.Body.String(), "overflow_error")
	assert.Equal(t, 0, store.Len())
}

func TestSumConcurrentRequestsConverge(t *testing.T) {
	srv, store := newTestServer(t, nil)

	bodies := []string{`{"numbers": [9, 8, 7]}`, `{"numbers": [7, 8, 9]}`, `{"numbers": [8, 9, 7]}`}
	const n = 30

	var wg sync.WaitGroup
	responses := make([]core.SumResponse, n)
	codes := make([]int, n)
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			rec := postSum(t, srv, "/sum", []byte(bodies[i%len(bodies)]), "")
			codes[i] = rec.Code
			_ = json.Unmarshal(rec.Body.Bytes(), &responses[i])
		}(i)
	}
	wg.Wait()

	fresh := 0
	for i := range responses {
		require.Equal(t, http.StatusOK, codes[i])
		assert.Equal(t, int64(24), responses[i].Sum)
		if !responses[i].Cached {
			fresh++
		}
	}
	assert.Equal(t, 1, fresh)
	assert.Equal(t, 1, store.Len())
}

func TestCompressedRequestBodies(t *testing.T) {
	payload := []byte(`{"numbers": [40, 2]}`)

	t.Run("gzip", func(t *testing.T) {
		srv, _ := newTestServer(t, nil)

		rec := postSum(t, srv, "/sum", gzipBytes(t, payload), "gzip")
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
		assert.Equal(t, int64(42), decodeSum(t, rec).Sum)
	})

	t.Run("brotli", func(t *testing.T) {
		srv, _ := newTestServer(t, nil)

		var buf bytes.Buffer
		bw := brotli.NewWriter(&buf)
		_, err := bw.Write(payload)
		require.NoError(t, err)
		require.NoError(t, bw.Close())

		rec := postSum(t, srv, "/sum", buf.Bytes(), "br")
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
		assert.Equal(t, int64(42), decodeSum(t, rec).Sum)
	})

	t.Run("corrupt gzip", func(t *testing.T) {
		srv, store := newTestServer(t, nil)

		rec := postSum(t, srv, "/sum", []byte("not gzip at all"), "gzip")
		assertAPIError(t, rec, http.StatusBadRequest, core.ErrorTypeInvalidRequest)
		assert.Equal(t, 0, store.Len())
	})

	t.Run("truncated gzip", func(t *testing.T) {
		srv, _ := newTestServer(t, nil)

		compressed := gzipBytes(t, payload)
		rec := postSum(t, srv, "/sum", compressed[:len(compressed)/2], "gzip")
		assertAPIError(t, rec, http.StatusBadRequest, core.ErrorTypeInvalidRequest)
	})

	t.Run("corrupt brotli", func(t *testing.T) {
		srv, store := newTestServer(t, nil)

		rec := postSum(t, srv, "/sum", []byte("not brotli at all"), "br")
		assertAPIError(t, rec, http.StatusBadRequest, core.ErrorTypeInvalidRequest)
		assert.Equal(t, 0, store.Len())
	})
}

func TestBodySizeLimit(t *testing.T) {
	srv, _ := newTestServer(t, &Config{BodySizeLimit: 64})

	body := []byte(`{"numbers": [` + strings.Repeat("1, ", 100) + `1]}`)

	rec := postSum(t, srv, "/sum", body, "")
	assertAPIError(t, rec, http.StatusRequestEntityTooLarge, core.ErrorTypeInvalidRequest)

	// The limit bounds decoded bytes, so a small compressed body can still exceed it.
	compressed := gzipBytes(t, body)
	require.Less(t, len(compressed), 64)
	rec = postSum(t, srv, "/sum", compressed, "gzip")
	assertAPIError(t, rec, http.StatusRequestEntityTooLarge, core.ErrorTypeInvalidRequest)

	rec = postSum(t, srv, "/sum", []byte(`{"numbers": [1]}`), "")
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestRoutingErrorsUseErrorShape(t *testing.T) {
	srv, _ := newTestServer(t, nil)

	req := httptest.NewRequest(http.MethodGet, "/nope", nil)
	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, req)
	assertAPIError(t, rec, http.StatusNotFound, core.ErrorTypeNotFound)

	req = httptest.NewRequest(http.MethodDelete, "/sum", nil)
	rec = httptest.NewRecorder()
	srv.ServeHTTP(rec, req)
	assertAPIError(t, rec, http.StatusMethodNotAllowed, core.ErrorTypeInvalidRequest)
}

func TestRequestIDMiddleware(t *testing.T) {
	srv, _ := newTestServer(t, nil)

	t.Run("generates request ID when missing", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/health", nil)
		rec := httptest.NewRecorder()
		srv.ServeHTTP(rec, req)

		assert.Len(t, rec.Header().Get("X-Request-ID"), 36)
	})

	t.Run("preserves existing request ID", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/health", nil)
		req.Header.Set("X-Request-ID", "my-custom-id")
		rec := httptest.NewRecorder()
		srv.ServeHTTP(rec, req)

		assert.Equal(t, "my-custom-id", rec.Header().Get("X-Request-ID"))
	})
}

func TestMetricsEndpoint(t *testing.T) {
	tests := []struct {
		name       string
		config     *Config
		path       string
		wantStatus int
	}{
		{"disabled", &Config{MetricsEnabled: false}, "/metrics", http.StatusNotFound},
		{"default path", &Config{MetricsEnabled: true}, "/metrics", http.StatusOK},
		{"custom path", &Config{MetricsEnabled: true, MetricsEndpoint: "/internal/metrics"}, "/internal/metrics", http.StatusOK},
		{"custom path cleaned", &Config{MetricsEnabled: true, MetricsEndpoint: "internal//prom/"}, "/internal/prom", http.StatusOK},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv, _ := newTestServer(t, tt.config)
			postSum(t, srv, "/sum", []byte(`{"numbers": [1]}`), "")

			req := httptest.NewRequest(http.MethodGet, tt.path, nil)
			rec := httptest.NewRecorder()
			srv.ServeHTTP(rec, req)

			assert.Equal(t, tt.wantStatus, rec.Code)
			if tt.wantStatus == http.StatusOK {
				assert.Contains(t, rec.Body.String(), "sumcache_lookups_total")
			}
		})
	}
}

func TestSwaggerEndpoint(t *testing.T) {
	t.Run("enabled", func(t *testing.T) {
		srv, _ := newTestServer(t, &Config{SwaggerEnabled: true})

		req := httptest.NewRequest(http.MethodGet, "/swagger/doc.json", nil)
		rec := httptest.NewRecorder()
		srv.ServeHTTP(rec, req)

		require.Equal(t, http.StatusOK, rec.Code)
		assert.Contains(t, rec.Body.String(), "sumcache API")
		assert.Contains(t, rec.Body.String(), "/sum/{fingerprint}")
	})

	t.Run("disabled", func(t *testing.T) {
		srv, _ := newTestServer(t, nil)

		req := httptest.NewRequest(http.MethodGet, "/swagger/index.html", nil)
		rec := httptest.NewRecorder()
		srv.ServeHTTP(rec, req)

		assert.Equal(t, http.StatusNotFound, rec.Code)
	})
}

func TestReadyEndpoint(t *testing.T) {
	srv, _ := newTestServer(t, &Config{Checks: map[string]Pinger{
		"storage": &memo.StoreResult{},
	}})

	req := httptest.NewRequest(http.MethodGet, "/ready", nil)
	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
}
