//go:build e2e

package e2e

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"testing"

	"github.com/stretchr/testify/require"

	"sumcache/internal/core"
)

const (
	sumPath    = "/sum"
	healthPath = "/health"
	readyPath  = "/ready"
)

// sendRaw posts body verbatim to /sum.
func sendRaw(t *testing.T, base, body string) *http.Response {
	t.Helper()
	resp, err := http.Post(base+sumPath, "application/json", bytes.NewReader([]byte(body)))
	require.NoError(t, err)
	return resp
}

// sendSum posts numbers to /sum and decodes a successful response.
func sendSum(t *testing.T, base string, numbers []int64) core.SumResponse {
	t.Helper()
	payload, err := json.Marshal(core.SumRequest{Numbers: numbers})
	require.NoError(t, err)

	resp := sendRaw(t, base, string(payload))
	defer closeBody(resp)
	require.Equal(t, http.StatusOK, resp.StatusCode, readBody(resp))

	var out core.SumResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&out))
	return out
}

// sendSumNoT posts numbers without using testing.T.
//
// This is specifically for concurrency tests, where calling t.FailNow / require from
// goroutines is unsafe.
func sendSumNoT(base string, numbers []int64) (core.SumResponse, error) {
	payload, err := json.Marshal(core.SumRequest{Numbers: numbers})
	if err != nil {
		return core.SumResponse{}, err
	}
	resp, err := http.Post(base+sumPath, "application/json", bytes.NewReader(payload))
	if err != nil {
		return core.SumResponse{}, err
	}
	defer closeBody(resp)
	if resp.StatusCode != http.StatusOK {
		return core.SumResponse{}, fmt.Errorf("status %d: %s", resp.StatusCode, readBody(resp))
	}
	var out core.SumResponse
	err = json.NewDecoder(resp.Body).Decode(&out)
	return out, err
}

func readBody(resp *http.Response) string {
	b, _ := io.ReadAll(resp.Body)
	return string(b)
}

// closeBody is a helper to close response body in defer statements.
func closeBody(resp *http.Response) {
	if resp != nil && resp.Body != nil {
		_ = resp.Body.Close()
	}
}
