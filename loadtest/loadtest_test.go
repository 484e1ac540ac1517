package loadtest

import (
	"bytes"
	"context"
	"encoding/csv"
	"io"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tidwall/gjson"
)

func TestBuildPayload(t *testing.T) {
	body, err := BuildPayload("test-model", `say "hi"`)
	require.NoError(t, err)
	doc := gjson.ParseBytes(body)
	assert.Equal(t, "test-model", doc.Get("model").String())
	assert.Equal(t, "user", doc.Get("messages.0.role").String())
	assert.Equal(t, `say "hi"`, doc.Get("messages.0.content").String())
}

func TestRunSkipsUnevenCasesAndCountsFailures(t *testing.T) {
	var n atomic.Int64
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		if gjson.GetBytes(body, "model").String() != "m" {
			w.WriteHeader(http.StatusBadRequest)
			return
		}
		// Every third request fails.
		if n.Add(1)%3 == 0 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		io.WriteString(w, `{"choices":[{"message":{"role":"assistant","content":"Force equals mass times acceleration."}}]}`)
	}))
	defer srv.Close()

	var seen []Result
	results, err := Run(context.Background(), Config{
		URL:    srv.URL,
		Model:  "m",
		Users:  []int{2, 4},
		Totals: []int{4, 6, 8},
	}, func(r Result) { seen = append(seen, r) })
	require.NoError(t, err)

	// 4/4 and 8/4 and 2/{4,6,8}; 6/4 is skipped.
	require.Len(t, results, 5)
	assert.Equal(t, results, seen)

	totalFailures, totalRequests := 0, 0
	for _, r := range results {
		assert.Equal(t, r.Users*r.RequestPerUser, r.TotalRequests)
		assert.Greater(t, r.Throughput, 0.0)
		assert.InDelta(t, float64(r.TotalFailure)/float64(r.TotalRequests)*100, r.FailurePercent, 1e-9)
		totalFailures += r.TotalFailure
		totalRequests += r.TotalRequests
	}
	assert.Equal(t, 4+6+8+4+8, totalRequests)
	assert.Equal(t, totalRequests/3, totalFailures)
}

func TestRunRequiresURL(t *testing.T) {
	_, err := Run(context.Background(), DefaultConfig(), nil)
	assert.Error(t, err)
}

func TestSummarize(t *testing.T) {
	res := summarize(2, 3, []workerStats{
		{successes: 3, tokens: 30, elapsed: 2 * time.Second},
		{successes: 1, failures: 2, tokens: 10, elapsed: 4 * time.Second},
	})
	assert.Equal(t, 6, res.TotalRequests)
	assert.Equal(t, 2, res.TotalFailure)
	assert.Equal(t, 4*time.Second, res.Elapsed)
	assert.InDelta(t, 1.5, res.Throughput, 1e-9)
	assert.InDelta(t, 10.0, res.TokensPerSec, 1e-9)
	assert.InDelta(t, 100.0/3, res.FailurePercent, 1e-9)
}

func TestWriteCSV(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteCSV(&buf, []Result{{
		Users: 2, RequestPerUser: 2, Throughput: 1.5, TotalFailure: 1, TotalRequests: 4, FailurePercent: 25,
	}}))

	rows, err := csv.NewReader(&buf).ReadAll()
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, Columns, rows[0])
	assert.Equal(t, []string{"2", "2", "1.5", "1", "4", "25", "0"}, rows[1])
}
