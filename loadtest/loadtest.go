// Package loadtest measures throughput and failure rate of an
// OpenAI-compatible chat completions endpoint under concurrent load.
package loadtest

import (
	"bytes"
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/linanwx/tutorbot/logger"
)

// Columns is the CSV header.
var Columns = []string{"users", "request_per_user", "throughput_req_per_sec", "total_failure", "total_requests", "failure_percent", "tokens_per_sec"}

// Config describes a load test run.
type Config struct {
	URL     string
	Model   string
	Prompt  string
	Timeout time.Duration

	Users  []int // concurrent worker counts
	Totals []int // total requests per case

	HTTPClient *http.Client
}

// DefaultConfig mirrors the classic two-by-three matrix.
func DefaultConfig() Config {
	return Config{
		Model:   "test-model",
		Prompt:  DefaultPrompt,
		Timeout: 60 * time.Second,
		Users:   []int{2, 4},
		Totals:  []int{4, 8, 12},
	}
}

// Result is one (users, total) case.
type Result struct {
	Users          int
	RequestPerUser int
	Throughput     float64 // requests per second
	TotalFailure   int
	TotalRequests  int
	FailurePercent float64
	TokensPerSec   float64
	Elapsed        time.Duration
}

type workerStats struct {
	successes int
	failures  int
	tokens    int
	elapsed   time.Duration
}

// Run executes every case where total is divisible by users, in order.
// progress, if set, is called after each case.
func Run(ctx context.Context, cfg Config, progress func(Result)) ([]Result, error) {
	if cfg.URL == "" {
		return nil, errors.New("loadtest: URL is required")
	}
	if cfg.Prompt == "" {
		cfg.Prompt = DefaultPrompt
	}
	payload, err := BuildPayload(cfg.Model, cfg.Prompt)
	if err != nil {
		return nil, err
	}
	client := cfg.HTTPClient
	if client == nil {
		client = &http.Client{Timeout: cfg.Timeout}
	}

	var results []Result
	for _, users := range cfg.Users {
		for _, total := range cfg.Totals {
			if users <= 0 || total%users != 0 {
				continue
			}
			res, err := runCase(ctx, client, cfg.URL, payload, users, total)
			if err != nil {
				return results, err
			}
			logger.Info("load test case finished",
				"users", res.Users,
				"requests", res.TotalRequests,
				"throughput", res.Throughput,
				"failures", res.TotalFailure,
			)
			results = append(results, res)
			if progress != nil {
				progress(res)
			}
		}
	}
	return results, nil
}

func runCase(ctx context.Context, client *http.Client, url string, payload []byte, users, total int) (Result, error) {
	perUser := total / users
	stats := make([]workerStats, users)

	g, gctx := errgroup.WithContext(ctx)
	for i := range users {
		g.Go(func() error {
			start := time.Now()
			for range perUser {
				if err := gctx.Err(); err != nil {
					return err
				}
				tokens, err := post(gctx, client, url, payload)
				if err != nil {
					logger.Debug("load test request failed", "worker", i, "err", err)
					stats[i].failures++
					continue
				}
				stats[i].successes++
				stats[i].tokens += tokens
			}
			stats[i].elapsed = time.Since(start)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return Result{}, err
	}
	return summarize(users, perUser, stats), nil
}

// summarize folds worker stats. Elapsed is the slowest worker's time.
func summarize(users, perUser int, stats []workerStats) Result {
	res := Result{Users: users, RequestPerUser: perUser, TotalRequests: users * perUser}
	tokens := 0
	for _, s := range stats {
		res.TotalFailure += s.failures
		tokens += s.tokens
		res.Elapsed = max(res.Elapsed, s.elapsed)
	}
	if secs := res.Elapsed.Seconds(); secs > 0 {
		res.Throughput = float64(res.TotalRequests) / secs
		res.TokensPerSec = float64(tokens) / secs
	}
	if res.TotalRequests > 0 {
		res.FailurePercent = float64(res.TotalFailure) / float64(res.TotalRequests) * 100
	}
	return res
}

// post sends one request. Non-2xx statuses are failures.
func post(ctx context.Context, client *http.Client, url string, payload []byte) (int, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(payload))
	if err != nil {
		return 0, err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := client.Do(req)
	if err != nil {
		return 0, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return 0, err
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return 0, fmt.Errorf("status %d", resp.StatusCode)
	}
	return countTokens(completionText(body)), nil
}

// WriteCSV writes results with a header row.
func WriteCSV(w io.Writer, results []Result) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(Columns); err != nil {
		return err
	}
	for _, r := range results {
		row := []string{
			strconv.Itoa(r.Users),
			strconv.Itoa(r.RequestPerUser),
			strconv.FormatFloat(r.Throughput, 'f', -1, 64),
			strconv.Itoa(r.TotalFailure),
			strconv.Itoa(r.TotalRequests),
			strconv.FormatFloat(r.FailurePercent, 'f', -1, 64),
			strconv.FormatFloat(r.TokensPerSec, 'f', -1, 64),
		}
		if err := cw.Write(row); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}
