package cmd

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/linanwx/tutorbot/config"
	"github.com/linanwx/tutorbot/loadtest"
)

var (
	loadURL     string
	loadModel   string
	loadPrompt  string
	loadUsers   []int
	loadTotals  []int
	loadTimeout time.Duration
	loadOut     string
)

var loadtestCmd = &cobra.Command{
	Use:   "loadtest",
	Short: "Measure throughput of an OpenAI-compatible chat endpoint",
	Long: `Send concurrent chat completion requests and report throughput.

Each case runs USERS workers sending TOTAL/USERS requests one after another;
cases where TOTAL is not divisible by USERS are skipped. Results are printed
and written as CSV.

Examples:
  tutorbot loadtest
  tutorbot loadtest --url http://127.0.0.1:8081/v1/chat/completions --users 2,4,8 --totals 8,16`,
	RunE: runLoadtest,
}

func init() {
	def := loadtest.DefaultConfig()
	loadtestCmd.Flags().StringVar(&loadURL, "url", "", "Chat completions URL (default: llm.apiUrl from config)")
	loadtestCmd.Flags().StringVar(&loadModel, "model", def.Model, "Model name sent in each request")
	loadtestCmd.Flags().StringVar(&loadPrompt, "prompt", def.Prompt, "Prompt sent in each request")
	loadtestCmd.Flags().IntSliceVar(&loadUsers, "users", def.Users, "Concurrent worker counts")
	loadtestCmd.Flags().IntSliceVar(&loadTotals, "totals", def.Totals, "Total requests per case")
	loadtestCmd.Flags().DurationVar(&loadTimeout, "timeout", def.Timeout, "Per-request timeout")
	loadtestCmd.Flags().StringVarP(&loadOut, "out", "o", "load_test_results.csv", "CSV output path")
	rootCmd.AddCommand(loadtestCmd)
}

func runLoadtest(cmd *cobra.Command, _ []string) error {
	url := loadURL
	if url == "" {
		cfg, err := config.Load()
		if err != nil {
			return fmt.Errorf("failed to load config: %w", err)
		}
		url = cfg.LLM.APIURL
	}

	ctx, stop := signalContext()
	defer stop()

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "Load testing %s\n", url)
	results, err := loadtest.Run(ctx, loadtest.Config{
		URL:     url,
		Model:   loadModel,
		Prompt:  loadPrompt,
		Timeout: loadTimeout,
		Users:   loadUsers,
		Totals:  loadTotals,
	}, func(r loadtest.Result) {
		fmt.Fprintf(out, "users=%d requests=%d throughput=%.2f req/s failures=%d (%.1f%%) tokens=%.1f/s\n",
			r.Users, r.TotalRequests, r.Throughput, r.TotalFailure, r.FailurePercent, r.TokensPerSec)
	})
	if err != nil {
		return err
	}

	f, err := os.Create(loadOut)
	if err != nil {
		return fmt.Errorf("create %s: %w", loadOut, err)
	}
	defer f.Close()
	if err := loadtest.WriteCSV(f, results); err != nil {
		return fmt.Errorf("write %s: %w", loadOut, err)
	}
	fmt.Fprintf(out, "Saved results to %s\n", loadOut)
	return nil
}
