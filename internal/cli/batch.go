package cli

import (
	"bufio"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/HdrHistogram/hdrhistogram-go"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"seoflow/internal/pipeline"
)

var continueOnError bool

var batchCmd = &cobra.Command{
	Use:   "batch <urls-file>",
	Short: "Run the pipeline against every URL in a file",
	Long: `batch reads one website URL per line, runs the full pipeline against
each and prints a duration summary at the end. Blank lines and lines
starting with # are skipped.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		rt, err := setup(cmd)
		if err != nil {
			return err
		}
		defer rt.log.Sync()

		urls, err := readURLFile(args[0])
		if err != nil {
			return err
		}
		if len(urls) == 0 {
			return fmt.Errorf("no URLs in %s", args[0])
		}

		// 1ms to 1h at three significant figures covers any realistic run.
		hist := hdrhistogram.New(1, time.Hour.Milliseconds(), 3)
		failures := 0

		for i, url := range urls {
			eng, err := rt.newEngine()
			if err != nil {
				return err
			}

			rt.log.Info("batch run starting",
				zap.Int("index", i+1), zap.Int("total", len(urls)), zap.String("url", url))

			outcome := eng.Execute(cmd.Context(), pipeline.Text(url), true)
			if err := hist.RecordValue(outcome.ExecutionTime.Milliseconds()); err != nil {
				rt.log.Warn("duration outside histogram range", zap.Error(err))
			}

			if !outcome.Success {
				failures++
				rt.log.Error("batch run failed",
					zap.String("url", url), zap.String("error", outcome.ErrorMessage))
				if !continueOnError {
					printBatchSummary(cmd, hist, i+1, failures)
					return fmt.Errorf("workflow failed for %s: %s", url, outcome.ErrorMessage)
				}
			}
		}

		printBatchSummary(cmd, hist, len(urls), failures)
		if failures > 0 {
			return fmt.Errorf("%d of %d runs failed", failures, len(urls))
		}
		return nil
	},
}

func init() {
	batchCmd.Flags().BoolVar(&continueOnError, "continue-on-error", false, "keep going after a failed run")
	rootCmd.AddCommand(batchCmd)
}

// readURLFile loads and normalizes one URL per line.
func readURLFile(path string) ([]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open URL file: %w", err)
	}
	defer f.Close()

	var urls []string
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		urls = append(urls, normalizeURL(line))
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("failed to read URL file: %w", err)
	}
	return urls, nil
}

func printBatchSummary(cmd *cobra.Command, hist *hdrhistogram.Histogram, runs, failures int) {
	out := cmd.OutOrStdout()
	fmt.Fprintln(out)
	fmt.Fprintln(out, "Batch summary:")
	fmt.Fprintf(out, "  runs......: %d (%d failed)\n", runs, failures)
	if hist.TotalCount() == 0 {
		return
	}
	fmt.Fprintf(out, "  min.......: %s\n", time.Duration(hist.Min())*time.Millisecond)
	fmt.Fprintf(out, "  avg.......: %s\n", time.Duration(int64(hist.Mean()))*time.Millisecond)
	fmt.Fprintf(out, "  p95.......: %s\n", time.Duration(hist.ValueAtQuantile(95))*time.Millisecond)
	fmt.Fprintf(out, "  max.......: %s\n", time.Duration(hist.Max())*time.Millisecond)
}
