package cli

import (
	"bufio"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"seoflow/internal/pipeline"
)

var noCache bool

var runCmd = &cobra.Command{
	Use:   "run [url]",
	Short: "Run the pipeline against one website URL",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		rt, err := setup(cmd)
		if err != nil {
			return err
		}
		defer rt.log.Sync()

		eng, err := rt.newEngine()
		if err != nil {
			return err
		}

		url := ""
		if len(args) == 1 {
			url = normalizeURL(args[0])
		} else {
			var confirmed bool
			url, confirmed, err = promptRun(cmd, eng.Steps())
			if err != nil {
				return err
			}
			if !confirmed {
				return nil
			}
		}
		if url == "" {
			return fmt.Errorf("no URL given")
		}

		outcome := eng.Execute(cmd.Context(), pipeline.Text(url), !noCache)
		printOutcome(cmd, outcome)
		if !outcome.Success {
			return fmt.Errorf("workflow failed: %s", outcome.ErrorMessage)
		}
		return nil
	},
}

func init() {
	runCmd.Flags().BoolVar(&noCache, "no-cache", false, "skip writing intermediate step caches")
	rootCmd.AddCommand(runCmd)
}

// promptRun drives the interactive mode: show the configured steps, read
// the target URL, then ask for confirmation before anything runs. Returns
// confirmed=false when the operator answers anything but yes.
func promptRun(cmd *cobra.Command, steps []pipeline.StepDescriptor) (url string, confirmed bool, err error) {
	out := cmd.OutOrStdout()
	reader := bufio.NewReader(cmd.InOrStdin())

	fmt.Fprintln(out, "Workflow steps:")
	for i, sd := range steps {
		state := ""
		if !sd.Enabled {
			state = " (disabled)"
		}
		fmt.Fprintf(out, "  %d. %s%s\n", i+1, sd.Name, state)
	}

	fmt.Fprint(out, "Enter website URL: ")
	line, err := reader.ReadString('\n')
	if err != nil && line == "" {
		return "", false, fmt.Errorf("failed to read URL: %w", err)
	}
	url = normalizeURL(line)
	if url == "" {
		return "", false, fmt.Errorf("no URL given")
	}

	fmt.Fprint(out, "Continue with workflow execution? (y/N): ")
	answer, err := reader.ReadString('\n')
	if err != nil && answer == "" {
		return "", false, fmt.Errorf("failed to read confirmation: %w", err)
	}
	switch strings.ToLower(strings.TrimSpace(answer)) {
	case "y", "yes":
		return url, true, nil
	}

	fmt.Fprintln(out, "Aborted.")
	return "", false, nil
}

// normalizeURL defaults bare hostnames to https.
func normalizeURL(url string) string {
	url = strings.TrimSpace(url)
	if url == "" {
		return ""
	}
	if !strings.HasPrefix(url, "http://") && !strings.HasPrefix(url, "https://") {
		url = "https://" + url
	}
	return url
}

// printOutcome writes the run summary for the operator.
func printOutcome(cmd *cobra.Command, o *pipeline.Outcome) {
	out := cmd.OutOrStdout()
	fmt.Fprintln(out)
	if o.Success {
		fmt.Fprintln(out, "Workflow completed successfully")
	} else {
		fmt.Fprintln(out, "Workflow failed")
		fmt.Fprintf(out, "  error: %s\n", o.ErrorMessage)
	}
	fmt.Fprintf(out, "  run id: %s\n", o.RunID)
	fmt.Fprintf(out, "  steps executed: %s\n", strings.Join(o.StepsExecuted, ", "))
	fmt.Fprintf(out, "  execution time: %s\n", o.ExecutionTime.Round(time.Millisecond))
	if o.Success && o.FinalData != nil {
		fmt.Fprintf(out, "  final result: %s\n", o.FinalData.String())
	}
}
