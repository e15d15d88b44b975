package cli

import (
	"fmt"
	"io"
	"os"
	"sort"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"seoflow/internal/pipeline"
)

// stepLister is the registry surface the listing needs. Satisfied by
// *steps.Registry.
type stepLister interface {
	Names() []string
	Resolve(key string) (pipeline.Step, error)
}

var stepsCmd = &cobra.Command{
	Use:   "steps",
	Short: "List registered steps and the configured workflow",
	RunE: func(cmd *cobra.Command, args []string) error {
		rt, err := setup(cmd)
		if err != nil {
			return err
		}
		defer rt.log.Sync()

		out := cmd.OutOrStdout()
		printRegisteredSteps(out, rt.registry, rt.log)

		if _, err := os.Stat(stepsFile); err != nil {
			fmt.Fprintf(out, "\nNo workflow step list at %s\n", stepsFile)
			return nil
		}
		descriptors, err := pipeline.LoadSteps(stepsFile)
		if err != nil {
			return err
		}

		fmt.Fprintf(out, "\nWorkflow (%s):\n", stepsFile)
		for i, sd := range descriptors {
			state := ""
			if !sd.Enabled {
				state = " (disabled)"
			}
			fmt.Fprintf(out, "  %d. %s uses=%s%s\n", i+1, sd.Name, sd.Uses, state)
		}
		return nil
	},
}

// printRegisteredSteps lists every registered step with its description.
// A name that fails to resolve is logged and skipped.
func printRegisteredSteps(out io.Writer, reg stepLister, log *zap.Logger) {
	names := reg.Names()
	sort.Strings(names)

	fmt.Fprintln(out, "Registered steps:")
	for _, name := range names {
		step, err := reg.Resolve(name)
		if err != nil {
			log.Warn("registered step did not resolve",
				zap.String("step", name), zap.Error(err))
			continue
		}
		fmt.Fprintf(out, "  %-18s %s\n", name, step.Description())
	}
}

func init() {
	rootCmd.AddCommand(stepsCmd)
}
