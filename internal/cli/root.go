// Package cli implements the seoflow command tree.
package cli

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"seoflow/internal/config"
	"seoflow/internal/logging"
	"seoflow/internal/pipeline"
	"seoflow/internal/record"
	"seoflow/internal/steps"
)

// Version is the current version.
const Version = "0.1.0"

var (
	cfgFile      string
	stepsFile    string
	verbose      bool
	quiet        bool
	skipEnvCheck bool
)

var rootCmd = &cobra.Command{
	Use:   "seoflow",
	Short: "SEO keyword research pipeline",
	Long: `seoflow runs a sequential keyword research pipeline against a website:
scrape its keywords, expand them with long-tail variations and discover the
top search result URLs for each one. Step results are cached between runs
and every completed run is recorded as a timestamped JSON file.`,
	Version:       Version,
	SilenceUsage:  true,
	SilenceErrors: true,
}

// Execute runs the root command.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file path")
	rootCmd.PersistentFlags().StringVar(&stepsFile, "steps", "workflow.yaml", "workflow step list path")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable debug logging")
	rootCmd.PersistentFlags().BoolVarP(&quiet, "quiet", "q", false, "log warnings and errors only")
	rootCmd.PersistentFlags().BoolVar(&skipEnvCheck, "skip-env-check", false, "skip API credential validation")

	rootCmd.CompletionOptions.DisableDefaultCmd = true
}

// runtime bundles everything a command needs to execute workflows.
type runtime struct {
	log      *zap.Logger
	registry *steps.Registry
	recorder *record.Recorder
}

// setup resolves configuration, builds the logger and recorder and wires
// the built-in steps.
func setup(cmd *cobra.Command) (*runtime, error) {
	cfg, err := config.NewLoader().WithConfigPath(cfgFile).Load()
	if err != nil {
		return nil, err
	}

	logCfg := logging.Config{
		Level:     cfg.Logging.Level,
		Format:    cfg.Logging.Format,
		FilePath:  filepath.Join(cfg.OutputDir, "workflow.log"),
		MaxSizeMB: cfg.Logging.MaxSizeMB,
	}
	if verbose {
		logCfg.Level = "debug"
	}
	if quiet {
		logCfg.Level = "warn"
	}
	log := logging.New(logCfg)

	if !skipEnvCheck {
		statuses, err := cfg.ValidateEnv()
		for _, s := range statuses {
			if !s.Present && !s.Required {
				log.Warn("optional credential not set, dependent step unavailable",
					zap.String("name", s.Name))
			}
		}
		if err != nil {
			return nil, err
		}
	}

	recorder, err := record.NewRecorder(cfg.OutputDir, cfg.CacheDir, log)
	if err != nil {
		return nil, err
	}

	registry := steps.NewRegistry()
	if err := steps.RegisterDefaults(cmd.Context(), registry, cfg, log); err != nil {
		return nil, err
	}

	return &runtime{log: log, registry: registry, recorder: recorder}, nil
}

// newEngine builds an engine over the runtime's registry and recorder and
// loads the step list when the file exists.
func (rt *runtime) newEngine() (*pipeline.Engine, error) {
	eng := pipeline.New(rt.registry,
		pipeline.WithRecorder(rt.recorder),
		pipeline.WithLogger(rt.log))

	if _, err := os.Stat(stepsFile); err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("workflow step list %s not found", stepsFile)
		}
		return nil, err
	}
	if err := eng.RegisterStepsFromConfig(stepsFile); err != nil {
		return nil, err
	}
	return eng, nil
}
