package main

import (
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/gkn1fexxx/clx/config"
	"github.com/gkn1fexxx/clx/detector"
)

// app carries the state shared by every subcommand: the parsed configuration,
// the logger, and the profile stopper when --pgo is set.
type app struct {
	cfgPath string
	debug   bool
	pgo     bool

	cfg         *config.Config
	log         *zap.Logger
	stopProfile func()
}

// Execute runs the root command and reports the process exit code.
func Execute() int {
	a := &app{}
	err := newRootCmd(a).Execute()
	a.shutdown()
	if err != nil {
		return 1
	}
	return 0
}

func newRootCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:               "clx",
		Short:             "Train and run a GRU classifier for DGA domain detection",
		SilenceUsage:      true,
		PersistentPreRunE: a.setup,
	}
	cmd.PersistentFlags().StringVar(&a.cfgPath, "config", "", "path to a YAML config file (defaults apply when omitted)")
	cmd.PersistentFlags().BoolVar(&a.debug, "debug", false, "verbose development logging")
	cmd.PersistentFlags().BoolVar(&a.pgo, "pgo", false, "write a CPU profile to default.pgo")

	cmd.AddCommand(fetchCmd(a), trainCmd(a), inferCmd(a), workflowCmd(a))
	return cmd
}

func (a *app) setup(_ *cobra.Command, _ []string) error {
	cfg, err := config.Load(a.cfgPath)
	if err != nil {
		return err
	}
	a.cfg = cfg

	if a.debug {
		a.log, err = zap.NewDevelopment()
	} else {
		a.log, err = zap.NewProduction()
	}
	if err != nil {
		return err
	}

	if a.pgo {
		a.stopProfile, err = startProfile("default.pgo")
		if err != nil {
			return err
		}
	}
	return nil
}

// shutdown flushes whatever setup started. Safe to call when setup never ran
// or failed partway.
func (a *app) shutdown() {
	if a.stopProfile != nil {
		a.stopProfile()
	}
	if a.log != nil {
		_ = a.log.Sync()
	}
}

// detectorConfig maps the model section of the config onto detector knobs.
func detectorConfig(cfg *config.Config) detector.Config {
	return detector.Config{
		LearningRate: cfg.Model.LearningRate,
		VocabSize:    cfg.Model.VocabSize,
		HiddenSize:   cfg.Model.HiddenSize,
		Layers:       cfg.Model.Layers,
		Classes:      cfg.Model.Classes,
		Seed:         cfg.Model.Seed,
	}
}
