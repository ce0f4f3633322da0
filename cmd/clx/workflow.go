package main

import (
	"context"
	"os/signal"
	"syscall"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"

	"github.com/gkn1fexxx/clx/config"
	"github.com/gkn1fexxx/clx/detector"
	"github.com/gkn1fexxx/clx/workflow"
)

func workflowCmd(a *app) *cobra.Command {
	var modelPath, sourcePath, destPath string

	c := &cobra.Command{
		Use:   "workflow",
		Short: "Stream domains from a source through the classifier to a destination",
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			// Path flags select the file transports without touching the config.
			srcCfg := a.cfg.Workflow.Source
			if sourcePath != "" {
				srcCfg.Type = config.TransportFS
				srcCfg.Path = sourcePath
			}
			dstCfg := a.cfg.Workflow.Destination
			if destPath != "" {
				dstCfg.Type = config.TransportFS
				dstCfg.Path = destPath
			}

			det, err := detector.Load(modelPath, detectorConfig(a.cfg))
			if err != nil {
				return err
			}
			defer det.Free()

			src, err := newSource(srcCfg)
			if err != nil {
				return err
			}
			defer src.Close()
			dst, err := newDestination(dstCfg)
			if err != nil {
				return err
			}
			defer dst.Close()

			err = workflow.New("dga-detection", src, dst, det, a.log).Run(ctx)
			if errors.Is(err, context.Canceled) {
				return nil // interrupted, totals already logged
			}
			return err
		},
	}
	c.Flags().StringVarP(&modelPath, "model", "m", "", "path to a trained checkpoint (required)")
	c.Flags().StringVar(&sourcePath, "source", "", "read domains from this file instead of the configured source")
	c.Flags().StringVar(&destPath, "dest", "", "append enriched records to this file instead of the configured destination")
	_ = c.MarkFlagRequired("model")
	return c
}

func newSource(cfg config.Source) (workflow.Source, error) {
	switch cfg.Type {
	case config.TransportKafka:
		return workflow.NewKafkaSource(cfg.KafkaBrokers, cfg.GroupID, cfg.ConsumerTopics, cfg.BatchSize, cfg.Window())
	default:
		if cfg.Path == "" {
			return nil, errors.New("no source file configured, set workflow.source.path or pass --source")
		}
		return workflow.NewFileSource(cfg.Path, cfg.BatchSize)
	}
}

func newDestination(cfg config.Destination) (workflow.Destination, error) {
	switch cfg.Type {
	case config.TransportKafka:
		return workflow.NewKafkaDestination(cfg.KafkaBrokers, cfg.PublisherTopic, cfg.OutputDelimiter)
	default:
		if cfg.Path == "" {
			return nil, errors.New("no destination file configured, set workflow.destination.path or pass --dest")
		}
		return workflow.NewFileDestination(cfg.Path, cfg.OutputDelimiter)
	}
}
