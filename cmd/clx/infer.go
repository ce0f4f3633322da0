package main

import (
	"fmt"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"

	"github.com/gkn1fexxx/clx/datasets"
	"github.com/gkn1fexxx/clx/datasets/dgadomains"
	"github.com/gkn1fexxx/clx/detector"
	"github.com/gkn1fexxx/clx/inference"
)

func inferCmd(a *app) *cobra.Command {
	var modelPath string

	c := &cobra.Command{
		Use:   "infer",
		Short: "Score a trained checkpoint on the held-out test split",
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()

			store, err := dgadomains.OpenStore(a.cfg.Data.DBPath)
			if err != nil {
				return err
			}
			defer store.Close()

			recs, err := store.Records(ctx)
			if err != nil {
				return err
			}
			// The hash split reproduces the same test set the trainer held out.
			_, testRecs := datasets.Split(recs, a.cfg.Data.TrainSplit)
			if len(testRecs) == 0 {
				return errors.Errorf("store %s has no test records, run clx fetch first", a.cfg.Data.DBPath)
			}
			parts := datasets.Partition(testRecs, a.cfg.Train.BatchSize)

			det, err := detector.Load(modelPath, detectorConfig(a.cfg))
			if err != nil {
				return err
			}
			defer det.Free()

			report, err := inference.Run(det, parts)
			if err != nil {
				return err
			}
			fmt.Printf("Accuracy: %d/%d (%v)\n", report.Correct, report.Total, report.Accuracy)
			fmt.Printf("Average precision: %v\n", report.AveragePrecision)
			return nil
		},
	}
	c.Flags().StringVarP(&modelPath, "model", "m", "", "path to a trained checkpoint (required)")
	_ = c.MarkFlagRequired("model")
	return c
}
