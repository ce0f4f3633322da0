package main

import (
	"fmt"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/gkn1fexxx/clx/datasets"
	"github.com/gkn1fexxx/clx/datasets/dgadomains"
	"github.com/gkn1fexxx/clx/detector"
	"github.com/gkn1fexxx/clx/trainer"
)

func trainCmd(a *app) *cobra.Command {
	var limit int

	c := &cobra.Command{
		Use:   "train",
		Short: "Train the classifier, keeping only the best checkpoint",
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
			if len(recs) == 0 {
				return errors.Errorf("store %s is empty, run clx fetch first", a.cfg.Data.DBPath)
			}
			if limit > 0 && limit < len(recs) {
				recs = recs[:limit]
			}

			trainRecs, testRecs := datasets.Split(recs, a.cfg.Data.TrainSplit)
			trainParts := datasets.Partition(trainRecs, a.cfg.Train.BatchSize)
			testParts := datasets.Partition(testRecs, a.cfg.Train.BatchSize)
			fmt.Printf("training on %d domains, testing on %d\n", len(trainRecs), len(testRecs))

			det, err := detector.New(detectorConfig(a.cfg))
			if err != nil {
				return err
			}
			defer det.Free()

			best, err := trainer.TrainAndEval(det, trainParts, testParts, a.cfg.Train.Epochs, a.cfg.Train.ModelDir)
			if err != nil {
				return err
			}
			a.log.Info("training finished",
				zap.String("checkpoint", best.Path),
				zap.Float64("accuracy", best.Accuracy),
				zap.Int("epoch", best.Epoch))
			return nil
		},
	}
	c.Flags().IntVar(&limit, "limit", 0, "train on at most this many stored records (0 means all)")
	return c
}
