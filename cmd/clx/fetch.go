package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/gkn1fexxx/clx/datasets"
	"github.com/gkn1fexxx/clx/datasets/dgadomains"
)

func fetchCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "fetch",
		Short: "Download the domain feeds into the local store",
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()

			store, err := dgadomains.OpenStore(a.cfg.Data.DBPath)
			if err != nil {
				return err
			}
			defer store.Close()

			feeds := []dgadomains.Feed{
				{Name: "dga", URL: a.cfg.Data.DGAFeedURL, Type: datasets.TypeDGA},
				{Name: "benign", URL: a.cfg.Data.BenignFeedURL, Type: datasets.TypeBenign},
			}
			perFeed, err := dgadomains.NewFetcher(a.log).FetchAll(ctx, feeds)
			if err != nil {
				return err
			}
			for i, feed := range feeds {
				n, err := store.Upsert(ctx, perFeed[i], feed.Name)
				if err != nil {
					return err
				}
				fmt.Printf("%s: stored %d domains from %s\n", feed.Name, n, feed.URL)
			}

			dga, benign, err := store.Counts(ctx)
			if err != nil {
				return err
			}
			fmt.Printf("store %s now holds %d dga and %d benign domains\n", a.cfg.Data.DBPath, dga, benign)
			return nil
		},
	}
}
