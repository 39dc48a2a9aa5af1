package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/AyushDoCode/WhatsappChatbot/internal/indexer"
)

func newIndexCmd(c *cli) *cobra.Command {
	var (
		maxItems  int
		batchSize int
	)

	cmd := &cobra.Command{
		Use:   "index",
		Short: "Embed every product that has no embedding yet",
		Long: `index runs the batch embedding pass: products without an embedding get
their searchable text embedded and stored. Requests are paced by
INDEX_ITEM_DELAY and INDEX_BATCH_DELAY. Interrupting the run keeps the work
already done.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if maxItems > 0 {
				c.cfg.IndexMaxItems = maxItems
			}
			if batchSize > 0 {
				c.cfg.IndexBatchSize = batchSize
			}

			ctx := cmd.Context()
			comps, err := c.components(ctx)
			if err != nil {
				return err
			}
			defer func() { _ = comps.Close(ctx) }()

			report, err := comps.Indexer.Run(ctx)
			if err != nil && !indexer.IsCanceled(err) {
				return fmt.Errorf("index: %w", err)
			}

			if c.asJSON {
				return c.printJSON(report)
			}
			fmt.Fprintf(c.out, "processed: %d\n", report.Processed)
			fmt.Fprintf(c.out, "indexed:   %d\n", report.Indexed)
			fmt.Fprintf(c.out, "failed:    %d\n", report.Failed)
			fmt.Fprintf(c.out, "skipped:   %d\n", report.Skipped)
			fmt.Fprintf(c.out, "batches:   %d\n", report.Batches)
			fmt.Fprintf(c.out, "duration:  %s\n", report.Duration.Round(time.Millisecond))
			fmt.Fprintf(c.out, "coverage:  %d/%d (%.2f%%)\n", report.Stats.Indexed, report.Stats.Total, report.Stats.Percentage)
			if err != nil {
				fmt.Fprintln(c.out, "interrupted")
			}
			return nil
		},
	}

	cmd.Flags().IntVar(&maxItems, "max-items", 0, "stop after this many products (0 means all)")
	cmd.Flags().IntVar(&batchSize, "batch-size", 0, "override INDEX_BATCH_SIZE")
	return cmd
}

func newStatsCmd(c *cli) *cobra.Command {
	return &cobra.Command{
		Use:   "stats",
		Short: "Print embedding coverage of the catalog",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			comps, err := c.components(ctx)
			if err != nil {
				return err
			}
			defer func() { _ = comps.Close(ctx) }()

			stats, err := comps.Indexer.Stats(ctx)
			if err != nil {
				return err
			}

			if c.asJSON {
				return c.printJSON(stats)
			}
			fmt.Fprintf(c.out, "total products:   %d\n", stats.Total)
			fmt.Fprintf(c.out, "indexed products: %d\n", stats.Indexed)
			fmt.Fprintf(c.out, "coverage:         %.2f%%\n", stats.Percentage)
			return nil
		},
	}
}
