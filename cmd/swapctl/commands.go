package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/smartswap/backend/internal/fixtures"
)

func newSeedCmd(c *cli) *cobra.Command {
	var file string

	cmd := &cobra.Command{
		Use:   "seed",
		Short: "Load products and rules from a YAML fixture",
		Long: `Seed stores the products and rules of a YAML fixture. Without --file the
built-in demo catalog is used. Products whose SKU already exists are reported
and skipped.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			var (
				f   *fixtures.Fixture
				err error
			)
			if file == "" {
				f, err = fixtures.Sample()
			} else {
				var data []byte
				data, err = os.ReadFile(file)
				if err != nil {
					return fmt.Errorf("failed to read fixture: %w", err)
				}
				f, err = fixtures.Load(data)
			}
			if err != nil {
				return err
			}

			report, err := fixtures.Apply(cmd.Context(), c.app.Catalog, f)
			if err != nil {
				return err
			}
			c.logger.Info().
				Int("products", report.ProductsCreated).
				Int("rules", report.RulesCreated).
				Msg("fixture applied")
			return printJSON(cmd.OutOrStdout(), report)
		},
	}

	cmd.Flags().StringVarP(&file, "file", "f", "", "fixture file (defaults to the demo catalog)")
	return cmd
}

func newEmbedCmd(c *cli) *cobra.Command {
	var productID string

	cmd := &cobra.Command{
		Use:   "embed",
		Short: "Regenerate product embeddings",
		RunE: func(cmd *cobra.Command, args []string) error {
			if productID != "" {
				p, err := c.app.Embeddings.UpdateProductEmbedding(cmd.Context(), productID)
				if err != nil {
					return err
				}
				return printJSON(cmd.OutOrStdout(), map[string]any{
					"product_id": p.ID,
					"dimensions": len(p.Embedding),
				})
			}

			result, err := c.app.Embeddings.UpdateAllEmbeddings(cmd.Context())
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), result)
		},
	}

	cmd.Flags().StringVar(&productID, "product", "", "refresh a single product id")
	return cmd
}

func newStatsCmd(c *cli) *cobra.Command {
	var retailerID string

	cmd := &cobra.Command{
		Use:   "stats",
		Short: "Show retailer acceptance statistics",
		RunE: func(cmd *cobra.Command, args []string) error {
			stats, err := c.app.FeedbackService.RetailerAcceptanceStats(cmd.Context(), retailerID)
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), stats)
		},
	}

	cmd.Flags().StringVar(&retailerID, "retailer", "", "restrict to one retailer")
	return cmd
}
