package cmd

import (
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"github.com/example/pickupshop/pkg/models"
	"github.com/spf13/cobra"
)

var productsCmd = &cobra.Command{
	Use:   "products",
	Short: "Inspect the product catalog",
}

var productsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List products with their stock per variant",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, cancel := requestContext(cmd)
		defer cancel()
		products, err := clients.Reservations().ListProducts(ctx)
		if err != nil {
			return err
		}
		printProducts(cmd.OutOrStdout(), products)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(productsCmd)
	productsCmd.AddCommand(productsListCmd)
}

func printProducts(w io.Writer, products []models.Product) {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tNAME\tCATEGORY\tPRICE\tSTOCK\tVARIANTS")
	for _, p := range products {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%d\t%s\n",
			p.ID, p.Name, p.Category, p.EffectivePrice().StringFixed(2), p.Stock, variantSummary(p))
	}
	tw.Flush()
}

func variantSummary(p models.Product) string {
	if !p.HasVariants() {
		return "-"
	}
	parts := make([]string, 0, len(p.Variants))
	for _, v := range p.Variants {
		parts = append(parts, fmt.Sprintf("%s:%d", v.Label, v.Stock))
	}
	return strings.Join(parts, " ")
}
