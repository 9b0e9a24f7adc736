package cmd

import (
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"github.com/example/pickupshop/pkg/models"
	"github.com/spf13/cobra"
)

var (
	statusFilter  string
	justification string
)

var ordersCmd = &cobra.Command{
	Use:   "orders",
	Short: "Inspect and update orders",
}

var ordersListCmd = &cobra.Command{
	Use:   "list",
	Short: "List all orders, newest first",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, cancel := requestContext(cmd)
		defer cancel()
		orders, err := clients.Reservations().ListOrders(ctx)
		if err != nil {
			return err
		}
		if statusFilter != "" {
			orders = filterStatus(orders, models.OrderStatus(statusFilter))
		}
		printOrders(cmd.OutOrStdout(), orders)
		return nil
	},
}

var ordersFindCmd = &cobra.Command{
	Use:   "find <identifier>",
	Short: "List a customer's orders by national ID",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, cancel := requestContext(cmd)
		defer cancel()
		orders, err := clients.Reservations().FindByCustomer(ctx, args[0])
		if err != nil {
			return err
		}
		if len(orders) == 0 {
			fmt.Fprintf(cmd.OutOrStdout(), "No orders for %s\n", models.FormatIdentifier(args[0]))
			return nil
		}
		printOrders(cmd.OutOrStdout(), orders)
		return nil
	},
}

var ordersGetCmd = &cobra.Command{
	Use:   "get <order-id>",
	Short: "Show one order with its lines",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, cancel := requestContext(cmd)
		defer cancel()
		o, err := clients.Reservations().GetOrder(ctx, args[0])
		if err != nil {
			return err
		}
		printOrder(cmd.OutOrStdout(), o)
		return nil
	},
}

var ordersPickupCmd = &cobra.Command{
	Use:   "pickup <order-id>",
	Short: "Mark an order as picked up and paid",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, cancel := requestContext(cmd)
		defer cancel()
		o, err := clients.Reservations().SetStatus(ctx, args[0], models.StatusPickedUp)
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Order #%s: %s\n", o.Number, o.Status.Label())
		return nil
	},
}

var ordersCancelCmd = &cobra.Command{
	Use:   "cancel <order-id>",
	Short: "Cancel an order and return its items to stock",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if strings.TrimSpace(justification) == "" {
			return fmt.Errorf("--reason is required")
		}
		ctx, cancel := requestContext(cmd)
		defer cancel()
		o, err := clients.Reservations().Cancel(ctx, args[0], justification)
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Order #%s: %s (%s)\n", o.Number, o.Status.Label(), o.CancelJustification)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(ordersCmd)
	ordersCmd.AddCommand(ordersListCmd, ordersFindCmd, ordersGetCmd, ordersPickupCmd, ordersCancelCmd)

	ordersListCmd.Flags().StringVar(&statusFilter, "status", "", "Only show orders with this status (awaiting_pickup, picked_up, cancelled)")
	ordersCancelCmd.Flags().StringVar(&justification, "reason", "", "Cancellation justification, e.g. \"Tempo limite expirado\"")
}

func filterStatus(orders []models.Order, status models.OrderStatus) []models.Order {
	var out []models.Order
	for _, o := range orders {
		if o.Status == status {
			out = append(out, o)
		}
	}
	return out
}

func printOrders(w io.Writer, orders []models.Order) {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "NUMBER\tID\tCREATED\tCUSTOMER\tIDENTIFIER\tTOTAL\tSTATUS")
	for _, o := range orders {
		fmt.Fprintf(tw, "#%s\t%s\t%s\t%s\t%s\t%s\t%s\n",
			o.Number,
			o.ID,
			o.CreatedAt.Local().Format("2006-01-02 15:04"),
			o.Customer.Name,
			models.FormatIdentifier(o.Customer.CanonicalID),
			o.Total.StringFixed(2),
			o.Status.Label())
	}
	tw.Flush()
}

func printOrder(w io.Writer, o models.Order) {
	fmt.Fprintf(w, "Order #%s (%s)\n", o.Number, o.ID)
	fmt.Fprintf(w, "Status:   %s\n", o.Status.Label())
	fmt.Fprintf(w, "Customer: %s, %s, %s\n", o.Customer.Name, models.FormatIdentifier(o.Customer.CanonicalID), o.Customer.Phone)
	fmt.Fprintf(w, "Created:  %s\n", o.CreatedAt.Local().Format("2006-01-02 15:04"))
	if o.CancelJustification != "" {
		fmt.Fprintf(w, "Reason:   %s\n", o.CancelJustification)
	}

	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "\nPRODUCT\tVARIANT\tQTY\tUNIT\tSUBTOTAL")
	for _, l := range o.Lines {
		fmt.Fprintf(tw, "%s\t%s\t%d\t%s\t%s\n", l.Name, l.Variant, l.Quantity, l.UnitPrice.StringFixed(2), l.Subtotal().StringFixed(2))
	}
	tw.Flush()
	fmt.Fprintf(w, "Total: %s\n", o.Total.StringFixed(2))
}
