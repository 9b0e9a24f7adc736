package cmd

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/example/pickupshop/pkg/config"
	"github.com/example/pickupshop/pkg/grpc"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var (
	configPath string
	timeout    time.Duration

	clients *grpc.ClientManager
)

var rootCmd = &cobra.Command{
	Use:   "shopctl",
	Short: "Staff tool for the pickup reservation service",
	Long: `shopctl talks to the reservation service over gRPC. It lists and
searches orders, marks them as picked up, cancels them with a
justification and shows the product catalog with current stock.`,
	SilenceUsage:      true,
	PersistentPreRunE: connect,
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if clients != nil {
			clients.Close()
		}
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "config/config.yaml", "Path to the service configuration")
	rootCmd.PersistentFlags().DurationVar(&timeout, "timeout", 10*time.Second, "Deadline for each request")
}

// Execute runs the root command
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func connect(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}
	clients = grpc.NewClientManager(cfg, zap.NewNop(), nil)
	return clients.Connect(cmd.Context())
}

func requestContext(cmd *cobra.Command) (context.Context, context.CancelFunc) {
	return context.WithTimeout(cmd.Context(), timeout)
}
