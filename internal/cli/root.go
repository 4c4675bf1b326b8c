package cli

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/3n8/openclaw-plugins/internal/app"
	"github.com/3n8/openclaw-plugins/internal/config"
)

const version = "0.1.0"

func NewRoot(logger *slog.Logger) *cobra.Command {
	root := &cobra.Command{
		Use:          "matrix-actions",
		Short:        "Matrix action routing and capability gating service",
		SilenceUsage: true,
	}

	root.AddCommand(newServeCommand(logger))
	root.AddCommand(newMCPCommand(logger))
	root.AddCommand(newDispatchCommand(logger))
	root.AddCommand(newHandleCommand(logger))
	root.AddCommand(newActionsCommand(logger))
	root.AddCommand(newAuditCommand(logger))
	root.AddCommand(newVersionCommand())

	return root
}

func newServeCommand(logger *slog.Logger) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP, websocket and MCP action API",
		RunE: func(cmd *cobra.Command, args []string) error {
			runtime, err := app.New(config.FromEnv(), version, logger)
			if err != nil {
				return err
			}
			defer runtime.Close()

			ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
			defer cancel()
			return runtime.Run(ctx)
		},
	}
}

func newMCPCommand(logger *slog.Logger) *cobra.Command {
	return &cobra.Command{
		Use:   "mcp",
		Short: "Serve the Matrix action tools over MCP stdio",
		RunE: func(cmd *cobra.Command, args []string) error {
			runtime, err := app.New(config.FromEnv(), version, logger)
			if err != nil {
				return err
			}
			defer runtime.Close()

			ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
			defer cancel()
			return runtime.RunMCP(ctx)
		},
	}
}

func newVersionCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print CLI version",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintln(cmd.OutOrStdout(), version)
		},
	}
}
