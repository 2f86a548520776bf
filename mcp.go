package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/spf13/cobra"

	"github.com/kathyli05/kathboard/internal/server"
)

var (
	mcpTransport string
	mcpAddr      string
)

var mcpCmd = &cobra.Command{
	Use:   "mcp",
	Short: "Run the MCP tool server",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		defer cancel()

		cfg, log, store, err := bootstrap(ctx, "kathboard-mcp")
		if err != nil {
			return err
		}
		defer store.Close()

		// Build the MCP server with all tools registered
		srv := server.New(store)

		switch mcpTransport {
		case "stdio":
			log.Info("MCP server starting (stdio)")
			return srv.Run(ctx, &mcp.StdioTransport{})
		case "http":
			addr := cfg.MCP.Addr
			if mcpAddr != "" {
				addr = mcpAddr
			}
			handler := mcp.NewStreamableHTTPHandler(func(r *http.Request) *mcp.Server {
				return srv
			}, nil)
			httpSrv := &http.Server{Addr: addr, Handler: handler, ReadHeaderTimeout: 10 * time.Second}

			go func() {
				<-ctx.Done()
				shutdownCtx, stop := context.WithTimeout(context.Background(), cfg.HTTP.ShutdownTimeout)
				defer stop()
				httpSrv.Shutdown(shutdownCtx)
			}()

			log.WithField("addr", addr).Info("MCP server listening")
			if err := httpSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				return err
			}
			return nil
		default:
			return fmt.Errorf("unknown transport: %s (use stdio or http)", mcpTransport)
		}
	},
}

func init() {
	mcpCmd.Flags().StringVar(&mcpTransport, "transport", "stdio", "Transport mode: stdio or http")
	mcpCmd.Flags().StringVar(&mcpAddr, "addr", "", "HTTP listen address (only used with --transport http)")
	rootCmd.AddCommand(mcpCmd)
}
