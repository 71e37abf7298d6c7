// cmd/serve.go
package cmd

import (
	"bytes"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/xkilldash9x/domfacade/internal/bridge"
	"github.com/xkilldash9x/domfacade/internal/bridge/wire"
	"github.com/xkilldash9x/domfacade/internal/host/memhost"
	"github.com/xkilldash9x/domfacade/internal/session"
)

func newServeCmd(a *app) *cobra.Command {
	var pagePath string
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve a page as a wire host over stdin and stdout",
		Long: `Loads a page into the in-memory host and answers bridge requests, one JSON
frame per line, read from stdin. Responses go to stdout and logs to stderr. This is the
host half of a session whose host.kind is "wire".`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			logger := a.logger().With(zap.String("page", pagePath))
			page, err := session.ReadFile(pagePath)
			if err != nil {
				return fmt.Errorf("failed to read page %s: %w", pagePath, err)
			}
			host, err := memhost.Load(bytes.NewReader(page), memhost.WithLogger(logger))
			if err != nil {
				return err
			}

			caller := bridge.Serve(host)
			if a.cfg.Bridge().LogCalls {
				caller = bridge.Chain(caller, bridge.WithLogging(logger))
			}
			logger.Info("Serving page", zap.Int("pid", os.Getpid()))
			return wire.Serve(cmd.Context(), cmd.InOrStdin(), cmd.OutOrStdout(), caller, wire.WithServerLogger(logger))
		},
	}
	cmd.Flags().StringVarP(&pagePath, "page", "p", "", "HTML page to serve")
	_ = cmd.MarkFlagRequired("page")
	return cmd
}
