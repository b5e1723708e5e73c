package cmd

import (
	"context"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"notary/internal/api"
	"notary/internal/chain"
	"notary/internal/config"
	"notary/internal/manager"
	"notary/internal/ws"

	"github.com/ethereum/go-ethereum/ethclient"
	"github.com/pkg/errors"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

const shutdownTimeout = 5 * time.Second

func (c *command) initServeCmd() {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API and the WebSocket event stream",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()
			return c.serve(ctx)
		},
	}

	flags := cmd.Flags()
	flags.Int(config.OptionNameAPIPort, config.DefaultAPIPort, "HTTP API port")
	flags.Int(config.OptionNameWSPort, config.DefaultWSPort, "WebSocket port")
	flags.String(config.OptionNameRPCURL, "", "rpc endpoint used to confirm the chain id at startup")
	flags.Duration(config.OptionNameDigestTTL, config.DefaultDigestTTL, "how long registered digests are kept")

	c.root.AddCommand(cmd)
}

func (c *command) serve(ctx context.Context) error {
	logger := c.logger

	if c.cfg.RPCURL != "" {
		client, err := ethclient.DialContext(ctx, c.cfg.RPCURL)
		if err != nil {
			return errors.Wrap(err, "failed to dial rpc")
		}
		defer client.Close()

		chainID, err := chain.FetchChainID(ctx, client)
		if err != nil {
			return err
		}
		logger.Info("connected to chain", zap.String("rpc", c.cfg.RPCURL), zap.String("chainId", chainID.Dec()))
	}

	m := manager.NewManager(c.cfg.DigestTTL, logger)
	defer m.Close()

	apiServer := api.NewAPIServer(c.cfg.APIPort, m, logger).HTTPServer()
	wsServer := ws.NewWSServer(c.cfg.WSPort, m, logger).HTTPServer()

	errc := make(chan error, 2)
	go initServer(apiServer, errc, logger)
	go initServer(wsServer, errc, logger)

	var err error
	select {
	case <-ctx.Done():
		logger.Info("shutting down gracefully, press Ctrl+C again to force")
	case err = <-errc:
		logger.Error("server failed", zap.Error(err))
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	for _, server := range []*http.Server{apiServer, wsServer} {
		if serr := server.Shutdown(shutdownCtx); serr != nil {
			logger.Warn("server forced to shutdown", zap.String("addr", server.Addr), zap.Error(serr))
		}
	}

	logger.Info("graceful shutdown complete")
	return err
}

func initServer(server *http.Server, errc chan<- error, logger *zap.Logger) {
	logger.Info("server listening", zap.String("addr", server.Addr))
	if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		errc <- errors.Wrapf(err, "server %s", server.Addr)
	}
}
