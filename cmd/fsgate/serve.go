package main

import (
	"fmt"
	"os"

	"fsgate/internal/config"
	"fsgate/internal/credentials"
	"fsgate/internal/gateway"
	"fsgate/internal/httpapi"
	"fsgate/internal/logging"
	"fsgate/internal/mcp"

	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"
)

// tokenEnv supplies the HTTP API token where no OS credential store exists.
const tokenEnv = "FSGATE_HTTP_TOKEN"

func newServeCmd(root *rootOptions) *cobra.Command {
	var (
		transport string
		addr      string
		auth      bool
	)

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the tools over MCP stdio or HTTP",
		Long: `Serve the filesystem tools until interrupted.

With --transport stdio (the default) fsgate speaks MCP on stdin/stdout and
logs to stderr. With --transport http it serves a JSON API on --addr:

  GET  /healthz           health check
  GET  /v1/tools          tool descriptors
  POST /v1/tools/{name}   {"arguments": {...}}
  GET  /metrics           Prometheus metrics

--auth requires a bearer token on /v1 routes, taken from $` + tokenEnv + ` or
the OS credential store (see 'fsgate token').`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			gw, cfg, logger, err := root.newGateway(cmd, func(c *config.Config) {
				if cmd.Flags().Changed("transport") {
					c.Transport = transport
				}
				if cmd.Flags().Changed("addr") {
					c.HTTPAddr = addr
				}
			})
			if err != nil {
				return err
			}

			switch cfg.Transport {
			case config.TransportHTTP:
				return serveHTTP(cmd, gw, cfg, logger, auth)
			default:
				return mcp.NewServer(gw, version, logger).Serve(cmd.Context(), cmd.InOrStdin(), cmd.OutOrStdout())
			}
		},
	}

	cmd.Flags().StringVar(&transport, "transport", config.TransportStdio, "transport: stdio or http")
	cmd.Flags().StringVar(&addr, "addr", config.DefaultHTTPAddr, "listen address for the http transport")
	cmd.Flags().BoolVar(&auth, "auth", false, "require a bearer token on the http transport")
	return cmd
}

func serveHTTP(cmd *cobra.Command, gw *gateway.Gateway, cfg *config.Config, logger *logging.AppLogger, auth bool) error {
	var opts []httpapi.RouterOption
	if auth {
		token, err := resolveToken()
		if err != nil {
			return err
		}
		opts = append(opts, httpapi.WithToken(token))
	}

	gin.SetMode(gin.ReleaseMode)
	router := httpapi.NewRouter(gw, gw.Metrics(), logger, opts...)
	return httpapi.NewServer(cfg.HTTPAddr, router, logger).Run(cmd.Context())
}

func resolveToken() (string, error) {
	if token := os.Getenv(tokenEnv); token != "" {
		if err := credentials.ValidateTokenFormat(token); err != nil {
			return "", fmt.Errorf("invalid %s: %w", tokenEnv, err)
		}
		return token, nil
	}
	return credentials.NewCredentialManager().GetAPIToken()
}
