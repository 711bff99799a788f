// serve.go implements the "policydesk serve" command running the agent proxy.
package cli

import (
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/policydesk/policydesk/internal/agent"
	"github.com/policydesk/policydesk/internal/log"
	"github.com/policydesk/policydesk/internal/proxy"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the /api/agent proxy",
	Long: `Serve POST /api/agent, forwarding each envelope to the configured
agent platform (server.upstream_url). Without an upstream the offline
mock agents answer. Also serves /health and /metrics.`,
	RunE: runServe,
}

var serveAddr string

func init() {
	serveCmd.Flags().StringVar(&serveAddr, "addr", "", "Listen address (default: server.addr)")
}

func runServe(cmd *cobra.Command, args []string) error {
	_, cfg, err := loadConfig()
	if err != nil {
		return err
	}

	logger, err := log.NewDiagnostic(cfg.Log.Level, cfg.Log.Format, os.Stderr)
	if err != nil {
		return err
	}

	addr := cfg.Server.Addr
	if serveAddr != "" {
		addr = serveAddr
	}

	var caller agent.Caller
	if cfg.Server.UpstreamURL != "" && !mockFlag {
		caller = proxy.NewUpstream(cfg.Server.UpstreamURL, cfg.Server.APIKey, cfg.Timeout())
		logger.Info().Str("upstream", cfg.Server.UpstreamURL).Msg("forwarding to agent platform")
	} else {
		caller = agent.NewMockClient(cfg.Agent.IDs, cfg.MockDelay())
		logger.Warn().Msg("no upstream configured, answering with the offline mock agents")
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	srv := proxy.NewServer(proxy.Options{
		Addr:           addr,
		AllowedOrigins: cfg.Server.AllowedOrigins,
		Caller:         caller,
		Logger:         logger,
	})
	return srv.ListenAndServe(ctx)
}
