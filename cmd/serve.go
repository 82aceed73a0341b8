package main

import (
	"context"
	"net"
	"strconv"

	"github.com/urfave/cli/v3"

	"github.com/desertthunder/ytbot/internal/server"
	"github.com/desertthunder/ytbot/internal/shared"
)

// Serve exposes folder metrics, the queue and the play history over HTTP until interrupted.
func (r *Runner) Serve(ctx context.Context, cmd *cli.Command) error {
	host := cmd.String("host")
	if host == "" {
		host = r.config.Server.Host
	}
	port := int(cmd.Int("port"))
	if port == 0 {
		port = r.config.Server.Port
	}
	addr := net.JoinHostPort(host, strconv.Itoa(port))

	a, err := r.open()
	if err != nil {
		return err
	}
	defer a.close()

	diagnostics := server.NewDiagnostics(a.dispatcher, a.queue, a.history, r.logger)
	router := server.NewDiagnosticsRouter(diagnostics)

	started := func() {
		url := "http://" + addr + "/queue"
		r.line(r.palette.OK("Serving diagnostics on http://" + addr))
		if cmd.Bool("open") {
			if err := shared.OpenURL(url); err != nil {
				r.logger.Warn("failed to open browser", "url", url, "error", err)
			}
		}
	}
	return server.Serve(ctx, addr, router, r.logger, started)
}
