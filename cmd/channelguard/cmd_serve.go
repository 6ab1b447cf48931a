package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/channel-guard/channelguard/internal/server"
	"github.com/channel-guard/channelguard/pkg/session"
	sshtransport "github.com/channel-guard/channelguard/pkg/session/ssh"
	"github.com/channel-guard/channelguard/pkg/util"
)

func newServeCmd() *cobra.Command {
	var addr string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the HTTP API",
		Long: `Start the HTTP API used by the web frontend. The server owns one
switch session shared by all requests and the topology store under the
directory selected by -T.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			st, err := openStore()
			if err != nil {
				return err
			}
			ctrl := session.NewController(sshtransport.New())
			srv := server.New(addr, ctrl, st)

			errCh := make(chan error, 1)
			go func() { errCh <- srv.Start() }()

			sigCh := make(chan os.Signal, 1)
			signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

			select {
			case err := <-errCh:
				return err
			case sig := <-sigCh:
				util.Infof("Received %s, shutting down", sig)
			}

			ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancel()
			ctrl.Disconnect()
			return srv.Shutdown(ctx)
		},
	}
	cmd.Flags().StringVar(&addr, "addr", ":8443", "listen address")
	return cmd
}
