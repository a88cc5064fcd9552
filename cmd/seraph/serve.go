package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/evo-hydra/seraph/internal/config"
	"github.com/evo-hydra/seraph/internal/seraphlog"
	"github.com/evo-hydra/seraph/internal/toolserver"

	"github.com/evo-hydra/seraph/cmd/seraph/cmdutil"
)

var serveVerbose bool

var serveCmd = &cobra.Command{
	Use:   "serve [repo]",
	Short: "Run the tool server on a Unix domain socket under .seraph/seraph.sock",
	Args:  cobra.MaximumNArgs(1),
	Run:   runServe,
}

func init() {
	serveCmd.Flags().BoolVar(&serveVerbose, "verbose", false, "enable debug logging")
}

func runServe(cmd *cobra.Command, args []string) {
	repoPath := repoArg(args)

	cfg, err := config.Load(repoPath)
	if err != nil {
		cmdutil.Fatal(false, "loading configuration: %v", err)
	}

	log := seraphlog.New(cfg.Logging, serveVerbose)

	srv := toolserver.New(repoPath, log)

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	log.Info("tool server starting", "socket", srv.SocketPath)
	fmt.Fprintf(os.Stderr, "listening on %s\n", srv.SocketPath)

	if err := srv.Serve(ctx); err != nil {
		cmdutil.Fatal(false, "tool server: %v", err)
	}
}
