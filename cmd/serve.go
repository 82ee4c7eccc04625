package cmd

import (
	"context"
	"log"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"github.com/spigell/career-compass/internal/bridge"
	"github.com/spigell/career-compass/internal/messaging"
	"github.com/spigell/career-compass/internal/session"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the message bridge over HTTP",
	Run: func(cmd *cobra.Command, _ []string) {
		serve(cmd.Context())
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)

	serveCmd.Flags().StringP("listen", "l", "", "address the bridge listens on (default "+bridge.DefaultListen+")")

	viper.BindPFlag("listen", serveCmd.Flags().Lookup("listen"))
}

func serve(ctx context.Context) {
	if ctx == nil {
		ctx = context.Background()
	}
	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	logger, err := newLogger("serve")
	if err != nil {
		log.Fatalf("creating a logger: %s", err)
	}

	config, err := getConfig()
	if err != nil {
		logger.Fatal("getting a config", zap.Error(err))
	}

	logger.Info("starting the bridge")

	rt, err := buildRuntime(ctx, config, logger)
	if err != nil {
		logger.Fatal("building components", zap.Error(err))
	}
	defer rt.close()

	g, gCtx := errgroup.WithContext(ctx)

	g.Go(func() error {
		return bridge.Serve(gCtx, config.Listen, rt.coordinator, logger)
	})

	g.Go(func() error {
		return watchAuth(gCtx, rt.cookies, rt.coordinator, logger)
	})

	if err := g.Wait(); err != nil {
		logger.Error("bridge stopped", zap.Error(err))
	}

	rt.coordinator.Wait()
	logger.Info("exiting")
}

// watchAuth re-runs CHECK_AUTH after every session cookie change and logs
// the outcome until ctx is done.
func watchAuth(ctx context.Context, cookies session.Store, d dispatcher, logger *zap.Logger) error {
	changes := make(chan struct{}, 1)
	stop, err := watchSession(cookies, logger, func() {
		select {
		case changes <- struct{}{}:
		default:
		}
	})
	if err != nil {
		logger.Warn("session changes will not be observed", zap.Error(err))
		<-ctx.Done()
		return nil
	}
	defer stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-changes:
			resp, err := d.Handle(ctx, messaging.Message{Action: messaging.CheckAuth})
			if err != nil {
				return nil
			}
			if status, ok := resp.(messaging.AuthStatus); ok {
				logger.Info("session changed",
					zap.Bool("authenticated", status.Authenticated),
					zap.String("email", status.Email),
				)
			}
		}
	}
}
