package cli

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/m-mizutani/goerr/v2"

	"github.com/secmon-lab/helpline/pkg/cli/config"
	httpctrl "github.com/secmon-lab/helpline/pkg/controller/http"
	"github.com/secmon-lab/helpline/pkg/service/authz"
	"github.com/secmon-lab/helpline/pkg/service/worker"
	"github.com/secmon-lab/helpline/pkg/usecase"
	"github.com/secmon-lab/helpline/pkg/utils/logging"
	"github.com/urfave/cli/v3"
)

func cmdServe() *cli.Command {
	var addr string
	var corsOrigins []string
	var userRefreshInterval time.Duration
	var repoCfg config.Repository
	var slackCfg config.Slack
	var githubCfg config.GitHub
	var categoryCfg config.Categories

	flags := []cli.Flag{
		&cli.StringFlag{
			Name:        "addr",
			Usage:       "HTTP server address",
			Value:       ":8080",
			Sources:     cli.EnvVars("HELPLINE_ADDR"),
			Destination: &addr,
		},
		&cli.StringSliceFlag{
			Name:        "cors-origin",
			Usage:       "Allowed CORS origin for the read API (repeatable)",
			Sources:     cli.EnvVars("HELPLINE_CORS_ORIGIN"),
			Destination: &corsOrigins,
		},
		&cli.DurationFlag{
			Name:        "user-refresh-interval",
			Usage:       "Interval of the Slack user cache refresh",
			Value:       10 * time.Minute,
			Sources:     cli.EnvVars("HELPLINE_USER_REFRESH_INTERVAL"),
			Destination: &userRefreshInterval,
		},
	}

	flags = append(flags, repoCfg.Flags()...)
	flags = append(flags, slackCfg.Flags()...)
	flags = append(flags, githubCfg.Flags()...)
	flags = append(flags, categoryCfg.Flags()...)

	return &cli.Command{
		Name:    "serve",
		Aliases: []string{"s"},
		Usage:   "Start HTTP server",
		Flags:   flags,
		Action: func(ctx context.Context, c *cli.Command) error {
			rules, err := categoryCfg.Configure()
			if err != nil {
				return goerr.Wrap(err, "failed to load category rules")
			}

			repo, err := repoCfg.Configure(ctx)
			if err != nil {
				return goerr.Wrap(err, "failed to initialize repository")
			}
			defer func() {
				if err := repo.Close(); err != nil {
					logging.Default().Error("failed to close repository", "error", err.Error())
				}
			}()

			slackSvc, err := slackCfg.Configure(ctx)
			if err != nil {
				return goerr.Wrap(err, "failed to initialize slack service")
			}

			ucOpts := []usecase.Option{
				usecase.WithSlackService(slackSvc),
				usecase.WithCategoryRules(rules),
				usecase.WithHelpChannel(slackCfg.HelpChannelID()),
			}

			if slackCfg.StaffGroupID() != "" {
				authzSvc, err := authz.New(slackSvc, slackCfg.StaffGroupID())
				if err != nil {
					return goerr.Wrap(err, "failed to initialize authorizer")
				}
				ucOpts = append(ucOpts, usecase.WithAuthorizer(authzSvc))
			} else {
				logging.Default().Warn("slack-staff-group-id not configured, staff commands are disabled")
			}

			githubSvc, err := githubCfg.Configure()
			if err != nil {
				return goerr.Wrap(err, "failed to initialize GitHub service")
			}
			if githubSvc != nil {
				ucOpts = append(ucOpts, usecase.WithIssueTracker(githubSvc))
				logging.Default().Info("GitHub elevation enabled", "github", githubCfg)
			} else {
				logging.Default().Info("GitHub App not configured, elevation is disabled")
			}

			uc := usecase.New(repo, ucOpts...)

			userWorker := worker.NewUserRefreshWorker(slackSvc, userRefreshInterval)
			if err := userWorker.Start(ctx); err != nil {
				return goerr.Wrap(err, "failed to start user refresh worker")
			}

			httpOpts := []httpctrl.Options{
				httpctrl.WithCORSOrigins(corsOrigins),
			}
			if slackCfg.IsWebhookConfigured() {
				httpOpts = append(httpOpts, httpctrl.WithSlackSigningSecret(slackCfg.SigningSecret()))
				logging.Default().Info("Slack webhook endpoints enabled")
			} else {
				logging.Default().Warn("slack-signing-secret not configured, webhook endpoints are disabled")
			}

			server := &http.Server{
				Addr:              addr,
				Handler:           httpctrl.New(uc, httpOpts...),
				ReadHeaderTimeout: 30 * time.Second,
			}

			sigCh := make(chan os.Signal, 1)
			signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)

			errCh := make(chan error, 1)
			go func() {
				logging.Default().Info("Starting HTTP server",
					"addr", addr,
					"help_channel", slackCfg.HelpChannelID(),
				)
				if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
					errCh <- goerr.Wrap(err, "failed to start server")
				}
			}()

			select {
			case err := <-errCh:
				return err
			case sig := <-sigCh:
				logging.Default().Info("Received shutdown signal", "signal", sig)

				userWorker.Stop()

				shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
				defer cancel()

				if err := server.Shutdown(shutdownCtx); err != nil {
					return goerr.Wrap(err, "failed to shutdown server gracefully")
				}

				logging.Default().Info("Server shutdown completed")
				return nil
			}
		},
	}
}
