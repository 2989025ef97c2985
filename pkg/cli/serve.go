package cli

import (
	"context"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/m-mizutani/goerr/v2"
	"golang.org/x/sync/errgroup"

	"github.com/ledgerline/refundgate/pkg/cli/config"
	httpctrl "github.com/ledgerline/refundgate/pkg/controller/http"
	"github.com/ledgerline/refundgate/pkg/service/dispatcher"
	"github.com/ledgerline/refundgate/pkg/service/gateway"
	"github.com/ledgerline/refundgate/pkg/service/hub"
	"github.com/ledgerline/refundgate/pkg/service/language"
	"github.com/ledgerline/refundgate/pkg/usecase"
	"github.com/ledgerline/refundgate/pkg/utils/logging"
	"github.com/urfave/cli/v3"
)

func cmdServe() *cli.Command {
	var addr string
	var repoCfg config.Repository
	var riskCfg config.Risk
	var rulesCfg config.Rules
	var geminiCfg config.Gemini
	var slackCfg config.Slack
	var dispatcherCfg config.Dispatcher
	var hubCfg config.Hub

	flags := []cli.Flag{
		&cli.StringFlag{
			Name:        "addr",
			Usage:       "HTTP server address",
			Value:       ":8080",
			Sources:     cli.EnvVars("REFUNDGATE_ADDR"),
			Destination: &addr,
		},
	}

	// Add shared config flags
	flags = append(flags, repoCfg.Flags()...)
	flags = append(flags, riskCfg.Flags()...)
	flags = append(flags, rulesCfg.Flags()...)
	flags = append(flags, geminiCfg.Flags()...)
	flags = append(flags, slackCfg.Flags()...)
	flags = append(flags, dispatcherCfg.Flags()...)
	flags = append(flags, hubCfg.Flags()...)

	return &cli.Command{
		Name:    "serve",
		Aliases: []string{"s"},
		Usage:   "Start HTTP server with the approval pipeline",
		Flags:   flags,
		Action: func(ctx context.Context, c *cli.Command) error {
			logger := logging.Default()

			// Initialize repository based on backend type
			repo, err := repoCfg.Configure(ctx)
			if err != nil {
				return goerr.Wrap(err, "failed to initialize repository")
			}
			defer func() {
				if err := repo.Close(); err != nil {
					logger.Error("failed to close repository", "error", err.Error())
				}
			}()

			classifier, err := riskCfg.Configure()
			if err != nil {
				return goerr.Wrap(err, "failed to configure risk classifier")
			}

			// Loads refund rules and seeds orders when an app config is given
			checker, err := rulesCfg.Configure(ctx, repo)
			if err != nil {
				return goerr.Wrap(err, "failed to configure refund rules")
			}

			notifications := hub.New(hubCfg.Options()...)

			dispatcherOpts := dispatcherCfg.Options()
			alerter, err := slackCfg.Configure()
			if err != nil {
				return goerr.Wrap(err, "failed to configure Slack alerter")
			}
			if alerter != nil {
				dispatcherOpts = append(dispatcherOpts, dispatcher.WithAlerter(alerter))
				logger.Info("Slack alerting enabled")
			} else {
				logger.Info("Slack not configured, failed jobs are logged only")
			}
			jobs := dispatcher.New(repo.Job(), dispatcherOpts...)

			ucOpts := []usecase.Option{
				usecase.WithClassifier(classifier),
				usecase.WithEligibility(checker),
			}

			llmClient, err := geminiCfg.Configure(ctx)
			if err != nil {
				return goerr.Wrap(err, "failed to configure Gemini client")
			}
			if llmClient != nil {
				languageSvc, err := language.New(llmClient)
				if err != nil {
					return goerr.Wrap(err, "failed to initialize language service")
				}
				ucOpts = append(ucOpts, usecase.WithLanguage(languageSvc))
				logger.Info("Gemini language service enabled")
			} else {
				logger.Info("Gemini not configured, chat falls back to keyword matching")
			}

			uc := usecase.New(repo, notifications, jobs, ucOpts...)
			uc.Approval.RegisterExecutors(gateway.NewSimulatedPayment(), gateway.NewSimulatedSMS())

			server := &http.Server{
				Addr:              addr,
				Handler:           httpctrl.New(uc, notifications),
				ReadHeaderTimeout: 30 * time.Second,
			}

			// Graceful shutdown on SIGINT/SIGTERM: stop accepting requests,
			// then let the dispatcher and hub drain via context cancellation.
			sigCtx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			eg, egCtx := errgroup.WithContext(sigCtx)

			eg.Go(func() error {
				return jobs.Run(egCtx)
			})
			eg.Go(func() error {
				return notifications.Run(egCtx)
			})
			eg.Go(func() error {
				logger.Info("Starting HTTP server", "addr", addr)
				if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
					return goerr.Wrap(err, "failed to start server")
				}
				return nil
			})
			eg.Go(func() error {
				<-egCtx.Done()
				logger.Info("Shutting down HTTP server")

				shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
				defer cancel()

				if err := server.Shutdown(shutdownCtx); err != nil {
					return goerr.Wrap(err, "failed to shutdown server gracefully")
				}
				return nil
			})

			if err := eg.Wait(); err != nil {
				return err
			}

			logger.Info("Server shutdown completed")
			return nil
		},
	}
}
