package config

import (
	"time"

	"github.com/ledgerline/refundgate/pkg/service/dispatcher"
	"github.com/urfave/cli/v3"
)

// Dispatcher holds CLI flags for the side-effect job dispatcher
type Dispatcher struct {
	workers      int
	lease        time.Duration
	maxRetries   int
	pollInterval time.Duration
}

// Flags returns CLI flags for dispatcher configuration
func (d *Dispatcher) Flags() []cli.Flag {
	return []cli.Flag{
		&cli.IntFlag{
			Name:        "dispatcher-workers",
			Usage:       "Number of concurrent job workers",
			Value:       dispatcher.DefaultWorkers,
			Sources:     cli.EnvVars("REFUNDGATE_DISPATCHER_WORKERS"),
			Destination: &d.workers,
		},
		&cli.DurationFlag{
			Name:        "dispatcher-lease",
			Usage:       "How long a claimed job may run before another worker may reclaim it",
			Value:       dispatcher.DefaultLease,
			Sources:     cli.EnvVars("REFUNDGATE_DISPATCHER_LEASE"),
			Destination: &d.lease,
		},
		&cli.IntFlag{
			Name:        "dispatcher-max-retries",
			Usage:       "Retry ceiling before a job is marked FAILED and alerted",
			Value:       dispatcher.DefaultMaxRetries,
			Sources:     cli.EnvVars("REFUNDGATE_DISPATCHER_MAX_RETRIES"),
			Destination: &d.maxRetries,
		},
		&cli.DurationFlag{
			Name:        "dispatcher-poll-interval",
			Usage:       "Idle queue polling interval",
			Value:       dispatcher.DefaultPollInterval,
			Sources:     cli.EnvVars("REFUNDGATE_DISPATCHER_POLL_INTERVAL"),
			Destination: &d.pollInterval,
		},
	}
}

// Options renders the flags as dispatcher options
func (d *Dispatcher) Options() []dispatcher.Option {
	return []dispatcher.Option{
		dispatcher.WithWorkers(d.workers),
		dispatcher.WithLease(d.lease),
		dispatcher.WithMaxRetries(d.maxRetries),
		dispatcher.WithPollInterval(d.pollInterval),
	}
}
