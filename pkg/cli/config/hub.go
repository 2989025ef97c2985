package config

import (
	"time"

	"github.com/ledgerline/refundgate/pkg/service/hub"
	"github.com/urfave/cli/v3"
)

// Hub holds CLI flags for the live notification hub
type Hub struct {
	heartbeatInterval time.Duration
	eventBuffer       int
}

// Flags returns CLI flags for hub configuration
func (h *Hub) Flags() []cli.Flag {
	return []cli.Flag{
		&cli.DurationFlag{
			Name:        "hub-heartbeat-interval",
			Usage:       "Expected client ping interval; connections missing two are dropped",
			Value:       hub.DefaultHeartbeatInterval,
			Sources:     cli.EnvVars("REFUNDGATE_HUB_HEARTBEAT_INTERVAL"),
			Destination: &h.heartbeatInterval,
		},
		&cli.IntFlag{
			Name:        "hub-event-buffer",
			Usage:       "Per-connection event buffer size",
			Value:       hub.DefaultEventBuffer,
			Sources:     cli.EnvVars("REFUNDGATE_HUB_EVENT_BUFFER"),
			Destination: &h.eventBuffer,
		},
	}
}

// Options renders the flags as hub options
func (h *Hub) Options() []hub.Option {
	return []hub.Option{
		hub.WithHeartbeatInterval(h.heartbeatInterval),
		hub.WithEventBuffer(h.eventBuffer),
	}
}
