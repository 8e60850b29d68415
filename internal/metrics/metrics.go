// Package metrics defines the process-wide Prometheus collectors.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Session lifecycle metrics
var (
	// ActiveSessions tracks the number of live game sessions
	ActiveSessions = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "watch_active_sessions",
			Help: "Number of currently active game sessions",
		},
	)

	// SessionsStartedTotal counts session starts
	SessionsStartedTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "watch_sessions_started_total",
			Help: "Total game sessions started",
		},
	)

	// SessionsEndedTotal counts session ends by cause (explicit/reaped)
	SessionsEndedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "watch_sessions_ended_total",
			Help: "Total game sessions ended by cause",
		},
		[]string{"cause"},
	)

	// LeaderboardSubmitFailuresTotal counts failed score submissions at session end
	LeaderboardSubmitFailuresTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "watch_leaderboard_submit_failures_total",
			Help: "Total leaderboard submissions that failed during session end",
		},
	)
)

// Idle reaper metrics
var (
	// ReaperSweepsTotal counts reaper sweeps
	ReaperSweepsTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "reaper_sweeps_total",
			Help: "Total idle reaper sweeps",
		},
	)

	// ReaperReapedSessionsTotal counts sessions force-ended by the reaper
	ReaperReapedSessionsTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "reaper_reaped_sessions_total",
			Help: "Total sessions force-ended due to idle timeout",
		},
	)

	// ReaperSweepDuration tracks sweep latency in seconds
	ReaperSweepDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "reaper_sweep_duration_seconds",
			Help:    "Idle reaper sweep duration in seconds",
			Buckets: []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1},
		},
	)
)

// Broadcast hub metrics
var (
	// HubConnectedSpectators tracks currently connected spectator clients
	HubConnectedSpectators = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "hub_connected_spectators",
			Help: "Number of connected spectator WebSocket clients",
		},
	)

	// HubEventsPublishedTotal counts published events by type
	HubEventsPublishedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "hub_events_published_total",
			Help: "Total events published to the broadcast hub by type",
		},
		[]string{"type"},
	)

	// HubEventsDroppedTotal counts events dropped due to full client queues
	HubEventsDroppedTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "hub_events_dropped_total",
			Help: "Total events dropped because a spectator queue was full",
		},
	)

	// HubCommandChannelDepth tracks the hub actor command backlog
	HubCommandChannelDepth = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "hub_command_channel_depth",
			Help: "Current depth of the broadcast hub command channel",
		},
	)

	// WebSocketMessageSendDuration tracks per-message write latency
	WebSocketMessageSendDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "websocket_message_send_duration_seconds",
			Help:    "WebSocket message send duration in seconds",
			Buckets: []float64{.0001, .0005, .001, .005, .01, .05, .1, .5},
		},
	)

	// WebSocketPingFailures counts failed keepalive pings
	WebSocketPingFailures = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "websocket_ping_failures_total",
			Help: "Total WebSocket ping failures",
		},
	)
)
