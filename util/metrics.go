package util

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

type metrics struct {
	roomCreatedCounter         prometheus.Counter
	roomDeletedCounter         prometheus.Counter
	participantJoinedCounter   prometheus.Counter
	activeRoomsGauge           prometheus.Gauge
	gameStartedCounter         prometheus.Counter
	phaseAdvancedCounter       *prometheus.CounterVec
	remoteAppliedCounter       *prometheus.CounterVec
	syncPublishedCounter       *prometheus.CounterVec
	contentStateDroppedCounter prometheus.Counter
	snapshotSavedCounter       prometheus.Counter
	snapshotFailedCounter      prometheus.Counter
}

func (m *metrics) RoomCreated() {
	m.roomCreatedCounter.Inc()
}

func (m *metrics) RoomDeleted() {
	m.roomDeletedCounter.Inc()
}

func (m *metrics) ParticipantJoined() {
	m.participantJoinedCounter.Inc()
}

func (m *metrics) SetActiveRooms(count int) {
	m.activeRoomsGauge.Set(float64(count))
}

func (m *metrics) GameStarted() {
	m.gameStartedCounter.Inc()
}

func (m *metrics) PhaseAdvanced(phase string) {
	m.phaseAdvancedCounter.WithLabelValues(phase).Inc()
}

func (m *metrics) RemoteApplied(event string) {
	m.remoteAppliedCounter.WithLabelValues(event).Inc()
}

func (m *metrics) SyncPublished(event string) {
	m.syncPublishedCounter.WithLabelValues(event).Inc()
}

func (m *metrics) ContentStateDropped() {
	m.contentStateDroppedCounter.Inc()
}

func (m *metrics) SnapshotSaved() {
	m.snapshotSavedCounter.Inc()
}

func (m *metrics) SnapshotFailed() {
	m.snapshotFailedCounter.Inc()
}

var Metrics = &metrics{
	roomCreatedCounter: promauto.NewCounter(prometheus.CounterOpts{
		Name: "rooms_created_total",
		Help: "Total number of rooms created locally",
	}),
	roomDeletedCounter: promauto.NewCounter(prometheus.CounterOpts{
		Name: "rooms_deleted_total",
		Help: "Total number of rooms deleted, including host departures",
	}),
	participantJoinedCounter: promauto.NewCounter(prometheus.CounterOpts{
		Name: "room_participants_joined_total",
		Help: "Total number of participants added to rooms",
	}),
	activeRoomsGauge: promauto.NewGauge(prometheus.GaugeOpts{
		Name: "rooms_active_count",
		Help: "Count of rooms currently held by the registry",
	}),
	gameStartedCounter: promauto.NewCounter(prometheus.CounterOpts{
		Name: "holdem_games_started_total",
		Help: "Total number of hold'em games started",
	}),
	phaseAdvancedCounter: promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "holdem_phase_advanced_total",
		Help: "Total number of phase transitions by target phase",
	}, []string{"phase"}),
	remoteAppliedCounter: promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "sync_remote_applied_total",
		Help: "Total number of inbound mutations applied from peers",
	}, []string{"event"}),
	syncPublishedCounter: promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "sync_published_total",
		Help: "Total number of mutations published to peers",
	}, []string{"event"}),
	contentStateDroppedCounter: promauto.NewCounter(prometheus.CounterOpts{
		Name: "sync_content_state_dropped_total",
		Help: "Content state updates dropped by the publish throttle",
	}),
	snapshotSavedCounter: promauto.NewCounter(prometheus.CounterOpts{
		Name: "room_snapshots_saved_total",
		Help: "Total number of room snapshots persisted",
	}),
	snapshotFailedCounter: promauto.NewCounter(prometheus.CounterOpts{
		Name: "room_snapshots_failed_total",
		Help: "Total number of room snapshot writes that failed",
	}),
}
