package gateway

import "github.com/smallbiznis/brewlink/internal/telemetry"

const snapshotRecent = 3

// Snapshot is a point-in-time view used by the debug endpoint.
type Snapshot struct {
	State        string               `json:"state"`
	Latest       *telemetry.Envelope  `json:"latest"`
	HistoryCount int                  `json:"history_count"`
	Recent       []telemetry.Envelope `json:"recent"`
}

func (g *Gateway) Snapshot() Snapshot {
	snap := Snapshot{
		State:        g.State().String(),
		HistoryCount: g.cache.Len(),
		Recent:       g.cache.History(snapshotRecent),
	}
	if latest, ok := g.cache.Latest(); ok {
		snap.Latest = &latest
	}
	return snap
}
