// Package health fetches third-party monitoring data and normalizes it into a
// per-group, per-node, per-service status model consumed by the console.
package health

// StatusCode is the canonical status of a service or check result.
// Values are declared in severity order, most severe first, so worst-case
// aggregation is a min over the enum.
type StatusCode int

const (
	StatusError StatusCode = iota
	StatusTimeout
	StatusSlow
	StatusOK
	StatusUnknown
	// StatusNoData is display-only: a group with zero entries aggregates to
	// it. It never appears on individual entries.
	StatusNoData
)

// String returns the canonical lowercase name of the status.
func (s StatusCode) String() string {
	switch s {
	case StatusError:
		return "error"
	case StatusTimeout:
		return "timeout"
	case StatusSlow:
		return "slow"
	case StatusOK:
		return "ok"
	case StatusNoData:
		return "no data"
	default:
		return "unknown"
	}
}

// Icon returns the single-glyph indicator for the status.
func (s StatusCode) Icon() string {
	switch s {
	case StatusOK:
		return "◉"
	case StatusSlow:
		return "◔"
	case StatusError:
		return "✖"
	case StatusTimeout:
		return "◐"
	case StatusNoData:
		return "·"
	default:
		return "◌"
	}
}

// ParseStatus maps a textual status label to a StatusCode.
// Unrecognized labels map to StatusUnknown, never an error.
func ParseStatus(label string) StatusCode {
	switch label {
	case "ok", "operational", "up":
		return StatusOK
	case "slow", "degraded":
		return StatusSlow
	case "error", "failed", "down":
		return StatusError
	case "timeout":
		return StatusTimeout
	default:
		return StatusUnknown
	}
}

// StatusFromCode maps the feed's numeric status codes to a StatusCode:
// 1 is ok, 2 is slow, 3 is error, anything else is unknown.
func StatusFromCode(code int) StatusCode {
	switch code {
	case 1:
		return StatusOK
	case 2:
		return StatusSlow
	case 3:
		return StatusError
	default:
		return StatusUnknown
	}
}

// RecentResultsCap bounds the trailing per-service result ring.
const RecentResultsCap = 50

// ServiceSample is one probed service's recent state on a single node.
type ServiceSample struct {
	Name         string
	Status       StatusCode
	Availability float64 // success/total over the counter window, in [0,1]
	LatencyAvgMs float64
	// RecentResults is the trailing list of raw check results
	// (most-recent-last), capped at RecentResultsCap.
	RecentResults []int
}

// Node is one probing node and the services it has sampled.
type Node struct {
	ID       int
	Name     string
	Services []ServiceSample
}

// Entry is the normalized status of one provider/model within a group.
type Entry struct {
	Group         string
	Name          string // provider or model name
	Status        StatusCode
	LastCheck     string // raw timestamp: ms epoch or ISO-8601
	LatencyMs     string
	UptimePercent string
	Timeline      []StatusCode
	Nodes         []Node
}

// NodeGroup is the reserved pseudo-group holding the node-aggregated view.
const NodeGroup = "__nodes__"

// Snapshot is an immutable, fully-formed health result keyed by group.
// A snapshot is either empty (never fetched or fetch failed) or fully
// replaces the previous one; partial merges are never published.
type Snapshot map[string][]Entry

// GroupCount returns the number of provider groups, excluding the node
// pseudo-group.
func (s Snapshot) GroupCount() int {
	n := len(s)
	if _, ok := s[NodeGroup]; ok {
		n--
	}
	return n
}

// Empty reports whether the snapshot carries no data at all.
func (s Snapshot) Empty() bool {
	return len(s) == 0
}
