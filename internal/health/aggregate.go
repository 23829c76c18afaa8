package health

import (
	"fmt"
	"sort"
	"strconv"
	"time"
)

// Node availability tiers. A node's mean availability across its sampled
// services places it into healthy, degraded, or unhealthy.
const (
	NodeHealthyFloor  = 0.95
	NodeDegradedFloor = 0.80
)

// NodeTier is the display classification of one probing node.
type NodeTier int

const (
	NodeUnhealthy NodeTier = iota
	NodeDegraded
	NodeHealthy
)

func (t NodeTier) String() string {
	switch t {
	case NodeHealthy:
		return "healthy"
	case NodeDegraded:
		return "degraded"
	default:
		return "unhealthy"
	}
}

// Worst returns the most severe status among the entries. Statuses are
// ordered most-severe-first, so the worst is the minimum.
func Worst(entries []Entry) StatusCode {
	worst := StatusUnknown
	for _, e := range entries {
		if e.Status < worst {
			worst = e.Status
		}
	}
	return worst
}

// GroupStatus aggregates one group pessimistically: the group is only as
// healthy as its sickest entry. An empty group reads as no-data.
func GroupStatus(entries []Entry) StatusCode {
	if len(entries) == 0 {
		return StatusNoData
	}
	return Worst(entries)
}

// Groups returns the provider group names of the snapshot in sorted order,
// excluding the node pseudo-group.
func (s Snapshot) Groups() []string {
	names := make([]string, 0, len(s))
	for name := range s {
		if name == NodeGroup {
			continue
		}
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// NodeAvailability is the unweighted mean availability across a node's
// sampled services, in [0,1]. A node with no samples reads as 0.
func NodeAvailability(n Node) float64 {
	if len(n.Services) == 0 {
		return 0
	}
	var sum float64
	for _, s := range n.Services {
		sum += s.Availability
	}
	return sum / float64(len(n.Services))
}

// TierFor classifies a node by its mean availability.
func TierFor(n Node) NodeTier {
	avail := NodeAvailability(n)
	switch {
	case avail >= NodeHealthyFloor:
		return NodeHealthy
	case avail >= NodeDegradedFloor:
		return NodeDegraded
	default:
		return NodeUnhealthy
	}
}

// TimeAgo renders a raw check timestamp as a relative age. Millisecond epoch
// integers are interpreted as local wall-clock instants; anything else passes
// through unchanged.
func TimeAgo(raw string, now time.Time) string {
	if raw == "" {
		return ""
	}
	ms, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return raw
	}
	then := time.UnixMilli(ms)
	d := now.Sub(then)
	switch {
	case d < 0:
		return "just now"
	case d < time.Minute:
		return fmt.Sprintf("%ds ago", int(d.Seconds()))
	case d < time.Hour:
		return fmt.Sprintf("%dm ago", int(d.Minutes()))
	case d < 24*time.Hour:
		return fmt.Sprintf("%dh ago", int(d.Hours()))
	default:
		return fmt.Sprintf("%dd ago", int(d.Hours()/24))
	}
}

// DetailLines renders one entry as console detail rows: status, latency,
// uptime, and check age when each is present.
func DetailLines(e Entry, now time.Time) []string {
	lines := []string{
		fmt.Sprintf("%s %s  %s", e.Status.Icon(), e.Name, e.Status),
	}
	if e.LatencyMs != "" {
		lines = append(lines, fmt.Sprintf("  latency: %sms", e.LatencyMs))
	}
	if e.UptimePercent != "" {
		lines = append(lines, fmt.Sprintf("  uptime: %s%%", e.UptimePercent))
	}
	if age := TimeAgo(e.LastCheck, now); age != "" {
		lines = append(lines, "  checked: "+age)
	}
	return lines
}
