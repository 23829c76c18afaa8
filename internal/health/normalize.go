package health

import (
	"encoding/json"
	"strconv"
	"strings"

	"github.com/LynnGuo666/ai-switch-cli/internal/config"
)

// Explicit channel type labels used by the modern feed shape.
const (
	typeLabelClaude = "claude_code"
	typeLabelCodex  = "codex"
)

// kindKeywords is the fallback keyword set per kind, matched case-insensitively
// as substrings of the service/model name when no explicit type label exists.
var kindKeywords = map[config.Kind][]string{
	config.KindClaude: {"claude", "anthropic", "sonnet", "opus"},
	config.KindCodex:  {"codex", "openai", "gpt"},
}

// Normalize parses a monitoring document into a Snapshot for the given kind.
// Two document shapes are accepted, distinguished by structure rather than a
// version field: a "services" array (modern, with timelines and probing
// nodes) or a "services" object (legacy name -> status map). A malformed
// individual record is skipped; it never aborts the rest of the document.
func Normalize(raw []byte, kind config.Kind) Snapshot {
	snapshot := make(Snapshot)

	var doc map[string]json.RawMessage
	if err := json.Unmarshal(raw, &doc); err != nil {
		return snapshot
	}

	services, ok := doc["services"]
	if !ok {
		return snapshot
	}

	// Structural cue: array is the modern shape, object is the legacy shape.
	var records []json.RawMessage
	if err := json.Unmarshal(services, &records); err == nil {
		normalizeRecords(snapshot, records, kind)
		return snapshot
	}

	var legacy map[string]json.RawMessage
	if err := json.Unmarshal(services, &legacy); err == nil {
		normalizeLegacy(snapshot, legacy, kind)
	}
	return snapshot
}

// serviceRecord is a modern-shape service entry. Fields the feed omits stay
// at their zero values; nothing here is required.
type serviceRecord struct {
	Name      string          `json:"name"`
	Model     string          `json:"model"`
	Group     string          `json:"group"`
	Provider  string          `json:"provider"`
	Type      string          `json:"type"`
	Status    json.RawMessage `json:"status"`
	LatencyMs json.Number     `json:"latency_ms"`
	Uptime    json.Number     `json:"uptime"`
	LastCheck json.RawMessage `json:"last_check"`
	Timeline  []timelineBlock `json:"timeline"`
}

// timelineBlock is one discrete check block in a record's time series.
type timelineBlock struct {
	Status json.RawMessage `json:"status"`
	Nodes  []nodeBlock     `json:"nodes"`
}

type nodeBlock struct {
	NodeID   int           `json:"node_id"`
	NodeName string        `json:"node_name"`
	Services []sampleBlock `json:"services"`
}

type sampleBlock struct {
	Name       string          `json:"name"`
	Status     json.RawMessage `json:"status"`
	Results    []int           `json:"results"`
	Total      int             `json:"total"`
	Success    int             `json:"success"`
	LatencyAvg float64         `json:"latency_avg"`
}

// normalizeRecords handles the modern shape: an array of service records.
func normalizeRecords(snapshot Snapshot, records []json.RawMessage, kind config.Kind) {
	nodes := make(map[int]*Node)
	var nodeOrder []int

	for _, raw := range records {
		var rec serviceRecord
		if err := json.Unmarshal(raw, &rec); err != nil {
			continue
		}
		if !matchesKind(rec.Type, rec.Name+" "+rec.Model, kind) {
			continue
		}

		entry := Entry{
			Group:         groupLabel(rec.Group, rec.Provider),
			Name:          firstNonEmpty(rec.Model, rec.Name),
			Status:        decodeStatus(rec.Status),
			LastCheck:     decodeTimestamp(rec.LastCheck),
			LatencyMs:     rec.LatencyMs.String(),
			UptimePercent: rec.Uptime.String(),
		}

		for _, block := range rec.Timeline {
			entry.Timeline = append(entry.Timeline, blockStatus(block))
			mergeNodes(nodes, &nodeOrder, block.Nodes)
		}

		snapshot[entry.Group] = append(snapshot[entry.Group], entry)
	}

	if len(nodes) > 0 {
		agg := Entry{Group: NodeGroup, Name: "nodes"}
		for _, id := range nodeOrder {
			agg.Nodes = append(agg.Nodes, *nodes[id])
		}
		agg.Status = worstNodeStatus(agg.Nodes)
		snapshot[NodeGroup] = []Entry{agg}
	}
}

// legacyService is the legacy-shape record: an explicit status/lastCheck pair.
type legacyService struct {
	Name      string          `json:"name"`
	Model     string          `json:"model"`
	Group     string          `json:"group"`
	Status    json.RawMessage `json:"status"`
	LastCheck string          `json:"lastCheck"`
	LatencyMs json.Number     `json:"latencyMs"`
}

// normalizeLegacy handles the legacy shape: a map of named services.
func normalizeLegacy(snapshot Snapshot, services map[string]json.RawMessage, kind config.Kind) {
	for key, raw := range services {
		var svc legacyService
		if err := json.Unmarshal(raw, &svc); err != nil {
			continue
		}
		name := firstNonEmpty(svc.Model, svc.Name, key)
		if !matchesKind("", name, kind) {
			continue
		}
		snapshot[groupLabel(svc.Group, "")] = append(snapshot[groupLabel(svc.Group, "")], Entry{
			Group:     groupLabel(svc.Group, ""),
			Name:      name,
			Status:    decodeStatus(svc.Status),
			LastCheck: svc.LastCheck,
			LatencyMs: svc.LatencyMs.String(),
		})
	}
}

// matchesKind tests whether a channel belongs to the kind: explicit type
// label equality first, then best-effort keyword matching on the name.
func matchesKind(typeLabel, name string, kind config.Kind) bool {
	if typeLabel != "" {
		switch kind {
		case config.KindClaude:
			return typeLabel == typeLabelClaude
		case config.KindCodex:
			return typeLabel == typeLabelCodex
		}
	}
	lower := strings.ToLower(name)
	for _, kw := range kindKeywords[kind] {
		if strings.Contains(lower, kw) {
			return true
		}
	}
	return false
}

// mergeNodes folds a block's node samples into the accumulated node map.
// Later blocks are more recent and overwrite earlier samples per service.
func mergeNodes(nodes map[int]*Node, order *[]int, blocks []nodeBlock) {
	for _, nb := range blocks {
		node, ok := nodes[nb.NodeID]
		if !ok {
			node = &Node{ID: nb.NodeID, Name: nb.NodeName}
			nodes[nb.NodeID] = node
			*order = append(*order, nb.NodeID)
		}
		if node.Name == "" {
			node.Name = nb.NodeName
		}
		for _, sb := range nb.Services {
			sample := ServiceSample{
				Name:          sb.Name,
				Status:        decodeStatus(sb.Status),
				Availability:  availability(sb.Success, sb.Total),
				LatencyAvgMs:  sb.LatencyAvg,
				RecentResults: capResults(sb.Results),
			}
			replaced := false
			for i := range node.Services {
				if node.Services[i].Name == sample.Name {
					node.Services[i] = sample
					replaced = true
					break
				}
			}
			if !replaced {
				node.Services = append(node.Services, sample)
			}
		}
	}
}

// availability computes success/total, 0 when total is 0.
func availability(success, total int) float64 {
	if total <= 0 {
		return 0
	}
	return float64(success) / float64(total)
}

// capResults keeps the trailing RecentResultsCap results (most-recent-last).
func capResults(results []int) []int {
	if len(results) <= RecentResultsCap {
		return results
	}
	return results[len(results)-RecentResultsCap:]
}

// blockStatus derives a block's status: its own status field when present,
// otherwise the worst of its node samples.
func blockStatus(block timelineBlock) StatusCode {
	if len(block.Status) > 0 && string(block.Status) != "null" {
		return decodeStatus(block.Status)
	}
	worst := StatusUnknown
	for _, nb := range block.Nodes {
		for _, sb := range nb.Services {
			if st := decodeStatus(sb.Status); st < worst {
				worst = st
			}
		}
	}
	return worst
}

func worstNodeStatus(nodes []Node) StatusCode {
	worst := StatusUnknown
	for _, n := range nodes {
		for _, s := range n.Services {
			if s.Status < worst {
				worst = s.Status
			}
		}
	}
	return worst
}

// decodeStatus accepts a numeric or textual status value.
func decodeStatus(raw json.RawMessage) StatusCode {
	if len(raw) == 0 {
		return StatusUnknown
	}
	var code int
	if err := json.Unmarshal(raw, &code); err == nil {
		return StatusFromCode(code)
	}
	var label string
	if err := json.Unmarshal(raw, &label); err == nil {
		return ParseStatus(strings.ToLower(label))
	}
	return StatusUnknown
}

// decodeTimestamp accepts a millisecond epoch integer or an ISO-8601 string
// and returns the raw value as a string; interpretation happens at display
// time.
func decodeTimestamp(raw json.RawMessage) string {
	if len(raw) == 0 {
		return ""
	}
	var ms int64
	if err := json.Unmarshal(raw, &ms); err == nil {
		return strconv.FormatInt(ms, 10)
	}
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return s
	}
	return ""
}

// groupLabel resolves the provider group label, falling back to "unknown".
func groupLabel(group, provider string) string {
	if group != "" {
		return group
	}
	if provider != "" {
		return provider
	}
	return "unknown"
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
