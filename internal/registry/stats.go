package registry

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/kberg/koireg/internal/domain/catalog"
	"github.com/kberg/koireg/internal/log"
)

// Anomaly filter thresholds. Corrupted or test-artifact rows occasionally
// surface agent ids that are really content-hash fragments with nonsense
// counts; such entries are dropped from reports rather than rendered.
const (
	// ImplausiblePendingCount is the pending count above which an otherwise
	// idle agent entry is treated as corrupt.
	ImplausiblePendingCount = 100_000

	// malformedAgentIDMaxLen bounds the "short dash-delimited token" shape
	// check. Real agent ids are either longer or contain non-hex characters.
	malformedAgentIDMaxLen = 12
)

// ContentStats summarizes the content catalog.
type ContentStats struct {
	Total int `json:"total"`

	// Processed counts processing records across all agents. It is not
	// deduplicated by content: one item processed by five agents contributes
	// five here, measuring total processing operations rather than coverage.
	Processed int `json:"processed"`

	// Pending is the number of distinct items with no processing record yet.
	Pending int `json:"pending"`

	// Failed is always zero: failed processing attempts are not persisted,
	// only logged. The field is kept so downstream consumers see the shape
	// they expect.
	Failed int `json:"failed"`
}

// AgentStats summarizes one agent's processing activity.
type AgentStats struct {
	Processed int    `json:"processed"`
	Pending   int    `json:"pending"`
	Status    string `json:"status"`
}

// SourceStats summarizes registered sources.
type SourceStats struct {
	ByType map[string]int `json:"by_type"`
}

// Statistics is the full rollup over the catalog.
type Statistics struct {
	Content ContentStats          `json:"content"`
	Agents  map[string]AgentStats `json:"agents"`
	Sources SourceStats           `json:"sources"`
}

// IsAnomalousAgentEntry reports whether a per-agent rollup entry should be
// dropped from statistics. An entry is anomalous when its identifier is a
// short dash-delimited hex token (the shape of a mangled content hash, not an
// agent id) and its counts are implausible: pending above
// ImplausiblePendingCount with nothing processed.
func IsAnomalousAgentEntry(agentID string, processed, pending int) bool {
	if !looksLikeMangledHash(agentID) {
		return false
	}
	return processed == 0 && pending > ImplausiblePendingCount
}

func looksLikeMangledHash(id string) bool {
	if len(id) == 0 || len(id) > malformedAgentIDMaxLen {
		return false
	}
	if !strings.Contains(id, "-") {
		return false
	}
	for _, token := range strings.Split(id, "-") {
		if token == "" || !isHex(token) {
			return false
		}
	}
	return true
}

func isHex(s string) bool {
	for _, c := range s {
		switch {
		case c >= '0' && c <= '9':
		case c >= 'a' && c <= 'f':
		default:
			return false
		}
	}
	return true
}

// ComputeStatistics derives the rollup from the store. Agents come from two
// places: every agent with at least one processing record, plus every roster
// agent even when idle, so dashboards show known agents at zero rather than
// omitting them.
func (r *Registry) ComputeStatistics(ctx context.Context) (*Statistics, error) {
	ctx, span := r.tracer.Start(ctx, "registry.ComputeStatistics")
	defer span.End()

	stats := &Statistics{
		Agents:  map[string]AgentStats{},
		Sources: SourceStats{ByType: map[string]int{}},
	}

	err := r.store.WithTx(ctx, func(tx catalog.Store) error {
		total, err := tx.Content().Count(ctx)
		if err != nil {
			return err
		}
		operations, err := tx.Processing().Count(ctx)
		if err != nil {
			return err
		}
		covered, err := tx.Processing().CountDistinctContent(ctx)
		if err != nil {
			return err
		}
		stats.Content = ContentStats{
			Total:     total,
			Processed: operations,
			Pending:   total - covered,
		}

		byAgent, err := tx.Processing().CountByAgent(ctx)
		if err != nil {
			return err
		}
		for _, id := range r.roster.IDs() {
			if _, seen := byAgent[id]; !seen {
				byAgent[id] = 0
			}
		}
		for id, processed := range byAgent {
			pending := total - processed
			if IsAnomalousAgentEntry(id, processed, pending) {
				log.Warn(log.CatStats, "dropping anomalous agent entry", "agent", id, "pending", pending)
				continue
			}
			status := "idle"
			if processed > 0 {
				status = "active"
			}
			stats.Agents[id] = AgentStats{Processed: processed, Pending: pending, Status: status}
		}

		byType, err := tx.Sources().CountByType(ctx)
		if err != nil {
			return err
		}
		for sourceType, count := range byType {
			stats.Sources.ByType[sourceType.String()] = count
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("computing statistics: %w", err)
	}
	return stats, nil
}

// GenerateReport renders the statistics as text with a stable field order.
func (r *Registry) GenerateReport(ctx context.Context) (string, error) {
	stats, err := r.ComputeStatistics(ctx)
	if err != nil {
		return "", err
	}

	var b strings.Builder
	b.WriteString("Content\n")
	fmt.Fprintf(&b, "  total:     %d\n", stats.Content.Total)
	fmt.Fprintf(&b, "  processed: %d\n", stats.Content.Processed)
	fmt.Fprintf(&b, "  pending:   %d\n", stats.Content.Pending)
	fmt.Fprintf(&b, "  failed:    %d\n", stats.Content.Failed)

	b.WriteString("Agents\n")
	agentIDs := make([]string, 0, len(stats.Agents))
	for id := range stats.Agents {
		agentIDs = append(agentIDs, id)
	}
	sort.Strings(agentIDs)
	for _, id := range agentIDs {
		agent := stats.Agents[id]
		fmt.Fprintf(&b, "  %s (%s): processed=%d pending=%d status=%s\n",
			r.roster.DisplayName(id), id, agent.Processed, agent.Pending, agent.Status)
	}

	b.WriteString("Sources\n")
	types := make([]string, 0, len(stats.Sources.ByType))
	for sourceType := range stats.Sources.ByType {
		types = append(types, sourceType)
	}
	sort.Strings(types)
	for _, sourceType := range types {
		fmt.Fprintf(&b, "  %s: %d\n", sourceType, stats.Sources.ByType[sourceType])
	}
	return b.String(), nil
}
