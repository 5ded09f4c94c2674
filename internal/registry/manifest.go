package registry

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/kberg/koireg/internal/agents"
	"github.com/kberg/koireg/internal/domain/catalog"
	"github.com/kberg/koireg/internal/log"
)

// JSON-LD vocabulary prefixes used by exported manifests.
var manifestContext = map[string]string{
	"koi":  "https://koi.network/vocab#",
	"prov": "http://www.w3.org/ns/prov#",
}

// Manifest is the linked-data rendering of the catalog: one @graph holding
// Source, ContentItem, and Agent nodes.
type Manifest struct {
	Context map[string]string `json:"@context"`
	Graph   []any             `json:"@graph"`
}

// SourceNode is a registered origin in the graph. hasPart lists the RIDs of
// every content item tracked against it.
type SourceNode struct {
	ID          string   `json:"@id"`
	Type        string   `json:"@type"`
	SourceType  string   `json:"koi:sourceType"`
	Name        string   `json:"koi:name"`
	Description string   `json:"koi:description,omitempty"`
	URL         string   `json:"koi:url,omitempty"`
	HasPart     []string `json:"koi:hasPart"`
}

// ProcessingEdge is one wasProcessedBy edge from a content item to an agent,
// carrying the completion evidence as edge attributes.
type ProcessingEdge struct {
	Agent         string `json:"@id"`
	FragmentCount int    `json:"koi:fragmentCount"`
	ProcessedAt   string `json:"prov:atTime"`
}

// ContentNode is one tracked item in the graph.
type ContentNode struct {
	ID             string           `json:"@id"`
	Type           string           `json:"@type"`
	Title          string           `json:"koi:title,omitempty"`
	URL            string           `json:"koi:url,omitempty"`
	Fingerprint    string           `json:"koi:contentHash"`
	OriginalID     string           `json:"koi:originalId"`
	Tier           string           `json:"koi:tier"`
	Truncated      bool             `json:"koi:truncated,omitempty"`
	GeneratedAt    string           `json:"prov:generatedAtTime"`
	PartOf         string           `json:"koi:isPartOf"`
	WasProcessedBy []ProcessingEdge `json:"prov:wasProcessedBy,omitempty"`
}

// AgentNode is one consuming agent in the graph. Agents appear only when they
// have processed something or are named in the roster.
type AgentNode struct {
	ID      string `json:"@id"`
	Type    string `json:"@type"`
	AgentID string `json:"koi:agentId"`
	Name    string `json:"koi:name,omitempty"`
}

// ProjectionRecord is the flattened per-RID lookup view, denormalized so
// consumers resolve a RID without walking the graph.
type ProjectionRecord struct {
	Kind        string   `json:"kind"`
	SourceType  string   `json:"source_type,omitempty"`
	Name        string   `json:"name,omitempty"`
	Title       string   `json:"title,omitempty"`
	URL         string   `json:"url,omitempty"`
	OriginalID  string   `json:"original_id,omitempty"`
	Fingerprint string   `json:"fingerprint,omitempty"`
	SourceRID   string   `json:"source_rid,omitempty"`
	ProcessedBy []string `json:"processed_by,omitempty"`
	CreatedAt   string   `json:"created_at,omitempty"`
}

// snapshot is one consistent read of the whole catalog. Both export artifacts
// derive from the same snapshot, so neither can reference a node the other
// lacks.
type snapshot struct {
	sources []*catalog.Source
	content []*catalog.ContentItem
	records []*catalog.ProcessingRecord
}

func (r *Registry) snapshot(ctx context.Context) (*snapshot, error) {
	snap := &snapshot{}
	err := r.store.WithTx(ctx, func(tx catalog.Store) error {
		var err error
		if snap.sources, err = tx.Sources().List(ctx); err != nil {
			return err
		}
		if snap.content, err = tx.Content().List(ctx); err != nil {
			return err
		}
		snap.records, err = tx.Processing().List(ctx)
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("reading catalog snapshot: %w", err)
	}
	return snap, nil
}

// agentIDs returns every agent id in the snapshot plus the roster, sorted.
func (s *snapshot) agentIDs(roster *agents.Roster) []string {
	seen := map[string]bool{}
	for _, record := range s.records {
		seen[record.AgentID()] = true
	}
	for _, id := range roster.IDs() {
		seen[id] = true
	}
	ids := make([]string, 0, len(seen))
	for id := range seen {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// BuildGraph renders the catalog as a JSON-LD manifest from one consistent
// snapshot.
func (r *Registry) BuildGraph(ctx context.Context) (*Manifest, error) {
	snap, err := r.snapshot(ctx)
	if err != nil {
		return nil, err
	}
	return r.buildGraphFrom(snap), nil
}

func (r *Registry) buildGraphFrom(snap *snapshot) *Manifest {
	partsBySource := map[catalog.RID][]string{}
	for _, item := range snap.content {
		partsBySource[item.SourceRID()] = append(partsBySource[item.SourceRID()], item.RID().String())
	}
	edgesByContent := map[catalog.RID][]ProcessingEdge{}
	for _, record := range snap.records {
		agentRID, err := catalog.AgentRID(record.AgentID())
		if err != nil {
			continue
		}
		edgesByContent[record.ContentRID()] = append(edgesByContent[record.ContentRID()], ProcessingEdge{
			Agent:         agentRID.String(),
			FragmentCount: record.FragmentCount(),
			ProcessedAt:   record.ProcessedAt().UTC().Format(time.RFC3339),
		})
	}

	manifest := &Manifest{Context: manifestContext}
	for _, source := range snap.sources {
		parts := partsBySource[source.RID()]
		if parts == nil {
			parts = []string{}
		}
		sort.Strings(parts)
		manifest.Graph = append(manifest.Graph, SourceNode{
			ID:          source.RID().String(),
			Type:        "koi:Source",
			SourceType:  source.Type().String(),
			Name:        source.Name(),
			Description: source.Description(),
			URL:         source.URL(),
			HasPart:     parts,
		})
	}
	for _, item := range snap.content {
		node := ContentNode{
			ID:             item.RID().String(),
			Type:           "koi:ContentItem",
			Title:          item.Title(),
			URL:            item.URL(),
			Fingerprint:    item.Fingerprint(),
			OriginalID:     item.OriginalID(),
			Truncated:      item.Truncated(),
			GeneratedAt:    item.CreatedAt().UTC().Format(time.RFC3339),
			PartOf:         item.SourceRID().String(),
			WasProcessedBy: edgesByContent[item.RID()],
		}
		if parts, err := catalog.ParseContentRID(item.RID()); err == nil {
			node.Tier = string(parts.Tier)
		}
		manifest.Graph = append(manifest.Graph, node)
	}
	for _, agentID := range snap.agentIDs(r.roster) {
		agentRID, err := catalog.AgentRID(agentID)
		if err != nil {
			continue
		}
		manifest.Graph = append(manifest.Graph, AgentNode{
			ID:      agentRID.String(),
			Type:    "prov:Agent",
			AgentID: agentID,
			Name:    r.roster.DisplayName(agentID),
		})
	}
	return manifest
}

// BuildQueryProjection renders the flattened RID lookup table from one
// consistent snapshot. Every RID here is also a node in a graph built from
// the same snapshot, and vice versa.
func (r *Registry) BuildQueryProjection(ctx context.Context) (map[string]ProjectionRecord, error) {
	snap, err := r.snapshot(ctx)
	if err != nil {
		return nil, err
	}
	return r.buildProjectionFrom(snap), nil
}

func (r *Registry) buildProjectionFrom(snap *snapshot) map[string]ProjectionRecord {
	agentsByContent := map[catalog.RID][]string{}
	for _, record := range snap.records {
		agentsByContent[record.ContentRID()] = append(agentsByContent[record.ContentRID()], record.AgentID())
	}
	for _, ids := range agentsByContent {
		sort.Strings(ids)
	}

	projection := make(map[string]ProjectionRecord, len(snap.sources)+len(snap.content))
	for _, source := range snap.sources {
		projection[source.RID().String()] = ProjectionRecord{
			Kind:       "source",
			SourceType: source.Type().String(),
			Name:       source.Name(),
			URL:        source.URL(),
			CreatedAt:  source.CreatedAt().UTC().Format(time.RFC3339),
		}
	}
	for _, item := range snap.content {
		projection[item.RID().String()] = ProjectionRecord{
			Kind:        "content",
			Title:       item.Title(),
			URL:         item.URL(),
			OriginalID:  item.OriginalID(),
			Fingerprint: item.Fingerprint(),
			SourceRID:   item.SourceRID().String(),
			ProcessedBy: agentsByContent[item.RID()],
			CreatedAt:   item.CreatedAt().UTC().Format(time.RFC3339),
		}
	}
	for _, agentID := range snap.agentIDs(r.roster) {
		agentRID, err := catalog.AgentRID(agentID)
		if err != nil {
			continue
		}
		projection[agentRID.String()] = ProjectionRecord{
			Kind: "agent",
			Name: r.roster.DisplayName(agentID),
		}
	}
	return projection
}

// ExportToPath writes the JSON-LD manifest to path.
func (r *Registry) ExportToPath(ctx context.Context, path string) error {
	ctx, span := r.tracer.Start(ctx, "registry.ExportToPath",
		trace.WithAttributes(attribute.String("export.path", path)))
	defer span.End()

	manifest, err := r.BuildGraph(ctx)
	if err != nil {
		return &catalog.ExportError{Path: path, Err: err}
	}
	if err := writeJSONFile(path, manifest); err != nil {
		return err
	}
	log.Info(log.CatExport, "manifest exported", "path", path, "nodes", len(manifest.Graph))
	return nil
}

// ExportQueryProjectionToPath writes the flattened RID lookup table to path.
func (r *Registry) ExportQueryProjectionToPath(ctx context.Context, path string) error {
	ctx, span := r.tracer.Start(ctx, "registry.ExportQueryProjectionToPath",
		trace.WithAttributes(attribute.String("export.path", path)))
	defer span.End()

	projection, err := r.BuildQueryProjection(ctx)
	if err != nil {
		return &catalog.ExportError{Path: path, Err: err}
	}
	if err := writeJSONFile(path, projection); err != nil {
		return err
	}
	log.Info(log.CatExport, "projection exported", "path", path, "records", len(projection))
	return nil
}

// ExportAll writes both artifacts from a single snapshot, so the manifest and
// projection on disk always describe the same catalog state.
func (r *Registry) ExportAll(ctx context.Context, manifestPath, projectionPath string) error {
	ctx, span := r.tracer.Start(ctx, "registry.ExportAll")
	defer span.End()

	snap, err := r.snapshot(ctx)
	if err != nil {
		return &catalog.ExportError{Path: manifestPath, Err: err}
	}
	if err := writeJSONFile(manifestPath, r.buildGraphFrom(snap)); err != nil {
		return err
	}
	if err := writeJSONFile(projectionPath, r.buildProjectionFrom(snap)); err != nil {
		return err
	}
	log.Info(log.CatExport, "catalog exported", "manifest", manifestPath, "projection", projectionPath)
	return nil
}

// writeJSONFile writes v as indented JSON via a temp file and rename, so a
// half-written export never replaces a good one.
func writeJSONFile(path string, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return &catalog.ExportError{Path: path, Err: err}
	}
	data = append(data, '\n')

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0700); err != nil {
		return &catalog.ExportError{Path: path, Err: err}
	}
	tmp, err := os.CreateTemp(dir, filepath.Base(path)+".tmp-*")
	if err != nil {
		return &catalog.ExportError{Path: path, Err: err}
	}
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return &catalog.ExportError{Path: path, Err: err}
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return &catalog.ExportError{Path: path, Err: err}
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		os.Remove(tmp.Name())
		return &catalog.ExportError{Path: path, Err: err}
	}
	return nil
}
