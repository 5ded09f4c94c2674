// Package agents loads the roster of known consuming agents from a YAML
// file. The roster supplies display names for reports and manifest exports
// only; tracker correctness never depends on it, and unknown agent ids are
// still tracked as opaque identifiers.
package agents

import (
	"fmt"
	"io/fs"
	"os"
	"sort"

	"gopkg.in/yaml.v3"

	"github.com/kberg/koireg/internal/log"
)

// Agent describes one known consumer.
type Agent struct {
	ID          string `yaml:"id"`
	Name        string `yaml:"name"`
	Description string `yaml:"description"`
}

// rosterFile is the YAML document shape.
type rosterFile struct {
	Agents []Agent `yaml:"agents"`
}

// Roster is the closed set of known agent identifiers.
type Roster struct {
	byID map[string]Agent
}

// Empty returns a roster with no known agents.
func Empty() *Roster {
	return &Roster{byID: map[string]Agent{}}
}

// Load reads the roster from a YAML file. A missing file yields an empty
// roster: display names then fall back to raw agent ids.
func Load(path string) (*Roster, error) {
	data, err := os.ReadFile(path) //nolint:gosec // G304: path comes from config
	if os.IsNotExist(err) {
		log.Debug(log.CatAgents, "no roster file, display names fall back to ids", "path", path)
		return &Roster{byID: map[string]Agent{}}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("reading agent roster: %w", err)
	}
	return parse(data)
}

// LoadFS reads the roster from an fs.FS, for embedded and test fixtures.
func LoadFS(fsys fs.FS, name string) (*Roster, error) {
	data, err := fs.ReadFile(fsys, name)
	if err != nil {
		return nil, fmt.Errorf("reading agent roster: %w", err)
	}
	return parse(data)
}

func parse(data []byte) (*Roster, error) {
	var doc rosterFile
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("parsing agent roster: %w", err)
	}

	byID := make(map[string]Agent, len(doc.Agents))
	for _, agent := range doc.Agents {
		if agent.ID == "" {
			return nil, fmt.Errorf("agent roster entry %q has no id", agent.Name)
		}
		if _, dup := byID[agent.ID]; dup {
			return nil, fmt.Errorf("duplicate agent id %q in roster", agent.ID)
		}
		byID[agent.ID] = agent
	}
	return &Roster{byID: byID}, nil
}

// Has reports whether the id names a known agent.
func (r *Roster) Has(id string) bool {
	_, ok := r.byID[id]
	return ok
}

// DisplayName returns the human-readable name for an agent id, or the id
// itself when the agent is not in the roster.
func (r *Roster) DisplayName(id string) string {
	if agent, ok := r.byID[id]; ok && agent.Name != "" {
		return agent.Name
	}
	return id
}

// IDs returns all roster agent ids, sorted.
func (r *Roster) IDs() []string {
	ids := make([]string, 0, len(r.byID))
	for id := range r.byID {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// Get returns the agent for id.
func (r *Roster) Get(id string) (Agent, bool) {
	agent, ok := r.byID[id]
	return agent, ok
}

// Len returns the roster size.
func (r *Roster) Len() int {
	return len(r.byID)
}
