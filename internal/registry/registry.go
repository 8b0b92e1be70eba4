// Package registry holds the letter-template registry loaded from a JSON
// configuration file. Readers get immutable, priority-sorted snapshots;
// mutations rebuild and atomically republish the whole snapshot.
package registry

import (
	"encoding/json"
	"fmt"
	"os"
	"sort"
	"sync"
	"sync/atomic"

	"github.com/pmartynov/otvet/internal/apperr"
)

// Template is one pattern-keyed rule mapping a recognized query intent to a
// pre-authored letter and an operational action.
type Template struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description"`
	// Patterns must ALL be present in the normalized query for a main match.
	Patterns []string `json:"patterns"`
	// AlternativePatterns is an OR of AND-groups: the template also matches
	// when every member of any single group is present.
	AlternativePatterns [][]string `json:"alternative_patterns,omitempty"`
	Action              string     `json:"action"`
	LetterFile          string     `json:"letter_file"`
	Priority            int        `json:"priority"`
	Comment             string     `json:"comment,omitempty"`
}

// ActionDefinition describes the operational instruction attached to a
// matched template.
type ActionDefinition struct {
	DisplayName string `json:"display_name"`
	NotifyCSA   bool   `json:"notify_csa"`
}

// Settings carries the auxiliary values from the configuration file.
// SearchMode and MinMatchThreshold are parsed and retained for forward
// compatibility; the matcher does not enforce them.
type Settings struct {
	LettersFolder     string  `json:"letters_folder"`
	SearchMode        string  `json:"search_mode"`
	MinMatchThreshold float64 `json:"min_match_threshold"`
}

// Snapshot is an immutable view of the registry. Templates are sorted by
// priority, descending; equal priorities keep their file order.
type Snapshot struct {
	Templates []Template
	Actions   map[string]ActionDefinition
	Settings  Settings
}

// ActionFor returns the definition for key. An unknown key yields an empty
// display name with NotifyCSA defaulting to true.
func (s *Snapshot) ActionFor(key string) ActionDefinition {
	if def, ok := s.Actions[key]; ok {
		return def
	}
	return ActionDefinition{NotifyCSA: true}
}

// TemplateByID returns the template with the given id, or nil.
func (s *Snapshot) TemplateByID(id string) *Template {
	for i := range s.Templates {
		if s.Templates[i].ID == id {
			return &s.Templates[i]
		}
	}
	return nil
}

// configFile mirrors the on-disk JSON document.
type configFile struct {
	Templates []Template                  `json:"templates"`
	Actions   map[string]ActionDefinition `json:"actions"`
	Config    Settings                    `json:"config"`
}

// Registry owns the current snapshot. Reads are lock-free; Add and Reload
// serialize through mu and publish a fully rebuilt snapshot.
type Registry struct {
	path string

	mu   sync.Mutex
	snap atomic.Pointer[Snapshot]
}

// Load reads, parses, and sorts the template configuration at path.
// A missing or malformed file is an error; the service must not start
// without a valid registry.
func Load(path string) (*Registry, error) {
	r := &Registry{path: path}
	snap, err := readConfig(path)
	if err != nil {
		return nil, err
	}
	r.snap.Store(snap)
	return r, nil
}

// Snapshot returns the current immutable snapshot.
func (r *Registry) Snapshot() *Snapshot {
	return r.snap.Load()
}

// Path returns the configuration file path backing this registry.
func (r *Registry) Path() string {
	return r.path
}

// Get returns the template with the given id, wrapping apperr.ErrNotFound
// when no such template is registered.
func (r *Registry) Get(id string) (*Template, error) {
	if t := r.Snapshot().TemplateByID(id); t != nil {
		return t, nil
	}
	return nil, fmt.Errorf("registry: template %q: %w", id, apperr.ErrNotFound)
}

// Reload re-reads the configuration file and republishes the snapshot.
// On error the previous snapshot stays in place.
func (r *Registry) Reload() error {
	r.mu.Lock()
	defer r.mu.Unlock()

	snap, err := readConfig(r.path)
	if err != nil {
		return err
	}
	r.snap.Store(snap)
	return nil
}

// Add inserts a new template, re-sorts, persists the configuration file,
// and publishes the new snapshot. The id must be unused.
func (r *Registry) Add(t Template) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	cur := r.snap.Load()
	for _, existing := range cur.Templates {
		if existing.ID == t.ID {
			return fmt.Errorf("registry: add %q: %w", t.ID, apperr.ErrTemplateExists)
		}
	}

	next := &Snapshot{
		Templates: append(append([]Template(nil), cur.Templates...), t),
		Actions:   cur.Actions,
		Settings:  cur.Settings,
	}
	sortTemplates(next.Templates)

	if err := writeConfig(r.path, next); err != nil {
		return err
	}
	r.snap.Store(next)
	return nil
}

func readConfig(path string) (*Snapshot, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("registry: read config %s: %w", path, err)
	}
	var cf configFile
	if err := json.Unmarshal(data, &cf); err != nil {
		return nil, fmt.Errorf("registry: parse config %s: %w", path, err)
	}
	if cf.Actions == nil {
		cf.Actions = map[string]ActionDefinition{}
	}
	snap := &Snapshot{
		Templates: cf.Templates,
		Actions:   cf.Actions,
		Settings:  cf.Config,
	}
	sortTemplates(snap.Templates)
	return snap, nil
}

func writeConfig(path string, snap *Snapshot) error {
	cf := configFile{
		Templates: snap.Templates,
		Actions:   snap.Actions,
		Config:    snap.Settings,
	}
	data, err := json.MarshalIndent(cf, "", "  ")
	if err != nil {
		return fmt.Errorf("registry: encode config: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("registry: write config %s: %w", path, err)
	}
	return nil
}

// sortTemplates orders by priority descending, keeping file order for equal
// priorities so tie-breaks stay deterministic.
func sortTemplates(ts []Template) {
	sort.SliceStable(ts, func(i, j int) bool {
		return ts[i].Priority > ts[j].Priority
	})
}
