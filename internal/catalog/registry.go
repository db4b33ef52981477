// Package catalog holds the fixed lists the editor offers: creatable genres
// and block types. Loaded from an embedded YAML file.
package catalog

import (
	"embed"
	"fmt"
	"strings"
	"sync"

	"gopkg.in/yaml.v3"

	"bookora/internal/domain/models"
)

//go:embed config/*.yaml
var configFiles embed.FS

// BlockTypeInfo describes one block type for clients
type BlockTypeInfo struct {
	Type  models.BlockType `yaml:"type" json:"type"`
	Label string           `yaml:"label" json:"label"`
	Media bool             `yaml:"media" json:"media"`
}

type catalogFile struct {
	Genres       []string        `yaml:"genres"`
	BlockTypes   []BlockTypeInfo `yaml:"block_types"`
	DefaultCover string          `yaml:"default_cover"`
}

// Registry is safe for concurrent use
type Registry struct {
	mu   sync.RWMutex
	data catalogFile
}

// NewRegistry loads the embedded catalog
func NewRegistry() (*Registry, error) {
	data, err := configFiles.ReadFile("config/catalog.yaml")
	if err != nil {
		return nil, fmt.Errorf("failed to read catalog: %w", err)
	}
	return Parse(data)
}

// Parse builds a registry from YAML bytes
func Parse(data []byte) (*Registry, error) {
	var file catalogFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("failed to unmarshal catalog: %w", err)
	}
	if len(file.Genres) == 0 {
		return nil, fmt.Errorf("catalog defines no genres")
	}
	for _, bt := range file.BlockTypes {
		if !bt.Type.Valid() {
			return nil, fmt.Errorf("unknown block type %q in catalog", bt.Type)
		}
	}
	return &Registry{data: file}, nil
}

// Genres returns the creatable genres in display order
func (r *Registry) Genres() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return append([]string{}, r.data.Genres...)
}

// DefaultGenre is the first configured genre
func (r *Registry) DefaultGenre() string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.data.Genres[0]
}

// CanonicalGenre returns the configured spelling of genre, matching case-insensitively
func (r *Registry) CanonicalGenre(genre string) (string, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, g := range r.data.Genres {
		if strings.EqualFold(g, strings.TrimSpace(genre)) {
			return g, true
		}
	}
	return "", false
}

// BlockTypes lists block types for the editor toolbar
func (r *Registry) BlockTypes() []BlockTypeInfo {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return append([]BlockTypeInfo{}, r.data.BlockTypes...)
}

// IsBlockType reports whether t is enabled in the catalog
func (r *Registry) IsBlockType(t models.BlockType) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, bt := range r.data.BlockTypes {
		if bt.Type == t {
			return true
		}
	}
	return false
}

// DefaultCover returns the placeholder cover URL seeded with seed
func (r *Registry) DefaultCover(seed int64) string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if r.data.DefaultCover == "" {
		return ""
	}
	return fmt.Sprintf(r.data.DefaultCover, seed)
}
