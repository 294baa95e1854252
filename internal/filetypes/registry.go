package filetypes

import (
	"embed"
	"fmt"
	"strings"
	"sync"

	"gopkg.in/yaml.v3"
)

//go:embed config/*.yaml
var configFiles embed.FS

// Registry answers "is this file type accepted" questions for uploads.
type Registry struct {
	byID  map[string]*FileType
	byExt map[string]*FileType
	order []string
	mu    sync.RWMutex
}

// NewRegistry creates a new file type registry from the embedded catalog
func NewRegistry() (*Registry, error) {
	r := &Registry{
		byID:  make(map[string]*FileType),
		byExt: make(map[string]*FileType),
	}

	if err := r.loadCatalogFile("filetypes"); err != nil {
		return nil, fmt.Errorf("failed to load file type catalog: %w", err)
	}

	return r, nil
}

// loadCatalogFile loads a catalog YAML file
func (r *Registry) loadCatalogFile(name string) error {
	filename := fmt.Sprintf("config/%s.yaml", name)
	data, err := configFiles.ReadFile(filename)
	if err != nil {
		return fmt.Errorf("failed to read %s: %w", filename, err)
	}

	var catalog Catalog
	if err := yaml.Unmarshal(data, &catalog); err != nil {
		return fmt.Errorf("failed to unmarshal %s: %w", filename, err)
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	for i := range catalog.Types {
		ft := &catalog.Types[i]
		r.byID[ft.ID] = ft
		r.order = append(r.order, ft.ID)
		for _, ext := range ft.Extensions {
			r.byExt[strings.ToLower(ext)] = ft
		}
	}

	return nil
}

// Accepts reports whether the MIME type is in the catalog.
// MIME parameters ("; charset=utf-8") are ignored.
func (r *Registry) Accepts(mimeType string) bool {
	_, err := r.Lookup(mimeType)
	return err == nil
}

// Lookup returns the catalog entry for a MIME type
func (r *Registry) Lookup(mimeType string) (*FileType, error) {
	base := strings.ToLower(strings.TrimSpace(mimeType))
	if i := strings.IndexByte(base, ';'); i >= 0 {
		base = strings.TrimSpace(base[:i])
	}

	r.mu.RLock()
	defer r.mu.RUnlock()

	ft, ok := r.byID[base]
	if !ok {
		return nil, fmt.Errorf("unknown file type: %s", mimeType)
	}
	return ft, nil
}

// ByExtension returns the catalog entry for a filename extension
// (leading dot, case-insensitive)
func (r *Registry) ByExtension(ext string) (*FileType, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	ft, ok := r.byExt[strings.ToLower(ext)]
	if !ok {
		return nil, fmt.Errorf("unknown file extension: %s", ext)
	}
	return ft, nil
}

// List returns all accepted file types (ordered as defined in YAML)
func (r *Registry) List() []FileType {
	r.mu.RLock()
	defer r.mu.RUnlock()

	types := make([]FileType, 0, len(r.order))
	for _, id := range r.order {
		types = append(types, *r.byID[id])
	}
	return types
}

// UnmarshalYAML implements custom YAML unmarshaling to preserve type order from YAML file
func (c *Catalog) UnmarshalYAML(node *yaml.Node) error {
	// Decode types into a map first to get the full data
	type typesOnly struct {
		Types map[string]FileType `yaml:"types"`
	}
	var t typesOnly
	if err := node.Decode(&t); err != nil {
		return err
	}

	// Now extract type keys in YAML order and build the slice
	for i := 0; i < len(node.Content); i += 2 {
		if node.Content[i].Value == "types" {
			typesNode := node.Content[i+1]
			// typesNode.Content alternates: key, value, key, value...
			for j := 0; j < len(typesNode.Content); j += 2 {
				id := typesNode.Content[j].Value
				if ft, ok := t.Types[id]; ok {
					ft.ID = id
					c.Types = append(c.Types, ft)
				}
			}
			break
		}
	}

	return nil
}
