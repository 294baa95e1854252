package filetypes

// FileType describes an accepted document format.
type FileType struct {
	// MIME identifier, e.g. "application/pdf" (set during YAML unmarshaling)
	ID string `yaml:"-" json:"id"`

	// Display information
	DisplayName string `yaml:"display_name" json:"display_name"`

	// Extensions accepted for this type, lowercase with leading dot
	Extensions []string `yaml:"extensions" json:"extensions"`

	// MaxBytes caps uploads of this type; 0 means the global cap applies
	MaxBytes int64 `yaml:"max_bytes" json:"max_bytes"`

	// Previewable marks types the frontend can render inline
	Previewable bool `yaml:"previewable" json:"previewable"`
}

// Catalog is the YAML root: an ordered set of accepted file types.
type Catalog struct {
	Types []FileType `yaml:"-" json:"types"`
}
