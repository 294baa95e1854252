package config

const (
	// MaxFolderNameLength is the maximum length for folder names.
	// Limited to 255 to fit in PostgreSQL VARCHAR(255) and provide
	// reasonable UX (names should be short and descriptive).
	MaxFolderNameLength = 255

	// MaxDocumentTitleLength is the maximum length for document titles.
	// Same as folder names for consistency.
	MaxDocumentTitleLength = 255

	// MaxTagNameLength is the maximum length for tag names.
	// Tags are short labels; 50 keeps lists readable.
	MaxTagNameLength = 50

	// MaxDescriptionLength is the maximum length for document descriptions
	// and version change descriptions.
	MaxDescriptionLength = 2000

	// MaxPathLength is the maximum length for full display paths.
	// Set to 500 to allow paths like "A/B/C/D/E/folder" where each
	// segment can be up to 100 characters. Longer paths indicate
	// overly deep hierarchies (anti-pattern).
	MaxPathLength = 500

	// MaxUploadBytes caps a single uploaded file. 100 MiB covers the
	// document formats the registry accepts with headroom.
	MaxUploadBytes = 100 << 20
)
