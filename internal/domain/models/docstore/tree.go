package docstore

import "time"

// TreeNode represents the root of an owner's folder/document forest.
type TreeNode struct {
	Folders   []*FolderTreeNode  `json:"folders"`
	Documents []DocumentTreeNode `json:"documents"`
}

// FolderTreeNode represents a folder in the tree with nested children.
// Level is the depth from the root (root folders have level 0).
type FolderTreeNode struct {
	ID        string             `json:"id"`
	Name      string             `json:"name"`
	ParentID  *string            `json:"parent_id"`
	Level     int                `json:"level"`
	CreatedAt time.Time          `json:"created_at"`
	Folders   []*FolderTreeNode  `json:"folders"` // Pointers for proper nesting
	Documents []DocumentTreeNode `json:"documents"`
}

// DocumentTreeNode represents a document in the tree (metadata only).
type DocumentTreeNode struct {
	ID             string    `json:"id"`
	Title          string    `json:"title"`
	FolderID       *string   `json:"folder_id"`
	FileType       string    `json:"file_type"`
	FileSize       int64     `json:"file_size"`
	CurrentVersion int       `json:"current_version"`
	UpdatedAt      time.Time `json:"updated_at"`
}
