package docstore

import (
	"context"
	"log/slog"
	"sort"

	models "dokudoku/internal/domain/models/docstore"
	docstoreRepo "dokudoku/internal/domain/repositories/docstore"
	docstoreSvc "dokudoku/internal/domain/services/docstore"
)

type treeService struct {
	folderRepo docstoreRepo.FolderRepository
	docRepo    docstoreRepo.DocumentRepository
	logger     *slog.Logger
}

// NewTreeService creates a new tree service
func NewTreeService(
	folderRepo docstoreRepo.FolderRepository,
	docRepo docstoreRepo.DocumentRepository,
	logger *slog.Logger,
) docstoreSvc.TreeService {
	return &treeService{
		folderRepo: folderRepo,
		docRepo:    docRepo,
		logger:     logger,
	}
}

// GetTree builds the owner's nested folder/document forest.
// Two flat queries, then an in-memory three-pass assembly:
// create nodes, link children to parents, attach documents.
func (s *treeService) GetTree(ctx context.Context, ownerID string) (*models.TreeNode, error) {
	folders, err := s.folderRepo.GetAllByOwner(ctx, ownerID)
	if err != nil {
		return nil, err
	}

	docs, err := s.docRepo.GetAllMetadataByOwner(ctx, ownerID)
	if err != nil {
		return nil, err
	}

	// Pass 1: create a node per folder
	nodes := make(map[string]*models.FolderTreeNode, len(folders))
	for _, f := range folders {
		nodes[f.ID] = &models.FolderTreeNode{
			ID:        f.ID,
			Name:      f.Name,
			ParentID:  f.ParentID,
			CreatedAt: f.CreatedAt,
			Folders:   []*models.FolderTreeNode{},
			Documents: []models.DocumentTreeNode{},
		}
	}

	// Pass 2: link children to parents; folders with a missing parent
	// surface at the root rather than vanish
	root := &models.TreeNode{
		Folders:   []*models.FolderTreeNode{},
		Documents: []models.DocumentTreeNode{},
	}
	for _, f := range folders {
		node := nodes[f.ID]
		if f.ParentID == nil {
			root.Folders = append(root.Folders, node)
			continue
		}
		parent, ok := nodes[*f.ParentID]
		if !ok {
			s.logger.Warn("folder has unknown parent, lifting to root",
				"folder_id", f.ID, "parent_id", *f.ParentID)
			root.Folders = append(root.Folders, node)
			continue
		}
		parent.Folders = append(parent.Folders, node)
	}

	// Pass 3: attach documents to their folders
	for _, d := range docs {
		entry := models.DocumentTreeNode{
			ID:             d.ID,
			Title:          d.Title,
			FolderID:       d.FolderID,
			FileType:       d.FileType,
			FileSize:       d.FileSize,
			CurrentVersion: d.CurrentVersion,
			UpdatedAt:      d.UpdatedAt,
		}
		if d.FolderID == nil {
			root.Documents = append(root.Documents, entry)
			continue
		}
		node, ok := nodes[*d.FolderID]
		if !ok {
			root.Documents = append(root.Documents, entry)
			continue
		}
		node.Documents = append(node.Documents, entry)
	}

	sortLevel(root.Folders)
	sortDocuments(root.Documents)
	for _, node := range root.Folders {
		annotate(node, 0)
	}

	return root, nil
}

// annotate sets depth levels and sorts every nesting level
func annotate(node *models.FolderTreeNode, level int) {
	node.Level = level
	sortLevel(node.Folders)
	sortDocuments(node.Documents)
	for _, child := range node.Folders {
		annotate(child, level+1)
	}
}

// sortLevel orders sibling folders by name, then creation time
func sortLevel(folders []*models.FolderTreeNode) {
	sort.SliceStable(folders, func(i, j int) bool {
		if folders[i].Name != folders[j].Name {
			return folders[i].Name < folders[j].Name
		}
		return folders[i].CreatedAt.Before(folders[j].CreatedAt)
	})
}

func sortDocuments(docs []models.DocumentTreeNode) {
	sort.SliceStable(docs, func(i, j int) bool {
		return docs[i].Title < docs[j].Title
	})
}
