package docstore

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"sort"
	"strings"
	"sync"
	"testing"

	"dokudoku/internal/domain"
	models "dokudoku/internal/domain/models/docstore"
	"dokudoku/internal/domain/repositories"
	docstoreSvc "dokudoku/internal/domain/services/docstore"
	"dokudoku/internal/filetypes"
)

// In-memory repository fakes. A single mutex per fake keeps them safe for
// the concurrency tests; the fake transaction manager serializes whole
// transactions the way the row lock does in Postgres.

type fakeTxManager struct {
	mu sync.Mutex
}

func (m *fakeTxManager) ExecTx(ctx context.Context, fn repositories.TxFn) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return fn(ctx)
}

type fakeFolderRepo struct {
	mu      sync.Mutex
	folders map[string]*models.Folder
}

func newFakeFolderRepo() *fakeFolderRepo {
	return &fakeFolderRepo{folders: make(map[string]*models.Folder)}
}

func (r *fakeFolderRepo) Create(ctx context.Context, folder *models.Folder) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, f := range r.folders {
		if f.OwnerID == folder.OwnerID && f.Name == folder.Name && ptrEq(f.ParentID, folder.ParentID) {
			return &domain.ConflictError{
				Message:      fmt.Sprintf("a folder named %q already exists in this location", folder.Name),
				ResourceType: "folder",
				ResourceID:   f.ID,
			}
		}
	}
	cp := *folder
	r.folders[folder.ID] = &cp
	return nil
}

func (r *fakeFolderRepo) GetByID(ctx context.Context, id string) (*models.Folder, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	f, ok := r.folders[id]
	if !ok {
		return nil, fmt.Errorf("folder %s: %w", id, domain.ErrNotFound)
	}
	cp := *f
	return &cp, nil
}

func (r *fakeFolderRepo) GetByIDForUpdate(ctx context.Context, id string) (*models.Folder, error) {
	// The fake transaction manager already serializes transactions, so the
	// row lock reduces to a plain read here.
	return r.GetByID(ctx, id)
}

func (r *fakeFolderRepo) GetByNameAndParent(ctx context.Context, ownerID, name string, parentID *string) (*models.Folder, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, f := range r.folders {
		if f.OwnerID == ownerID && f.Name == name && ptrEq(f.ParentID, parentID) {
			cp := *f
			return &cp, nil
		}
	}
	return nil, nil
}

func (r *fakeFolderRepo) Update(ctx context.Context, folder *models.Folder) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.folders[folder.ID]; !ok {
		return fmt.Errorf("folder %s: %w", folder.ID, domain.ErrNotFound)
	}
	cp := *folder
	r.folders[folder.ID] = &cp
	return nil
}

func (r *fakeFolderRepo) Delete(ctx context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.folders[id]; !ok {
		return fmt.Errorf("folder %s: %w", id, domain.ErrNotFound)
	}
	delete(r.folders, id)
	return nil
}

func (r *fakeFolderRepo) DeleteAll(ctx context.Context, ids []string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, id := range ids {
		delete(r.folders, id)
	}
	return nil
}

func (r *fakeFolderRepo) ListChildren(ctx context.Context, ownerID string, parentID *string) ([]models.Folder, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []models.Folder
	for _, f := range r.folders {
		if f.OwnerID == ownerID && ptrEq(f.ParentID, parentID) {
			out = append(out, *f)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Name != out[j].Name {
			return out[i].Name < out[j].Name
		}
		return out[i].CreatedAt.Before(out[j].CreatedAt)
	})
	return out, nil
}

func (r *fakeFolderRepo) GetAllByOwner(ctx context.Context, ownerID string) ([]models.Folder, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []models.Folder
	for _, f := range r.folders {
		if f.OwnerID == ownerID {
			out = append(out, *f)
		}
	}
	return out, nil
}

func (r *fakeFolderRepo) GetPath(ctx context.Context, folderID string) (string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var segments []string
	id := folderID
	for {
		f, ok := r.folders[id]
		if !ok {
			return "", fmt.Errorf("folder %s: %w", id, domain.ErrNotFound)
		}
		segments = append([]string{f.Name}, segments...)
		if f.ParentID == nil {
			break
		}
		id = *f.ParentID
	}
	return strings.Join(segments, "/"), nil
}

type fakeDocumentRepo struct {
	mu   sync.Mutex
	docs map[string]*models.Document

	// shareRepo and tagRepo let Search apply the owned-or-shared scope
	// and tag filters the SQL implementation applies in one query
	shareRepo *fakeShareRepo
	tagRepo   *fakeTagRepo

	// searchResults overrides Search output when ranking is scripted
	searchResults *models.SearchResults
}

func newFakeDocumentRepo() *fakeDocumentRepo {
	return &fakeDocumentRepo{docs: make(map[string]*models.Document)}
}

func (r *fakeDocumentRepo) Create(ctx context.Context, doc *models.Document) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	cp := *doc
	r.docs[doc.ID] = &cp
	return nil
}

func (r *fakeDocumentRepo) GetByID(ctx context.Context, id string) (*models.Document, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	d, ok := r.docs[id]
	if !ok {
		return nil, fmt.Errorf("document %s: %w", id, domain.ErrNotFound)
	}
	cp := *d
	return &cp, nil
}

func (r *fakeDocumentRepo) GetByIDForUpdate(ctx context.Context, id string) (*models.Document, error) {
	// The fake transaction manager already serializes transactions, so the
	// row lock reduces to a plain read here.
	return r.GetByID(ctx, id)
}

func (r *fakeDocumentRepo) Update(ctx context.Context, doc *models.Document) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.docs[doc.ID]; !ok {
		return fmt.Errorf("document %s: %w", doc.ID, domain.ErrNotFound)
	}
	cp := *doc
	r.docs[doc.ID] = &cp
	return nil
}

func (r *fakeDocumentRepo) Delete(ctx context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.docs[id]; !ok {
		return fmt.Errorf("document %s: %w", id, domain.ErrNotFound)
	}
	delete(r.docs, id)
	return nil
}

func (r *fakeDocumentRepo) ListByFolder(ctx context.Context, ownerID string, folderID *string) ([]models.Document, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []models.Document
	for _, d := range r.docs {
		if d.OwnerID == ownerID && ptrEq(d.FolderID, folderID) {
			out = append(out, *d)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Title < out[j].Title })
	return out, nil
}

func (r *fakeDocumentRepo) ListIDsByFolders(ctx context.Context, folderIDs []string) ([]string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	folderSet := make(map[string]bool, len(folderIDs))
	for _, id := range folderIDs {
		folderSet[id] = true
	}
	var out []string
	for _, d := range r.docs {
		if d.FolderID != nil && folderSet[*d.FolderID] {
			out = append(out, d.ID)
		}
	}
	return out, nil
}

func (r *fakeDocumentRepo) DeleteAll(ctx context.Context, ids []string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, id := range ids {
		delete(r.docs, id)
	}
	return nil
}

func (r *fakeDocumentRepo) GetAllMetadataByOwner(ctx context.Context, ownerID string) ([]models.Document, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []models.Document
	for _, d := range r.docs {
		if d.OwnerID == ownerID {
			out = append(out, *d)
		}
	}
	return out, nil
}

func (r *fakeDocumentRepo) Search(ctx context.Context, opts *models.SearchOptions) (*models.SearchResults, error) {
	r.mu.Lock()
	if r.searchResults != nil {
		defer r.mu.Unlock()
		return r.searchResults, nil
	}
	candidates := make([]models.Document, 0, len(r.docs))
	for _, d := range r.docs {
		candidates = append(candidates, *d)
	}
	r.mu.Unlock()

	var matched []models.Document
	for _, d := range candidates {
		owned := d.OwnerID == opts.UserID
		var shared bool
		if !owned && r.shareRepo != nil {
			share, err := r.shareRepo.Get(ctx, d.ID, opts.UserID)
			if err != nil {
				return nil, err
			}
			shared = share != nil
		}
		if !owned && !shared {
			continue
		}
		if opts.SharedOnly && !shared {
			continue
		}
		if opts.FolderID != nil && !ptrEq(d.FolderID, opts.FolderID) {
			continue
		}
		if opts.FileType != "" && d.FileType != opts.FileType {
			continue
		}
		if opts.Query != "" && !matchesQuery(&d, opts.Query) {
			continue
		}
		if len(opts.TagIDs) > 0 {
			ok, err := r.hasAllTags(ctx, d.ID, opts.TagIDs)
			if err != nil {
				return nil, err
			}
			if !ok {
				continue
			}
		}
		matched = append(matched, d)
	}

	sort.Slice(matched, func(i, j int) bool { return matched[i].UpdatedAt.After(matched[j].UpdatedAt) })

	total := len(matched)
	if opts.Offset < len(matched) {
		matched = matched[opts.Offset:]
	} else {
		matched = nil
	}
	if opts.Limit > 0 && len(matched) > opts.Limit {
		matched = matched[:opts.Limit]
	}

	results := make([]models.SearchResult, 0, len(matched))
	for _, d := range matched {
		results = append(results, models.SearchResult{Document: d})
	}
	return &models.SearchResults{Results: results, Total: total, Limit: opts.Limit, Offset: opts.Offset}, nil
}

func (r *fakeDocumentRepo) hasAllTags(ctx context.Context, documentID string, tagIDs []string) (bool, error) {
	if r.tagRepo == nil {
		return false, nil
	}
	attached, err := r.tagRepo.ListByDocument(ctx, documentID)
	if err != nil {
		return false, err
	}
	attachedSet := make(map[string]bool, len(attached))
	for _, t := range attached {
		attachedSet[t.ID] = true
	}
	for _, id := range tagIDs {
		if !attachedSet[id] {
			return false, nil
		}
	}
	return true, nil
}

func matchesQuery(d *models.Document, query string) bool {
	q := strings.ToLower(query)
	if strings.Contains(strings.ToLower(d.Title), q) {
		return true
	}
	return d.Description != nil && strings.Contains(strings.ToLower(*d.Description), q)
}

type fakeVersionRepo struct {
	mu       sync.Mutex
	versions map[string][]models.DocumentVersion // by document id
}

func newFakeVersionRepo() *fakeVersionRepo {
	return &fakeVersionRepo{versions: make(map[string][]models.DocumentVersion)}
}

func (r *fakeVersionRepo) Create(ctx context.Context, version *models.DocumentVersion) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, v := range r.versions[version.DocumentID] {
		if v.VersionNumber == version.VersionNumber {
			return fmt.Errorf("version %d of document %s: %w",
				version.VersionNumber, version.DocumentID, domain.ErrVersionConflict)
		}
	}
	r.versions[version.DocumentID] = append(r.versions[version.DocumentID], *version)
	return nil
}

func (r *fakeVersionRepo) ListByDocument(ctx context.Context, documentID string) ([]models.DocumentVersion, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := append([]models.DocumentVersion(nil), r.versions[documentID]...)
	sort.Slice(out, func(i, j int) bool { return out[i].VersionNumber < out[j].VersionNumber })
	return out, nil
}

func (r *fakeVersionRepo) DeleteByDocuments(ctx context.Context, documentIDs []string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, id := range documentIDs {
		delete(r.versions, id)
	}
	return nil
}

type fakeShareRepo struct {
	mu     sync.Mutex
	shares map[string]*models.DocumentShare // keyed documentID + "/" + userID
}

func newFakeShareRepo() *fakeShareRepo {
	return &fakeShareRepo{shares: make(map[string]*models.DocumentShare)}
}

func shareKey(documentID, userID string) string { return documentID + "/" + userID }

func (r *fakeShareRepo) Upsert(ctx context.Context, share *models.DocumentShare) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	key := shareKey(share.DocumentID, share.UserID)
	if existing, ok := r.shares[key]; ok {
		existing.Permission = share.Permission
		existing.UpdatedAt = share.UpdatedAt
		*share = *existing
		return nil
	}
	cp := *share
	r.shares[key] = &cp
	return nil
}

func (r *fakeShareRepo) Get(ctx context.Context, documentID, userID string) (*models.DocumentShare, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	s, ok := r.shares[shareKey(documentID, userID)]
	if !ok {
		return nil, nil
	}
	cp := *s
	return &cp, nil
}

func (r *fakeShareRepo) Delete(ctx context.Context, documentID, userID string) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	key := shareKey(documentID, userID)
	if _, ok := r.shares[key]; !ok {
		return false, nil
	}
	delete(r.shares, key)
	return true, nil
}

func (r *fakeShareRepo) ListByDocument(ctx context.Context, documentID string) ([]models.DocumentShare, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []models.DocumentShare
	for _, s := range r.shares {
		if s.DocumentID == documentID {
			out = append(out, *s)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out, nil
}

func (r *fakeShareRepo) DeleteByDocuments(ctx context.Context, documentIDs []string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, id := range documentIDs {
		for key, s := range r.shares {
			if s.DocumentID == id {
				delete(r.shares, key)
			}
		}
	}
	return nil
}

type fakeTagRepo struct {
	mu    sync.Mutex
	tags  map[string]*models.Tag
	links map[string]bool // documentID + "/" + tagID
}

func newFakeTagRepo() *fakeTagRepo {
	return &fakeTagRepo{tags: make(map[string]*models.Tag), links: make(map[string]bool)}
}

func (r *fakeTagRepo) Create(ctx context.Context, tag *models.Tag) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, t := range r.tags {
		if t.OwnerID == tag.OwnerID && strings.EqualFold(t.Name, tag.Name) {
			return &domain.ConflictError{
				Message:      fmt.Sprintf("a tag named %q already exists", tag.Name),
				ResourceType: "tag",
			}
		}
	}
	cp := *tag
	r.tags[tag.ID] = &cp
	return nil
}

func (r *fakeTagRepo) GetByID(ctx context.Context, id string) (*models.Tag, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	t, ok := r.tags[id]
	if !ok {
		return nil, fmt.Errorf("tag %s: %w", id, domain.ErrNotFound)
	}
	cp := *t
	return &cp, nil
}

func (r *fakeTagRepo) GetByName(ctx context.Context, ownerID, name string) (*models.Tag, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, t := range r.tags {
		if t.OwnerID == ownerID && strings.EqualFold(t.Name, name) {
			cp := *t
			return &cp, nil
		}
	}
	return nil, nil
}

func (r *fakeTagRepo) ListByOwner(ctx context.Context, ownerID string) ([]models.Tag, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []models.Tag
	for _, t := range r.tags {
		if t.OwnerID == ownerID {
			out = append(out, *t)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func (r *fakeTagRepo) Delete(ctx context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.tags[id]; !ok {
		return fmt.Errorf("tag %s: %w", id, domain.ErrNotFound)
	}
	delete(r.tags, id)
	for key := range r.links {
		if strings.HasSuffix(key, "/"+id) {
			delete(r.links, key)
		}
	}
	return nil
}

func (r *fakeTagRepo) Attach(ctx context.Context, documentID, tagID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.links[documentID+"/"+tagID] = true
	return nil
}

func (r *fakeTagRepo) Detach(ctx context.Context, documentID, tagID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.links, documentID+"/"+tagID)
	return nil
}

func (r *fakeTagRepo) ListByDocument(ctx context.Context, documentID string) ([]models.Tag, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []models.Tag
	for key := range r.links {
		docID, tagID, _ := strings.Cut(key, "/")
		if docID == documentID {
			if t, ok := r.tags[tagID]; ok {
				out = append(out, *t)
			}
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func (r *fakeTagRepo) DetachByDocuments(ctx context.Context, documentIDs []string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, id := range documentIDs {
		for key := range r.links {
			if strings.HasPrefix(key, id+"/") {
				delete(r.links, key)
			}
		}
	}
	return nil
}

// testEnv wires the services onto a shared set of fakes.
type testEnv struct {
	folderRepo  *fakeFolderRepo
	docRepo     *fakeDocumentRepo
	versionRepo *fakeVersionRepo
	shareRepo   *fakeShareRepo
	tagRepo     *fakeTagRepo
	txManager   *fakeTxManager

	folders docstoreSvc.FolderService
	docs    docstoreSvc.DocumentService
	shares  docstoreSvc.ShareService
	org     docstoreSvc.OrganizationService
	tree    docstoreSvc.TreeService
	tags    docstoreSvc.TagService
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	env := &testEnv{
		folderRepo:  newFakeFolderRepo(),
		docRepo:     newFakeDocumentRepo(),
		versionRepo: newFakeVersionRepo(),
		shareRepo:   newFakeShareRepo(),
		tagRepo:     newFakeTagRepo(),
		txManager:   &fakeTxManager{},
	}

	env.docRepo.shareRepo = env.shareRepo
	env.docRepo.tagRepo = env.tagRepo

	registry, err := filetypes.NewRegistry()
	if err != nil {
		t.Fatalf("NewRegistry() error = %v", err)
	}

	env.folders = NewFolderService(env.folderRepo, env.docRepo, env.versionRepo, env.shareRepo, env.tagRepo, env.txManager, nil, logger)
	env.docs = NewDocumentService(env.docRepo, env.folderRepo, env.versionRepo, env.shareRepo, env.tagRepo, env.txManager, nil, registry, logger)
	env.shares = NewShareService(env.shareRepo, env.docRepo, logger)
	env.org = NewOrganizationService(env.docRepo, env.shareRepo, logger)
	env.tree = NewTreeService(env.folderRepo, env.docRepo, logger)
	env.tags = NewTagService(env.tagRepo, logger)

	return env
}

func parsePermission(t *testing.T, s string) models.Permission {
	t.Helper()
	p, err := models.ParsePermission(s)
	if err != nil {
		t.Fatalf("ParsePermission(%q) error = %v", s, err)
	}
	return p
}

func ptrEq(a, b *string) bool {
	if a == nil || b == nil {
		return a == b
	}
	return *a == *b
}
