package docstore

import (
	"context"
	"errors"
	"sync"
	"testing"

	"dokudoku/internal/domain"
	docstoreSvc "dokudoku/internal/domain/services/docstore"
	"dokudoku/internal/httputil"
)

const (
	testOwner = "owner-1"
	otherUser = "user-2"
)

func mustCreateFolder(t *testing.T, env *testEnv, owner, name string, parentID *string) string {
	t.Helper()
	folder, err := env.folders.CreateFolder(context.Background(), &docstoreSvc.CreateFolderRequest{
		OwnerID:  owner,
		Name:     name,
		ParentID: parentID,
	})
	if err != nil {
		t.Fatalf("CreateFolder(%q) error = %v", name, err)
	}
	return folder.ID
}

func mustUpload(t *testing.T, env *testEnv, owner, title string, folderID *string) string {
	t.Helper()
	doc, err := env.docs.Upload(context.Background(), &docstoreSvc.UploadRequest{
		OwnerID:      owner,
		Title:        title,
		FolderID:     folderID,
		FileLocation: "sha256/" + title,
		FileType:     "application/pdf",
		FileSize:     1024,
	})
	if err != nil {
		t.Fatalf("Upload(%q) error = %v", title, err)
	}
	return doc.ID
}

func TestCreateFolder(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	rootID := mustCreateFolder(t, env, testOwner, "Reports", nil)

	t.Run("nested folder with path", func(t *testing.T) {
		child, err := env.folders.CreateFolder(ctx, &docstoreSvc.CreateFolderRequest{
			OwnerID:  testOwner,
			Name:     "Quarterly",
			ParentID: &rootID,
		})
		if err != nil {
			t.Fatalf("CreateFolder() error = %v", err)
		}
		if child.Path != "Reports/Quarterly" {
			t.Errorf("Path = %q, want %q", child.Path, "Reports/Quarterly")
		}
	})

	t.Run("duplicate sibling name", func(t *testing.T) {
		_, err := env.folders.CreateFolder(ctx, &docstoreSvc.CreateFolderRequest{
			OwnerID: testOwner,
			Name:    "Reports",
		})
		if !errors.Is(err, domain.ErrConflict) {
			t.Errorf("error = %v, want ErrConflict", err)
		}
	})

	t.Run("same name under different parents", func(t *testing.T) {
		otherID := mustCreateFolder(t, env, testOwner, "Archive", nil)
		if _, err := env.folders.CreateFolder(ctx, &docstoreSvc.CreateFolderRequest{
			OwnerID:  testOwner,
			Name:     "Quarterly",
			ParentID: &otherID,
		}); err != nil {
			t.Errorf("CreateFolder() error = %v, want nil", err)
		}
	})

	t.Run("unknown parent", func(t *testing.T) {
		missing := "no-such-folder"
		_, err := env.folders.CreateFolder(ctx, &docstoreSvc.CreateFolderRequest{
			OwnerID:  testOwner,
			Name:     "Orphan",
			ParentID: &missing,
		})
		if !errors.Is(err, domain.ErrInvalidParent) {
			t.Errorf("error = %v, want ErrInvalidParent", err)
		}
	})

	t.Run("parent owned by another user", func(t *testing.T) {
		_, err := env.folders.CreateFolder(ctx, &docstoreSvc.CreateFolderRequest{
			OwnerID:  otherUser,
			Name:     "Sneaky",
			ParentID: &rootID,
		})
		if !errors.Is(err, domain.ErrInvalidParent) {
			t.Errorf("error = %v, want ErrInvalidParent", err)
		}
	})

	t.Run("name with slash rejected", func(t *testing.T) {
		_, err := env.folders.CreateFolder(ctx, &docstoreSvc.CreateFolderRequest{
			OwnerID: testOwner,
			Name:    "a/b",
		})
		if !errors.Is(err, domain.ErrValidation) {
			t.Errorf("error = %v, want ErrValidation", err)
		}
	})

	t.Run("empty name rejected", func(t *testing.T) {
		_, err := env.folders.CreateFolder(ctx, &docstoreSvc.CreateFolderRequest{
			OwnerID: testOwner,
			Name:    "   ",
		})
		if !errors.Is(err, domain.ErrValidation) {
			t.Errorf("error = %v, want ErrValidation", err)
		}
	})
}

func TestRenameFolder(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	aID := mustCreateFolder(t, env, testOwner, "Alpha", nil)
	mustCreateFolder(t, env, testOwner, "Beta", nil)

	t.Run("rename", func(t *testing.T) {
		folder, err := env.folders.RenameFolder(ctx, testOwner, aID, "Gamma")
		if err != nil {
			t.Fatalf("RenameFolder() error = %v", err)
		}
		if folder.Name != "Gamma" {
			t.Errorf("Name = %q, want %q", folder.Name, "Gamma")
		}
	})

	t.Run("rename to sibling name", func(t *testing.T) {
		_, err := env.folders.RenameFolder(ctx, testOwner, aID, "Beta")
		if !errors.Is(err, domain.ErrConflict) {
			t.Errorf("error = %v, want ErrConflict", err)
		}
	})

	t.Run("rename to own name is a no-op", func(t *testing.T) {
		if _, err := env.folders.RenameFolder(ctx, testOwner, aID, "Gamma"); err != nil {
			t.Errorf("RenameFolder() error = %v, want nil", err)
		}
	})

	t.Run("non-owner rejected", func(t *testing.T) {
		_, err := env.folders.RenameFolder(ctx, otherUser, aID, "Hijacked")
		if !errors.Is(err, domain.ErrForbidden) {
			var forbidden *domain.ForbiddenError
			if !errors.As(err, &forbidden) {
				t.Errorf("error = %v, want forbidden", err)
			}
		}
	})
}

func TestMoveFolder(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	// a > b > c
	aID := mustCreateFolder(t, env, testOwner, "a", nil)
	bID := mustCreateFolder(t, env, testOwner, "b", &aID)
	cID := mustCreateFolder(t, env, testOwner, "c", &bID)

	t.Run("move under own descendant rejected", func(t *testing.T) {
		_, err := env.folders.MoveFolder(ctx, testOwner, aID, &cID)
		if !errors.Is(err, domain.ErrCycleDetected) {
			t.Fatalf("error = %v, want ErrCycleDetected", err)
		}

		// tree unchanged
		folder, err := env.folderRepo.GetByID(ctx, aID)
		if err != nil {
			t.Fatalf("GetByID() error = %v", err)
		}
		if folder.ParentID != nil {
			t.Errorf("folder a was reparented to %v, want root", *folder.ParentID)
		}
	})

	t.Run("move under itself rejected", func(t *testing.T) {
		_, err := env.folders.MoveFolder(ctx, testOwner, bID, &bID)
		if !errors.Is(err, domain.ErrCycleDetected) {
			t.Errorf("error = %v, want ErrCycleDetected", err)
		}
	})

	t.Run("move to root", func(t *testing.T) {
		folder, err := env.folders.MoveFolder(ctx, testOwner, cID, nil)
		if err != nil {
			t.Fatalf("MoveFolder() error = %v", err)
		}
		if folder.ParentID != nil {
			t.Errorf("ParentID = %v, want nil", *folder.ParentID)
		}
		if folder.Path != "c" {
			t.Errorf("Path = %q, want %q", folder.Path, "c")
		}
	})

	t.Run("legal reparent", func(t *testing.T) {
		folder, err := env.folders.MoveFolder(ctx, testOwner, cID, &aID)
		if err != nil {
			t.Fatalf("MoveFolder() error = %v", err)
		}
		if folder.Path != "a/c" {
			t.Errorf("Path = %q, want %q", folder.Path, "a/c")
		}
	})

	t.Run("move causing sibling collision", func(t *testing.T) {
		// a already has children b and c; make a root folder named b and
		// try to move it under a
		rootB := mustCreateFolder(t, env, testOwner, "b2", nil)
		if _, err := env.folders.RenameFolder(ctx, testOwner, rootB, "b"); err != nil {
			t.Fatalf("RenameFolder() error = %v", err)
		}
		_, err := env.folders.MoveFolder(ctx, testOwner, rootB, &aID)
		if !errors.Is(err, domain.ErrConflict) {
			t.Errorf("error = %v, want ErrConflict", err)
		}
	})
}

func TestUpdateFolder(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	// x > y, plus a sibling z at root
	xID := mustCreateFolder(t, env, testOwner, "x", nil)
	yID := mustCreateFolder(t, env, testOwner, "y", &xID)
	zID := mustCreateFolder(t, env, testOwner, "z", nil)

	t.Run("combined rename and move", func(t *testing.T) {
		name := "y-renamed"
		folder, err := env.folders.UpdateFolder(ctx, testOwner, yID, &docstoreSvc.UpdateFolderRequest{
			Name:     &name,
			ParentID: httputil.OptionalString{Present: true, Value: &zID},
		})
		if err != nil {
			t.Fatalf("UpdateFolder() error = %v", err)
		}
		if folder.Name != "y-renamed" {
			t.Errorf("Name = %q, want %q", folder.Name, "y-renamed")
		}
		if folder.ParentID == nil || *folder.ParentID != zID {
			t.Errorf("ParentID = %v, want %s", folder.ParentID, zID)
		}
		if folder.Path != "z/y-renamed" {
			t.Errorf("Path = %q, want %q", folder.Path, "z/y-renamed")
		}
	})

	t.Run("failed move leaves rename unapplied", func(t *testing.T) {
		// Moving x under z while renaming it: the new name collides with
		// z's existing child, so neither the name nor the parent changes.
		name := "y-renamed"
		_, err := env.folders.UpdateFolder(ctx, testOwner, xID, &docstoreSvc.UpdateFolderRequest{
			Name:     &name,
			ParentID: httputil.OptionalString{Present: true, Value: &zID},
		})
		if !errors.Is(err, domain.ErrConflict) {
			t.Fatalf("error = %v, want ErrConflict", err)
		}

		folder, err := env.folderRepo.GetByID(ctx, xID)
		if err != nil {
			t.Fatalf("GetByID() error = %v", err)
		}
		if folder.Name != "x" {
			t.Errorf("Name = %q after failed update, want %q", folder.Name, "x")
		}
		if folder.ParentID != nil {
			t.Errorf("ParentID = %v after failed update, want root", *folder.ParentID)
		}
	})

	t.Run("cycle rejected before rename applies", func(t *testing.T) {
		// y now sits under z, so moving z under y closes a cycle
		name := "x-renamed"
		_, err := env.folders.UpdateFolder(ctx, testOwner, zID, &docstoreSvc.UpdateFolderRequest{
			Name:     &name,
			ParentID: httputil.OptionalString{Present: true, Value: &yID},
		})
		if !errors.Is(err, domain.ErrCycleDetected) {
			t.Fatalf("error = %v, want ErrCycleDetected", err)
		}

		folder, err := env.folderRepo.GetByID(ctx, zID)
		if err != nil {
			t.Fatalf("GetByID() error = %v", err)
		}
		if folder.Name != "z" || folder.ParentID != nil {
			t.Errorf("folder = %q under %v after failed update, want %q at root", folder.Name, folder.ParentID, "z")
		}
	})

	t.Run("empty request rejected", func(t *testing.T) {
		_, err := env.folders.UpdateFolder(ctx, testOwner, xID, &docstoreSvc.UpdateFolderRequest{})
		if !errors.Is(err, domain.ErrValidation) {
			t.Errorf("error = %v, want ErrValidation", err)
		}
	})
}

// The move transaction locks the moved folder and the ancestor chain of
// the target, so two opposite-direction moves serialize: the second one
// revalidates against the first one's committed state and fails.
func TestMoveFolderConcurrent(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	aID := mustCreateFolder(t, env, testOwner, "a", nil)
	bID := mustCreateFolder(t, env, testOwner, "b", nil)

	var wg sync.WaitGroup
	moveErrs := make([]error, 2)
	wg.Add(2)
	go func() {
		defer wg.Done()
		_, moveErrs[0] = env.folders.MoveFolder(ctx, testOwner, aID, &bID)
	}()
	go func() {
		defer wg.Done()
		_, moveErrs[1] = env.folders.MoveFolder(ctx, testOwner, bID, &aID)
	}()
	wg.Wait()

	var failures int
	for _, err := range moveErrs {
		if err != nil {
			failures++
			if !errors.Is(err, domain.ErrCycleDetected) {
				t.Errorf("losing move error = %v, want ErrCycleDetected", err)
			}
		}
	}
	if failures != 1 {
		t.Fatalf("%d moves failed, want exactly 1 of the opposite-direction pair", failures)
	}

	assertAcyclic(t, env, aID)
	assertAcyclic(t, env, bID)
}

// Deleting a subtree locks its root, which every move into the subtree
// must pass on its ancestor walk. Whichever order the two commit in, no
// folder may end up referencing a deleted parent.
func TestDeleteFolderConcurrentMove(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	rootID := mustCreateFolder(t, env, testOwner, "doomed", nil)
	innerID := mustCreateFolder(t, env, testOwner, "inner", &rootID)
	strayID := mustCreateFolder(t, env, testOwner, "stray", nil)

	var wg sync.WaitGroup
	wg.Add(2)
	go func() {
		defer wg.Done()
		if err := env.folders.DeleteFolder(ctx, testOwner, rootID, true); err != nil {
			t.Errorf("DeleteFolder() error = %v", err)
		}
	}()
	go func() {
		defer wg.Done()
		// Losing the race to the cascade surfaces as a missing parent
		if _, err := env.folders.MoveFolder(ctx, testOwner, strayID, &innerID); err != nil &&
			!errors.Is(err, domain.ErrInvalidParent) && !errors.Is(err, domain.ErrNotFound) {
			t.Errorf("MoveFolder() error = %v", err)
		}
	}()
	wg.Wait()

	remaining, err := env.folderRepo.GetAllByOwner(ctx, testOwner)
	if err != nil {
		t.Fatalf("GetAllByOwner() error = %v", err)
	}
	for _, f := range remaining {
		if f.ParentID == nil {
			continue
		}
		if _, err := env.folderRepo.GetByID(ctx, *f.ParentID); err != nil {
			t.Errorf("folder %s dangles from deleted parent %s", f.Name, *f.ParentID)
		}
	}
}

// assertAcyclic walks the parent chain from id and fails on a revisit.
func assertAcyclic(t *testing.T, env *testEnv, id string) {
	t.Helper()
	ctx := context.Background()
	seen := make(map[string]bool)
	for {
		if seen[id] {
			t.Fatalf("cycle through folder %s", id)
		}
		seen[id] = true
		folder, err := env.folderRepo.GetByID(ctx, id)
		if err != nil {
			t.Fatalf("GetByID(%s) error = %v", id, err)
		}
		if folder.ParentID == nil {
			return
		}
		id = *folder.ParentID
	}
}

func TestDeleteFolder(t *testing.T) {
	ctx := context.Background()

	t.Run("non-empty without cascade", func(t *testing.T) {
		env := newTestEnv(t)
		parentID := mustCreateFolder(t, env, testOwner, "parent", nil)
		mustCreateFolder(t, env, testOwner, "child", &parentID)

		err := env.folders.DeleteFolder(ctx, testOwner, parentID, false)
		if !errors.Is(err, domain.ErrNotEmpty) {
			t.Fatalf("error = %v, want ErrNotEmpty", err)
		}

		// nothing deleted
		if _, err := env.folderRepo.GetByID(ctx, parentID); err != nil {
			t.Errorf("parent folder was deleted: %v", err)
		}
	})

	t.Run("empty without cascade", func(t *testing.T) {
		env := newTestEnv(t)
		id := mustCreateFolder(t, env, testOwner, "empty", nil)

		if err := env.folders.DeleteFolder(ctx, testOwner, id, false); err != nil {
			t.Fatalf("DeleteFolder() error = %v", err)
		}
		if _, err := env.folderRepo.GetByID(ctx, id); !errors.Is(err, domain.ErrNotFound) {
			t.Errorf("folder still exists after delete")
		}
	})

	t.Run("cascade removes subtree and document records", func(t *testing.T) {
		env := newTestEnv(t)
		parentID := mustCreateFolder(t, env, testOwner, "parent", nil)
		childID := mustCreateFolder(t, env, testOwner, "child", &parentID)
		grandID := mustCreateFolder(t, env, testOwner, "grand", &childID)

		docTop := mustUpload(t, env, testOwner, "top.pdf", &parentID)
		docDeep := mustUpload(t, env, testOwner, "deep.pdf", &grandID)
		docOutside := mustUpload(t, env, testOwner, "outside.pdf", nil)

		// a share on the deep document must go with it
		if _, err := env.shares.Grant(ctx, testOwner, docDeep, otherUser, parsePermission(t, "VIEW")); err != nil {
			t.Fatalf("Grant() error = %v", err)
		}

		if err := env.folders.DeleteFolder(ctx, testOwner, parentID, true); err != nil {
			t.Fatalf("DeleteFolder(cascade) error = %v", err)
		}

		for _, id := range []string{parentID, childID, grandID} {
			if _, err := env.folderRepo.GetByID(ctx, id); !errors.Is(err, domain.ErrNotFound) {
				t.Errorf("folder %s survived the cascade", id)
			}
		}
		for _, id := range []string{docTop, docDeep} {
			if _, err := env.docRepo.GetByID(ctx, id); !errors.Is(err, domain.ErrNotFound) {
				t.Errorf("document %s survived the cascade", id)
			}
			versions, _ := env.versionRepo.ListByDocument(ctx, id)
			if len(versions) != 0 {
				t.Errorf("document %s left %d orphan versions", id, len(versions))
			}
			shares, _ := env.shareRepo.ListByDocument(ctx, id)
			if len(shares) != 0 {
				t.Errorf("document %s left %d orphan shares", id, len(shares))
			}
		}

		// the document outside the subtree is untouched
		if _, err := env.docRepo.GetByID(ctx, docOutside); err != nil {
			t.Errorf("unrelated document was deleted: %v", err)
		}
	})

	t.Run("non-owner rejected", func(t *testing.T) {
		env := newTestEnv(t)
		id := mustCreateFolder(t, env, testOwner, "mine", nil)

		err := env.folders.DeleteFolder(ctx, otherUser, id, true)
		var forbidden *domain.ForbiddenError
		if !errors.As(err, &forbidden) {
			t.Errorf("error = %v, want forbidden", err)
		}
	})
}

func TestListChildren(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	parentID := mustCreateFolder(t, env, testOwner, "docs", nil)
	mustCreateFolder(t, env, testOwner, "b-sub", &parentID)
	mustCreateFolder(t, env, testOwner, "a-sub", &parentID)
	mustUpload(t, env, testOwner, "readme.pdf", &parentID)
	mustUpload(t, env, testOwner, "root.pdf", nil)

	t.Run("folder level", func(t *testing.T) {
		contents, err := env.folders.ListChildren(ctx, testOwner, &parentID)
		if err != nil {
			t.Fatalf("ListChildren() error = %v", err)
		}
		if got := len(contents.Folders); got != 2 {
			t.Fatalf("len(Folders) = %d, want 2", got)
		}
		if contents.Folders[0].Name != "a-sub" || contents.Folders[1].Name != "b-sub" {
			t.Errorf("folders not ordered by name: %q, %q", contents.Folders[0].Name, contents.Folders[1].Name)
		}
		if len(contents.Documents) != 1 || contents.Documents[0].Title != "readme.pdf" {
			t.Errorf("Documents = %+v, want the one readme", contents.Documents)
		}
	})

	t.Run("root level", func(t *testing.T) {
		contents, err := env.folders.ListChildren(ctx, testOwner, nil)
		if err != nil {
			t.Fatalf("ListChildren() error = %v", err)
		}
		if len(contents.Folders) != 1 || len(contents.Documents) != 1 {
			t.Errorf("root contents = %d folders, %d documents, want 1 and 1",
				len(contents.Folders), len(contents.Documents))
		}
		if contents.Folder != nil {
			t.Errorf("root listing has a Folder, want nil")
		}
	})
}
