package docstore

import (
	"context"
	"testing"
)

func TestGetTree(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	// reports/
	//   annual/
	//   quarterly/
	//     archive/
	// contracts/
	reports := mustCreateFolder(t, env, testOwner, "reports", nil)
	mustCreateFolder(t, env, testOwner, "contracts", nil)
	quarterly := mustCreateFolder(t, env, testOwner, "quarterly", &reports)
	mustCreateFolder(t, env, testOwner, "annual", &reports)
	mustCreateFolder(t, env, testOwner, "archive", &quarterly)

	mustUpload(t, env, testOwner, "root-note.pdf", nil)
	mustUpload(t, env, testOwner, "q1.pdf", &quarterly)
	mustUpload(t, env, testOwner, "q2.pdf", &quarterly)

	// Another owner's data must not appear
	mustCreateFolder(t, env, otherUser, "theirs", nil)
	mustUpload(t, env, otherUser, "theirs.pdf", nil)

	tree, err := env.tree.GetTree(ctx, testOwner)
	if err != nil {
		t.Fatalf("GetTree() error = %v", err)
	}

	if len(tree.Folders) != 2 {
		t.Fatalf("len(root folders) = %d, want 2", len(tree.Folders))
	}
	if tree.Folders[0].Name != "contracts" || tree.Folders[1].Name != "reports" {
		t.Errorf("root order = [%s %s], want [contracts reports]",
			tree.Folders[0].Name, tree.Folders[1].Name)
	}

	if len(tree.Documents) != 1 || tree.Documents[0].Title != "root-note.pdf" {
		t.Errorf("root documents = %+v, want single root-note.pdf", tree.Documents)
	}

	reportsNode := tree.Folders[1]
	if len(reportsNode.Folders) != 2 {
		t.Fatalf("len(reports children) = %d, want 2", len(reportsNode.Folders))
	}
	if reportsNode.Folders[0].Name != "annual" || reportsNode.Folders[1].Name != "quarterly" {
		t.Errorf("reports children order = [%s %s], want [annual quarterly]",
			reportsNode.Folders[0].Name, reportsNode.Folders[1].Name)
	}

	quarterlyNode := reportsNode.Folders[1]
	if len(quarterlyNode.Documents) != 2 {
		t.Fatalf("len(quarterly documents) = %d, want 2", len(quarterlyNode.Documents))
	}
	if quarterlyNode.Documents[0].Title != "q1.pdf" || quarterlyNode.Documents[1].Title != "q2.pdf" {
		t.Errorf("quarterly documents = [%s %s], want [q1.pdf q2.pdf]",
			quarterlyNode.Documents[0].Title, quarterlyNode.Documents[1].Title)
	}

	// Depth annotation
	if reportsNode.Level != 0 {
		t.Errorf("reports Level = %d, want 0", reportsNode.Level)
	}
	if quarterlyNode.Level != 1 {
		t.Errorf("quarterly Level = %d, want 1", quarterlyNode.Level)
	}
	if len(quarterlyNode.Folders) != 1 || quarterlyNode.Folders[0].Level != 2 {
		t.Errorf("archive Level wrong, want 2: %+v", quarterlyNode.Folders)
	}
}

func TestGetTreeEmpty(t *testing.T) {
	env := newTestEnv(t)

	tree, err := env.tree.GetTree(context.Background(), testOwner)
	if err != nil {
		t.Fatalf("GetTree() error = %v", err)
	}
	if len(tree.Folders) != 0 || len(tree.Documents) != 0 {
		t.Errorf("tree = %+v, want empty", tree)
	}
}
