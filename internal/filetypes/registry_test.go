package filetypes

import "testing"

func TestRegistryAccepts(t *testing.T) {
	r, err := NewRegistry()
	if err != nil {
		t.Fatalf("NewRegistry() error = %v", err)
	}

	tests := []struct {
		mimeType string
		want     bool
	}{
		{"application/pdf", true},
		{"APPLICATION/PDF", true},
		{"text/plain; charset=utf-8", true},
		{"  image/png  ", true},
		{"application/x-msdownload", false},
		{"", false},
	}
	for _, tt := range tests {
		t.Run(tt.mimeType, func(t *testing.T) {
			if got := r.Accepts(tt.mimeType); got != tt.want {
				t.Errorf("Accepts(%q) = %v, want %v", tt.mimeType, got, tt.want)
			}
		})
	}
}

func TestRegistryLookup(t *testing.T) {
	r, err := NewRegistry()
	if err != nil {
		t.Fatalf("NewRegistry() error = %v", err)
	}

	ft, err := r.Lookup("application/pdf")
	if err != nil {
		t.Fatalf("Lookup() error = %v", err)
	}
	if ft.DisplayName != "PDF" {
		t.Errorf("DisplayName = %q, want PDF", ft.DisplayName)
	}
	if ft.MaxBytes != 104857600 {
		t.Errorf("MaxBytes = %d, want 104857600", ft.MaxBytes)
	}
	if !ft.Previewable {
		t.Error("PDF should be previewable")
	}

	if _, err := r.Lookup("video/mp4"); err == nil {
		t.Error("Lookup(video/mp4) should fail")
	}
}

func TestRegistryByExtension(t *testing.T) {
	r, err := NewRegistry()
	if err != nil {
		t.Fatalf("NewRegistry() error = %v", err)
	}

	tests := []struct {
		ext    string
		wantID string
	}{
		{".pdf", "application/pdf"},
		{".PDF", "application/pdf"},
		{".jpg", "image/jpeg"},
		{".jpeg", "image/jpeg"},
		{".md", "text/markdown"},
	}
	for _, tt := range tests {
		t.Run(tt.ext, func(t *testing.T) {
			ft, err := r.ByExtension(tt.ext)
			if err != nil {
				t.Fatalf("ByExtension(%q) error = %v", tt.ext, err)
			}
			if ft.ID != tt.wantID {
				t.Errorf("ByExtension(%q).ID = %q, want %q", tt.ext, ft.ID, tt.wantID)
			}
		})
	}

	if _, err := r.ByExtension(".exe"); err == nil {
		t.Error("ByExtension(.exe) should fail")
	}
}

func TestRegistryListOrder(t *testing.T) {
	r, err := NewRegistry()
	if err != nil {
		t.Fatalf("NewRegistry() error = %v", err)
	}

	types := r.List()
	if len(types) == 0 {
		t.Fatal("List() returned no types")
	}
	// Catalog order is preserved; PDF is declared first
	if types[0].ID != "application/pdf" {
		t.Errorf("List()[0].ID = %q, want application/pdf", types[0].ID)
	}
	for _, ft := range types {
		if ft.ID == "" {
			t.Errorf("type %q has empty ID", ft.DisplayName)
		}
		if len(ft.Extensions) == 0 {
			t.Errorf("type %q has no extensions", ft.ID)
		}
	}
}
