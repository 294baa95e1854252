package s3

import (
	"strings"
	"testing"
)

func TestTmpKey(t *testing.T) {
	a := tmpKey("report.pdf")
	b := tmpKey("report.pdf")

	if a == b {
		t.Errorf("two staging keys for the same filename collide: %q", a)
	}
	for _, key := range []string{a, b} {
		if !strings.HasPrefix(key, "tmp/") {
			t.Errorf("key %q not under tmp/", key)
		}
		if !strings.HasSuffix(key, "-report.pdf") {
			t.Errorf("key %q lost the filename hint", key)
		}
	}

	if key := tmpKey("a/b.pdf"); strings.Count(key, "/") != 1 {
		t.Errorf("slash in hint leaked into key path: %q", key)
	}
}

func TestParseRange(t *testing.T) {
	const total = 100

	tests := []struct {
		name      string
		header    string
		wantStart int64
		wantEnd   int64
		wantOK    bool
	}{
		{"closed range", "bytes=0-49", 0, 49, true},
		{"single byte", "bytes=10-10", 10, 10, true},
		{"end clamped to size", "bytes=50-500", 50, 99, true},
		{"open ended", "bytes=25-", 25, 99, true},
		{"suffix", "bytes=-30", 70, 99, true},
		{"suffix longer than object", "bytes=-500", 0, 99, true},
		{"start past end of object", "bytes=100-200", 0, 0, false},
		{"open ended past end", "bytes=150-", 0, 0, false},
		{"inverted", "bytes=30-10", 0, 0, false},
		{"no prefix", "0-49", 0, 0, false},
		{"garbage", "bytes=abc-def", 0, 0, false},
		{"empty", "", 0, 0, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			start, end, ok := parseRange(tt.header, total)
			if ok != tt.wantOK {
				t.Fatalf("parseRange(%q) ok = %v, want %v", tt.header, ok, tt.wantOK)
			}
			if !ok {
				return
			}
			if start != tt.wantStart || end != tt.wantEnd {
				t.Errorf("parseRange(%q) = [%d, %d], want [%d, %d]",
					tt.header, start, end, tt.wantStart, tt.wantEnd)
			}
		})
	}
}
