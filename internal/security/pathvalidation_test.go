package security

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
)

func TestValidatePathWithinDirectory(t *testing.T) {
	tmpDir := t.TempDir()
	safeDir := filepath.Join(tmpDir, "safe")
	unsafeDir := filepath.Join(tmpDir, "unsafe")
	for _, d := range []string{safeDir, unsafeDir} {
		if err := os.MkdirAll(d, 0o755); err != nil {
			t.Fatalf("mkdir %s: %v", d, err)
		}
	}
	if err := os.Symlink(unsafeDir, filepath.Join(safeDir, "link")); err != nil {
		t.Fatalf("symlink: %v", err)
	}

	tests := []struct {
		name      string
		filePath  string
		wantError bool
	}{
		{"file in dir", filepath.Join(safeDir, "chart.png"), false},
		{"nested new file", filepath.Join(safeDir, "a", "b", "chart.png"), false},
		{"dot dot escape", filepath.Join(safeDir, "..", "chart.png"), true},
		{"absolute elsewhere", "/etc/passwd", true},
		{"through symlink", filepath.Join(safeDir, "link", "chart.png"), true},
		{"new file under symlink", filepath.Join(safeDir, "link", "new", "chart.png"), true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidatePathWithinDirectory(tt.filePath, safeDir)
			if (err != nil) != tt.wantError {
				t.Errorf("ValidatePathWithinDirectory(%s) error = %v, wantError %v", tt.filePath, err, tt.wantError)
			}
			if err != nil && !errors.Is(err, ErrPathEscapes) {
				t.Errorf("expected ErrPathEscapes, got %v", err)
			}
		})
	}
}

func TestValidatePathWithinAllowedDirs(t *testing.T) {
	a, b := t.TempDir(), t.TempDir()

	if err := ValidatePathWithinAllowedDirs(filepath.Join(b, "x.html"), []string{a, b}); err != nil {
		t.Errorf("expected path in second dir to pass: %v", err)
	}
	if err := ValidatePathWithinAllowedDirs("/etc/x.html", []string{a, b}); err == nil {
		t.Error("expected /etc path to fail")
	}
	if err := ValidatePathWithinAllowedDirs(filepath.Join(a, "x"), nil); err == nil {
		t.Error("expected error with no allowed dirs")
	}
}

func TestValidateExportPath(t *testing.T) {
	if err := ValidateExportPath(filepath.Join(os.TempDir(), "walls.png")); err != nil {
		t.Errorf("temp dir export rejected: %v", err)
	}
	if err := ValidateExportPath("walls.png"); err != nil {
		t.Errorf("relative export rejected: %v", err)
	}
	if err := ValidateExportPath("/etc/walls.png"); err == nil {
		t.Error("expected /etc export to be rejected")
	}
}

func TestSanitizeFilename(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"", "unknown"},
		{"walls.csv", "walls.csv"},
		{"UkWalls Data for walls matching [awe, liv]", "UkWalls_Data_for_walls_matching_awe_liv"},
		{"../../etc/passwd", "etc_passwd"},
		{"***", "unknown"},
	}
	for _, tt := range tests {
		if got := SanitizeFilename(tt.in); got != tt.want {
			t.Errorf("SanitizeFilename(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestExportFilename(t *testing.T) {
	got := ExportFilename("UkWalls Data for walls matching [awe] in last 30 days", ".png")
	want := "ukwalls_data_for_walls_matching_awe_in_last_30_days.png"
	if got != want {
		t.Errorf("ExportFilename = %q, want %q", got, want)
	}
}
