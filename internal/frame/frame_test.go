package frame

import (
	"os"
	"path/filepath"
	"sort"
	"testing"
)

func TestNumber(t *testing.T) {
	tests := []struct {
		filename string
		want     int
		wantErr  bool
	}{
		{"ortho_0001.tif", 1, false},
		{"img_0002.tif", 2, false},
		{"DMS_1381721_04474_ortho.tif", 4474, false},
		{"/data/run/ortho/ortho_12345.tif", 12345, false},
		{"frame_000000.tif", 0, false},
		{"noframe.tif", 0, true},
		{"ortho_abc.tif", 0, true},
		{"", 0, true},
	}
	for _, tt := range tests {
		t.Run(tt.filename, func(t *testing.T) {
			got, err := Number(tt.filename)
			if (err != nil) != tt.wantErr {
				t.Fatalf("Number(%q) error = %v, wantErr %v", tt.filename, err, tt.wantErr)
			}
			if err == nil && got != tt.want {
				t.Errorf("Number(%q) = %d, want %d", tt.filename, got, tt.want)
			}
		})
	}
}

func TestIsDerived(t *testing.T) {
	tests := []struct {
		name string
		want bool
	}{
		{"ortho_0001.tif", false},
		{"ortho_0001_sub.tif", true},
		{"ortho_0001_gray.tif", true},
		{"subway_0001.tif", true}, // substring match, as the convention demands
	}
	for _, tt := range tests {
		if got := IsDerived(tt.name); got != tt.want {
			t.Errorf("IsDerived(%q) = %v, want %v", tt.name, got, tt.want)
		}
	}
}

func TestCameraFileName(t *testing.T) {
	if got := CameraFileName("img_0001.tif"); got != "img_0001.tsai" {
		t.Errorf("CameraFileName() = %q, want img_0001.tsai", got)
	}
}

func TestListTifs(t *testing.T) {
	dir := t.TempDir()
	files := []string{
		"ortho_0001.tif",
		"ortho_0002.tif",
		"ortho_0002_sub.tif",
		"ortho_0003_gray.tif",
		"notes.txt",
	}
	for _, f := range files {
		if err := os.WriteFile(filepath.Join(dir, f), []byte("x"), 0644); err != nil {
			t.Fatalf("write fixture: %v", err)
		}
	}
	if err := os.Mkdir(filepath.Join(dir, "nested.tif"), 0755); err != nil {
		t.Fatalf("mkdir fixture: %v", err)
	}

	got, err := ListTifs(dir)
	if err != nil {
		t.Fatalf("ListTifs() error = %v", err)
	}
	sort.Strings(got)

	want := []string{"ortho_0001.tif", "ortho_0002.tif"}
	if len(got) != len(want) {
		t.Fatalf("ListTifs() = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("ListTifs()[%d] = %q, want %q", i, got[i], want[i])
		}
	}
}

func TestListTifs_MissingDir(t *testing.T) {
	if _, err := ListTifs(filepath.Join(t.TempDir(), "absent")); err == nil {
		t.Error("ListTifs() on a missing directory should fail")
	}
}
