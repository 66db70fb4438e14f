// Package frame implements the dataset filename convention that correlates
// raw images, ortho images and camera-model files for one capture instant.
package frame

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
)

// ImageExt is the extension of raw and ortho image files.
const ImageExt = ".tif"

// CameraExt is the extension of generated camera-model files.
const CameraExt = ".tsai"

// derivedMarkers flag downsampled or grayscale variants produced alongside
// the real images. They carry valid frame numbers but are never candidates.
var derivedMarkers = []string{"gray", "sub"}

// Number extracts the frame number from an image filename. The convention
// is fixed across the dataset: with the extension stripped, the last
// all-digit underscore-delimited token of the base name is the frame number
// (e.g. DMS_ortho_00123.tif -> 123). A filename that yields no such token
// is a convention violation and must be fixed upstream.
func Number(filename string) (int, error) {
	base := filepath.Base(filename)
	stem := strings.TrimSuffix(base, filepath.Ext(base))

	tokens := strings.Split(stem, "_")
	for i := len(tokens) - 1; i >= 0; i-- {
		if !isDigits(tokens[i]) {
			continue
		}
		n, err := strconv.Atoi(tokens[i])
		if err != nil {
			return 0, fmt.Errorf("cannot parse frame number in %q: %w", filename, err)
		}
		return n, nil
	}
	return 0, fmt.Errorf("no frame number in filename %q", filename)
}

// IsDerived reports whether name refers to a derived image variant
// (grayscale or subsampled) rather than an original product.
func IsDerived(name string) bool {
	for _, marker := range derivedMarkers {
		if strings.Contains(name, marker) {
			return true
		}
	}
	return false
}

// CameraFileName derives the desired camera-model filename for a raw image
// by swapping the image extension for the camera-model extension.
func CameraFileName(imageName string) string {
	return strings.TrimSuffix(imageName, ImageExt) + CameraExt
}

// ListTifs returns the names of all image files directly inside dir,
// excluding derived variants. Order is whatever the filesystem yields;
// callers that need determinism must sort by frame number themselves.
func ListTifs(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, err
	}

	var names []string
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		name := e.Name()
		if filepath.Ext(name) != ImageExt {
			continue
		}
		if IsDerived(name) {
			continue
		}
		names = append(names, name)
	}
	return names, nil
}

func isDigits(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}
