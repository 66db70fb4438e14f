// Package calib locates a calibration camera file to seed the camera
// generator. The exact intrinsics do not matter here; the downstream
// ortho2pinhole step overwrites them. Only presence and basic validity
// are checked.
package calib

import (
	"bufio"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/navcam/navcam-agent/internal/faults"
	"github.com/navcam/navcam-agent/internal/frame"
)

// focalLengthMarker is the token whose presence marks a usable camera file.
const focalLengthMarker = "fu"

// Find returns the calibration camera to use. An explicit path wins
// verbatim; otherwise calFolder is scanned for the first camera file that
// contains the focal-length marker. Editor backup files (~ in the name)
// are skipped. No valid file is a fatal condition.
func Find(calFolder, explicit string) (string, error) {
	if explicit != "" {
		return explicit, nil
	}

	entries, err := os.ReadDir(calFolder)
	if err != nil {
		return "", faults.Wrap(faults.KindFatal, "cannot list calibration folder", err)
	}

	var candidates []string
	for _, e := range entries {
		name := e.Name()
		if e.IsDir() || filepath.Ext(name) != frame.CameraExt {
			continue
		}
		if strings.Contains(name, "~") {
			continue
		}
		candidates = append(candidates, name)
	}
	if len(candidates) == 0 {
		return "", faults.Fatalf("unable to find any camera files in %s", calFolder)
	}
	sort.Strings(candidates)

	for _, name := range candidates {
		path := filepath.Join(calFolder, name)
		ok, err := hasFocalLength(path)
		if err != nil {
			return "", faults.Wrap(faults.KindFatal, "cannot read camera file", err)
		}
		if ok {
			return path, nil
		}
	}
	return "", faults.Fatalf("no valid camera file in %s", calFolder)
}

func hasFocalLength(path string) (bool, error) {
	f, err := os.Open(path)
	if err != nil {
		return false, err
	}
	defer f.Close()

	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		if strings.Contains(scanner.Text(), focalLengthMarker) {
			return true, nil
		}
	}
	return false, scanner.Err()
}
