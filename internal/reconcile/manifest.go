package reconcile

import (
	"bufio"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// Row is one manifest entry: an ortho image and the camera-model filename
// the generator must produce for it.
type Row struct {
	Ortho  string
	Camera string
}

// ManifestPath returns the manifest location for one frame range. The range
// is encoded in the name so different ranges produce independent manifests.
func ManifestPath(outputFolder string, startFrame, stopFrame int) string {
	name := fmt.Sprintf("ortho_file_list_%d_%d.csv", startFrame, stopFrame)
	return filepath.Join(outputFolder, name)
}

// WriteManifest fully replaces any prior manifest content at path.
func WriteManifest(path string, rows []Row) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}

	w := bufio.NewWriter(f)
	for _, row := range rows {
		if _, err := fmt.Fprintf(w, "%s, %s\n", row.Ortho, row.Camera); err != nil {
			f.Close()
			return err
		}
	}
	if err := w.Flush(); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

// ReadManifest parses a manifest file, trimming whitespace around fields.
func ReadManifest(path string) ([]Row, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	var rows []Row
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		parts := strings.SplitN(line, ",", 2)
		if len(parts) != 2 {
			return nil, fmt.Errorf("malformed manifest line %q in %s", line, path)
		}
		rows = append(rows, Row{
			Ortho:  strings.TrimSpace(parts[0]),
			Camera: strings.TrimSpace(parts[1]),
		})
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}
	return rows, nil
}

// firstMissingCamera checks every manifest row's camera file in the output
// folder. It returns ok=true when all exist and are non-empty; otherwise
// the first missing path.
func firstMissingCamera(outputFolder string, rows []Row) (string, bool) {
	for _, row := range rows {
		camPath := filepath.Join(outputFolder, row.Camera)
		if !FileIsNonZero(camPath) {
			return camPath, false
		}
	}
	return "", true
}

// FileIsNonZero reports whether path exists and has non-zero size.
func FileIsNonZero(path string) bool {
	info, err := os.Stat(path)
	return err == nil && info.Size() > 0
}
