// Package nav locates binary navigation logs for a flight and converts
// them to the flat text format the camera generator consumes.
package nav

import (
	"bytes"
	"context"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/navcam/navcam-agent/internal/faults"
	"github.com/navcam/navcam-agent/internal/reconcile"
	"github.com/navcam/navcam-agent/internal/tools"
)

// NavExt is the extension of binary navigation logs.
const NavExt = ".out"

// TextExt is the extension of converted navigation text.
const TextExt = ".txt"

// errorMarker appears in the first line when the upstream data server
// handed back an error page instead of the binary log.
const errorMarker = "HTML"

// headProbeBytes bounds how much of a nav file is read to detect the marker.
const headProbeBytes = 1024

// Locator finds and converts navigation files.
type Locator struct {
	runner tools.Runner
	logger *slog.Logger
}

func NewLocator(runner tools.Runner, logger *slog.Logger) *Locator {
	return &Locator{runner: runner, logger: logger}
}

// Prepare finds the flight's nav files in navFolder and ensures their
// combined text conversion exists. There are normally only one or two nav
// files per flight; the parsed text path derives from the first. If the
// text file already exists non-empty, conversion is skipped entirely, so
// repeated runs do no conversion work.
func (l *Locator) Prepare(ctx context.Context, navFolder string) (string, error) {
	navFiles, err := listNavFiles(navFolder)
	if err != nil {
		return "", faults.Wrap(faults.KindFatal, "cannot list nav folder", err)
	}
	if len(navFiles) == 0 {
		return "", faults.Fatalf("no nav files in %s", navFolder)
	}

	navPath := filepath.Join(navFolder, navFiles[0])
	if !reconcile.FileIsNonZero(navPath) {
		return "", faults.Fatalf("nav file %s is invalid", navPath)
	}

	parsedPath := strings.TrimSuffix(navPath, NavExt) + TextExt
	isNonEmpty := reconcile.FileIsNonZero(parsedPath)

	if !isNonEmpty {
		l.logger.Info("creating empty parsed nav file", "path", parsedPath)
		if err := os.WriteFile(parsedPath, nil, 0644); err != nil {
			return "", faults.Wrap(faults.KindFatal, "cannot create parsed nav file", err)
		}
	}

	for _, name := range navFiles {
		path := filepath.Join(navFolder, name)

		placeholder, err := isErrorPlaceholder(path)
		if err != nil {
			return "", faults.Wrap(faults.KindFatal, "cannot read nav file", err)
		}
		if placeholder {
			// The upstream server was down and served an error page in
			// place of the binary log. Nothing downstream can proceed.
			return "", faults.Fatalf("have invalid nav file: %s", path)
		}

		if isNonEmpty {
			l.logger.Info("parsed nav already exists, skipping conversion", "path", parsedPath)
			continue
		}

		l.logger.Info("converting nav file", "nav", path, "out", parsedPath)
		if _, err := l.runner.ConvertNav(ctx, path, parsedPath); err != nil {
			return "", faults.Wrap(faults.KindFatal, "nav conversion failed", err)
		}
	}

	return parsedPath, nil
}

func listNavFiles(navFolder string) ([]string, error) {
	entries, err := os.ReadDir(navFolder)
	if err != nil {
		return nil, err
	}
	var names []string
	for _, e := range entries {
		if e.IsDir() || filepath.Ext(e.Name()) != NavExt {
			continue
		}
		names = append(names, e.Name())
	}
	// Directory order is not stable across platforms; the parsed path must be.
	sort.Strings(names)
	return names, nil
}

// isErrorPlaceholder checks whether the first line of the file carries the
// upstream error marker. Binary nav data is expected here, so only a
// bounded prefix is examined.
func isErrorPlaceholder(path string) (bool, error) {
	f, err := os.Open(path)
	if err != nil {
		return false, err
	}
	defer f.Close()

	buf := make([]byte, headProbeBytes)
	n, err := f.Read(buf)
	if err != nil && err != io.EOF {
		return false, err
	}
	head := buf[:n]
	if i := bytes.IndexByte(head, '\n'); i >= 0 {
		head = head[:i]
	}
	return bytes.Contains(head, []byte(errorMarker)), nil
}
