package main

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"
)

// defaultOutputPath derives the sibling destination for input, e.g.
// photo.jpg becomes photo.opt.jpg.
func defaultOutputPath(input string) string {
	ext := filepath.Ext(input)
	return strings.TrimSuffix(input, ext) + ".opt.jpg"
}

// imageExtensions lists the source types a directory argument discovers.
var imageExtensions = map[string]bool{
	".jpg":  true,
	".jpeg": true,
	".png":  true,
	".gif":  true,
}

// expandInputs resolves arguments into a sorted, de-duplicated list of
// absolute file paths. Arguments containing glob metacharacters are expanded,
// directory arguments are scanned for image files, and plain paths must name
// existing files.
func expandInputs(args []string) ([]string, error) {
	seen := make(map[string]struct{})
	var inputs []string

	add := func(path string) error {
		abs, err := filepath.Abs(path)
		if err != nil {
			return fmt.Errorf("resolve path %q: %w", path, err)
		}
		if _, ok := seen[abs]; ok {
			return nil
		}
		seen[abs] = struct{}{}
		inputs = append(inputs, abs)
		return nil
	}

	for _, arg := range args {
		arg = strings.TrimSpace(arg)
		if arg == "" {
			continue
		}

		if strings.ContainsAny(arg, "*?[") {
			matches, err := filepath.Glob(arg)
			if err != nil {
				return nil, fmt.Errorf("bad pattern %q: %w", arg, err)
			}
			if len(matches) == 0 {
				return nil, fmt.Errorf("pattern %q matched no files", arg)
			}
			for _, match := range matches {
				info, err := os.Stat(match)
				if err != nil || info.IsDir() {
					continue
				}
				if err := add(match); err != nil {
					return nil, err
				}
			}
			continue
		}

		info, err := os.Stat(arg)
		if err != nil {
			return nil, fmt.Errorf("inspect %q: %w", arg, err)
		}
		if info.IsDir() {
			discovered, err := discoverImages(arg)
			if err != nil {
				return nil, err
			}
			for _, path := range discovered {
				if err := add(path); err != nil {
					return nil, err
				}
			}
			continue
		}
		if err := add(arg); err != nil {
			return nil, err
		}
	}

	sort.Strings(inputs)
	return inputs, nil
}

// discoverImages returns the image files directly inside dir. Subdirectories
// are not descended into.
func discoverImages(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("read directory %q: %w", dir, err)
	}
	var found []string
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		if imageExtensions[strings.ToLower(filepath.Ext(entry.Name()))] {
			found = append(found, filepath.Join(dir, entry.Name()))
		}
	}
	if len(found) == 0 {
		return nil, fmt.Errorf("no image files found in %s", dir)
	}
	return found, nil
}

// backupPath is where the pre-optimization copy of an overwritten file lands.
func backupPath(path string) string {
	return path + ".bak"
}

func formatAge(d time.Duration) string {
	if d < time.Hour {
		return fmt.Sprintf("%dm", int(d.Minutes()))
	}
	if d < 24*time.Hour {
		return fmt.Sprintf("%dh", int(d.Hours()))
	}
	return fmt.Sprintf("%dd", int(d.Hours()/24))
}

// shortSession abbreviates a session identifier for table display.
func shortSession(id string) string {
	if len(id) <= 8 {
		return id
	}
	return id[:8]
}
