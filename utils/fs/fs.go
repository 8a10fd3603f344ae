package fs

import (
	"io/fs"
	"os"
	"path/filepath"
)

// LoadFile reads a file, returning nil on any error.
func LoadFile(filePath string) []byte {
	buf, err := os.ReadFile(filePath)
	if err != nil {
		return nil
	}
	return buf
}

// GetFilePaths walks the directory part of loadFilePattern and returns every
// file matching the name pattern, skipping excluded patterns.
func GetFilePaths(loadFilePattern string, excludedPatterns ...string) ([]string, error) {
	dir, file := filepath.Split(loadFilePattern)
	var paths []string
	err := filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() {
			matched, _ := filepath.Match(file, d.Name())
			if matched && !isMatch(d, excludedPatterns...) {
				paths = append(paths, path)
			}
		} else {
			for _, item := range excludedPatterns {
				if matched, _ := filepath.Match(item, d.Name()); matched {
					return filepath.SkipDir
				}
			}
		}
		return nil
	})
	return paths, err
}

func isMatch(d fs.DirEntry, patterns ...string) bool {
	for _, item := range patterns {
		if matched, _ := filepath.Match(item, d.Name()); matched {
			return true
		}
	}
	return false
}
