package dicom

import (
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// dicomExtensions are the extensions treated as DICOM without sniffing.
var dicomExtensions = map[string]bool{
	".dcm":   true,
	".dicom": true,
}

// skippedNames are filenames never worth sniffing.
var skippedNames = map[string]bool{
	"DICOMDIR":       true,
	".progress.json": true,
	".DS_Store":      true,
	"Thumbs.db":      true,
}

// skippedDirs are directory names pruned from the walk.
var skippedDirs = map[string]bool{
	".git":        true,
	"__pycache__": true,
	".idea":       true,
	".vscode":     true,
}

// FindFiles walks root and returns every DICOM file found, sorted. Files
// without a recognized extension are sniffed for the DICM magic bytes, so
// extension-less exports are picked up. Inability to walk the root is the
// only error; unreadable entries inside it are skipped.
func FindFiles(root string, recursive bool) ([]string, error) {
	var files []string

	walkFn := func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return nil
		}

		if info.IsDir() {
			if skippedDirs[info.Name()] {
				return filepath.SkipDir
			}
			if !recursive && path != root {
				return filepath.SkipDir
			}
			return nil
		}

		if skippedNames[info.Name()] {
			return nil
		}

		ext := strings.ToLower(filepath.Ext(path))
		if dicomExtensions[ext] || hasMagicBytes(path) {
			files = append(files, path)
		}
		return nil
	}

	if err := filepath.Walk(root, walkFn); err != nil {
		return nil, err
	}

	sort.Strings(files)
	return files, nil
}

// hasMagicBytes checks for "DICM" at byte offset 128.
func hasMagicBytes(path string) bool {
	file, err := os.Open(path)
	if err != nil {
		return false
	}
	defer file.Close()

	header := make([]byte, 132)
	if _, err := io.ReadFull(file, header); err != nil {
		return false
	}
	return string(header[128:132]) == "DICM"
}
