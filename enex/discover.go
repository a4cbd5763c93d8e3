package enex

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"evernote-drive/models"
)

const exportExt = ".enex"

// Discover expands files and directories into export files sorted by path.
// Directories are walked recursively for *.enex; explicit files must carry
// the .enex extension.
func Discover(paths []string) ([]models.ExportFile, error) {
	seen := make(map[string]bool)
	var files []models.ExportFile

	add := func(path string) {
		clean := filepath.Clean(path)
		if seen[clean] {
			return
		}
		seen[clean] = true
		files = append(files, models.ExportFile{
			Path:         clean,
			NotebookName: NotebookName(clean),
		})
	}

	for _, root := range paths {
		info, err := os.Stat(root)
		if err != nil {
			return nil, fmt.Errorf("reading input %s: %w", root, err)
		}

		if !info.IsDir() {
			if !isExport(root) {
				return nil, fmt.Errorf("%s is not an .enex export", root)
			}
			add(root)
			continue
		}

		err = filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
			if err != nil {
				return err
			}
			if d.IsDir() || !isExport(path) {
				return nil
			}
			add(path)
			return nil
		})
		if err != nil {
			return nil, fmt.Errorf("scanning %s: %w", root, err)
		}
	}

	sort.Slice(files, func(i, j int) bool { return files[i].Path < files[j].Path })
	return files, nil
}

// NotebookName derives the notebook name from an export's base name
func NotebookName(path string) string {
	base := filepath.Base(path)
	return strings.TrimSpace(strings.TrimSuffix(base, filepath.Ext(base)))
}

func isExport(path string) bool {
	return strings.EqualFold(filepath.Ext(path), exportExt)
}
