package drive

import (
	"fmt"
	"strings"
)

const (
	folderMimeType   = "application/vnd.google-apps.folder"
	documentMimeType = "application/vnd.google-apps.document"

	// rootFolderID is Drive's alias for the top of My Drive
	rootFolderID = "root"
)

var queryEscaper = strings.NewReplacer(`\`, `\\`, `'`, `\'`)

// escapeQuery quotes a value for use inside a single-quoted Drive query string
func escapeQuery(value string) string {
	return queryEscaper.Replace(value)
}

func parentOrRoot(parentID string) string {
	if parentID == "" {
		return rootFolderID
	}
	return parentID
}

// folderQuery matches non-trashed folders with exactly name under parentID
func folderQuery(name, parentID string) string {
	return fmt.Sprintf("name='%s' and mimeType='%s' and trashed=false and '%s' in parents",
		escapeQuery(name), folderMimeType, escapeQuery(parentOrRoot(parentID)))
}
