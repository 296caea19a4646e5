package projects

import (
	"net/http"
	"strings"

	"github.com/devboardui/devboard/api/helpers"
	"github.com/devboardui/devboard/db"
	"github.com/devboardui/devboard/services/realtime"
)

type FileTreeController struct {
	Tree *realtime.FileTreeStore
}

type fileTreeEntry struct {
	Content  string `json:"content"`
	Language string `json:"language"`
}

// GetFileTree serves the current file tree snapshot with display language
// tags attached.
func (c *FileTreeController) GetFileTree(w http.ResponseWriter, r *http.Request) {
	project := helpers.GetFromContext(r, "project").(db.Project)

	snapshot := c.Tree.Snapshot(project.ID)
	tree := make(map[string]fileTreeEntry, len(snapshot))
	for path, record := range snapshot {
		tree[path] = fileTreeEntry{
			Content:  record.Content,
			Language: LanguageForPath(path),
		}
	}

	helpers.WriteJSON(w, http.StatusOK, map[string]any{"file_tree": tree})
}

// LanguageForPath derives the editor display language from the file
// extension. Pure function of the path; never stored.
func LanguageForPath(path string) string {
	switch {
	case strings.HasSuffix(path, ".js"), strings.HasSuffix(path, ".jsx"):
		return "javascript"
	case strings.HasSuffix(path, ".ts"):
		return "typescript"
	case strings.HasSuffix(path, ".json"):
		return "json"
	case strings.HasSuffix(path, ".html"):
		return "html"
	case strings.HasSuffix(path, ".css"):
		return "css"
	case strings.HasSuffix(path, ".py"):
		return "python"
	case strings.HasSuffix(path, ".java"):
		return "java"
	case strings.HasSuffix(path, ".md"):
		return "markdown"
	default:
		return "plaintext"
	}
}
