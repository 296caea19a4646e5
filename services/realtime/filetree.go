package realtime

import "sync"

// FileRecord is the stored state of one file. The display language is
// derived from the path by the presentation layer and is not stored here.
type FileRecord struct {
	Content string `json:"content"`
}

type projectTree struct {
	mu    sync.RWMutex
	files map[string]FileRecord
}

// FileTreeStore holds the authoritative in-memory file content per
// project, synchronized via event channel deltas. Writes are last-write-
// wins per path, applied in channel-arrival order.
type FileTreeStore struct {
	mu    sync.RWMutex
	trees map[int]*projectTree
}

func NewFileTreeStore() *FileTreeStore {
	return &FileTreeStore{
		trees: make(map[int]*projectTree),
	}
}

func (s *FileTreeStore) tree(projectID int) *projectTree {
	s.mu.RLock()
	t := s.trees[projectID]
	s.mu.RUnlock()
	if t != nil {
		return t
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if t = s.trees[projectID]; t == nil {
		t = &projectTree{files: make(map[string]FileRecord)}
		s.trees[projectID] = t
	}
	return t
}

// ApplyDelta overwrites (or creates) the record at path. It always
// succeeds; there is no conflict detection. The returned value is the
// resulting tree size, for diagnostics.
func (s *FileTreeStore) ApplyDelta(projectID int, path, content string) int {
	t := s.tree(projectID)
	t.mu.Lock()
	defer t.mu.Unlock()
	t.files[path] = FileRecord{Content: content}
	return len(t.files)
}

// Snapshot returns a copy of the project's current file mapping.
func (s *FileTreeStore) Snapshot(projectID int) map[string]FileRecord {
	t := s.tree(projectID)
	t.mu.RLock()
	defer t.mu.RUnlock()
	snapshot := make(map[string]FileRecord, len(t.files))
	for path, record := range t.files {
		snapshot[path] = record
	}
	return snapshot
}

// Forget drops the project's tree, e.g. after project deletion.
func (s *FileTreeStore) Forget(projectID int) {
	s.mu.Lock()
	delete(s.trees, projectID)
	s.mu.Unlock()
}
