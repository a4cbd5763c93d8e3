package migration

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"evernote-drive/models"
	"evernote-drive/retry"

	"github.com/stretchr/testify/require"
	"google.golang.org/api/googleapi"
)

func fastPolicy() retry.Policy {
	return retry.Policy{MaxAttempts: 3, BaseDelay: time.Millisecond, MaxDelay: 2 * time.Millisecond}
}

func unavailable() error {
	return &googleapi.Error{Code: http.StatusServiceUnavailable, Message: "backend error"}
}

func forbidden() error {
	return &googleapi.Error{Code: http.StatusForbidden, Message: "insufficient permissions"}
}

// ==================== EXPORT FIXTURES ====================

func note(title, body string) string {
	return fmt.Sprintf("<note><title>%s</title><content><![CDATA[<en-note>%s</en-note>]]></content></note>\n", title, body)
}

func untitledNote(body string) string {
	return fmt.Sprintf("<note><content><![CDATA[<en-note>%s</en-note>]]></content></note>\n", body)
}

func brokenNote(title string) string {
	return fmt.Sprintf("<note><title>%s</title><content><![CDATA[<en-note><div>open</en-note>]]></content></note>\n", title)
}

func writeExport(t *testing.T, dir, name string, notes ...string) models.ExportFile {
	t.Helper()
	path := filepath.Join(dir, name)
	doc := `<?xml version="1.0" encoding="UTF-8"?>` + "\n<en-export>\n" + strings.Join(notes, "") + "</en-export>\n"
	require.NoError(t, os.WriteFile(path, []byte(doc), 0o644))
	return models.ExportFile{Path: path, NotebookName: strings.TrimSuffix(name, filepath.Ext(name))}
}

func writeFile(t *testing.T, dir, name, content string) models.ExportFile {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return models.ExportFile{Path: path, NotebookName: strings.TrimSuffix(name, filepath.Ext(name))}
}

// ==================== FAKE STORE ====================

type fakeFolder struct {
	id, name, parent string
}

// fakeStore is an in-memory remote store with per-call failure injection
type fakeStore struct {
	mu      sync.Mutex
	folders []fakeFolder
	docs    []models.Document
	files   []models.Attachment
	calls   map[string]int
	nextID  int

	// findErr, createFolderErr, createDocErr and createFileErr return the
	// error for the n-th (1-based) call of that operation, or nil
	findErr         func(name string, n int) error
	createFolderErr func(name string, n int) (created bool, err error)
	createDocErr    func(doc models.Document, n int) error
	createFileErr   func(att models.Attachment, n int) error
	afterDoc        func(doc models.Document)
	// beforeFind runs outside the store lock, so it may block one lookup
	beforeFind func(name string)
}

func newFakeStore() *fakeStore {
	return &fakeStore{calls: make(map[string]int)}
}

func (s *fakeStore) id(prefix string) string {
	s.nextID++
	return fmt.Sprintf("%s-%d", prefix, s.nextID)
}

func (s *fakeStore) FindFolder(_ context.Context, name, parentID string) (string, bool, error) {
	if s.beforeFind != nil {
		s.beforeFind(name)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls[OpFindFolder]++
	if s.findErr != nil {
		if err := s.findErr(name, s.calls[OpFindFolder]); err != nil {
			return "", false, err
		}
	}
	for _, f := range s.folders {
		if f.name == name && f.parent == parentID {
			return f.id, true, nil
		}
	}
	return "", false, nil
}

func (s *fakeStore) CreateFolder(_ context.Context, name, parentID string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls[OpCreateFolder]++
	if s.createFolderErr != nil {
		created, err := s.createFolderErr(name, s.calls[OpCreateFolder])
		if err != nil {
			if created {
				s.folders = append(s.folders, fakeFolder{id: s.id("folder"), name: name, parent: parentID})
			}
			return "", err
		}
	}
	id := s.id("folder")
	s.folders = append(s.folders, fakeFolder{id: id, name: name, parent: parentID})
	return id, nil
}

func (s *fakeStore) CreateDocument(_ context.Context, doc models.Document) (string, error) {
	s.mu.Lock()
	s.calls[OpCreateDocument]++
	if s.createDocErr != nil {
		if err := s.createDocErr(doc, s.calls[OpCreateDocument]); err != nil {
			s.mu.Unlock()
			return "", err
		}
	}
	s.docs = append(s.docs, doc)
	id := s.id("doc")
	after := s.afterDoc
	s.mu.Unlock()

	if after != nil {
		after(doc)
	}
	return id, nil
}

func (s *fakeStore) CreateFile(_ context.Context, att models.Attachment) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls[OpCreateFile]++
	if s.createFileErr != nil {
		if err := s.createFileErr(att, s.calls[OpCreateFile]); err != nil {
			return "", err
		}
	}
	s.files = append(s.files, att)
	return s.id("file"), nil
}

func (s *fakeStore) foldersNamed(name string) []fakeFolder {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []fakeFolder
	for _, f := range s.folders {
		if f.name == name {
			out = append(out, f)
		}
	}
	return out
}

func (s *fakeStore) docTitlesIn(folderID string) []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []string
	for _, d := range s.docs {
		if d.ParentID == folderID {
			out = append(out, d.Title)
		}
	}
	return out
}

func (s *fakeStore) count(op string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.calls[op]
}

// ==================== RECORDING HOOKS ====================

type recordedEvent struct {
	kind  string
	file  string
	title string
	err   string
}

type eventLog struct {
	mu       sync.Mutex
	events   []recordedEvent
	retries  map[string]int
	reasons  map[string]int
	uploaded int
	failed   int
}

func newEventLog() *eventLog {
	return &eventLog{retries: make(map[string]int), reasons: make(map[string]int)}
}

func (l *eventLog) add(e recordedEvent) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.events = append(l.events, e)
}

func (l *eventLog) NoteUploaded(_ context.Context, file models.ExportFile, title, _ string) {
	l.add(recordedEvent{kind: "uploaded", file: file.NotebookName, title: title})
}

func (l *eventLog) NoteFailed(_ context.Context, file models.ExportFile, title string, err error) {
	l.add(recordedEvent{kind: "note_failed", file: file.NotebookName, title: title, err: err.Error()})
}

func (l *eventLog) FileFailed(_ context.Context, file models.ExportFile, err error) {
	l.add(recordedEvent{kind: "file_failed", file: file.NotebookName, err: err.Error()})
}

func (l *eventLog) EntrySkipped(_ context.Context, file models.ExportFile, _ int, title string, err error) {
	l.add(recordedEvent{kind: "skipped", file: file.NotebookName, title: title, err: err.Error()})
}

func (l *eventLog) AttachmentHandled(_ context.Context, file models.ExportFile, noteTitle string, out models.AttachmentOutcome) {
	e := recordedEvent{kind: "attachment_uploaded", file: file.NotebookName, title: noteTitle}
	switch {
	case out.Err != nil:
		e.kind, e.err = "attachment_failed", out.Err.Error()
	case out.Reused:
		e.kind = "attachment_reused"
	}
	l.add(e)
}

func (l *eventLog) kinds() []string {
	l.mu.Lock()
	defer l.mu.Unlock()
	var out []string
	for _, e := range l.events {
		out = append(out, e.kind)
	}
	return out
}

// observerLog adapts eventLog to the Observer interface
type observerLog struct{ *eventLog }

func (o observerLog) NoteUploaded(time.Duration) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.uploaded++
}

func (o observerLog) NoteFailed(reason string) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.failed++
	o.reasons[reason]++
}

func (o observerLog) FileFailed() {}

func (o observerLog) Retried(op string) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.retries[op]++
}
