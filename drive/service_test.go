package drive

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"evernote-drive/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/api/option"
)

type recordedRequest struct {
	Method string
	Path   string
	Query  string
	Upload string
	Body   string
}

// fakeDrive serves the small part of the Drive v3 API the service uses
type fakeDrive struct {
	mu       sync.Mutex
	requests []recordedRequest
	listed   []map[string]string
	status   int
}

func (f *fakeDrive) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	body, _ := io.ReadAll(r.Body)

	f.mu.Lock()
	f.requests = append(f.requests, recordedRequest{
		Method: r.Method,
		Path:   r.URL.Path,
		Query:  r.URL.Query().Get("q"),
		Upload: r.URL.Query().Get("uploadType"),
		Body:   string(body),
	})
	status := f.status
	listed := f.listed
	f.mu.Unlock()

	if status != 0 {
		w.WriteHeader(status)
		json.NewEncoder(w).Encode(map[string]any{
			"error": map[string]any{"code": status, "message": "injected failure"},
		})
		return
	}

	w.Header().Set("Content-Type", "application/json")
	switch {
	case r.Method == http.MethodGet && strings.HasSuffix(r.URL.Path, "/files"):
		json.NewEncoder(w).Encode(map[string]any{"files": listed})
	case r.Method == http.MethodPost && strings.HasSuffix(r.URL.Path, "/files"):
		json.NewEncoder(w).Encode(map[string]any{"id": "created-1", "name": "x"})
	default:
		w.WriteHeader(http.StatusNotFound)
	}
}

func (f *fakeDrive) last() recordedRequest {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.requests[len(f.requests)-1]
}

func newTestService(t *testing.T, fake *fakeDrive) *Service {
	t.Helper()
	ts := httptest.NewServer(fake)
	t.Cleanup(ts.Close)

	client, err := NewClient(context.Background(), ts.Client(), option.WithEndpoint(ts.URL+"/"))
	require.NoError(t, err)
	return NewServiceFromClient(client)
}

func TestService_FindFolder(t *testing.T) {
	fake := &fakeDrive{listed: []map[string]string{
		{"id": "wrong-case", "name": "personal"},
		{"id": "folder-1", "name": "Personal"},
	}}
	svc := newTestService(t, fake)

	id, found, err := svc.FindFolder(context.Background(), "Personal", "parent-9")
	require.NoError(t, err)
	assert.True(t, found)
	assert.Equal(t, "folder-1", id)

	req := fake.last()
	assert.Equal(t, http.MethodGet, req.Method)
	assert.Equal(t, folderQuery("Personal", "parent-9"), req.Query)
}

func TestService_FindFolder_NotFound(t *testing.T) {
	svc := newTestService(t, &fakeDrive{})

	id, found, err := svc.FindFolder(context.Background(), "Personal", "")
	require.NoError(t, err)
	assert.False(t, found)
	assert.Empty(t, id)
}

func TestService_CreateFolder(t *testing.T) {
	fake := &fakeDrive{}
	svc := newTestService(t, fake)

	id, err := svc.CreateFolder(context.Background(), "Personal", "")
	require.NoError(t, err)
	assert.Equal(t, "created-1", id)

	req := fake.last()
	assert.Equal(t, http.MethodPost, req.Method)
	assert.Contains(t, req.Body, `"mimeType":"application/vnd.google-apps.folder"`)
	assert.Contains(t, req.Body, `"parents":["root"]`)
}

func TestService_CreateDocument(t *testing.T) {
	fake := &fakeDrive{}
	svc := newTestService(t, fake)

	id, err := svc.CreateDocument(context.Background(), models.Document{
		Title:     "Groceries",
		Content:   "<div>milk</div>",
		ParentID:  "folder-1",
		CreatedAt: time.Date(2020, 1, 2, 3, 4, 5, 0, time.UTC),
		Tags:      []string{"home", "food"},
	})
	require.NoError(t, err)
	assert.Equal(t, "created-1", id)

	req := fake.last()
	assert.Equal(t, "multipart", req.Upload)
	assert.Contains(t, req.Path, "upload")
	assert.Contains(t, req.Body, `"mimeType":"application/vnd.google-apps.document"`)
	assert.Contains(t, req.Body, `"name":"Groceries"`)
	assert.Contains(t, req.Body, `"createdTime":"2020-01-02T03:04:05Z"`)
	assert.Contains(t, req.Body, `"description":"Tags: home, food"`)
	assert.Contains(t, req.Body, "<div>milk</div>")
	assert.Contains(t, req.Body, "text/html")
}

func TestService_CreateFile(t *testing.T) {
	fake := &fakeDrive{}
	svc := newTestService(t, fake)

	id, err := svc.CreateFile(context.Background(), models.Attachment{
		Name:     "scan.txt",
		Mime:     "text/plain",
		ParentID: "folder-1",
		Data:     []byte("scanned text"),
	})
	require.NoError(t, err)
	assert.Equal(t, "created-1", id)
	assert.Contains(t, fake.last().Body, "scanned text")
}

func TestService_APIError(t *testing.T) {
	svc := newTestService(t, &fakeDrive{status: http.StatusServiceUnavailable})

	_, _, err := svc.FindFolder(context.Background(), "Personal", "")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "injected failure")
}
