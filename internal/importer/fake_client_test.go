package importer

import (
	"context"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/pintree/pintree-admin/internal/domain"
	"github.com/pintree/pintree-admin/internal/persistence"
)

// call is one request observed by fakeServer, with its maps copied at send time.
type call struct {
	op           string
	collectionID string
	folderMap    domain.FolderIDMap
	folders      domain.FolderBatch
	bookmarks    []domain.Bookmark
}

// fakeServer is a scripted in-memory persistence API. It mints ids the way
// a real server does and records every request.
type fakeServer struct {
	mu          sync.Mutex
	calls       []call
	collections int
	failures    map[int]error // 1-based call number -> error
	durations   []time.Duration
	clock       *fakeClock
	rotateIDs   bool // return a different collection id on every call
	unresolved  []string
}

func newFakeServer() *fakeServer {
	return &fakeServer{failures: map[int]error{}}
}

func (s *fakeServer) failCall(n int, status int, message string) {
	s.failures[n] = &persistence.Error{
		Op:      "scripted",
		Status:  status,
		Message: message,
		Err:     persistence.ErrServer,
	}
}

// begin records a call and returns its scripted failure, if any.
func (s *fakeServer) begin(c call) error {
	s.calls = append(s.calls, c)
	n := len(s.calls)
	if s.clock != nil && n <= len(s.durations) {
		s.clock.Advance(s.durations[n-1])
	}
	return s.failures[n]
}

func (s *fakeServer) collectionFor(current string) string {
	if current != "" && !s.rotateIDs {
		return current
	}
	s.collections++
	return fmt.Sprintf("col-%d", s.collections)
}

func (s *fakeServer) CreateFolders(_ context.Context, req *persistence.FoldersRequest) (*persistence.BatchResponse, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.begin(call{
		op:           persistence.OpCreateFolders,
		collectionID: req.CollectionID,
		folderMap:    req.FolderMap.Clone(),
		folders:      append(domain.FolderBatch(nil), req.Folders...),
	}); err != nil {
		return nil, err
	}

	out := req.FolderMap.Clone()
	for _, f := range req.Folders {
		if f.ParentID != "" {
			if _, ok := out[f.ParentID]; !ok {
				return nil, &persistence.Error{Op: persistence.OpCreateFolders, Status: http.StatusBadRequest,
					Message: "parent " + string(f.ParentID) + " not found", Err: persistence.ErrBadRequest}
			}
		}
		out[f.ID] = "srv-" + string(f.ID)
	}
	return &persistence.BatchResponse{CollectionID: s.collectionFor(req.CollectionID), FolderMap: out}, nil
}

func (s *fakeServer) CreateBookmarks(_ context.Context, req *persistence.BookmarksRequest) (*persistence.BatchResponse, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.begin(call{
		op:           persistence.OpCreateBookmarks,
		collectionID: req.CollectionID,
		folderMap:    req.FolderMap.Clone(),
		bookmarks:    append([]domain.Bookmark(nil), req.Bookmarks...),
	}); err != nil {
		return nil, err
	}

	for _, b := range req.Bookmarks {
		if b.FolderID == "" {
			continue
		}
		if _, ok := req.FolderMap[b.FolderID]; !ok {
			s.unresolved = append(s.unresolved, string(b.FolderID))
		}
	}
	return &persistence.BatchResponse{CollectionID: s.collectionFor(req.CollectionID)}, nil
}

func (s *fakeServer) ImportGeneric(_ context.Context, req *persistence.GenericImportRequest) (*persistence.BatchResponse, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.begin(call{
		op:           persistence.OpGenericImport,
		collectionID: req.CollectionID,
		folderMap:    req.FolderMap.Clone(),
		bookmarks:    append([]domain.Bookmark(nil), req.Bookmarks...),
	}); err != nil {
		return nil, err
	}

	out := req.FolderMap.Clone()
	for _, b := range req.Bookmarks {
		for _, ref := range b.FolderPath {
			if _, ok := out[domain.SourceID(ref.ID)]; !ok {
				out[domain.SourceID(ref.ID)] = "srv-" + ref.ID
			}
		}
	}
	return &persistence.BatchResponse{CollectionID: s.collectionFor(req.CollectionID), FolderMap: out}, nil
}

func (s *fakeServer) callsOf(op string) []call {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []call
	for _, c := range s.calls {
		if c.op == op {
			out = append(out, c)
		}
	}
	return out
}

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{now: time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

// recorder collects reported events.
type recorder struct {
	mu     sync.Mutex
	events []Event
}

func (r *recorder) Report(_ context.Context, ev Event) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, ev)
}

func (r *recorder) types() []EventType {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]EventType, len(r.events))
	for i, ev := range r.events {
		out[i] = ev.Type
	}
	return out
}

func (r *recorder) progress(phase Phase) []Progress {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []Progress
	for _, ev := range r.events {
		if ev.Type == EventProgress && ev.Progress.Phase == phase {
			out = append(out, *ev.Progress)
		}
	}
	return out
}
