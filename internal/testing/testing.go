// package testing contains shared testing utilities
package testing

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"sync"
	"testing"

	"github.com/desertthunder/cinx/internal/models"
	"github.com/desertthunder/cinx/internal/store"
)

// ActionRecorder is a [store.Dispatcher] and [store.Applier] that keeps every action it receives.
//
// Reject, when set, decides which actions Apply refuses; refused actions are not recorded.
type ActionRecorder struct {
	mu      sync.Mutex
	actions []store.Action
	Reject  func(store.Action) error
}

func (r *ActionRecorder) Apply(action store.Action) error {
	if r.Reject != nil {
		if err := r.Reject(action); err != nil {
			return err
		}
	}
	r.Dispatch(action)
	return nil
}

func (r *ActionRecorder) Dispatch(action store.Action) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.actions = append(r.actions, action)
}

// Actions returns a copy of the recorded actions in dispatch order
func (r *ActionRecorder) Actions() []store.Action {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]store.Action, len(r.actions))
	copy(out, r.actions)
	return out
}

// MockCatalog is a test double for [services.Catalog]
//
// Movies are served by id; Err, when set, is returned by every call.
type MockCatalog struct {
	mu       sync.Mutex
	Movies   map[int64]models.Movie
	Posters  map[string][]byte
	Results  []models.Movie
	Err      error
	Requests []string
}

func (m *MockCatalog) record(format string, args ...any) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Requests = append(m.Requests, fmt.Sprintf(format, args...))
}

// Calls returns the number of recorded requests
func (m *MockCatalog) Calls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.Requests)
}

func (m *MockCatalog) Search(ctx context.Context, query string, page int) (*models.Page, error) {
	m.record("search %s %d", query, page)
	if m.Err != nil {
		return nil, m.Err
	}
	return &models.Page{Page: page, TotalPages: 1, TotalResults: len(m.Results), Results: m.Results}, nil
}

func (m *MockCatalog) Upcoming(ctx context.Context, page int) (*models.Page, error) {
	m.record("upcoming %d", page)
	if m.Err != nil {
		return nil, m.Err
	}
	return &models.Page{Page: page, TotalPages: 1, TotalResults: len(m.Results), Results: m.Results}, nil
}

func (m *MockCatalog) Movie(ctx context.Context, id int64) (*models.Movie, error) {
	m.record("movie %d", id)
	if m.Err != nil {
		return nil, m.Err
	}
	movie, ok := m.Movies[id]
	if !ok {
		return nil, fmt.Errorf("movie %d not found", id)
	}
	return &movie, nil
}

func (m *MockCatalog) Poster(ctx context.Context, path string) ([]byte, error) {
	m.record("poster %s", path)
	if m.Err != nil {
		return nil, m.Err
	}
	poster, ok := m.Posters[path]
	if !ok {
		return nil, fmt.Errorf("poster %s not found", path)
	}
	return poster, nil
}

func (m *MockCatalog) Name() string { return "mock" }

// DelegateCall is a single display mutation seen by [RecordingDelegate]
type DelegateCall struct {
	Kind string
	From int
	To   int
}

func (c DelegateCall) String() string {
	switch c.Kind {
	case "move":
		return fmt.Sprintf("move(%d,%d)", c.From, c.To)
	case "insert", "delete", "update":
		return fmt.Sprintf("%s(%d)", c.Kind, c.From)
	default:
		return c.Kind
	}
}

// RecordingDelegate records list display callbacks in the order they arrive
type RecordingDelegate struct {
	mu    sync.Mutex
	calls []DelegateCall
}

func (d *RecordingDelegate) add(c DelegateCall) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.calls = append(d.calls, c)
}

func (d *RecordingDelegate) BeginUpdate()      { d.add(DelegateCall{Kind: "begin", From: -1, To: -1}) }
func (d *RecordingDelegate) EndUpdate()        { d.add(DelegateCall{Kind: "end", From: -1, To: -1}) }
func (d *RecordingDelegate) Insert(i int)      { d.add(DelegateCall{Kind: "insert", From: i, To: -1}) }
func (d *RecordingDelegate) Delete(i int)      { d.add(DelegateCall{Kind: "delete", From: i, To: -1}) }
func (d *RecordingDelegate) Update(i int)      { d.add(DelegateCall{Kind: "update", From: i, To: -1}) }
func (d *RecordingDelegate) Move(from, to int) { d.add(DelegateCall{Kind: "move", From: from, To: to}) }

// Calls returns the recorded callbacks formatted as "begin", "insert(2)", "move(0,3)"...
func (d *RecordingDelegate) Calls() []string {
	d.mu.Lock()
	defer d.mu.Unlock()
	out := make([]string, len(d.calls))
	for i, c := range d.calls {
		out[i] = c.String()
	}
	return out
}

// Reset clears recorded callbacks
func (d *RecordingDelegate) Reset() {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.calls = nil
}

// FWriter always returns an error on Write
type FWriter struct{}

func (f *FWriter) Write(p []byte) (n int, err error) {
	return 0, errors.New("write failed")
}

// FReader always returns an error on Read
type FReader struct{}

func (f *FReader) Read(p []byte) (n int, err error) {
	return 0, errors.New("read failed")
}

// LimitedWriter fails after a certain number of writes
type LimitedWriter struct {
	maxWrites int
	written   int
	target    io.Writer
}

func (l *LimitedWriter) Write(p []byte) (n int, err error) {
	if l.written >= l.maxWrites {
		return 0, errors.New("write limit exceeded")
	}
	l.written++
	return l.target.Write(p)
}

func NewLimitedWriter(maxWrites, written int, target io.Writer) LimitedWriter {
	return LimitedWriter{maxWrites: maxWrites, written: written, target: target}
}

// MockRoundTripper allows custom HTTP responses for testing
type MockRoundTripper struct {
	response *http.Response
	err      error
}

func NewMockRoundTripper(r *http.Response, e error) *MockRoundTripper {
	return &MockRoundTripper{response: r, err: e}
}

func (m *MockRoundTripper) RoundTrip(*http.Request) (*http.Response, error) {
	return m.response, m.err
}

// FCloser simulates a failure when reading response body
type FCloser struct{}

func (f *FCloser) Read(p []byte) (n int, err error) {
	return 0, errors.New("read failed")
}

func (f *FCloser) Close() error {
	return nil
}

func AssertFileExists(t *testing.T, path string) {
	t.Helper()
	if _, err := os.Stat(path); os.IsNotExist(err) {
		t.Errorf("File does not exist: %s", path)
	}
}

func MustReadFile(t *testing.T, path string) string {
	t.Helper()
	content, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("Failed to read file %s: %v", path, err)
	}
	return string(content)
}

func MustOpen(t *testing.T, path string) *os.File {
	t.Helper()
	f, err := os.Open(path)
	if err != nil {
		t.Fatalf("Failed to open file %s: %v", path, err)
	}
	t.Cleanup(func() { f.Close() })
	return f
}
