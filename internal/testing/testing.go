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
	"time"

	"github.com/akhilbawari/taskpal/internal/models"
	"github.com/akhilbawari/taskpal/internal/services"
	"github.com/akhilbawari/taskpal/internal/shared"
)

// MockCalendar is a test double for [services.Calendar] that records calls
// and fails on command.
type MockCalendar struct {
	mu sync.Mutex

	CreateErr error
	UpdateErr error
	DeleteErr error

	// FailFor makes CreateEvent fail when the summary matches.
	FailFor map[string]error

	Created []string // summaries passed to CreateEvent
	Updated []string // event ids passed to UpdateEvent
	Deleted []string // event ids passed to DeleteEvent

	nextID int
}

func NewMockCalendar() *MockCalendar {
	return &MockCalendar{FailFor: map[string]error{}}
}

func (m *MockCalendar) CreateEvent(ctx context.Context, summary, description string, start, end time.Time) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if err, ok := m.FailFor[summary]; ok {
		return "", err
	}
	if m.CreateErr != nil {
		return "", m.CreateErr
	}

	m.Created = append(m.Created, summary)
	m.nextID++
	return fmt.Sprintf("evt-%d", m.nextID), nil
}

func (m *MockCalendar) UpdateEvent(ctx context.Context, eventID, summary, description string, start, end time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.UpdateErr != nil {
		return m.UpdateErr
	}
	m.Updated = append(m.Updated, eventID)
	return nil
}

func (m *MockCalendar) DeleteEvent(ctx context.Context, eventID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.Deleted = append(m.Deleted, eventID)
	return m.DeleteErr
}

// DeleteCount returns how many remote deletes were attempted.
func (m *MockCalendar) DeleteCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.Deleted)
}

// MockProvider is a test double for [services.CalendarProvider] that hands
// out one shared MockCalendar for every linked user.
type MockProvider struct {
	Calendar *MockCalendar
}

func NewMockProvider() *MockProvider {
	return &MockProvider{Calendar: NewMockCalendar()}
}

func (p *MockProvider) ForUser(ctx context.Context, user *models.User) (services.Calendar, error) {
	if user == nil || !user.CalendarLinked() {
		return nil, shared.ErrNotLinked
	}
	return p.Calendar, nil
}

func (p *MockProvider) AuthURL(state string) string { return "https://example.com/auth?state=" + state }
func (p *MockProvider) Name() string                { return "mock" }

// FWriter always returns an error on Write
type FWriter struct{}

func (f *FWriter) Write(p []byte) (n int, err error) {
	return 0, errors.New("write failed")
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

func MustGetwd(t *testing.T) string {
	t.Helper()
	wd, err := os.Getwd()
	if err != nil {
		t.Fatalf("Failed to get working directory: %v", err)
	}
	return wd
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

var _ io.Writer = (*FWriter)(nil)
