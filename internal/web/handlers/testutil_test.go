package handlers

import (
	"context"
	"encoding/json"
	"image"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/kozaktomas/attendance-cam/internal/feed"
	"github.com/kozaktomas/attendance-cam/internal/gallery"
	"github.com/kozaktomas/attendance-cam/internal/pipeline"
)

// fakeLoop is a LoopController for handler tests.
type fakeLoop struct {
	mu       sync.Mutex
	status   pipeline.Status
	feed     *feed.Feed
	stops    int
	resets   int
	resetErr error
	frame    *image.RGBA
}

func newFakeLoop() *fakeLoop {
	return &fakeLoop{
		status: pipeline.Status{RunID: "run-1", State: pipeline.StateRunning, Threshold: 0.45},
		feed:   feed.New(100, nil),
	}
}

func (f *fakeLoop) Status() pipeline.Status {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.status
}

func (f *fakeLoop) Feed() *feed.Feed { return f.feed }

func (f *fakeLoop) Stop() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.stops++
}

func (f *fakeLoop) RequestReset(ctx context.Context) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.resets++
	return f.resetErr
}

func (f *fakeLoop) LatestFrame() *image.RGBA { return f.frame }

type fakeGallery struct {
	ids []gallery.IdentitySummary
	err error
}

func (g *fakeGallery) Identities() ([]gallery.IdentitySummary, error) { return g.ids, g.err }

// parseJSONResponse parses a JSON response body into the target type
func parseJSONResponse(t *testing.T, recorder *httptest.ResponseRecorder, target any) {
	t.Helper()
	if err := json.Unmarshal(recorder.Body.Bytes(), target); err != nil {
		t.Fatalf("failed to parse JSON response: %v\nBody: %s", err, recorder.Body.String())
	}
}

// assertStatusCode checks if the response has the expected status code
func assertStatusCode(t *testing.T, recorder *httptest.ResponseRecorder, expected int) {
	t.Helper()
	if recorder.Code != expected {
		t.Errorf("expected status %d, got %d\nBody: %s", expected, recorder.Code, recorder.Body.String())
	}
}

// assertContentType checks if the response has the expected content type
func assertContentType(t *testing.T, recorder *httptest.ResponseRecorder, expected string) {
	t.Helper()
	ct := recorder.Header().Get("Content-Type")
	if ct != expected {
		t.Errorf("expected Content-Type '%s', got '%s'", expected, ct)
	}
}

// assertJSONError checks if the response is a JSON error with the expected message
func assertJSONError(t *testing.T, recorder *httptest.ResponseRecorder, expectedMessage string) {
	t.Helper()
	var result map[string]string
	if err := json.Unmarshal(recorder.Body.Bytes(), &result); err != nil {
		t.Fatalf("failed to parse error response: %v\nBody: %s", err, recorder.Body.String())
	}
	if result["error"] != expectedMessage {
		t.Errorf("expected error '%s', got '%s'", expectedMessage, result["error"])
	}
}
