package helpers

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/xiaot623/gogo/deliveryagent/internal/delivery"
)

// RecordedRequest is one call seen by a FakeUpstream.
type RecordedRequest struct {
	Method string
	Path   string
	Query  string
	Header http.Header
	Body   map[string]any
}

// FakeUpstream is an httptest server standing in for the delivery API.
// Responses are keyed by "METHOD /path".
type FakeUpstream struct {
	Server *httptest.Server

	hits      atomic.Int32
	mu        sync.Mutex
	responses map[string]fakeResponse
	requests  []RecordedRequest
}

type fakeResponse struct {
	status int
	body   string
	delay  time.Duration
}

// NewFakeUpstream starts a fake delivery API closed on test cleanup.
// Unknown routes answer 404.
func NewFakeUpstream(t *testing.T) *FakeUpstream {
	t.Helper()
	f := &FakeUpstream{responses: make(map[string]fakeResponse)}
	f.Server = httptest.NewServer(http.HandlerFunc(f.serve))
	t.Cleanup(f.Server.Close)
	return f
}

// Respond registers a JSON body for method and path.
func (f *FakeUpstream) Respond(method, path string, status int, body string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.responses[method+" "+path] = fakeResponse{status: status, body: body}
}

// RespondSlow is Respond with a delay before the reply.
func (f *FakeUpstream) RespondSlow(method, path string, delay time.Duration) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.responses[method+" "+path] = fakeResponse{status: http.StatusOK, body: `{"code":"0"}`, delay: delay}
}

// Hits returns how many requests reached the server.
func (f *FakeUpstream) Hits() int {
	return int(f.hits.Load())
}

// Requests returns the recorded requests in arrival order.
func (f *FakeUpstream) Requests() []RecordedRequest {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]RecordedRequest(nil), f.requests...)
}

// Client returns a configured delivery client pointing at the fake.
func (f *FakeUpstream) Client(timeout time.Duration) *delivery.Client {
	return delivery.NewClient(delivery.Config{
		BaseURL:  f.Server.URL,
		ClientID: "test-client",
		SecretID: "test-secret",
		Country:  "US",
		Timeout:  timeout,
	})
}

// UnconfiguredClient returns a client pointing at the fake with no credentials.
func (f *FakeUpstream) UnconfiguredClient() *delivery.Client {
	return delivery.NewClient(delivery.Config{BaseURL: f.Server.URL})
}

func (f *FakeUpstream) serve(w http.ResponseWriter, r *http.Request) {
	f.hits.Add(1)

	rec := RecordedRequest{
		Method: r.Method,
		Path:   r.URL.Path,
		Query:  r.URL.RawQuery,
		Header: r.Header.Clone(),
	}
	if raw, _ := io.ReadAll(r.Body); len(raw) > 0 {
		_ = json.Unmarshal(raw, &rec.Body)
	}

	f.mu.Lock()
	f.requests = append(f.requests, rec)
	resp, ok := f.responses[r.Method+" "+r.URL.Path]
	f.mu.Unlock()

	if !ok {
		http.Error(w, "not found", http.StatusNotFound)
		return
	}
	if resp.delay > 0 {
		select {
		case <-time.After(resp.delay):
		case <-r.Context().Done():
			return
		}
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(resp.status)
	_, _ = w.Write([]byte(resp.body))
}
