package testutil

import (
	"context"
	"net/http"
	"strings"
	"sync"

	"github.com/wayfarer-travel/wayfarer/internal/httpclient"
)

// MockHTTPClient implements a mock HTTP client for testing
type MockHTTPClient struct {
	mu     sync.RWMutex
	routes map[string]MockResponse
	calls  map[string]int
}

// MockResponse represents a mock HTTP response
type MockResponse struct {
	StatusCode int
	Body       []byte
	Headers    map[string]string
}

// NewMockHTTPClient creates a new mock HTTP client
func NewMockHTTPClient() *MockHTTPClient {
	return &MockHTTPClient{
		routes: make(map[string]MockResponse),
		calls:  make(map[string]int),
	}
}

// RegisterResponse registers a mock response for requests whose URL
// contains the given fragment
func (m *MockHTTPClient) RegisterResponse(urlFragment string, resp MockResponse) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.routes[urlFragment] = resp
}

// CallCount returns how many requests matched the given URL fragment
func (m *MockHTTPClient) CallCount(urlFragment string) int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.calls[urlFragment]
}

// Send implements the httpclient.Client interface
func (m *MockHTTPClient) Send(_ context.Context, req *httpclient.Request) (*httpclient.Response, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	for fragment, resp := range m.routes {
		if strings.Contains(req.URL, fragment) {
			m.calls[fragment]++
			if resp.StatusCode >= http.StatusBadRequest {
				return nil, httpclient.NewError(resp.StatusCode, resp.Body)
			}
			return &httpclient.Response{
				StatusCode: resp.StatusCode,
				Body:       resp.Body,
				Headers:    resp.Headers,
			}, nil
		}
	}

	return nil, httpclient.NewError(http.StatusNotFound, []byte(`{"message":"no route registered"}`))
}
