package helpers

import (
	"bytes"
	"fmt"
	"io/ioutil"
	"net/http"
	"sync/atomic"
)

// MockHTTP is http.RoundTripper for tests, Fun answers every request.
type MockHTTP struct {
	Fun   func(*http.Request) (*http.Response, error)
	calls int32
}

func (m *MockHTTP) RoundTrip(req *http.Request) (*http.Response, error) {
	atomic.AddInt32(&m.calls, 1)
	if m.Fun == nil {
		return MockResponse(req, http.StatusNotImplemented, nil)
	}
	return m.Fun(req)
}

// Calls returns number of round trips so far.
func (m *MockHTTP) Calls() int { return int(atomic.LoadInt32(&m.calls)) }

func MockResponse(req *http.Request, status int, body []byte) (*http.Response, error) {
	return &http.Response{
		Status:        fmt.Sprintf("%d %s", status, http.StatusText(status)),
		StatusCode:    status,
		Proto:         "HTTP/1.1",
		ProtoMajor:    1,
		ProtoMinor:    1,
		Header:        http.Header{},
		Body:          ioutil.NopCloser(bytes.NewReader(body)),
		ContentLength: int64(len(body)),
		Request:       req,
	}, nil
}
