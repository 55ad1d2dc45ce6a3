package offline

import (
	"bytes"
	"fmt"
	"io"
	"net/http"
	"time"
)

// CachedResponse is a stored response
type CachedResponse struct {
	Status   int         `json:"status"`
	Header   http.Header `json:"header"`
	Body     []byte      `json:"body"`
	StoredAt time.Time   `json:"stored_at"`
}

// NewCachedResponse copies status and headers from resp; body must already be read
func NewCachedResponse(resp *http.Response, body []byte) *CachedResponse {
	return &CachedResponse{
		Status:   resp.StatusCode,
		Header:   resp.Header.Clone(),
		Body:     body,
		StoredAt: time.Now().UTC(),
	}
}

// Response builds a fresh *http.Response for req; each call gets its own body reader
func (e *CachedResponse) Response(req *http.Request) *http.Response {
	header := e.Header.Clone()
	if header == nil {
		header = http.Header{}
	}
	return &http.Response{
		Status:        fmt.Sprintf("%d %s", e.Status, http.StatusText(e.Status)),
		StatusCode:    e.Status,
		Proto:         "HTTP/1.1",
		ProtoMajor:    1,
		ProtoMinor:    1,
		Header:        header,
		Body:          io.NopCloser(bytes.NewReader(e.Body)),
		ContentLength: int64(len(e.Body)),
		Request:       req,
	}
}

// syntheticResponse is a response the router makes up when the network is gone
func syntheticResponse(req *http.Request, status int, contentType string, body string) *http.Response {
	e := &CachedResponse{
		Status: status,
		Header: http.Header{"Content-Type": []string{contentType}},
		Body:   []byte(body),
	}
	return e.Response(req)
}
