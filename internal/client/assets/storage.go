package assets

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
)

var (
	ErrNotCached     = errors.New("not cached")
	ErrBadGeneration = errors.New("invalid generation name")
	ErrInstallFailed = errors.New("install failed")
	ErrNotInstalled  = errors.New("generation not installed")
	ErrWorkerStopped = errors.New("worker stopped")
	ErrNotRegistered = errors.New("worker not registered")
	ErrAssetTooLarge = errors.New("asset too large")
)

// CacheHeader marks responses served from a cache generation.
const CacheHeader = "X-Storyshelf-Cache"

// Entry is one cached response, stored byte for byte.
type Entry struct {
	URL    string      `json:"url"`
	Status int         `json:"status"`
	Header http.Header `json:"header"`
	Body   []byte      `json:"-"`
}

// Response renders e as an *http.Response for req.
func (e *Entry) Response(req *http.Request) *http.Response {
	h := e.Header.Clone()
	if h == nil {
		h = http.Header{}
	}
	h.Set(CacheHeader, "hit")
	h.Set("Content-Length", strconv.Itoa(len(e.Body)))
	return &http.Response{
		Status:        fmt.Sprintf("%d %s", e.Status, http.StatusText(e.Status)),
		StatusCode:    e.Status,
		Proto:         "HTTP/1.1",
		ProtoMajor:    1,
		ProtoMinor:    1,
		Header:        h,
		Body:          io.NopCloser(bytes.NewReader(e.Body)),
		ContentLength: int64(len(e.Body)),
		Request:       req,
	}
}

// Storage holds named cache generations. Put commits a whole generation at
// once: readers see either the previous content of name or the new one.
type Storage interface {
	Names(ctx context.Context) ([]string, error)
	Has(ctx context.Context, name string) (bool, error)
	Put(ctx context.Context, name string, entries []Entry) error
	Match(ctx context.Context, name, url string) (*Entry, error)
	Delete(ctx context.Context, name string) (bool, error)
}
