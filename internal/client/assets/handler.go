package assets

import (
	"io"
	"net/http"
	"strings"

	"github.com/storyshelf/storyshelf/internal/logging"
)

var hopHeaders = []string{
	"Connection", "Keep-Alive", "Proxy-Authenticate", "Proxy-Authorization",
	"Te", "Trailer", "Transfer-Encoding", "Upgrade",
}

// Handler serves the application origin through the worker: every request
// is forwarded to upstream via Worker.Fetch, so navigations survive an
// unreachable upstream.
type Handler struct {
	worker   *Worker
	upstream string
	log      logging.Logger
}

func NewHandler(w *Worker, upstream string, log logging.Logger) *Handler {
	return &Handler{
		worker:   w,
		upstream: strings.TrimRight(upstream, "/"),
		log:      logging.OrNop(log).With("component", "shell"),
	}
}

func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	out, err := http.NewRequestWithContext(ctx, r.Method, h.upstream+r.URL.RequestURI(), r.Body)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	out.Header = r.Header.Clone()
	for _, k := range hopHeaders {
		out.Header.Del(k)
	}
	out.ContentLength = r.ContentLength

	resp, err := h.worker.Fetch(ctx, out)
	if err != nil {
		h.log.Warn(ctx, "upstream unreachable", "path", r.URL.Path, "error", err)
		http.Error(w, "upstream unreachable", http.StatusBadGateway)
		return
	}
	defer resp.Body.Close()

	for k, vs := range resp.Header {
		for _, v := range vs {
			w.Header().Add(k, v)
		}
	}
	for _, k := range hopHeaders {
		w.Header().Del(k)
	}
	w.WriteHeader(resp.StatusCode)
	if _, err := io.Copy(w, resp.Body); err != nil {
		h.log.Debug(ctx, "response copy interrupted", "path", r.URL.Path, "error", err)
	}
}
