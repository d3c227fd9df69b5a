package platform

import (
	"errors"
	"io"
	"net/http"
	"strings"

	"github.com/storyshelf/storyshelf/internal/client/repositories/subscriptions"
	"github.com/storyshelf/storyshelf/internal/common"
	"github.com/storyshelf/storyshelf/internal/cryptox"
	"github.com/storyshelf/storyshelf/internal/dbx"
	"github.com/storyshelf/storyshelf/internal/logging"
)

// maxMessageSize bounds an encrypted push message: 4096 bytes of payload
// plus record overhead and header.
const maxMessageSize = 8 << 10

// Receiver accepts encrypted push messages addressed to the local
// subscription, decrypts them and hands the plaintext to the worker.
//
// Routes:
//
//	POST /push/{token}   aes128gcm body; 201 on delivery, 410 for unknown endpoints
type Receiver struct {
	db          dbx.Opener
	worker      Worker
	receiverURL string
	log         logging.Logger
	mux         *http.ServeMux
}

func NewReceiver(db dbx.Opener, worker Worker, receiverURL string, log logging.Logger) *Receiver {
	r := &Receiver{
		db:          db,
		worker:      worker,
		receiverURL: strings.TrimRight(receiverURL, "/"),
		log:         logging.OrNop(log).With("component", "receiver"),
		mux:         http.NewServeMux(),
	}
	r.mux.HandleFunc("POST /push/{token}", r.handlePush)
	return r
}

func (r *Receiver) ServeHTTP(w http.ResponseWriter, req *http.Request) {
	r.mux.ServeHTTP(w, req)
}

func (r *Receiver) handlePush(w http.ResponseWriter, req *http.Request) {
	ctx := req.Context()

	if !strings.EqualFold(req.Header.Get("Content-Encoding"), "aes128gcm") {
		http.Error(w, "unsupported content encoding", http.StatusUnsupportedMediaType)
		return
	}

	db, err := r.db.DB(ctx)
	if err != nil {
		r.log.Error(ctx, "receiver: database unavailable", "error", err)
		http.Error(w, "unavailable", http.StatusServiceUnavailable)
		return
	}

	endpoint := r.receiverURL + "/push/" + req.PathValue("token")
	sub, err := subscriptions.NewSQLiteRepository(db).GetByEndpoint(ctx, endpoint)
	if errors.Is(err, common.ErrorNotFound) {
		r.log.Warn(ctx, "push for unknown endpoint", "endpoint", endpoint)
		http.Error(w, "subscription gone", http.StatusGone)
		return
	}
	if err != nil {
		r.log.Error(ctx, "receiver: lookup failed", "error", err)
		http.Error(w, "unavailable", http.StatusServiceUnavailable)
		return
	}

	body, err := io.ReadAll(http.MaxBytesReader(w, req.Body, maxMessageSize))
	if err != nil {
		http.Error(w, "message too large", http.StatusRequestEntityTooLarge)
		return
	}

	priv, err := cryptox.LoadPrivateKey(sub.PrivateKey)
	if err != nil {
		r.log.Error(ctx, "receiver: stored key unusable", "error", err)
		http.Error(w, "unavailable", http.StatusServiceUnavailable)
		return
	}
	payload, err := cryptox.Decrypt(priv, sub.AuthSecret, body)
	if err != nil {
		r.log.Warn(ctx, "push message rejected", "error", err)
		http.Error(w, "bad message", http.StatusBadRequest)
		return
	}

	if err := r.worker.Push(ctx, payload); err != nil {
		r.log.Error(ctx, "worker did not accept push", "error", err)
		http.Error(w, "unavailable", http.StatusServiceUnavailable)
		return
	}

	r.log.Debug(ctx, "push delivered", "bytes", len(payload))
	w.WriteHeader(http.StatusCreated)
}
