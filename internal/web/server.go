package web

import (
	"context"
	"crypto/tls"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"go.uber.org/zap"
	"golang.org/x/crypto/acme/autocert"

	"github.com/vadiminshakov/bondi/internal"
	"github.com/vadiminshakov/bondi/internal/domain"
	"github.com/vadiminshakov/bondi/internal/events"
	"github.com/vadiminshakov/bondi/internal/services/bonding"
	"github.com/vadiminshakov/bondi/internal/storage/analyticsjournal"
)

const analyticsPollInterval = 2 * time.Second

type bondSession interface {
	View() (internal.BondView, error)
	SetQuantity(ctx context.Context, raw string)
	SetRecipient(address string)
	SetMax(ctx context.Context) error
	Click(ctx context.Context) (bonding.Result, error)
}

type pendingReader interface {
	Keys() []domain.PendingKey
}

type analyticsReader interface {
	EventsAfter(index uint64) ([]analyticsjournal.Record, error)
}

// Server exposes the bond views as JSON plus SSE streams of pending
// transactions and analytics events.
type Server struct {
	Addr      string
	Bonds     map[domain.BondAssetID]bondSession
	Order     []domain.BondAssetID
	Pending   pendingReader
	Changes   *events.PendingBroadcaster
	Analytics analyticsReader
	l         *zap.Logger
}

// NewServer creates a new web server instance. changes and journal may be nil.
func NewServer(l *zap.Logger, addr string, registry pendingReader, changes *events.PendingBroadcaster,
	journal analyticsReader, sessions ...*internal.BondSession) *Server {
	s := &Server{
		Addr:      addr,
		Bonds:     make(map[domain.BondAssetID]bondSession, len(sessions)),
		Pending:   registry,
		Changes:   changes,
		Analytics: journal,
		l:         l,
	}
	for _, session := range sessions {
		s.Bonds[session.Asset] = session
		s.Order = append(s.Order, session.Asset)
	}
	return s
}

// Handler returns the routes of the server.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /{$}", s.handleIndex)
	mux.HandleFunc("GET /bonds", s.handleBonds)
	mux.HandleFunc("GET /bonds/{asset}", s.handleBond)
	mux.HandleFunc("POST /bonds/{asset}/quantity", s.handleQuantity)
	mux.HandleFunc("POST /bonds/{asset}/recipient", s.handleRecipient)
	mux.HandleFunc("POST /bonds/{asset}/max", s.handleMax)
	mux.HandleFunc("POST /bonds/{asset}/submit", s.handleSubmit)
	mux.HandleFunc("GET /pending", s.handlePending)
	mux.HandleFunc("GET /pending/stream", s.handlePendingStream)
	mux.HandleFunc("GET /analytics/stream", s.handleAnalyticsStream)
	return mux
}

// Start runs the HTTP server (blocking) and shuts it down when ctx is cancelled.
func (s *Server) Start(ctx context.Context) error {
	server := &http.Server{
		Addr:              s.Addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = server.Shutdown(shutdownCtx)
	}()

	s.l.Info("web server listening", zap.String("addr", s.Addr))
	if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// StartWithAutoTLS serves HTTPS with ACME certificates for domains. A plain
// HTTP listener on :80 answers the HTTP-01 challenges.
func (s *Server) StartWithAutoTLS(ctx context.Context, domains []string, cacheDir string) error {
	if len(domains) == 0 {
		return fmt.Errorf("no domains provided for automatic TLS")
	}
	if cacheDir == "" {
		cacheDir = "cert-cache"
	}

	manager := &autocert.Manager{
		Prompt:     autocert.AcceptTOS,
		HostPolicy: autocert.HostWhitelist(domains...),
		Cache:      autocert.DirCache(cacheDir),
	}

	httpSrv := &http.Server{
		Addr:              ":80",
		Handler:           manager.HTTPHandler(nil),
		ReadHeaderTimeout: 5 * time.Second,
	}

	tlsConfig := manager.TLSConfig()
	tlsConfig.MinVersion = tls.VersionTLS12
	httpsSrv := &http.Server{
		Addr:              s.Addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 5 * time.Second,
		TLSConfig:         tlsConfig,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = httpSrv.Shutdown(shutdownCtx)
		_ = httpsSrv.Shutdown(shutdownCtx)
	}()

	go func() {
		if err := httpSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.l.Error("acme challenge server", zap.Error(err))
		}
	}()

	s.l.Info("web server listening with tls", zap.String("addr", s.Addr), zap.Strings("domains", domains))
	if err := httpsSrv.ListenAndServeTLS("", ""); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

type submitResponse struct {
	Outcome string `json:"outcome"`
	TxHash  string `json:"tx_hash,omitempty"`
	Error   string `json:"error,omitempty"`
}

func (s *Server) handleIndex(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	fmt.Fprint(w, indexHTML)
}

func (s *Server) handleBonds(w http.ResponseWriter, _ *http.Request) {
	views := make([]internal.BondView, 0, len(s.Order))
	for _, asset := range s.Order {
		v, err := s.Bonds[asset].View()
		if err != nil {
			s.fail(w, http.StatusInternalServerError, err)
			return
		}
		views = append(views, v)
	}
	s.writeJSON(w, http.StatusOK, views)
}

func (s *Server) handleBond(w http.ResponseWriter, r *http.Request) {
	b, ok := s.bond(w, r)
	if !ok {
		return
	}
	s.writeView(w, b)
}

func (s *Server) handleQuantity(w http.ResponseWriter, r *http.Request) {
	b, ok := s.bond(w, r)
	if !ok {
		return
	}

	var body struct {
		Quantity string `json:"quantity"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		s.fail(w, http.StatusBadRequest, err)
		return
	}

	// requotes run past the request
	b.SetQuantity(context.WithoutCancel(r.Context()), body.Quantity)
	s.writeView(w, b)
}

func (s *Server) handleRecipient(w http.ResponseWriter, r *http.Request) {
	b, ok := s.bond(w, r)
	if !ok {
		return
	}

	var body struct {
		Recipient string `json:"recipient"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		s.fail(w, http.StatusBadRequest, err)
		return
	}

	b.SetRecipient(body.Recipient)
	s.writeView(w, b)
}

func (s *Server) handleMax(w http.ResponseWriter, r *http.Request) {
	b, ok := s.bond(w, r)
	if !ok {
		return
	}
	if err := b.SetMax(context.WithoutCancel(r.Context())); err != nil {
		s.fail(w, http.StatusInternalServerError, err)
		return
	}
	s.writeView(w, b)
}

func (s *Server) handleSubmit(w http.ResponseWriter, r *http.Request) {
	b, ok := s.bond(w, r)
	if !ok {
		return
	}

	// the submission outlives a dropped client
	res, err := b.Click(context.WithoutCancel(r.Context()))
	resp := submitResponse{Outcome: res.Outcome.String(), TxHash: res.Receipt.TxHash}
	status := http.StatusOK
	switch res.Outcome {
	case bonding.OutcomeInvalid:
		status = http.StatusUnprocessableEntity
	case bonding.OutcomeAlreadyPending:
		status = http.StatusConflict
	case bonding.OutcomeFailed:
		status = http.StatusBadGateway
	}
	if err != nil {
		resp.Error = err.Error()
	}

	s.writeJSON(w, status, resp)
}

func (s *Server) handlePending(w http.ResponseWriter, _ *http.Request) {
	keys := make([]string, 0)
	if s.Pending != nil {
		for _, k := range s.Pending.Keys() {
			keys = append(keys, k.String())
		}
	}
	s.writeJSON(w, http.StatusOK, keys)
}

func (s *Server) handlePendingStream(w http.ResponseWriter, r *http.Request) {
	if s.Changes == nil {
		w.WriteHeader(http.StatusServiceUnavailable)
		fmt.Fprint(w, "pending feed not available")
		return
	}
	flusher, ok := startStream(w)
	if !ok {
		return
	}

	ch := s.Changes.Subscribe()
	defer s.Changes.Unsubscribe(ch)

	// send a comment heartbeat every 30s so proxies keep connection
	heartbeat := time.NewTicker(30 * time.Second)
	defer heartbeat.Stop()

	// current state first, then deltas
	if s.Pending != nil {
		for _, k := range s.Pending.Keys() {
			if err := writeEvent(w, "pending", events.PendingChange{Timestamp: time.Now(), Key: k.String(), Pending: true}); err != nil {
				s.l.Warn("pending stream write", zap.Error(err))
				return
			}
		}
		flusher.Flush()
	}

	for {
		select {
		case <-r.Context().Done():
			return
		case <-heartbeat.C:
			fmt.Fprint(w, ": ping\n\n")
			flusher.Flush()
		case change, ok := <-ch:
			if !ok {
				return
			}
			if err := writeEvent(w, "pending", change); err != nil {
				s.l.Warn("pending stream write", zap.Error(err))
				return
			}
			flusher.Flush()
		}
	}
}

type analyticsPayload struct {
	Index uint64      `json:"index"`
	Type  string      `json:"type"`
	Event interface{} `json:"event"`
}

func (s *Server) handleAnalyticsStream(w http.ResponseWriter, r *http.Request) {
	if s.Analytics == nil {
		w.WriteHeader(http.StatusServiceUnavailable)
		fmt.Fprint(w, "analytics journal not available")
		return
	}
	flusher, ok := startStream(w)
	if !ok {
		return
	}

	heartbeat := time.NewTicker(30 * time.Second)
	defer heartbeat.Stop()

	pollTicker := time.NewTicker(analyticsPollInterval)
	defer pollTicker.Stop()

	lastIndex := uint64(0)
	sendEvents := func() error {
		records, err := s.Analytics.EventsAfter(lastIndex)
		if err != nil {
			return err
		}
		for _, record := range records {
			payload := analyticsPayload{Index: record.Index, Type: string(record.Event.Type()), Event: record.Event}
			if err := writeEvent(w, "analytics", payload); err != nil {
				return err
			}
			lastIndex = record.Index
		}
		flusher.Flush()
		return nil
	}

	if err := sendEvents(); err != nil {
		s.l.Error("analytics stream initial load", zap.Error(err))
		return
	}

	for {
		select {
		case <-r.Context().Done():
			return
		case <-heartbeat.C:
			fmt.Fprint(w, ": ping\n\n")
			flusher.Flush()
		case <-pollTicker.C:
			if err := sendEvents(); err != nil {
				s.l.Error("analytics stream update", zap.Error(err))
				return
			}
		}
	}
}

func (s *Server) bond(w http.ResponseWriter, r *http.Request) (bondSession, bool) {
	asset := domain.BondAssetID(r.PathValue("asset"))
	b, ok := s.Bonds[asset]
	if !ok {
		s.fail(w, http.StatusNotFound, domain.ErrUnknownAsset)
		return nil, false
	}
	return b, true
}

func (s *Server) writeView(w http.ResponseWriter, b bondSession) {
	v, err := b.View()
	if err != nil {
		s.fail(w, http.StatusInternalServerError, err)
		return
	}
	s.writeJSON(w, http.StatusOK, v)
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.l.Warn("write response", zap.Error(err))
	}
}

func (s *Server) fail(w http.ResponseWriter, status int, err error) {
	s.writeJSON(w, status, map[string]string{"error": err.Error()})
}

func startStream(w http.ResponseWriter) (http.Flusher, bool) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "streaming unsupported", http.StatusInternalServerError)
		return nil, false
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.WriteHeader(http.StatusOK)
	flusher.Flush()
	return flusher, true
}

func writeEvent(w http.ResponseWriter, name string, v any) error {
	payload, err := json.Marshal(v)
	if err != nil {
		return err
	}
	_, err = fmt.Fprintf(w, "event: %s\ndata: %s\n\n", name, payload)
	return err
}

const indexHTML = `<!doctype html>
<html>
<head>
<meta charset="utf-8">
<title>bondi</title>
<style>
body{font-family:system-ui,sans-serif;background:#111;color:#ddd;margin:2rem}
table{border-collapse:collapse}td,th{padding:.3rem .8rem;border-bottom:1px solid #333;text-align:right}
th:first-child,td:first-child{text-align:left}.pending{color:#ff5f87}
</style>
</head>
<body>
<h1>Bonds</h1>
<table id="bonds"><thead><tr><th>bond</th><th>discount</th><th>debt ratio</th><th>vesting</th><th>balance</th><th>action</th></tr></thead><tbody></tbody></table>
<h2>Pending</h2>
<ul id="pending"></ul>
<script>
const pending = new Set();
async function loadBonds(){
  const res = await fetch('/bonds');
  const bonds = await res.json();
  const body = document.querySelector('#bonds tbody');
  body.innerHTML = '';
  for (const b of bonds){
    const tr = document.createElement('tr');
    for (const v of [b.asset, b.discount_percent+'%', b.debt_ratio+'%', b.vesting_term, b.balance+' '+b.units, b.button_label]){
      const td = document.createElement('td'); td.textContent = v; tr.appendChild(td);
    }
    if (b.button_disabled) tr.className = 'pending';
    body.appendChild(tr);
  }
}
function renderPending(){
  const ul = document.getElementById('pending');
  ul.innerHTML = '';
  for (const k of pending){ const li = document.createElement('li'); li.textContent = k; ul.appendChild(li); }
}
const es = new EventSource('/pending/stream');
es.addEventListener('pending', e => {
  const c = JSON.parse(e.data);
  if (c.pending) pending.add(c.key); else pending.delete(c.key);
  renderPending();
  loadBonds();
});
loadBonds();
setInterval(loadBonds, 5000);
</script>
</body>
</html>`
