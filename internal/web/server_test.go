package web

import (
	"bufio"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/vadiminshakov/bondi/internal"
	"github.com/vadiminshakov/bondi/internal/analytics"
	"github.com/vadiminshakov/bondi/internal/clients"
	"github.com/vadiminshakov/bondi/internal/domain"
	"github.com/vadiminshakov/bondi/internal/events"
	"github.com/vadiminshakov/bondi/internal/services/bonding"
	"github.com/vadiminshakov/bondi/internal/services/confirm"
	"github.com/vadiminshakov/bondi/internal/services/economics"
	"github.com/vadiminshakov/bondi/internal/services/pending"
	"github.com/vadiminshakov/bondi/internal/storage/analyticsjournal"
	"github.com/vadiminshakov/bondi/internal/storage/quotes"
)

const alice = "0x1111111111111111111111111111111111111111"

type testEnv struct {
	server   *Server
	session  *internal.BondSession
	store    *quotes.Store
	registry *pending.Registry
	changes  *events.PendingBroadcaster
	journal  *analyticsjournal.WALStore
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	sim := clients.NewSimulateClient(alice, 100, 1)
	store := quotes.NewStore(domain.BondDAI)
	store.SetHead(100, 1)
	changes := events.NewPendingBroadcaster(16)
	registry := pending.NewRegistry(changes)

	journal, err := analyticsjournal.NewWALStore(t.TempDir())
	require.NoError(t, err)
	t.Cleanup(func() { _ = journal.Close() })

	dispatcher, err := bonding.NewDispatcher(zap.NewNop(), store, sim, sim, confirm.Static(true), registry,
		analytics.NewReporter(zap.NewNop(), journal))
	require.NoError(t, err)

	session, err := internal.NewBondSession(zap.NewNop(), domain.BondDAI, store, store, sim, sim, dispatcher,
		economics.NewCalculator(0), decimal.RequireFromString("0.5"), time.Hour, true)
	require.NoError(t, err)
	t.Cleanup(session.Close)

	return &testEnv{
		server:   NewServer(zap.NewNop(), ":0", registry, changes, journal, session),
		session:  session,
		store:    store,
		registry: registry,
		changes:  changes,
		journal:  journal,
	}
}

func do(t *testing.T, h http.Handler, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func TestServer_Bonds(t *testing.T) {
	env := newTestEnv(t)
	h := env.server.Handler()

	rec := do(t, h, http.MethodGet, "/bonds", "")
	require.Equal(t, http.StatusOK, rec.Code)

	var views []internal.BondView
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &views))
	require.Len(t, views, 1)
	assert.Equal(t, domain.BondDAI, views[0].Asset)

	rec = do(t, h, http.MethodGet, "/bonds/doge", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = do(t, h, http.MethodGet, "/", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "EventSource")
}

func TestServer_QuantityAndSubmit(t *testing.T) {
	env := newTestEnv(t)
	h := env.server.Handler()

	rec := do(t, h, http.MethodPost, "/bonds/dai/quantity", `{"quantity":"abc"}`)
	require.Equal(t, http.StatusOK, rec.Code)

	rec = do(t, h, http.MethodPost, "/bonds/dai/quantity", `not json`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	// approval goes through regardless of the amount
	rec = do(t, h, http.MethodPost, "/bonds/dai/submit", "")
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var resp submitResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, bonding.OutcomeSubmitted.String(), resp.Outcome)
	assert.NotEmpty(t, resp.TxHash)
	env.session.Close()

	rec = do(t, h, http.MethodPost, "/bonds/dai/submit", "")
	require.Equal(t, http.StatusUnprocessableEntity, rec.Code, rec.Body.String())
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "value must be valid", resp.Error)

	rec = do(t, h, http.MethodPost, "/bonds/dai/quantity", `{"quantity":"48"}`)
	require.Equal(t, http.StatusOK, rec.Code)
	rec = do(t, h, http.MethodPost, "/bonds/dai/submit", "")
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	records, err := env.journal.EventsAfter(0)
	require.NoError(t, err)
	var types []analytics.EventType
	for _, r := range records {
		types = append(types, r.Event.Type())
	}
	assert.Equal(t, []analytics.EventType{
		analytics.EventApprovalSubmitted,
		analytics.EventValidationFailed,
		analytics.EventBondSubmitted,
	}, types)
}

func TestServer_Recipient(t *testing.T) {
	env := newTestEnv(t)
	h := env.server.Handler()

	rec := do(t, h, http.MethodPost, "/bonds/dai/recipient", `{"recipient":"0x2222222222222222222222222222222222222222"}`)
	require.Equal(t, http.StatusOK, rec.Code)

	var v internal.BondView
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &v))
	assert.True(t, v.RecipientDiffers)
}

func TestServer_Pending(t *testing.T) {
	tests := []struct {
		name    string
		prepare func(t *testing.T, env *testEnv)
		key     domain.PendingKey
	}{
		{
			name: "approve in flight",
			key:  domain.NewPendingKey(domain.ActionApprove, domain.BondDAI),
		},
		{
			name: "bond in flight",
			prepare: func(t *testing.T, env *testEnv) {
				env.session.SetQuantity(context.Background(), "10")
				env.session.Close()
				require.NoError(t, env.store.ApplyPosition(domain.BondDAI, domain.PositionUpdate{
					Balance:   decimal.NewFromInt(1000),
					Allowance: decimal.NewFromInt(1000),
				}))
			},
			key: domain.NewPendingKey(domain.ActionBond, domain.BondDAI),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			env := newTestEnv(t)
			h := env.server.Handler()
			if tt.prepare != nil {
				tt.prepare(t, env)
			}

			env.registry.Add(tt.key)

			rec := do(t, h, http.MethodGet, "/pending", "")
			require.Equal(t, http.StatusOK, rec.Code)
			var keys []string
			require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &keys))
			assert.Equal(t, []string{tt.key.String()}, keys)

			rec = do(t, h, http.MethodPost, "/bonds/dai/submit", "")
			assert.Equal(t, http.StatusConflict, rec.Code)
			assert.True(t, env.registry.IsPending(tt.key), "the holder keeps its key")
		})
	}
}

func TestServer_PendingStream(t *testing.T) {
	env := newTestEnv(t)
	srv := httptest.NewServer(env.server.Handler())
	defer srv.Close()

	env.registry.Add(domain.NewPendingKey(domain.ActionApprove, domain.BondDAI))

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, srv.URL+"/pending/stream", nil)
	require.NoError(t, err)
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, "text/event-stream", resp.Header.Get("Content-Type"))

	lines := make(chan string, 16)
	go func() {
		sc := bufio.NewScanner(resp.Body)
		for sc.Scan() {
			if strings.HasPrefix(sc.Text(), "data: ") {
				lines <- strings.TrimPrefix(sc.Text(), "data: ")
			}
		}
		close(lines)
	}()

	next := func() events.PendingChange {
		var c events.PendingChange
		select {
		case line := <-lines:
			require.NoError(t, json.Unmarshal([]byte(line), &c))
		case <-ctx.Done():
			t.Fatal("no event")
		}
		return c
	}

	first := next()
	assert.Equal(t, "approve_dai", first.Key)
	assert.True(t, first.Pending)

	// the subscription is live once the snapshot was written
	env.registry.Remove(domain.NewPendingKey(domain.ActionApprove, domain.BondDAI))
	env.registry.Add(domain.NewPendingKey(domain.ActionBond, domain.BondDAI))

	removed := next()
	assert.Equal(t, "approve_dai", removed.Key)
	assert.False(t, removed.Pending)
	added := next()
	assert.Equal(t, "bond_dai", added.Key)
	assert.True(t, added.Pending)
}

func TestServer_StreamsUnavailable(t *testing.T) {
	s := &Server{Bonds: map[domain.BondAssetID]bondSession{}, l: zap.NewNop()}
	h := s.Handler()

	assert.Equal(t, http.StatusServiceUnavailable, do(t, h, http.MethodGet, "/pending/stream", "").Code)
	assert.Equal(t, http.StatusServiceUnavailable, do(t, h, http.MethodGet, "/analytics/stream", "").Code)

	rec := do(t, h, http.MethodGet, "/pending", "")
	assert.Equal(t, "[]\n", rec.Body.String())
}
