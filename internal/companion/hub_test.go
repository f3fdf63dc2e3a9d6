package companion

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vfg2006/adsense-sync-api/internal/domain"
	"github.com/vfg2006/adsense-sync-api/internal/usecases/syncing"
)

type fakeSource struct {
	mu        sync.Mutex
	cached    *syncing.CachedSnapshot
	refreshes int
}

func (s *fakeSource) Refresh(ctx context.Context) (*domain.SummarySnapshot, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.refreshes++
	return nil, nil
}

func (s *fakeSource) Cached(ctx context.Context) (*syncing.CachedSnapshot, error) {
	return s.cached, nil
}

func (s *fakeSource) Refreshes() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.refreshes
}

func snapshotWithToday(earnings string) *domain.SummarySnapshot {
	generatedAt := time.Date(2024, 3, 13, 15, 30, 0, 0, time.UTC)
	today := domain.MetricsWindow{Name: domain.WindowToday, Start: domain.StartOfDay(generatedAt), End: domain.StartOfDay(generatedAt)}
	windows := map[domain.WindowName]domain.WindowResult{
		domain.WindowToday: domain.AvailableWindow(today, domain.MetricRecord{Earnings: decimal.RequireFromString(earnings)}),
	}
	return domain.NewSummarySnapshot("pub-1", generatedAt, windows, nil, domain.PaymentsResult{Status: domain.WindowUnavailable})
}

func startHub(t *testing.T, source Source) (*Hub, *httptest.Server) {
	t.Helper()

	ctx, cancel := context.WithCancel(context.Background())
	hub := NewHub()
	if source != nil {
		hub.WithSource(source)
	}
	go hub.Run(ctx)

	srv := httptest.NewServer(http.HandlerFunc(hub.ServeWS))
	t.Cleanup(func() {
		srv.Close()
		cancel()
	})
	return hub, srv
}

func dial(t *testing.T, srv *httptest.Server, mode Mode) *websocket.Conn {
	t.Helper()

	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "?mode=" + string(mode)
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })
	return conn
}

func readEnvelope(t *testing.T, conn *websocket.Conn) *domain.Envelope {
	t.Helper()

	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	_, data, err := conn.ReadMessage()
	require.NoError(t, err)

	env, err := domain.DecodeEnvelope(data)
	require.NoError(t, err)
	return env
}

func writeEnvelope(t *testing.T, conn *websocket.Conn, kind domain.MessageKind, id string, payload any) {
	t.Helper()

	env, err := domain.NewEnvelope(id, kind, "", payload, time.Now())
	require.NoError(t, err)
	raw, err := json.Marshal(env)
	require.NoError(t, err)
	require.NoError(t, conn.WriteMessage(websocket.TextMessage, raw))
}

func TestPublish_ByPeerMode(t *testing.T) {
	hub, srv := startHub(t, nil)

	full := dial(t, srv, ModeFull)
	quick := dial(t, srv, ModeQuick)
	require.Eventually(t, func() bool { return len(hub.Peers()) == 2 }, 2*time.Second, time.Millisecond)
	assert.True(t, hub.Reachable())

	hub.Publish(snapshotWithToday("12.34"))

	env := readEnvelope(t, full)
	assert.Equal(t, domain.MessageFullSnapshot, env.Kind)
	var snapshot domain.SummarySnapshot
	require.NoError(t, env.DecodePayload(&snapshot))
	assert.Equal(t, "pub-1", snapshot.AccountID)

	env = readEnvelope(t, quick)
	assert.Equal(t, domain.MessageQuickUpdate, env.Kind)
	var update domain.QuickUpdate
	require.NoError(t, env.DecodePayload(&update))
	require.NotNil(t, update.TodayEarnings)
	assert.Equal(t, "12.34", update.TodayEarnings.StringFixed(2))
}

func TestPublish_NoPeersIsDropped(t *testing.T) {
	hub, _ := startHub(t, nil)

	assert.False(t, hub.Reachable())
	assert.NotPanics(t, func() { hub.Publish(snapshotWithToday("1.00")) })
}

func TestRequestUpdate_RepliesWithCachedSnapshot(t *testing.T) {
	source := &fakeSource{cached: &syncing.CachedSnapshot{Snapshot: snapshotWithToday("5.00"), Stale: false}}
	_, srv := startHub(t, source)
	conn := dial(t, srv, ModeQuick)

	writeEnvelope(t, conn, domain.MessageRequestUpdate, "req-1", domain.RequestUpdate{})

	env := readEnvelope(t, conn)
	assert.Equal(t, domain.MessageQuickUpdate, env.Kind)
	assert.Equal(t, "req-1", env.ReplyTo)

	// snapshot fresco sem force_refresh não dispara ciclo
	time.Sleep(50 * time.Millisecond)
	assert.Equal(t, 0, source.Refreshes())
}

func TestRequestUpdate_StaleTriggersRefresh(t *testing.T) {
	source := &fakeSource{cached: &syncing.CachedSnapshot{Snapshot: snapshotWithToday("5.00"), Stale: true}}
	_, srv := startHub(t, source)
	conn := dial(t, srv, ModeFull)

	writeEnvelope(t, conn, domain.MessageRequestUpdate, "req-2", nil)

	env := readEnvelope(t, conn)
	assert.Equal(t, "req-2", env.ReplyTo)
	require.Eventually(t, func() bool { return source.Refreshes() == 1 }, 2*time.Second, time.Millisecond)
}

func TestRequestUpdate_ForceRefreshWithoutCache(t *testing.T) {
	source := &fakeSource{}
	_, srv := startHub(t, source)
	conn := dial(t, srv, ModeFull)

	writeEnvelope(t, conn, domain.MessageRequestUpdate, "req-3", domain.RequestUpdate{ForceRefresh: true})

	require.Eventually(t, func() bool { return source.Refreshes() == 1 }, 2*time.Second, time.Millisecond)
}

func TestAckReceived_IsRecorded(t *testing.T) {
	hub, srv := startHub(t, nil)
	conn := dial(t, srv, ModeFull)

	writeEnvelope(t, conn, domain.MessageAckReceived, "ack-1", domain.AckReceived{MessageID: "msg-9"})

	require.Eventually(t, func() bool {
		peers := hub.Peers()
		return len(peers) == 1 && peers[0].LastAck == "msg-9" && peers[0].LastAckAt != nil
	}, 2*time.Second, time.Millisecond)
}

func TestInvalidMessage_IsRejectedAndConnectionSurvives(t *testing.T) {
	source := &fakeSource{cached: &syncing.CachedSnapshot{Snapshot: snapshotWithToday("5.00")}}
	hub, srv := startHub(t, source)
	conn := dial(t, srv, ModeFull)

	require.NoError(t, conn.WriteMessage(websocket.TextMessage, []byte(`{"version":1,"id":"x","kind":"dance"}`)))
	require.NoError(t, conn.WriteMessage(websocket.TextMessage, []byte(`{"version":7,"id":"y","kind":"requestUpdate"}`)))
	require.NoError(t, conn.WriteMessage(websocket.TextMessage, []byte(`not json`)))
	writeEnvelope(t, conn, domain.MessageRequestUpdate, "req-ok", nil)

	env := readEnvelope(t, conn)
	assert.Equal(t, "req-ok", env.ReplyTo)
	assert.True(t, hub.Reachable())
}

func TestServeWS_InvalidMode(t *testing.T) {
	_, srv := startHub(t, nil)

	resp, err := http.Get(srv.URL + "?mode=tiny")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestDisconnect_UpdatesReachability(t *testing.T) {
	hub, srv := startHub(t, nil)
	conn := dial(t, srv, ModeQuick)
	require.Eventually(t, hub.Reachable, 2*time.Second, time.Millisecond)

	conn.Close()
	require.Eventually(t, func() bool { return !hub.Reachable() }, 2*time.Second, time.Millisecond)
}
