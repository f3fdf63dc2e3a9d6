package domain

import (
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEnvelope_RoundTrip(t *testing.T) {
	sentAt := time.Date(2024, 3, 13, 15, 0, 0, 0, time.UTC)

	env, err := NewEnvelope("msg-1", MessageAckReceived, "", AckReceived{MessageID: "msg-0"}, sentAt)
	require.NoError(t, err)

	raw, err := json.Marshal(env)
	require.NoError(t, err)

	decoded, err := DecodeEnvelope(raw)
	require.NoError(t, err)
	assert.Equal(t, MessageVersion, decoded.Version)
	assert.Equal(t, MessageAckReceived, decoded.Kind)

	var ack AckReceived
	require.NoError(t, decoded.DecodePayload(&ack))
	assert.Equal(t, "msg-0", ack.MessageID)
}

func TestDecodeEnvelope_Rejects(t *testing.T) {
	tests := []struct {
		name    string
		raw     string
		wantErr error
	}{
		{name: "json inválido", raw: `{`, wantErr: ErrMalformedMessageFormat},
		{name: "versão desconhecida", raw: `{"version":2,"id":"a","kind":"requestUpdate"}`, wantErr: ErrUnsupportedMsgVersion},
		{name: "sem id", raw: `{"version":1,"kind":"requestUpdate"}`, wantErr: ErrMalformedMessageFormat},
		{name: "tipo desconhecido", raw: `{"version":1,"id":"a","kind":"deleteAll"}`, wantErr: ErrUnknownMessageKind},
		{name: "snapshot sem payload", raw: `{"version":1,"id":"a","kind":"fullSnapshot"}`, wantErr: ErrMissingMessagePayload},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := DecodeEnvelope([]byte(tt.raw))
			assert.True(t, errors.Is(err, tt.wantErr), "erro %v", err)
		})
	}

	env, err := DecodeEnvelope([]byte(`{"version":1,"id":"a","kind":"requestUpdate"}`))
	require.NoError(t, err)
	var req RequestUpdate
	require.NoError(t, env.DecodePayload(&req))
	assert.False(t, req.ForceRefresh)
}

func TestNewQuickUpdate(t *testing.T) {
	generatedAt := time.Date(2024, 3, 13, 15, 0, 0, 0, time.UTC)
	today := MetricsWindow{Name: WindowToday, Start: StartOfDay(generatedAt), End: StartOfDay(generatedAt)}

	windows := map[WindowName]WindowResult{
		WindowToday: AvailableWindow(today, MetricRecord{Earnings: decimal.RequireFromString("100.00")}),
	}
	deltas := map[DeltaName]DeltaResult{
		DeltaTodayVsYesterday: Compare(decimal.RequireFromString("100.00"), decimal.RequireFromString("80.00")),
	}
	s := NewSummarySnapshot("pub-1", generatedAt, windows, deltas, PaymentsResult{})

	q := NewQuickUpdate(s)
	require.NotNil(t, q.TodayEarnings)
	require.NotNil(t, q.TodayDelta)
	assert.Equal(t, "100.00", q.TodayEarnings.StringFixed(2))
	assert.Equal(t, "25.0", q.TodayDelta.PercentageChange.StringFixed(1))

	empty := NewQuickUpdate(NewSummarySnapshot("pub-1", generatedAt, nil, nil, PaymentsResult{}))
	assert.Nil(t, empty.TodayEarnings)
	assert.Nil(t, empty.TodayDelta)
}
