package domain

import (
	"errors"
	"fmt"
	"time"

	jsoniter "github.com/json-iterator/go"
	"github.com/shopspring/decimal"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// MessageVersion é a versão do envelope trocado com o dispositivo companheiro
const MessageVersion = 1

type MessageKind string

const (
	MessageFullSnapshot  MessageKind = "fullSnapshot"
	MessageQuickUpdate   MessageKind = "quickUpdate"
	MessageRequestUpdate MessageKind = "requestUpdate"
	MessageAckReceived   MessageKind = "ackReceived"
)

var (
	ErrUnknownMessageKind     = errors.New("unknown message kind")
	ErrUnsupportedMsgVersion  = errors.New("unsupported message version")
	ErrMissingMessagePayload  = errors.New("message payload is required")
	ErrMalformedMessageFormat = errors.New("malformed message")
)

// Envelope é a união etiquetada das mensagens do canal companheiro
type Envelope struct {
	Version int                 `json:"version"`
	ID      string              `json:"id"`
	Kind    MessageKind         `json:"kind"`
	SentAt  time.Time           `json:"sent_at"`
	ReplyTo string              `json:"reply_to,omitempty"`
	Payload jsoniter.RawMessage `json:"payload,omitempty"`
}

// QuickUpdate é a versão enxuta do snapshot para complicações do relógio
type QuickUpdate struct {
	TodayEarnings *decimal.Decimal `json:"today_earnings,omitempty"`
	TodayDelta    *DeltaResult     `json:"today_delta,omitempty"`
	GeneratedAt   time.Time        `json:"generated_at"`
}

// RequestUpdate é enviado pelo companheiro pedindo o estado atual
type RequestUpdate struct {
	ForceRefresh bool `json:"force_refresh,omitempty"`
}

// AckReceived confirma o recebimento de uma mensagem
type AckReceived struct {
	MessageID string `json:"message_id"`
}

// NewQuickUpdate extrai o ganho de hoje e a comparação com ontem
func NewQuickUpdate(s *SummarySnapshot) QuickUpdate {
	q := QuickUpdate{GeneratedAt: s.GeneratedAt}
	if today, ok := s.Window(WindowToday); ok && today.Available() {
		earnings := today.Record.Earnings
		q.TodayEarnings = &earnings
	}
	if delta, ok := s.Delta(DeltaTodayVsYesterday); ok {
		q.TodayDelta = &delta
	}
	return q
}

// NewEnvelope serializa o payload dentro de um envelope versionado
func NewEnvelope(id string, kind MessageKind, replyTo string, payload any, now time.Time) (*Envelope, error) {
	env := &Envelope{
		Version: MessageVersion,
		ID:      id,
		Kind:    kind,
		SentAt:  now,
		ReplyTo: replyTo,
	}

	if payload != nil {
		raw, err := json.Marshal(payload)
		if err != nil {
			return nil, fmt.Errorf("serializar payload %s: %w", kind, err)
		}
		env.Payload = raw
	}

	return env, nil
}

// DecodeEnvelope valida o envelope na fronteira do canal
func DecodeEnvelope(data []byte) (*Envelope, error) {
	var env Envelope
	if err := json.Unmarshal(data, &env); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedMessageFormat, err)
	}

	if env.Version != MessageVersion {
		return nil, fmt.Errorf("%w: %d", ErrUnsupportedMsgVersion, env.Version)
	}

	if env.ID == "" {
		return nil, fmt.Errorf("%w: id ausente", ErrMalformedMessageFormat)
	}

	switch env.Kind {
	case MessageFullSnapshot, MessageQuickUpdate, MessageAckReceived:
		if len(env.Payload) == 0 {
			return nil, fmt.Errorf("%w: %s", ErrMissingMessagePayload, env.Kind)
		}
	case MessageRequestUpdate:
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownMessageKind, env.Kind)
	}

	return &env, nil
}

// DecodePayload decodifica o payload do envelope em v
func (e *Envelope) DecodePayload(v any) error {
	if len(e.Payload) == 0 {
		return nil
	}
	if err := json.Unmarshal(e.Payload, v); err != nil {
		return fmt.Errorf("%w: payload %s: %v", ErrMalformedMessageFormat, e.Kind, err)
	}
	return nil
}
