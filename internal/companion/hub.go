package companion

import (
	"context"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	jsoniter "github.com/json-iterator/go"
	"github.com/sirupsen/logrus"
	"github.com/vfg2006/adsense-sync-api/internal/domain"
	"github.com/vfg2006/adsense-sync-api/internal/usecases/syncing"
	"github.com/vfg2006/adsense-sync-api/pkg/telemetry"
	"github.com/vfg2006/adsense-sync-api/pkg/utils"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxMessageSize = 64 * 1024
	sendBuffer     = 16
	messageIDSize  = 16
	peerIDSize     = 12
	refreshTimeout = 2 * time.Minute
)

// Mode define o formato que o companheiro quer receber
type Mode string

const (
	ModeFull  Mode = "full"
	ModeQuick Mode = "quick"
)

func ParseMode(value string) (Mode, bool) {
	switch Mode(value) {
	case "", ModeFull:
		return ModeFull, true
	case ModeQuick:
		return ModeQuick, true
	}
	return "", false
}

// Source é quem responde aos pedidos do companheiro (o coordenador de sync)
type Source interface {
	Refresh(ctx context.Context) (*domain.SummarySnapshot, error)
	Cached(ctx context.Context) (*syncing.CachedSnapshot, error)
}

// Peer é um dispositivo companheiro conectado
type Peer struct {
	ID          string
	Mode        Mode
	ConnectedAt time.Time

	conn *websocket.Conn
	send chan []byte

	mu        sync.Mutex
	lastAck   string
	lastAckAt time.Time
}

// PeerInfo é a visão de um peer exposta no status
type PeerInfo struct {
	ID          string     `json:"id"`
	Mode        Mode       `json:"mode"`
	ConnectedAt time.Time  `json:"connected_at"`
	LastAck     string     `json:"last_ack,omitempty"`
	LastAckAt   *time.Time `json:"last_ack_at,omitempty"`
}

func (p *Peer) ack(messageID string, at time.Time) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.lastAck = messageID
	p.lastAckAt = at
}

func (p *Peer) info() PeerInfo {
	p.mu.Lock()
	defer p.mu.Unlock()

	info := PeerInfo{
		ID:          p.ID,
		Mode:        p.Mode,
		ConnectedAt: p.ConnectedAt,
		LastAck:     p.lastAck,
	}
	if !p.lastAckAt.IsZero() {
		t := p.lastAckAt
		info.LastAckAt = &t
	}
	return info
}

// Hub mantém os companheiros conectados e distribui os snapshots
type Hub struct {
	peers      map[*Peer]bool
	register   chan *Peer
	unregister chan *Peer
	done       chan struct{}
	source     Source
	upgrader   websocket.Upgrader
	now        func() time.Time
	mu         sync.RWMutex
}

func NewHub() *Hub {
	return &Hub{
		peers:      make(map[*Peer]bool),
		register:   make(chan *Peer),
		unregister: make(chan *Peer),
		done:       make(chan struct{}),
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			// widget e relógio não mandam Origin de navegador
			CheckOrigin: func(r *http.Request) bool { return true },
		},
		now: time.Now,
	}
}

// WithSource liga o hub ao coordenador para responder requestUpdate
func (h *Hub) WithSource(source Source) *Hub {
	h.source = source
	return h
}

// Run é o loop principal do hub. Deve rodar em uma goroutine.
func (h *Hub) Run(ctx context.Context) {
	for {
		select {
		case peer := <-h.register:
			h.mu.Lock()
			h.peers[peer] = true
			count := len(h.peers)
			h.mu.Unlock()

			telemetry.SetCompanionPeers(count)
			logrus.WithFields(logrus.Fields{
				"peer":  peer.ID,
				"mode":  peer.Mode,
				"peers": count,
			}).Info("companion: dispositivo conectado")

		case peer := <-h.unregister:
			h.mu.Lock()
			if _, ok := h.peers[peer]; ok {
				delete(h.peers, peer)
				close(peer.send)
			}
			count := len(h.peers)
			h.mu.Unlock()

			telemetry.SetCompanionPeers(count)
			logrus.WithFields(logrus.Fields{
				"peer":  peer.ID,
				"peers": count,
			}).Info("companion: dispositivo desconectado")

		case <-ctx.Done():
			h.mu.Lock()
			for peer := range h.peers {
				delete(h.peers, peer)
				close(peer.send)
			}
			h.mu.Unlock()
			close(h.done)
			telemetry.SetCompanionPeers(0)
			return
		}
	}
}

// Reachable indica se há ao menos um companheiro conectado
func (h *Hub) Reachable() bool {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.peers) > 0
}

func (h *Hub) Peers() []PeerInfo {
	h.mu.RLock()
	defer h.mu.RUnlock()

	peers := make([]PeerInfo, 0, len(h.peers))
	for peer := range h.peers {
		peers = append(peers, peer.info())
	}
	return peers
}

// Publish envia o snapshot novo a todos os companheiros no formato de cada um.
// Sem companheiros a mensagem é descartada; os leitores usam o armazenamento compartilhado.
func (h *Hub) Publish(snapshot *domain.SummarySnapshot) {
	if snapshot == nil {
		return
	}

	h.mu.RLock()
	defer h.mu.RUnlock()

	if len(h.peers) == 0 {
		logrus.Debug("companion: nenhum dispositivo conectado, push descartado")
		return
	}

	messages := make(map[Mode][]byte, 2)
	for peer := range h.peers {
		message, ok := messages[peer.Mode]
		if !ok {
			var err error
			message, err = h.encodeSnapshot(peer.Mode, "", snapshot)
			if err != nil {
				logrus.WithError(err).Error("companion: erro ao montar mensagem")
				return
			}
			messages[peer.Mode] = message
		}

		h.deliver(peer, message, kindFor(peer.Mode))
	}
}

// deliver nunca bloqueia; peer lento perde a mensagem. Chamado com h.mu em leitura.
func (h *Hub) deliver(peer *Peer, message []byte, kind domain.MessageKind) {
	select {
	case peer.send <- message:
		telemetry.ObserveCompanionMessage("out", string(kind))
	default:
		logrus.WithField("peer", peer.ID).Warn("companion: fila do dispositivo cheia, mensagem descartada")
	}
}

func (h *Hub) send(peer *Peer, message []byte, kind domain.MessageKind) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	if h.peers[peer] {
		h.deliver(peer, message, kind)
	}
}

func kindFor(mode Mode) domain.MessageKind {
	if mode == ModeQuick {
		return domain.MessageQuickUpdate
	}
	return domain.MessageFullSnapshot
}

func (h *Hub) encodeSnapshot(mode Mode, replyTo string, snapshot *domain.SummarySnapshot) ([]byte, error) {
	var payload any = snapshot
	if mode == ModeQuick {
		payload = domain.NewQuickUpdate(snapshot)
	}
	return h.encode(kindFor(mode), replyTo, payload)
}

func (h *Hub) encode(kind domain.MessageKind, replyTo string, payload any) ([]byte, error) {
	id, err := utils.GenerateID(messageIDSize)
	if err != nil {
		return nil, err
	}

	env, err := domain.NewEnvelope(id, kind, replyTo, payload, h.now())
	if err != nil {
		return nil, err
	}

	return json.Marshal(env)
}

// handleMessage valida a mensagem recebida e executa a ação correspondente
func (h *Hub) handleMessage(peer *Peer, data []byte) {
	env, err := domain.DecodeEnvelope(data)
	if err != nil {
		telemetry.ObserveCompanionMessage("in", "invalid")
		logrus.WithFields(logrus.Fields{
			"peer":  peer.ID,
			"error": err.Error(),
		}).Warn("companion: mensagem rejeitada")
		return
	}

	telemetry.ObserveCompanionMessage("in", string(env.Kind))

	switch env.Kind {
	case domain.MessageRequestUpdate:
		var req domain.RequestUpdate
		if err := env.DecodePayload(&req); err != nil {
			logrus.WithField("peer", peer.ID).WithError(err).Warn("companion: requestUpdate inválido")
			return
		}
		h.answer(peer, env.ID, req)

	case domain.MessageAckReceived:
		var ack domain.AckReceived
		if err := env.DecodePayload(&ack); err != nil || ack.MessageID == "" {
			logrus.WithField("peer", peer.ID).Warn("companion: ackReceived sem message_id")
			return
		}
		peer.ack(ack.MessageID, h.now())

	default:
		logrus.WithFields(logrus.Fields{
			"peer": peer.ID,
			"kind": env.Kind,
		}).Debug("companion: mensagem ignorada")
	}
}

// answer responde com o snapshot em cache e dispara uma atualização em segundo plano se necessário
func (h *Hub) answer(peer *Peer, requestID string, req domain.RequestUpdate) {
	if h.source == nil {
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), writeWait)
	cached, err := h.source.Cached(ctx)
	cancel()
	if err != nil {
		logrus.WithError(err).Error("companion: erro ao ler snapshot em cache")
	}

	if cached != nil {
		message, err := h.encodeSnapshot(peer.Mode, requestID, cached.Snapshot)
		if err != nil {
			logrus.WithError(err).Error("companion: erro ao montar resposta")
		} else {
			h.send(peer, message, kindFor(peer.Mode))
		}
	}

	if cached == nil || cached.Stale || req.ForceRefresh {
		go h.refresh()
	}
}

// refresh pede um ciclo ao coordenador; o resultado chega aos peers pelo Publish
func (h *Hub) refresh() {
	ctx, cancel := context.WithTimeout(context.Background(), refreshTimeout)
	defer cancel()

	if _, err := h.source.Refresh(ctx); err != nil {
		logrus.WithError(err).Warn("companion: atualização pedida pelo dispositivo falhou")
	}
}
