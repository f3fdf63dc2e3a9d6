package companion

import (
	"net/http"
	"time"

	"github.com/gorilla/websocket"
	"github.com/sirupsen/logrus"
	"github.com/vfg2006/adsense-sync-api/pkg/apiErrors"
	"github.com/vfg2006/adsense-sync-api/pkg/utils"
)

// ServeWS promove a requisição para WebSocket e registra o companheiro.
// O modo é escolhido pela query ?mode=full|quick.
func (h *Hub) ServeWS(w http.ResponseWriter, r *http.Request) {
	mode, ok := ParseMode(r.URL.Query().Get("mode"))
	if !ok {
		apiErrors.WriteError(w, apiErrors.ErrInvalidRequest, "mode deve ser full ou quick", nil)
		return
	}

	id, err := utils.GenerateID(peerIDSize)
	if err != nil {
		apiErrors.WriteError(w, apiErrors.ErrInternalServer, "Erro ao identificar dispositivo", nil)
		return
	}

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		// Upgrade já respondeu ao cliente
		logrus.WithError(err).Warn("companion: falha no upgrade")
		return
	}

	peer := &Peer{
		ID:          id,
		Mode:        mode,
		ConnectedAt: h.now(),
		conn:        conn,
		send:        make(chan []byte, sendBuffer),
	}

	select {
	case h.register <- peer:
	case <-h.done:
		conn.Close()
		return
	}

	go h.writePump(peer)
	go h.readPump(peer)
}

func (h *Hub) readPump(peer *Peer) {
	defer func() {
		select {
		case h.unregister <- peer:
		case <-h.done:
		}
		peer.conn.Close()
	}()

	peer.conn.SetReadLimit(maxMessageSize)
	peer.conn.SetReadDeadline(time.Now().Add(pongWait))
	peer.conn.SetPongHandler(func(string) error {
		return peer.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		_, data, err := peer.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				logrus.WithField("peer", peer.ID).WithError(err).Warn("companion: conexão encerrada")
			}
			return
		}
		h.handleMessage(peer, data)
	}
}

func (h *Hub) writePump(peer *Peer) {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		peer.conn.Close()
	}()

	for {
		select {
		case message, ok := <-peer.send:
			peer.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				peer.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := peer.conn.WriteMessage(websocket.TextMessage, message); err != nil {
				return
			}

		case <-ticker.C:
			peer.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := peer.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
