package connectivity

import (
	"context"
	"net"
	"sync"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/vfg2006/adsense-sync-api/internal/config"
)

// Prober é o canal lateral que informa se há rede antes de qualquer chamada à API
type Prober interface {
	Online(ctx context.Context) bool
}

// DialProbe abre uma conexão TCP com o host da API e guarda o resultado por um curto período
type DialProbe struct {
	addr    string
	timeout time.Duration
	ttl     time.Duration
	dial    func(ctx context.Context, network, address string) (net.Conn, error)

	mu        sync.Mutex
	lastCheck time.Time
	lastState bool
}

func NewDialProbe(cfg *config.Config) *DialProbe {
	dialer := &net.Dialer{}
	return &DialProbe{
		addr:    cfg.Connectivity.ProbeAddr,
		timeout: cfg.Connectivity.ProbeTimeout,
		ttl:     5 * time.Second,
		dial:    dialer.DialContext,
	}
}

func (p *DialProbe) Online(ctx context.Context) bool {
	p.mu.Lock()
	defer p.mu.Unlock()

	if !p.lastCheck.IsZero() && time.Since(p.lastCheck) < p.ttl {
		return p.lastState
	}

	dialCtx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()

	conn, err := p.dial(dialCtx, "tcp", p.addr)
	online := err == nil
	if conn != nil {
		conn.Close()
	}

	// cancelamento do chamador não diz nada sobre a rede
	if ctx.Err() != nil {
		return p.lastState
	}

	if online != p.lastState || p.lastCheck.IsZero() {
		logrus.WithFields(logrus.Fields{
			"addr":   p.addr,
			"online": online,
		}).Info("connectivity: estado da rede alterado")
	}

	p.lastCheck = time.Now()
	p.lastState = online
	return online
}

// Static é um Prober de estado fixo, útil quando a checagem está desligada
type Static bool

func (s Static) Online(context.Context) bool { return bool(s) }
