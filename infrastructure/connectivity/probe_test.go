package connectivity

import (
	"context"
	"errors"
	"net"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestDialProbe_Online(t *testing.T) {
	calls := 0
	probe := &DialProbe{
		addr:    "adsense.example:443",
		timeout: time.Second,
		ttl:     time.Minute,
		dial: func(ctx context.Context, network, address string) (net.Conn, error) {
			calls++
			client, server := net.Pipe()
			server.Close()
			return client, nil
		},
	}

	assert.True(t, probe.Online(context.Background()))
	assert.True(t, probe.Online(context.Background()))
	assert.Equal(t, 1, calls, "resultado deve ser reaproveitado dentro do ttl")
}

func TestDialProbe_Offline(t *testing.T) {
	probe := &DialProbe{
		addr:    "adsense.example:443",
		timeout: time.Second,
		ttl:     0,
		dial: func(ctx context.Context, network, address string) (net.Conn, error) {
			return nil, errors.New("network is unreachable")
		},
	}

	assert.False(t, probe.Online(context.Background()))
}

func TestStatic(t *testing.T) {
	assert.True(t, Static(true).Online(context.Background()))
	assert.False(t, Static(false).Online(context.Background()))
}
