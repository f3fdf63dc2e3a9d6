package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFinalize(t *testing.T) {
	tests := []struct {
		name     string
		config   Config
		wantErr  bool
		validate func(t *testing.T, c *Config)
	}{
		{
			name: "sqlite monta dsn com WAL",
			config: Config{
				Database: Database{Driver: "sqlite3", SQLitePath: "/tmp/shared.db"},
				Sync:     Sync{MaxAttempts: 3},
			},
			validate: func(t *testing.T, c *Config) {
				assert.Equal(t, "file:/tmp/shared.db?_journal_mode=WAL&_busy_timeout=5000", c.Database.DSN)
			},
		},
		{
			name: "postgres monta url",
			config: Config{
				Database: Database{Driver: "postgres", User: "sync", Password: "pw", URL: "db:5432/adsense"},
				Sync:     Sync{MaxAttempts: 3},
			},
			validate: func(t *testing.T, c *Config) {
				assert.Equal(t, "postgres://sync:pw@db:5432/adsense", c.Database.DSN)
			},
		},
		{
			name: "tentativas nunca abaixo de um",
			config: Config{
				Database: Database{Driver: "sqlite3", SQLitePath: "x.db"},
				Sync:     Sync{MaxAttempts: 0},
			},
			validate: func(t *testing.T, c *Config) {
				assert.Equal(t, 1, c.Sync.MaxAttempts)
			},
		},
		{
			name:    "driver desconhecido",
			config:  Config{Database: Database{Driver: "mysql"}},
			wantErr: true,
		},
		{
			name: "timezone inválida",
			config: Config{
				Database: Database{Driver: "sqlite3", SQLitePath: "x.db"},
				Sync:     Sync{Timezone: "America/Atlantida"},
			},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := tt.config
			err := c.finalize()

			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			if tt.validate != nil {
				tt.validate(t, &c)
			}
		})
	}
}

func TestLocation(t *testing.T) {
	c := &Config{Sync: Sync{Timezone: "Local"}}
	loc, err := c.Location()
	require.NoError(t, err)
	assert.Equal(t, time.Local, loc)

	c.Sync.Timezone = "America/Sao_Paulo"
	loc, err = c.Location()
	require.NoError(t, err)
	assert.Equal(t, "America/Sao_Paulo", loc.String())
}
