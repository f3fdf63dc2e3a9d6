package sqldb

import (
	"context"
	"fmt"

	"github.com/sirupsen/logrus"
)

// Mesmo DDL para sqlite e postgres: timestamps como unix nano em BIGINT
var migrations = []string{
	`CREATE TABLE IF NOT EXISTS shared_state (
		state_key      TEXT PRIMARY KEY,
		payload        TEXT NOT NULL,
		schema_version INTEGER NOT NULL,
		generated_at   BIGINT NOT NULL,
		updated_at     BIGINT NOT NULL
	)`,
}

// Migrate cria as tabelas que ainda não existem
func (c *Connection) Migrate(ctx context.Context) error {
	for i, stmt := range migrations {
		if _, err := c.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("sqldb: migration %d: %w", i, err)
		}
	}

	logrus.WithField("migrations", len(migrations)).Debug("Migrations aplicadas")
	return nil
}
