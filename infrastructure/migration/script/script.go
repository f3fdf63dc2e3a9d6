package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/Masterminds/squirrel"
	"github.com/sirupsen/logrus"
	"github.com/spf13/pflag"
	"github.com/vfg2006/adsense-sync-api/infrastructure/database/sqldb"
	"github.com/vfg2006/adsense-sync-api/internal/config"
	"github.com/vfg2006/adsense-sync-api/pkg/log"
)

// Script de manutenção do armazenamento compartilhado.
// Sem flags apenas aplica as migrations; --inspect lista as chaves e --reset apaga o snapshot.
func main() {
	inspect := pflag.Bool("inspect", false, "lista as chaves gravadas em shared_state")
	reset := pflag.Bool("reset", false, "apaga todas as chaves de shared_state")
	pflag.Parse()

	cfg, err := config.NewConfig()
	if err != nil {
		logrus.Fatal(err)
	}
	log.Setup(cfg.App.LogLevel)

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	conn, err := sqldb.NewConnection(ctx, cfg.Database)
	if err != nil {
		logrus.WithError(err).Fatal("ERRO ao conectar ao banco")
	}
	defer conn.Close()

	logrus.Info("Iniciando script de migração...")
	startTime := time.Now()

	if err := conn.Migrate(ctx); err != nil {
		logrus.WithError(err).Fatal("ERRO ao aplicar migrations")
	}

	if *reset {
		if err := resetSharedState(ctx, conn); err != nil {
			logrus.WithError(err).Fatal("ERRO ao apagar shared_state")
		}
	}

	if *inspect {
		if err := inspectSharedState(ctx, conn); err != nil {
			logrus.WithError(err).Fatal("ERRO ao listar shared_state")
		}
	}

	logrus.Infof("Script finalizado em %s", time.Since(startTime))
}

func resetSharedState(ctx context.Context, conn *sqldb.Connection) error {
	query, args, err := squirrel.Delete("shared_state").PlaceholderFormat(conn.Placeholder()).ToSql()
	if err != nil {
		return err
	}

	result, err := conn.ExecContext(ctx, query, args...)
	if err != nil {
		return err
	}

	rows, _ := result.RowsAffected()
	logrus.WithField("rows", rows).Warn("shared_state apagado, leitores verão o estado de primeira execução")
	return nil
}

func inspectSharedState(ctx context.Context, conn *sqldb.Connection) error {
	query, args, err := squirrel.
		Select("state_key", "schema_version", "generated_at", "updated_at").
		From("shared_state").
		OrderBy("state_key").
		PlaceholderFormat(conn.Placeholder()).
		ToSql()
	if err != nil {
		return err
	}

	rows, err := conn.QueryContext(ctx, query, args...)
	if err != nil {
		return err
	}
	defer rows.Close()

	count := 0
	for rows.Next() {
		var key string
		var schemaVersion int
		var generatedAt, updatedAt int64
		if err := rows.Scan(&key, &schemaVersion, &generatedAt, &updatedAt); err != nil {
			return err
		}
		count++
		fmt.Fprintf(os.Stdout, "%-20s v%d gerado=%s gravado=%s\n",
			key,
			schemaVersion,
			time.Unix(0, generatedAt).Format(time.RFC3339),
			time.Unix(0, updatedAt).Format(time.RFC3339),
		)
	}

	if count == 0 {
		logrus.Info("shared_state vazio")
	}
	return rows.Err()
}
