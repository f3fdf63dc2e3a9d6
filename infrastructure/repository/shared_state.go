package repository

import (
	"context"
	"database/sql"
	"time"

	"github.com/Masterminds/squirrel"
	jsoniter "github.com/json-iterator/go"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	"github.com/vfg2006/adsense-sync-api/infrastructure/database/sqldb"
	"github.com/vfg2006/adsense-sync-api/internal/domain"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

const (
	sharedStateTable = "shared_state"

	keySummarySnapshot = "summary_snapshot"
	keyLastUpdated     = "last_updated"
)

// upsertGuard descarta gravações de ciclos mais antigos que o já persistido
const upsertGuard = `ON CONFLICT (state_key) DO UPDATE SET
	payload = excluded.payload,
	schema_version = excluded.schema_version,
	generated_at = excluded.generated_at,
	updated_at = excluded.updated_at
WHERE shared_state.generated_at <= excluded.generated_at`

// SnapshotRepository é o armazenamento compartilhado entre processos (widget, relógio, API).
// Load nunca acessa a rede.
type SnapshotRepository interface {
	Save(ctx context.Context, snapshot *domain.SummarySnapshot) error
	Load(ctx context.Context) (*domain.SummarySnapshot, error)
	LastUpdated(ctx context.Context) (time.Time, bool, error)
}

type sharedStateRepository struct {
	conn *sqldb.Connection
	now  func() time.Time
}

func NewSharedStateRepository(conn *sqldb.Connection) SnapshotRepository {
	return &sharedStateRepository{
		conn: conn,
		now:  time.Now,
	}
}

// Save grava o snapshot e o carimbo last_updated na mesma transação
func (r *sharedStateRepository) Save(ctx context.Context, snapshot *domain.SummarySnapshot) error {
	if snapshot == nil {
		return errors.New("shared state: snapshot nil")
	}

	payload, err := json.Marshal(snapshot)
	if err != nil {
		return errors.Wrap(err, "shared state: serializar snapshot")
	}

	generatedAt := snapshot.GeneratedAt.UnixNano()
	updatedAt := r.now().UnixNano()
	lastUpdated := snapshot.GeneratedAt.Format(time.RFC3339Nano)

	var written int64
	err = r.conn.RunInTransaction(ctx, func(tx *sql.Tx) error {
		for _, row := range []struct {
			key     string
			payload string
		}{
			{keySummarySnapshot, string(payload)},
			{keyLastUpdated, lastUpdated},
		} {
			query, args, err := squirrel.
				Insert(sharedStateTable).
				Columns("state_key", "payload", "schema_version", "generated_at", "updated_at").
				Values(row.key, row.payload, snapshot.SchemaVersion, generatedAt, updatedAt).
				Suffix(upsertGuard).
				PlaceholderFormat(r.conn.Placeholder()).
				ToSql()
			if err != nil {
				return errors.Wrap(err, "shared state: montar upsert")
			}

			result, err := tx.ExecContext(ctx, query, args...)
			if err != nil {
				return errors.Wrapf(err, "shared state: gravar %s", row.key)
			}

			n, err := result.RowsAffected()
			if err == nil {
				written += n
			}
		}
		return nil
	})
	if err != nil {
		return err
	}

	if written == 0 {
		logrus.WithField("generated_at", snapshot.GeneratedAt.Format(time.RFC3339Nano)).
			Info("shared state: snapshot mais antigo que o persistido, descartado")
		return nil
	}

	logrus.WithFields(logrus.Fields{
		"account_id":   snapshot.AccountID,
		"generated_at": snapshot.GeneratedAt.Format(time.RFC3339Nano),
	}).Debug("shared state: snapshot persistido")

	return nil
}

// Load devolve o último snapshot persistido. Primeira execução, versão de esquema diferente
// ou conteúdo ilegível resultam em nil sem erro.
func (r *sharedStateRepository) Load(ctx context.Context) (*domain.SummarySnapshot, error) {
	query, args, err := squirrel.
		Select("payload", "schema_version").
		From(sharedStateTable).
		Where(squirrel.Eq{"state_key": keySummarySnapshot}).
		PlaceholderFormat(r.conn.Placeholder()).
		ToSql()
	if err != nil {
		return nil, errors.Wrap(err, "shared state: montar consulta")
	}

	var (
		payload       string
		schemaVersion int
	)
	if err := r.conn.QueryRowContext(ctx, query, args...).Scan(&payload, &schemaVersion); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, errors.Wrap(err, "shared state: ler snapshot")
	}

	if schemaVersion != domain.SchemaVersion {
		logrus.WithFields(logrus.Fields{
			"stored":   schemaVersion,
			"expected": domain.SchemaVersion,
		}).Warn("shared state: versão de esquema incompatível, ignorando snapshot")
		return nil, nil
	}

	var snapshot domain.SummarySnapshot
	if err := json.Unmarshal([]byte(payload), &snapshot); err != nil {
		logrus.WithError(err).Warn("shared state: snapshot ilegível, ignorando")
		return nil, nil
	}

	if snapshot.SchemaVersion != domain.SchemaVersion {
		logrus.WithField("stored", snapshot.SchemaVersion).Warn("shared state: versão do payload incompatível, ignorando snapshot")
		return nil, nil
	}

	if loc, err := time.LoadLocation(snapshot.Timezone); err == nil {
		snapshot.GeneratedAt = snapshot.GeneratedAt.In(loc)
	}

	return &snapshot, nil
}

// LastUpdated devolve o instante do último snapshot sem desserializá-lo
func (r *sharedStateRepository) LastUpdated(ctx context.Context) (time.Time, bool, error) {
	query, args, err := squirrel.
		Select("generated_at").
		From(sharedStateTable).
		Where(squirrel.Eq{"state_key": keyLastUpdated}).
		PlaceholderFormat(r.conn.Placeholder()).
		ToSql()
	if err != nil {
		return time.Time{}, false, errors.Wrap(err, "shared state: montar consulta")
	}

	var generatedAt int64
	if err := r.conn.QueryRowContext(ctx, query, args...).Scan(&generatedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return time.Time{}, false, nil
		}
		return time.Time{}, false, errors.Wrap(err, "shared state: ler last_updated")
	}

	return time.Unix(0, generatedAt), true, nil
}

// ReadableCheck confirma que o shared_state responde a leituras; ainda não ter snapshot não é falha
func ReadableCheck(repo SnapshotRepository) func(ctx context.Context) error {
	return func(ctx context.Context) error {
		updatedAt, ok, err := repo.LastUpdated(ctx)
		if err != nil {
			return err
		}
		if ok {
			logrus.WithField("last_updated", updatedAt.UTC().Format(time.RFC3339)).Debug("shared state: leitura ok")
		}
		return nil
	}
}
