package repositories

import (
	"context"
	"database/sql"
	"fmt"
)

// SQLExecutor абстрагирует *sql.DB и *sql.Tx, чтобы методы репозиториев
// могли работать как в транзакции, так и вне ее.
type SQLExecutor interface {
	ExecContext(ctx context.Context, query string, args ...interface{}) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...interface{}) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...interface{}) *sql.Row
}

func checkAffectedRows(result sql.Result, notFoundError error) error {
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to check affected rows: %w", err)
	}
	if rowsAffected == 0 {
		return notFoundError
	}
	return nil
}

// competitionLockClass — пространство ключей advisory-блокировок для
// мутаций сеток; вторая часть ключа — ID соревнования.
const competitionLockClass = 1203

// AcquireCompetitionLock сериализует мутации сетки одного соревнования.
// Блокировка транзакционная: снимается при commit/rollback.
func AcquireCompetitionLock(ctx context.Context, exec SQLExecutor, competitionID int) error {
	_, err := exec.ExecContext(ctx, `SELECT pg_advisory_xact_lock($1, $2)`, competitionLockClass, competitionID)
	if err != nil {
		return fmt.Errorf("failed to acquire competition lock %d: %w", competitionID, err)
	}
	return nil
}
