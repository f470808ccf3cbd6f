package repository

import (
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/gorm"
)

// ErrSlotLockTimeout means the advisory lock for a slot partition could not be
// acquired within the configured bound. The transaction has no side effects.
var ErrSlotLockTimeout = errors.New("slot lock wait timed out")

const pgLockNotAvailable = "55P03"

// AcquireSlotLock takes the transaction-scoped advisory lock for one slot
// partition. It must be the first statement of every admission-affecting
// transaction: the lock serializes all admission decisions for that partition
// and is released automatically on commit or rollback. Waiting is bounded by
// timeout via lock_timeout, so a request never queues indefinitely behind an
// unrelated slow transaction.
func AcquireSlotLock(tx *gorm.DB, partition string, timeout time.Duration) error {
	ms := timeout.Milliseconds()
	if ms <= 0 {
		ms = 3000
	}
	if err := tx.Exec(fmt.Sprintf("SET LOCAL lock_timeout = '%dms'", ms)).Error; err != nil {
		return err
	}
	if err := tx.Exec("SELECT pg_advisory_xact_lock(hashtextextended(?, 0))", partition).Error; err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == pgLockNotAvailable {
			return ErrSlotLockTimeout
		}
		return err
	}
	return nil
}
