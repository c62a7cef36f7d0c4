// Package remote defines the mirror of the local ledger held outside the
// process. Records travel as JSON payloads keyed by table and id.
package remote

import (
	"context"
	"errors"
	"fmt"

	"hotelpro/internal/core"
)

// Ports for outbound adapters.
type (
	Store interface {
		Upsert(ctx context.Context, table, id string, payload []byte) error
		Delete(ctx context.Context, table, id string) error
	}

	// Reader is implemented by stores that can be read back.
	Reader interface {
		Get(ctx context.Context, table, id string) ([]byte, error)
		List(ctx context.Context, table string) ([]Row, error)
	}
)

// Row is one stored record.
type Row struct {
	Table   string
	ID      string
	Payload []byte
}

var (
	ErrUnknownTable = errors.New("unknown remote table")
	ErrNotFound     = errors.New("remote record not found")
)

// Tables lists the remote tables in dependency order.
func Tables() []string {
	return []string{
		core.TableStaff,
		core.TableIncome,
		core.TableExpenses,
		core.TableAttendance,
		core.TableSalaryTransactions,
	}
}

// CheckTable returns ErrUnknownTable for names outside Tables.
func CheckTable(table string) error {
	for _, t := range Tables() {
		if t == table {
			return nil
		}
	}
	return fmt.Errorf("%w: %q", ErrUnknownTable, table)
}
