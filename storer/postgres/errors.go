package postgres

import (
	"database/sql"
	"database/sql/driver"
	"errors"
	"fmt"
	"net"

	"github.com/IA-UD-Tech/backend-boti/storer"
	"github.com/lib/pq"
)

// classify maps driver failures onto the storer sentinel errors. The
// original error stays in the chain.
func classify(err error) error {
	if err == nil {
		return nil
	}

	if errors.Is(err, sql.ErrNoRows) {
		return fmt.Errorf("%w: %w", storer.ErrNotFound, err)
	}

	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		switch {
		case pqErr.Code == "23505":
			return fmt.Errorf("%w: %w", storer.ErrDuplicate, err)
		case pqErr.Code == "23503":
			return fmt.Errorf("%w: %w", storer.ErrNotFound, err)
		case pqErr.Code == "23514":
			return fmt.Errorf("%w: %w", storer.ErrInvalidOwner, err)
		case pqErr.Code == "22000":
			// pgvector reports "expected N dimensions, not M" as a data exception
			return fmt.Errorf("%w: %w", storer.ErrDimensionMismatch, err)
		case pqErr.Code.Class() == "08", pqErr.Code.Class() == "53", pqErr.Code == "57P01", pqErr.Code == "57P03":
			return fmt.Errorf("%w: %w", storer.ErrUnavailable, err)
		}
		return err
	}

	var netErr net.Error
	if errors.Is(err, driver.ErrBadConn) || errors.Is(err, sql.ErrConnDone) || errors.As(err, &netErr) {
		return fmt.Errorf("%w: %w", storer.ErrUnavailable, err)
	}

	return err
}
