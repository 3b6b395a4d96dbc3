package payroll

import (
	"database/sql"
	"errors"
	"strings"

	payrollerrors "shop-payroll/internal/payroll/errors"

	"github.com/jackc/pgx/v5/pgconn"
)

// uq_payroll_record_period is the partial unique index over
// (employee_id, period_start, period_end, COALESCE(shop_id, zero-uuid))
// WHERE status <> 'cancelled'. It is the constraint-backed half of the
// period generation lock; the COALESCE keeps the all-shops scope (NULL
// shop_id) colliding under Postgres' NULL-distinct semantics.
const recordPeriodConstraint = "uq_payroll_record_period"

func mapRepositoryError(err error) error {
	if err == nil {
		return nil
	}

	if errors.Is(err, sql.ErrNoRows) {
		return payrollerrors.ErrRecordNotFound
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		if pgErr.Code == "23505" && pgErr.ConstraintName == recordPeriodConstraint {
			return payrollerrors.ErrDuplicateRecord
		}
	}

	errMsg := strings.ToLower(err.Error())
	if strings.Contains(errMsg, "duplicate key value") && strings.Contains(errMsg, recordPeriodConstraint) {
		return payrollerrors.ErrDuplicateRecord
	}

	return err
}
