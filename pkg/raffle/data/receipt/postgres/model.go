package postgres

import (
	"context"
	"database/sql"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	pgutil "github.com/code-payments/craffles/pkg/database/postgres"
	"github.com/code-payments/craffles/pkg/raffle/data/receipt"
)

const (
	tableName = "craffles__receipt"

	allColumns = `id, invocation_id, workflow, state, signature, payer, tree, raffle, ticket_count, amount, error, created_at, updated_at`
)

type model struct {
	Id sql.NullInt64 `db:"id"`

	InvocationId uuid.UUID `db:"invocation_id"`
	Workflow     string    `db:"workflow"`
	State        uint      `db:"state"`

	Signature string `db:"signature"`
	Payer     string `db:"payer"`
	Tree      string `db:"tree"`
	Raffle    string `db:"raffle"`

	TicketCount int64 `db:"ticket_count"`
	Amount      int64 `db:"amount"`

	Error string `db:"error"`

	CreatedAt time.Time `db:"created_at"`
	UpdatedAt time.Time `db:"updated_at"`
}

func toModel(obj *receipt.Record) (*model, error) {
	if err := obj.Validate(); err != nil {
		return nil, err
	}

	return &model{
		InvocationId: obj.InvocationId,
		Workflow:     string(obj.Workflow),
		State:        uint(obj.State),

		Signature: obj.Signature,
		Payer:     obj.Payer,
		Tree:      obj.Tree,
		Raffle:    obj.Raffle,

		TicketCount: int64(obj.TicketCount),
		Amount:      int64(obj.Amount),

		Error: obj.Error,

		CreatedAt: obj.CreatedAt,
		UpdatedAt: obj.UpdatedAt,
	}, nil
}

func fromModel(obj *model) *receipt.Record {
	return &receipt.Record{
		Id: uint64(obj.Id.Int64),

		InvocationId: obj.InvocationId,
		Workflow:     receipt.Workflow(obj.Workflow),
		State:        receipt.State(obj.State),

		Signature: obj.Signature,
		Payer:     obj.Payer,
		Tree:      obj.Tree,
		Raffle:    obj.Raffle,

		TicketCount: uint32(obj.TicketCount),
		Amount:      uint64(obj.Amount),

		Error: obj.Error,

		CreatedAt: obj.CreatedAt,
		UpdatedAt: obj.UpdatedAt,
	}
}

func (m *model) dbPut(ctx context.Context, db *sqlx.DB) error {
	return pgutil.ExecuteRetryable(func() error {
		return m.dbPutInTx(ctx, db)
	})
}

func (m *model) dbPutInTx(ctx context.Context, db *sqlx.DB) error {
	return pgutil.ExecuteInTx(ctx, db, sql.LevelDefault, func(tx *sqlx.Tx) error {
		query := `INSERT INTO ` + tableName + `
			(invocation_id, workflow, state, signature, payer, tree, raffle, ticket_count, amount, error, created_at, updated_at)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $11)
			RETURNING ` + allColumns

		if m.CreatedAt.IsZero() {
			m.CreatedAt = time.Now()
		}

		err := tx.QueryRowxContext(
			ctx,
			query,
			m.InvocationId,
			m.Workflow,
			m.State,
			m.Signature,
			m.Payer,
			m.Tree,
			m.Raffle,
			m.TicketCount,
			m.Amount,
			m.Error,
			m.CreatedAt.UTC(),
		).StructScan(m)

		return pgutil.CheckUniqueViolation(err, receipt.ErrReceiptAlreadyExists)
	})
}

// dbUpdate runs under repeatable read so concurrent outcome updates surface
// as serialization failures, which are retried.
func (m *model) dbUpdate(ctx context.Context, db *sqlx.DB) error {
	return pgutil.ExecuteRetryable(func() error {
		return m.dbUpdateInTx(ctx, db)
	})
}

func (m *model) dbUpdateInTx(ctx context.Context, db *sqlx.DB) error {
	return pgutil.ExecuteInTx(ctx, db, sql.LevelRepeatableRead, func(tx *sqlx.Tx) error {
		existing := &model{}
		err := tx.GetContext(
			ctx,
			existing,
			`SELECT `+allColumns+` FROM `+tableName+` WHERE invocation_id = $1 FOR UPDATE`,
			m.InvocationId,
		)
		if err != nil {
			return pgutil.CheckNoRows(err, receipt.ErrReceiptNotFound)
		}

		if receipt.State(existing.State).IsTerminal() {
			return receipt.ErrInvalidStateTransition
		}

		query := `UPDATE ` + tableName + `
			SET state = $2, signature = $3, raffle = $4, amount = $5, error = $6, updated_at = $7
			WHERE invocation_id = $1
			RETURNING ` + allColumns

		return tx.QueryRowxContext(
			ctx,
			query,
			m.InvocationId,
			m.State,
			m.Signature,
			m.Raffle,
			m.Amount,
			m.Error,
			time.Now().UTC(),
		).StructScan(m)
	})
}

func dbGet(ctx context.Context, db *sqlx.DB, invocationId uuid.UUID) (*model, error) {
	res := &model{}

	query := `SELECT ` + allColumns + `
		FROM ` + tableName + `
		WHERE invocation_id = $1
		LIMIT 1`

	err := db.GetContext(ctx, res, query, invocationId)
	if err != nil {
		return nil, pgutil.CheckNoRows(err, receipt.ErrReceiptNotFound)
	}
	return res, nil
}

func dbGetAllBy(ctx context.Context, db *sqlx.DB, column, value string, limit uint64) ([]*model, error) {
	res := []*model{}

	// LIMIT NULL is no limit
	var limitArg interface{}
	if limit > 0 {
		limitArg = int64(limit)
	}

	query := `SELECT ` + allColumns + `
		FROM ` + tableName + `
		WHERE ` + column + ` = $1
		ORDER BY id DESC
		LIMIT $2`

	err := db.SelectContext(ctx, &res, query, value, limitArg)
	if err != nil {
		return nil, pgutil.CheckNoRows(err, receipt.ErrReceiptNotFound)
	}

	if len(res) == 0 {
		return nil, receipt.ErrReceiptNotFound
	}
	return res, nil
}
