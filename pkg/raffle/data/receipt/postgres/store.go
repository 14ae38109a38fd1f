package postgres

import (
	"context"
	"database/sql"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/code-payments/craffles/pkg/raffle/data/receipt"
)

type store struct {
	db *sqlx.DB
}

// New returns a new postgres-backed receipt.Store
func New(db *sql.DB) receipt.Store {
	return &store{
		db: sqlx.NewDb(db, "pgx"),
	}
}

// Put implements receipt.Store.Put
func (s *store) Put(ctx context.Context, record *receipt.Record) error {
	model, err := toModel(record)
	if err != nil {
		return err
	}

	if err := model.dbPut(ctx, s.db); err != nil {
		return err
	}

	res := fromModel(model)
	res.CopyTo(record)

	return nil
}

// Update implements receipt.Store.Update
func (s *store) Update(ctx context.Context, record *receipt.Record) error {
	model, err := toModel(record)
	if err != nil {
		return err
	}

	if err := model.dbUpdate(ctx, s.db); err != nil {
		return err
	}

	res := fromModel(model)
	res.CopyTo(record)

	return nil
}

// Get implements receipt.Store.Get
func (s *store) Get(ctx context.Context, invocationId uuid.UUID) (*receipt.Record, error) {
	model, err := dbGet(ctx, s.db, invocationId)
	if err != nil {
		return nil, err
	}
	return fromModel(model), nil
}

// GetAllByPayer implements receipt.Store.GetAllByPayer
func (s *store) GetAllByPayer(ctx context.Context, payer string, limit uint64) ([]*receipt.Record, error) {
	models, err := dbGetAllBy(ctx, s.db, "payer", payer, limit)
	if err != nil {
		return nil, err
	}
	return fromModels(models), nil
}

// GetAllByTree implements receipt.Store.GetAllByTree
func (s *store) GetAllByTree(ctx context.Context, tree string, limit uint64) ([]*receipt.Record, error) {
	models, err := dbGetAllBy(ctx, s.db, "tree", tree, limit)
	if err != nil {
		return nil, err
	}
	return fromModels(models), nil
}

func fromModels(models []*model) []*receipt.Record {
	res := make([]*receipt.Record, len(models))
	for i, model := range models {
		res[i] = fromModel(model)
	}
	return res
}
