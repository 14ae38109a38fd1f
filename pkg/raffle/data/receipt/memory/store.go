package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/code-payments/craffles/pkg/raffle/data/receipt"
)

type store struct {
	mu      sync.Mutex
	records []*receipt.Record
	last    uint64
}

// New returns a new in memory receipt.Store
func New() receipt.Store {
	return &store{}
}

// Put implements receipt.Store.Put
func (s *store) Put(_ context.Context, data *receipt.Record) error {
	if err := data.Validate(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if item := s.findByInvocation(data.InvocationId); item != nil {
		return receipt.ErrReceiptAlreadyExists
	}

	s.last++
	data.Id = s.last
	if data.CreatedAt.IsZero() {
		data.CreatedAt = time.Now()
	}
	data.UpdatedAt = data.CreatedAt

	c := data.Clone()
	s.records = append(s.records, &c)

	return nil
}

// Update implements receipt.Store.Update
func (s *store) Update(_ context.Context, data *receipt.Record) error {
	if err := data.Validate(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	item := s.findByInvocation(data.InvocationId)
	if item == nil {
		return receipt.ErrReceiptNotFound
	}
	if item.State.IsTerminal() {
		return receipt.ErrInvalidStateTransition
	}

	item.State = data.State
	item.Signature = data.Signature
	item.Raffle = data.Raffle
	item.Amount = data.Amount
	item.Error = data.Error
	item.UpdatedAt = time.Now()

	item.CopyTo(data)

	return nil
}

// Get implements receipt.Store.Get
func (s *store) Get(_ context.Context, invocationId uuid.UUID) (*receipt.Record, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if item := s.findByInvocation(invocationId); item != nil {
		cloned := item.Clone()
		return &cloned, nil
	}
	return nil, receipt.ErrReceiptNotFound
}

// GetAllByPayer implements receipt.Store.GetAllByPayer
func (s *store) GetAllByPayer(_ context.Context, payer string, limit uint64) ([]*receipt.Record, error) {
	return s.query(limit, func(r *receipt.Record) bool { return r.Payer == payer })
}

// GetAllByTree implements receipt.Store.GetAllByTree
func (s *store) GetAllByTree(_ context.Context, tree string, limit uint64) ([]*receipt.Record, error) {
	return s.query(limit, func(r *receipt.Record) bool { return r.Tree == tree })
}

func (s *store) query(limit uint64, match func(*receipt.Record) bool) ([]*receipt.Record, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var res []*receipt.Record
	for _, item := range s.records {
		if match(item) {
			cloned := item.Clone()
			res = append(res, &cloned)
		}
	}

	if len(res) == 0 {
		return nil, receipt.ErrReceiptNotFound
	}

	sort.Slice(res, func(i, j int) bool {
		return res[i].Id > res[j].Id
	})

	if limit > 0 && uint64(len(res)) > limit {
		res = res[:limit]
	}

	return res, nil
}

func (s *store) findByInvocation(invocationId uuid.UUID) *receipt.Record {
	for _, item := range s.records {
		if item.InvocationId == invocationId {
			return item
		}
	}
	return nil
}

func (s *store) reset() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.records = nil
	s.last = 0
}
