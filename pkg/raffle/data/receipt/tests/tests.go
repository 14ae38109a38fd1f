package tests

import (
	"context"
	"fmt"
	"math"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/code-payments/craffles/pkg/raffle/data/receipt"
)

func RunTests(t *testing.T, s receipt.Store, teardown func()) {
	for _, tf := range []func(t *testing.T, s receipt.Store){
		testHappyPath,
		testTerminalStates,
		testGetAll,
		testValidation,
	} {
		tf(t, s)
		teardown()
	}
}

func testHappyPath(t *testing.T, s receipt.Store) {
	t.Run("testHappyPath", func(t *testing.T) {
		ctx := context.Background()

		invocationId := uuid.New()

		_, err := s.Get(ctx, invocationId)
		assert.Equal(t, receipt.ErrReceiptNotFound, err)

		start := time.Now()

		expected := &receipt.Record{
			InvocationId: invocationId,
			Workflow:     receipt.WorkflowBuyTickets,
			State:        receipt.StatePending,
			Payer:        "buyer",
			Tree:         "tree",
			TicketCount:  3,
		}
		cloned := expected.Clone()

		require.NoError(t, s.Put(ctx, expected))
		assert.EqualValues(t, 1, expected.Id)
		assert.True(t, expected.CreatedAt.After(start))

		actual, err := s.Get(ctx, invocationId)
		require.NoError(t, err)
		assertEquivalentRecords(t, actual, &cloned)

		assert.Equal(t, receipt.ErrReceiptAlreadyExists, s.Put(ctx, expected))

		expected.State = receipt.StateConfirmed
		expected.Signature = "signature"
		expected.Raffle = "raffle"
		expected.Amount = 3_000_000
		require.NoError(t, s.Update(ctx, expected))
		assert.EqualValues(t, 1, expected.Id)
		assert.False(t, expected.UpdatedAt.Before(expected.CreatedAt))

		actual, err = s.Get(ctx, invocationId)
		require.NoError(t, err)
		assertEquivalentRecords(t, actual, expected)

		missing := expected.Clone()
		missing.InvocationId = uuid.New()
		missing.State = receipt.StatePending
		assert.Equal(t, receipt.ErrReceiptNotFound, s.Update(ctx, &missing))
	})
}

func testTerminalStates(t *testing.T, s receipt.Store) {
	t.Run("testTerminalStates", func(t *testing.T) {
		ctx := context.Background()

		for _, terminal := range []receipt.State{receipt.StateConfirmed, receipt.StateFailed} {
			record := &receipt.Record{
				InvocationId: uuid.New(),
				Workflow:     receipt.WorkflowCreateRaffle,
				State:        receipt.StatePending,
				Payer:        "creator",
				Tree:         "tree",
			}
			require.NoError(t, s.Put(ctx, record))

			record.State = terminal
			record.Signature = "signature"
			record.Error = "error"
			require.NoError(t, s.Update(ctx, record))

			record.State = receipt.StatePending
			assert.Equal(t, receipt.ErrInvalidStateTransition, s.Update(ctx, record))

			actual, err := s.Get(ctx, record.InvocationId)
			require.NoError(t, err)
			assert.Equal(t, terminal, actual.State)
		}
	})
}

func testGetAll(t *testing.T, s receipt.Store) {
	t.Run("testGetAll", func(t *testing.T) {
		ctx := context.Background()

		_, err := s.GetAllByPayer(ctx, "payer1", 0)
		assert.Equal(t, receipt.ErrReceiptNotFound, err)

		_, err = s.GetAllByTree(ctx, "tree1", 0)
		assert.Equal(t, receipt.ErrReceiptNotFound, err)

		var records []*receipt.Record
		for i := 0; i < 6; i++ {
			record := &receipt.Record{
				InvocationId: uuid.New(),
				Workflow:     receipt.WorkflowBuyTickets,
				State:        receipt.StatePending,
				Payer:        fmt.Sprintf("payer%d", i%2),
				Tree:         fmt.Sprintf("tree%d", i%3),
				TicketCount:  uint32(i + 1),
			}
			require.NoError(t, s.Put(ctx, record))
			records = append(records, record)
		}

		actual, err := s.GetAllByPayer(ctx, "payer1", 0)
		require.NoError(t, err)
		require.Len(t, actual, 3)
		assertEquivalentRecords(t, actual[0], records[5])
		assertEquivalentRecords(t, actual[1], records[3])
		assertEquivalentRecords(t, actual[2], records[1])

		actual, err = s.GetAllByPayer(ctx, "payer1", 2)
		require.NoError(t, err)
		require.Len(t, actual, 2)
		assertEquivalentRecords(t, actual[0], records[5])
		assertEquivalentRecords(t, actual[1], records[3])

		actual, err = s.GetAllByTree(ctx, "tree2", 0)
		require.NoError(t, err)
		require.Len(t, actual, 2)
		assertEquivalentRecords(t, actual[0], records[5])
		assertEquivalentRecords(t, actual[1], records[2])

		_, err = s.GetAllByTree(ctx, "tree3", 0)
		assert.Equal(t, receipt.ErrReceiptNotFound, err)
	})
}

func testValidation(t *testing.T, s receipt.Store) {
	t.Run("testValidation", func(t *testing.T) {
		ctx := context.Background()

		valid := receipt.Record{
			InvocationId: uuid.New(),
			Workflow:     receipt.WorkflowBuyTickets,
			State:        receipt.StatePending,
			Payer:        "buyer",
			Tree:         "tree",
			TicketCount:  1,
		}
		require.NoError(t, valid.Validate())

		for _, mutate := range []func(r *receipt.Record){
			func(r *receipt.Record) { r.InvocationId = uuid.Nil },
			func(r *receipt.Record) { r.Workflow = "unknown" },
			func(r *receipt.Record) { r.State = receipt.StateUnknown },
			func(r *receipt.Record) { r.Payer = "" },
			func(r *receipt.Record) { r.Tree = "" },
			func(r *receipt.Record) { r.TicketCount = 0 },
			func(r *receipt.Record) { r.State = receipt.StateConfirmed },
			func(r *receipt.Record) { r.State = receipt.StateFailed },
			func(r *receipt.Record) { r.Amount = math.MaxInt64 + 1 },
		} {
			record := valid.Clone()
			mutate(&record)
			assert.Error(t, s.Put(ctx, &record))
		}

		_, err := s.Get(ctx, valid.InvocationId)
		assert.Equal(t, receipt.ErrReceiptNotFound, err)

		// Outcomes are validated the same way
		require.NoError(t, s.Put(ctx, &valid))
		confirmed := valid.Clone()
		confirmed.State = receipt.StateConfirmed
		confirmed.Signature = "sig"
		confirmed.Amount = math.MaxInt64 + 1
		assert.Error(t, s.Update(ctx, &confirmed))

		actual, err := s.Get(ctx, valid.InvocationId)
		require.NoError(t, err)
		assert.Equal(t, receipt.StatePending, actual.State)
	})
}

func assertEquivalentRecords(t *testing.T, obj1, obj2 *receipt.Record) {
	assert.Equal(t, obj1.InvocationId, obj2.InvocationId)
	assert.Equal(t, obj1.Workflow, obj2.Workflow)
	assert.Equal(t, obj1.State, obj2.State)
	assert.Equal(t, obj1.Signature, obj2.Signature)
	assert.Equal(t, obj1.Payer, obj2.Payer)
	assert.Equal(t, obj1.Tree, obj2.Tree)
	assert.Equal(t, obj1.Raffle, obj2.Raffle)
	assert.Equal(t, obj1.TicketCount, obj2.TicketCount)
	assert.Equal(t, obj1.Amount, obj2.Amount)
	assert.Equal(t, obj1.Error, obj2.Error)
}
