package memory

import (
	"testing"

	"github.com/code-payments/craffles/pkg/raffle/data/receipt/tests"
)

func TestReceiptMemoryStore(t *testing.T) {
	testStore := New()
	teardown := func() {
		testStore.(*store).reset()
	}
	tests.RunTests(t, testStore, teardown)
}
