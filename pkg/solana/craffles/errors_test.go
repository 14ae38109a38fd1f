package craffles

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRaffleError(t *testing.T) {
	e, ok := GetRaffleError(6001)
	assert.True(t, ok)
	assert.Equal(t, RaffleErrorRaffleEnded, e)
	assert.Equal(t, "RaffleEnded", e.Name())
	assert.Equal(t, "RaffleEnded (6001): Raffle has ended", e.Error())

	e, ok = GetRaffleError(6012)
	assert.True(t, ok)
	assert.Equal(t, RaffleErrorInvalidAccountData, e)

	e, ok = GetRaffleError(6013)
	assert.False(t, ok)
	assert.Equal(t, "Unknown", e.Name())

	_, ok = GetRaffleError(1)
	assert.False(t, ok)
}
