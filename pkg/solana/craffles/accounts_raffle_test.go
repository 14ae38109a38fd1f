package craffles

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRaffleAccount(t *testing.T) {
	keys := generateKeys(t, 2)

	expected := RaffleAccount{
		Creator:      keys[0],
		EndTimestamp: 1700000000,
		TicketPrice:  1000,
		MerkleTree:   keys[1],
	}

	data := expected.Marshal()
	require.Len(t, data, 88)
	assert.Equal(t, RaffleAccountDiscriminator, data[:8])
	assert.EqualValues(t, keys[0], data[RaffleAccountCreatorOffset:RaffleAccountCreatorOffset+32])

	var actual RaffleAccount
	require.NoError(t, actual.Unmarshal(data))
	assert.Equal(t, expected, actual)
	assert.Contains(t, actual.String(), "ticket_price=1000")

	assert.Equal(t, ErrInvalidAccountData, actual.Unmarshal(data[:87]))

	data[0]++
	assert.Equal(t, ErrInvalidAccountData, actual.Unmarshal(data))
}

func TestRaffleAccount_HasEnded(t *testing.T) {
	raffle := RaffleAccount{EndTimestamp: 1700000000}

	assert.False(t, raffle.HasEnded(time.Unix(1699999999, 0)))
	assert.False(t, raffle.HasEnded(time.Unix(1700000000, 0)))
	assert.True(t, raffle.HasEnded(time.Unix(1700000001, 0)))
}
