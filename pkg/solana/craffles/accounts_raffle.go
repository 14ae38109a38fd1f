package craffles

import (
	"bytes"
	"crypto/ed25519"
	"fmt"
	"time"

	"github.com/mr-tron/base58"
)

const (
	RaffleAccountSize = (8 + // discriminator
		32 + // creator
		8 + // end_timestamp
		8 + // ticket_price
		32) // merkle_tree

	// RaffleAccountCreatorOffset is where the creator lives in the account
	// data, for filtering raffles by creator.
	RaffleAccountCreatorOffset = 8
)

var RaffleAccountDiscriminator = anchorDiscriminator("account", "Raffle")

type RaffleAccount struct {
	Creator      ed25519.PublicKey
	EndTimestamp int64
	TicketPrice  uint64
	MerkleTree   ed25519.PublicKey
}

func (obj *RaffleAccount) Marshal() []byte {
	data := make([]byte, RaffleAccountSize)

	var offset int
	putDiscriminator(data, RaffleAccountDiscriminator, &offset)
	putKey(data, obj.Creator, &offset)
	putInt64(data, obj.EndTimestamp, &offset)
	putUint64(data, obj.TicketPrice, &offset)
	putKey(data, obj.MerkleTree, &offset)

	return data
}

func (obj *RaffleAccount) Unmarshal(data []byte) error {
	if len(data) < RaffleAccountSize {
		return ErrInvalidAccountData
	}

	var offset int

	var discriminator []byte
	getDiscriminator(data, &discriminator, &offset)
	if !bytes.Equal(discriminator, RaffleAccountDiscriminator) {
		return ErrInvalidAccountData
	}

	getKey(data, &obj.Creator, &offset)
	getInt64(data, &obj.EndTimestamp, &offset)
	getUint64(data, &obj.TicketPrice, &offset)
	getKey(data, &obj.MerkleTree, &offset)

	return nil
}

// HasEnded mirrors the program's check, which rejects purchases once the
// clock is strictly past the end timestamp.
func (obj *RaffleAccount) HasEnded(now time.Time) bool {
	return now.Unix() > obj.EndTimestamp
}

func (obj *RaffleAccount) String() string {
	return fmt.Sprintf(
		"Raffle{creator=%s,end_timestamp=%s,ticket_price=%d,merkle_tree=%s}",
		base58.Encode(obj.Creator),
		time.Unix(obj.EndTimestamp, 0).UTC().String(),
		obj.TicketPrice,
		base58.Encode(obj.MerkleTree),
	)
}
