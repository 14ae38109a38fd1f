package raffle

import (
	"context"
	"crypto/ed25519"
	"math"

	"github.com/code-payments/craffles/pkg/pointer"
	"github.com/code-payments/craffles/pkg/solana/bubblegum"
)

// defaultTicketMetadata is the leaf minted for every ticket when the caller
// supplies no template. The buyer is the sole unverified creator.
func defaultTicketMetadata(ctx context.Context, c *conf, buyer ed25519.PublicKey) *bubblegum.MetadataArgs {
	tokenStandard := bubblegum.TokenStandardNonFungible

	sellerFee := c.ticketSellerFeeBasisPoints.Get(ctx)
	if sellerFee > math.MaxUint16 {
		sellerFee = math.MaxUint16 // Fails validation
	}

	return &bubblegum.MetadataArgs{
		Name:                 c.ticketName.Get(ctx),
		Symbol:               c.ticketSymbol.Get(ctx),
		Uri:                  c.ticketUri.Get(ctx),
		SellerFeeBasisPoints: uint16(sellerFee),
		PrimarySaleHappened:  c.ticketPrimarySaleHappened.Get(ctx),
		IsMutable:            c.ticketIsMutable.Get(ctx),
		EditionNonce:         pointer.Uint8(0),
		TokenStandard:        &tokenStandard,
		TokenProgramVersion:  bubblegum.TokenProgramVersionOriginal,
		Creators: []bubblegum.Creator{
			{
				Address:  buyer,
				Verified: false,
				Share:    100,
			},
		},
	}
}

// ticketMetadata resolves the metadata for buyer from an optional template.
// A template without creators gets the buyer as its sole creator.
func ticketMetadata(ctx context.Context, c *conf, template *bubblegum.MetadataArgs, buyer ed25519.PublicKey) *bubblegum.MetadataArgs {
	if template == nil {
		return defaultTicketMetadata(ctx, c, buyer)
	}

	cloned := *template
	cloned.EditionNonce = pointer.Uint8Copy(template.EditionNonce)
	cloned.Creators = append([]bubblegum.Creator(nil), template.Creators...)
	if len(cloned.Creators) == 0 {
		cloned.Creators = []bubblegum.Creator{
			{
				Address:  buyer,
				Verified: false,
				Share:    100,
			},
		}
	}
	return &cloned
}
