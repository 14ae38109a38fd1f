package bubblegum

import (
	"strings"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMetadataArgs_Marshal(t *testing.T) {
	m := &MetadataArgs{
		Name:                "A",
		Uri:                 "u",
		PrimarySaleHappened: true,
		IsMutable:           true,
	}

	data, err := m.Marshal()
	require.NoError(t, err)
	assert.Equal(t, []byte{
		1, 0, 0, 0, 'A', // name
		0, 0, 0, 0, // symbol
		1, 0, 0, 0, 'u', // uri
		0, 0, // seller_fee_basis_points
		1,          // primary_sale_happened
		1,          // is_mutable
		0,          // edition_nonce
		0,          // token_standard
		0,          // collection
		0,          // uses
		0,          // token_program_version
		0, 0, 0, 0, // creators
	}, data)
}

func TestMetadataArgs_RoundTrip(t *testing.T) {
	keys := generateKeys(t, 3)
	nonce := uint8(253)
	standard := TokenStandardNonFungible

	expected := MetadataArgs{
		Name:                 "The Raffle Project",
		Symbol:               "RAFF",
		Uri:                  "https://example.com/ticket.json",
		SellerFeeBasisPoints: 500,
		PrimarySaleHappened:  true,
		IsMutable:            false,
		EditionNonce:         &nonce,
		TokenStandard:        &standard,
		Collection:           &Collection{Verified: false, Key: keys[0]},
		Uses:                 &Uses{UseMethod: UseMethodMultiple, Remaining: 2, Total: 5},
		TokenProgramVersion:  TokenProgramVersionOriginal,
		Creators: []Creator{
			{Address: keys[1], Verified: false, Share: 60},
			{Address: keys[2], Verified: true, Share: 40},
		},
	}
	require.NoError(t, expected.Validate())

	data, err := expected.Marshal()
	require.NoError(t, err)

	var actual MetadataArgs
	n, err := actual.Unmarshal(append(data, 0xff, 0xff))
	require.NoError(t, err)
	assert.Equal(t, len(data), n)
	assert.Equal(t, expected, actual)

	_, err = actual.Unmarshal(data[:len(data)-1])
	assert.Equal(t, ErrInvalidInstructionData, errors.Cause(err))
}

func TestMetadataArgs_Validate(t *testing.T) {
	keys := generateKeys(t, 6)

	valid := func() *MetadataArgs {
		return &MetadataArgs{
			Name:   "ticket",
			Symbol: "RAFF",
			Uri:    "https://example.com/ticket.json",
			Creators: []Creator{
				{Address: keys[0], Share: 100},
			},
		}
	}

	require.NoError(t, valid().Validate())

	noCreators := valid()
	noCreators.Creators = nil
	assert.NoError(t, noCreators.Validate())

	for _, tc := range []struct {
		mutate   func(m *MetadataArgs)
		expected error
	}{
		{func(m *MetadataArgs) { m.Name = "" }, ErrInvalidName},
		{func(m *MetadataArgs) { m.Name = strings.Repeat("n", MaxNameLength+1) }, ErrInvalidName},
		{func(m *MetadataArgs) { m.Symbol = strings.Repeat("s", MaxSymbolLength+1) }, ErrInvalidSymbol},
		{func(m *MetadataArgs) { m.Uri = "" }, ErrInvalidUri},
		{func(m *MetadataArgs) { m.Uri = strings.Repeat("u", MaxUriLength+1) }, ErrInvalidUri},
		{func(m *MetadataArgs) { m.SellerFeeBasisPoints = 10001 }, ErrInvalidSellerFee},
		{func(m *MetadataArgs) { m.Creators[0].Share = 90 }, ErrInvalidCreatorShares},
		{func(m *MetadataArgs) {
			m.Creators = []Creator{
				{Address: keys[0], Share: 50},
				{Address: keys[0], Share: 50},
			}
		}, ErrDuplicateCreator},
		{func(m *MetadataArgs) {
			m.Creators = nil
			for i := 0; i < 6; i++ {
				m.Creators = append(m.Creators, Creator{Address: keys[i], Share: 10})
			}
		}, ErrTooManyCreators},
	} {
		m := valid()
		tc.mutate(m)
		assert.Equal(t, tc.expected, errors.Cause(m.Validate()))
	}

	boundary := valid()
	boundary.Name = strings.Repeat("n", MaxNameLength)
	boundary.Symbol = strings.Repeat("s", MaxSymbolLength)
	boundary.Uri = strings.Repeat("u", MaxUriLength)
	boundary.SellerFeeBasisPoints = MaxSellerFeeBasisPoints
	assert.NoError(t, boundary.Validate())
}
