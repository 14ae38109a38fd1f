package bubblegum

import (
	"testing"

	"github.com/mr-tron/base58"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGetTreeAuthorityAddress(t *testing.T) {
	tree, err := base58.Decode("4uQeVj5tqViQh7yWWGStvkEG1Zmhx6uasJtWCJziofM")
	require.NoError(t, err)

	address, bump, err := GetTreeAuthorityAddress(&GetTreeAuthorityAddressArgs{MerkleTree: tree})
	require.NoError(t, err)
	assert.Equal(t, "5p76LNwSE72JFA7TCwm4CpA2bdBcpQ6qh1ZNLSNior2t", base58.Encode(address))
	assert.EqualValues(t, 254, bump)

	again, _, err := GetTreeAuthorityAddress(&GetTreeAuthorityAddressArgs{MerkleTree: tree})
	require.NoError(t, err)
	assert.Equal(t, address, again)
}
