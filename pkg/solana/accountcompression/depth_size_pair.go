package accountcompression

// DepthSizePair is a max depth and max buffer size combination the program
// has a concrete tree implementation for.
type DepthSizePair struct {
	MaxDepth      uint32
	MaxBufferSize uint32
}

// Reference: https://github.com/solana-labs/solana-program-library/blob/9610bed5349f7a198f5d1fdd4e8b8b5ba3734279/account-compression/sdk/src/constants/index.ts#L11
var ValidDepthSizePairs = []DepthSizePair{
	{3, 8},
	{5, 8},
	{6, 16},
	{7, 16},
	{8, 16},
	{9, 16},
	{10, 32},
	{11, 32},
	{12, 32},
	{13, 32},
	{14, 64},
	{14, 256},
	{14, 1024},
	{14, 2048},
	{15, 64},
	{16, 64},
	{17, 64},
	{18, 64},
	{19, 64},
	{20, 64},
	{20, 256},
	{20, 1024},
	{20, 2048},
	{24, 64},
	{24, 256},
	{24, 512},
	{24, 1024},
	{24, 2048},
	{26, 512},
	{26, 1024},
	{26, 2048},
	{30, 512},
	{30, 1024},
	{30, 2048},
}

func IsValidDepthSizePair(maxDepth, maxBufferSize uint32) bool {
	for _, pair := range ValidDepthSizePairs {
		if pair.MaxDepth == maxDepth && pair.MaxBufferSize == maxBufferSize {
			return true
		}
	}
	return false
}
