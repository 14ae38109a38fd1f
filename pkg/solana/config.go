package solana

type Environment string

const (
	EnvironmentLocal Environment = "http://127.0.0.1:8899"
	EnvironmentDev   Environment = "https://api.devnet.solana.com"
	EnvironmentTest  Environment = "https://api.testnet.solana.com"
	EnvironmentProd  Environment = "https://api.mainnet-beta.solana.com"
)

// EndpointFor maps a cluster moniker to its public RPC endpoint. Unknown
// values are assumed to already be an endpoint URL.
func EndpointFor(cluster string) string {
	switch cluster {
	case "localnet", "local":
		return string(EnvironmentLocal)
	case "devnet", "dev":
		return string(EnvironmentDev)
	case "testnet", "test":
		return string(EnvironmentTest)
	case "mainnet-beta", "mainnet", "prod":
		return string(EnvironmentProd)
	default:
		return cluster
	}
}
