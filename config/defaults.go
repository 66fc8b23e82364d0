package config

// Defaults for the node and seed subcommands.
const (
	DefaultNodePort   = 8080
	DefaultSeedPort   = 9000
	DefaultDifficulty = 4
	DefaultMiner      = "miner"
	DefaultLogLevel   = "info"
)

// DefaultNodeConfig returns a NodeConfig populated with defaults, before
// flags are applied.
func DefaultNodeConfig() NodeConfig {
	return NodeConfig{
		Port:       DefaultNodePort,
		Difficulty: DefaultDifficulty,
		Miner:      DefaultMiner,
		LogLevel:   DefaultLogLevel,
	}
}

// DefaultSeedConfig returns a SeedConfig populated with defaults, before
// flags are applied.
func DefaultSeedConfig() SeedConfig {
	return SeedConfig{
		Port:     DefaultSeedPort,
		LogLevel: DefaultLogLevel,
	}
}
