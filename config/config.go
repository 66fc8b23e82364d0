// Package config parses the command-line surface for the two kchaind
// subcommands, node and seed. There is no persisted configuration file:
// every run is fully described by its flags.
package config

// NodeConfig holds the parsed flags for the "node" subcommand.
type NodeConfig struct {
	Port       uint16
	SeedAddr   string
	PeerAddr   string
	Difficulty int
	Miner      string
	Mine       bool
	LogLevel   string
	LogJSON    bool
}

// SeedConfig holds the parsed flags for the "seed" subcommand.
type SeedConfig struct {
	Port     uint16
	LogLevel string
	LogJSON  bool
}
