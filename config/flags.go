package config

import (
	"flag"
	"fmt"
	"os"
)

// ParseNodeFlags parses the flags for the "node" subcommand out of args
// (typically os.Args[2:]).
func ParseNodeFlags(args []string) (*NodeConfig, error) {
	cfg := DefaultNodeConfig()
	fs := flag.NewFlagSet("node", flag.ContinueOnError)

	var port int
	fs.IntVar(&port, "port", DefaultNodePort, "TCP port to listen on for peer connections")
	fs.StringVar(&cfg.SeedAddr, "seed", "", "address of a seed node to register with and bootstrap peers from")
	fs.StringVar(&cfg.PeerAddr, "peer", "", "address of a single peer to bootstrap from, in lieu of a seed")
	fs.IntVar(&cfg.Difficulty, "difficulty", DefaultDifficulty, "number of leading hex zeros required of a block hash")
	fs.StringVar(&cfg.Miner, "miner", DefaultMiner, "address credited with the coinbase reward of mined blocks")
	fs.BoolVar(&cfg.Mine, "mine", false, "run the mining loop once the node is bootstrapped")
	fs.StringVar(&cfg.LogLevel, "log-level", DefaultLogLevel, "log level (debug, info, warn, error)")
	fs.BoolVar(&cfg.LogJSON, "log-json", false, "output logs as JSON")

	fs.Usage = func() { printNodeUsage(fs) }

	if err := fs.Parse(args); err != nil {
		return nil, err
	}

	if port < 0 || port > 65535 {
		return nil, fmt.Errorf("config: --port %d out of range", port)
	}
	cfg.Port = uint16(port)

	if cfg.Difficulty < 0 {
		return nil, fmt.Errorf("config: --difficulty must be non-negative, got %d", cfg.Difficulty)
	}

	return &cfg, nil
}

// ParseSeedFlags parses the flags for the "seed" subcommand out of args
// (typically os.Args[2:]).
func ParseSeedFlags(args []string) (*SeedConfig, error) {
	cfg := DefaultSeedConfig()
	fs := flag.NewFlagSet("seed", flag.ContinueOnError)

	var port int
	fs.IntVar(&port, "port", DefaultSeedPort, "TCP port to listen on for peer registration")
	fs.StringVar(&cfg.LogLevel, "log-level", DefaultLogLevel, "log level (debug, info, warn, error)")
	fs.BoolVar(&cfg.LogJSON, "log-json", false, "output logs as JSON")

	fs.Usage = func() { printSeedUsage(fs) }

	if err := fs.Parse(args); err != nil {
		return nil, err
	}

	if port < 0 || port > 65535 {
		return nil, fmt.Errorf("config: --port %d out of range", port)
	}
	cfg.Port = uint16(port)

	return &cfg, nil
}

func printNodeUsage(fs *flag.FlagSet) {
	fmt.Fprintln(os.Stderr, "Usage: kchaind node [options]")
	fmt.Fprintln(os.Stderr)
	fmt.Fprintln(os.Stderr, "Runs a chain node: accepts peer connections, gossips blocks and")
	fmt.Fprintln(os.Stderr, "transactions, and optionally mines.")
	fmt.Fprintln(os.Stderr)
	fs.PrintDefaults()
}

func printSeedUsage(fs *flag.FlagSet) {
	fmt.Fprintln(os.Stderr, "Usage: kchaind seed [options]")
	fmt.Fprintln(os.Stderr)
	fmt.Fprintln(os.Stderr, "Runs a seed node: a peer registry used for discovery only.")
	fmt.Fprintln(os.Stderr)
	fs.PrintDefaults()
}
