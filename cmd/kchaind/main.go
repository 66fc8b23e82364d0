// kchaind runs a chain node or a seed node.
//
// Usage:
//
//	kchaind node [--mine --miner=addr ...]  Run a chain node
//	kchaind seed [--port=9000]              Run a seed node
//	kchaind <cmd> --help                    Show subcommand help
package main

import (
	"context"
	"fmt"
	"net"
	"os"
	"os/signal"
	"strconv"
	"syscall"

	"github.com/klingnet-tech/kchain/config"
	"github.com/klingnet-tech/kchain/internal/chain"
	klog "github.com/klingnet-tech/kchain/internal/log"
	"github.com/klingnet-tech/kchain/internal/mempool"
	"github.com/klingnet-tech/kchain/internal/node"
	"github.com/klingnet-tech/kchain/internal/seed"
)

func main() {
	if len(os.Args) < 2 {
		usage()
		os.Exit(1)
	}

	switch os.Args[1] {
	case "node":
		runNode(os.Args[2:])
	case "seed":
		runSeed(os.Args[2:])
	case "help", "--help", "-h":
		usage()
	default:
		fmt.Fprintf(os.Stderr, "kchaind: unknown command %q\n\n", os.Args[1])
		usage()
		os.Exit(1)
	}
}

func usage() {
	fmt.Fprintln(os.Stderr, `Usage: kchaind <command> [options]

Commands:
  node    Run a chain node (listener, mempool, miner, gossip, sync)
  seed    Run a seed node (peer discovery registry)

Run "kchaind <command> --help" for command-specific options.`)
}

func runNode(args []string) {
	cfg, err := config.ParseNodeFlags(args)
	if err != nil {
		os.Exit(2)
	}

	if err := klog.Init(cfg.LogLevel, cfg.LogJSON, ""); err != nil {
		fmt.Fprintf(os.Stderr, "kchaind: logger init failed: %v\n", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	c := chain.New(cfg.Difficulty)
	p := mempool.New()

	n := node.New(node.Config{
		ListenAddr:   net.JoinHostPort("", strconv.Itoa(int(cfg.Port))),
		MinerAddress: cfg.Miner,
	}, c, p)

	if err := n.Start(ctx); err != nil {
		klog.Node.Fatal().Err(err).Msg("failed to start node listener")
	}

	n.Bootstrap(ctx, cfg.SeedAddr, cfg.PeerAddr)

	if cfg.Mine {
		go n.MiningLoop(ctx, cfg.Miner)
	}

	klog.Node.Info().Str("addr", n.Addr()).Bool("mining", cfg.Mine).Msg("kchaind node ready")

	<-ctx.Done()
	klog.Node.Info().Msg("shutdown signal received")
}

func runSeed(args []string) {
	cfg, err := config.ParseSeedFlags(args)
	if err != nil {
		os.Exit(2)
	}

	if err := klog.Init(cfg.LogLevel, cfg.LogJSON, ""); err != nil {
		fmt.Fprintf(os.Stderr, "kchaind: logger init failed: %v\n", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	s := seed.New()
	listenAddr := net.JoinHostPort("", strconv.Itoa(int(cfg.Port)))
	if err := s.Start(ctx, listenAddr); err != nil {
		klog.Seed.Fatal().Err(err).Msg("failed to start seed listener")
	}

	klog.Seed.Info().Str("addr", s.Addr()).Msg("kchaind seed ready")

	<-ctx.Done()
	klog.Seed.Info().Msg("shutdown signal received")
}
