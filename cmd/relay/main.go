package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/torq-systems/torq-core/internal/clock"
	"github.com/torq-systems/torq-core/internal/codec"
	"github.com/torq-systems/torq-core/internal/config"
	"github.com/torq-systems/torq-core/internal/relay"
)

func main() {
	configFile := flag.String("configFile", "", "path to the relay's YAML config file")
	flag.Parse()

	if *configFile == "" {
		log.Fatal("[main] --configFile is required")
	}

	cfg, err := config.Load(*configFile)
	if err != nil {
		log.Fatalf("[main] config load failed: %v", err)
	}
	log.Printf("[main] config loaded: domain=%s socket=%s", cfg.Relay.Domain, cfg.Relay.SocketPath)

	clock.InitGlobal()

	engine, err := buildEngine(cfg)
	if err != nil {
		log.Fatalf("[main] failed to build relay engine: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())

	errCh := make(chan error, 1)
	go func() { errCh <- engine.ListenAndServe(ctx) }()
	log.Printf("[main] relay listening: domain=%s socket=%s", cfg.Relay.Domain, cfg.Relay.SocketPath)

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-sigCh:
		log.Printf("[main] received %v, shutting down", sig)
		cancel()
		engine.Shutdown()
	case err := <-errCh:
		if err != nil {
			log.Printf("[main] relay exited: %v", err)
		}
	}

	log.Printf("[main] relay stopped: domain=%s", cfg.Relay.Domain)
}

// buildEngine constructs the domain-appropriate relay.Engine named by cfg.
func buildEngine(cfg *config.Config) (*relay.Engine, error) {
	engineCfg := cfg.Relay.EngineConfig()

	domain, err := cfg.Relay.ParsedDomain()
	if err != nil {
		return nil, err
	}

	switch domain {
	case codec.DomainMarketData:
		return relay.NewEngine(relay.NewMarketDataPolicy(cfg.Relay.SocketPath), engineCfg), nil
	case codec.DomainSignal:
		registry := cfg.Relay.TopicRegistry()
		return relay.NewEngine(relay.NewSignalPolicy(cfg.Relay.SocketPath, registry), engineCfg), nil
	case codec.DomainExecution:
		return relay.NewEngine(relay.NewExecutionPolicy(cfg.Relay.SocketPath), engineCfg), nil
	case codec.DomainSystem:
		return relay.NewEngine(relay.NewSystemPolicy(cfg.Relay.SocketPath), engineCfg), nil
	default:
		return nil, fmt.Errorf("unhandled relay domain %v", domain)
	}
}

func init() {
	log.SetFlags(log.LstdFlags | log.Lmicroseconds)
	log.SetOutput(os.Stdout)
}
