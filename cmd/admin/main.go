package main

import (
	"context"
	"flag"
	"log"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/torq-systems/torq-core/internal/client"
	"github.com/torq-systems/torq-core/internal/codec"
)

// main runs a small introspection client: it dials a relay's Unix socket,
// optionally subscribes to a comma-separated topic list (signal relay
// only), and logs every message's header as it arrives.
func main() {
	socketPath := flag.String("socket", "", "relay Unix socket to dial, e.g. /tmp/torq/signals.sock")
	consumerID := flag.String("id", "admin-cli", "consumer id to register under")
	topicsFlag := flag.String("topics", "", "comma-separated topic patterns to subscribe to (signal relay only)")
	flag.Parse()

	if *socketPath == "" {
		log.Fatal("[admin] --socket is required")
	}

	var topics []string
	if *topicsFlag != "" {
		topics = strings.Split(*topicsFlag, ",")
	}

	c, err := client.Dial(*socketPath, *consumerID, topics, logMessage)
	if err != nil {
		log.Fatalf("[admin] dial failed: %v", err)
	}
	defer c.Close()
	log.Printf("[admin] connected to %s as %s", *socketPath, *consumerID)

	ctx, cancel := context.WithCancel(context.Background())
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigCh
		log.Printf("[admin] shutting down")
		cancel()
	}()

	if err := c.Run(ctx); err != nil && ctx.Err() == nil {
		log.Printf("[admin] connection closed: %v", err)
	}
}

func logMessage(h codec.Header, payload []byte) {
	log.Printf("[admin] domain=%s source=%d seq=%d ts=%d payload_bytes=%d",
		h.RelayDomain, h.Source, h.Sequence, h.TimestampNs, len(payload))
}

func init() {
	log.SetFlags(log.LstdFlags | log.Lmicroseconds)
	log.SetOutput(os.Stdout)
}
