// Package main starts the session event streaming service and handles
// termination.
//
// The process is a transport adapter around event buffering, replay, and
// fan-out so game state remains owned by the domain-action backend.
package main

import (
	"context"
	"flag"
	"log"
	"os"
	"os/signal"
	"syscall"

	streamcmd "github.com/drifthall/gamewire/internal/cmd/stream"
)

func main() {
	cfg, err := streamcmd.ParseConfig(flag.CommandLine, os.Args[1:])
	if err != nil {
		log.Fatalf("parse flags: %v", err)
	}
	log.SetPrefix("[STREAM] ")

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := streamcmd.Run(ctx, cfg); err != nil {
		log.Fatalf("failed to serve: %v", err)
	}
}
