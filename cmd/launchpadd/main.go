package main

import (
	"context"
	"flag"
	"log"
	"os"
	"os/signal"
	"syscall"

	launchpadd "github.com/qerralabs/launchpad/internal/cmd/launchpadd"
)

func main() {
	cfg, err := launchpadd.ParseConfig(flag.CommandLine, os.Args[1:])
	if err != nil {
		log.Fatalf("parse flags: %v", err)
	}
	log.SetPrefix("[LAUNCHPAD] ")
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := launchpadd.Run(ctx, cfg); err != nil {
		log.Fatalf("failed to serve: %v", err)
	}
}
