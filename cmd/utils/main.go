package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/aquamarinepk/aqm"

	"github.com/appetiteclub/burger/cmd/utils/internal/commands"
)

const (
	appName    = "burger-utils"
	appVersion = "0.1.0"
)

func main() {
	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}

	config, err := aqm.LoadConfig("UTILS", os.Args[2:])
	if err != nil {
		log.Fatalf("Cannot load config: %v", err)
	}

	logger := aqm.NewLogger(config.GetStringOrDef("log.level", "info"))

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	command := os.Args[1]

	switch command {
	case "tail-events":
		if err := commands.TailEvents(ctx, config, logger); err != nil {
			log.Fatalf("Tail events failed: %v", err)
		}

	case "clear-credentials":
		if err := commands.ClearCredentials(ctx, config, logger); err != nil {
			log.Fatalf("Clear credentials failed: %v", err)
		}
		logger.Info("Credentials cleared")

	case "version":
		fmt.Printf("%s version %s\n", appName, appVersion)

	case "help", "-h", "--help":
		printUsage()

	default:
		fmt.Printf("Unknown command: %s\n\n", command)
		printUsage()
		os.Exit(1)
	}
}

func printUsage() {
	fmt.Printf(`%s - Burger utility commands

Usage:
  %s <command> [options]

Commands:
  tail-events        Log order and feed events published on NATS
  clear-credentials  Delete stored session credentials from MongoDB
  version            Print version information
  help               Show this help message

Environment Variables:
  UTILS_NATS_URL       NATS connection URL (default: nats://localhost:4222)
  UTILS_DB_MONGO_URL   MongoDB connection URL (default: mongodb://localhost:27017)
  UTILS_DB_MONGO_NAME  MongoDB database (default: burger)
  UTILS_AUTH_SESSION   Only clear this session (default: all sessions)
  UTILS_LOG_LEVEL      Log level: debug, info, warn, error (default: info)

Examples:
  %s tail-events
  UTILS_AUTH_SESSION=default %s clear-credentials

`, appName, appName, appName, appName)
}
