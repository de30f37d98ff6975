package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	dotenv "github.com/joho/godotenv"
	"github.com/urfave/cli/v2"
)

func main() {
	_ = dotenv.Load()

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)

	app := &cli.App{
		Name:  "intelhub",
		Usage: "credential store and authentication service",
		Commands: []*cli.Command{
			serveCommand(),
			setupCommand(),
			userCommand(),
		},
	}

	if err := app.RunContext(ctx, os.Args); err != nil {
		cancel()
		log.Fatal(err)
	}

	cancel()
}
