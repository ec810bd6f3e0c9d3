package main

import (
	"context"
	"fmt"
	"os"

	"github.com/fatih/color"
	_ "github.com/joho/godotenv/autoload"

	"github.com/starford/jstrack/internal/cli"
)

var version = "dev"

func main() {
	if err := cli.New(version).Run(context.Background(), os.Args); err != nil {
		fmt.Fprintln(os.Stderr, color.RedString("✗ %s", cli.Explain(err)))
		os.Exit(1)
	}
}
