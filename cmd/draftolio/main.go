package main

import (
	"os"

	"github.com/wttnguyen/draftolio/internal/cli"
)

func main() {
	if err := cli.Execute(); err != nil {
		os.Exit(1)
	}
}
