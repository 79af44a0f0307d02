package main

import (
	"os"

	"github.com/carepoint-health/carepoint/internal/cli"
)

func main() {
	if err := cli.Execute(); err != nil {
		os.Exit(1)
	}
}
