package main

import (
	"os"

	"donation-portal/internal/cli"
	"donation-portal/pkg/logging"
)

func main() {
	err := cli.Execute()
	logging.Sync()
	if err != nil {
		os.Exit(1)
	}
}
