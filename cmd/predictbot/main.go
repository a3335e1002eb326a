package main

import (
	"os"

	"github.com/binaryedge/predictbot/cmd/predictbot/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
