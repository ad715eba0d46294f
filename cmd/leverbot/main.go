package main

import (
	"os"

	"github.com/rustyeddy/leverbot/cmd/leverbot/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
