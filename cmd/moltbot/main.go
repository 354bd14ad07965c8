package main

import (
	"os"

	"github.com/3mragent/moltbot/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
