package main

import (
	"os"

	"reuseit/delivery/starter/commands"
)

func main() {
	if err := commands.Execute(); err != nil {
		os.Exit(1)
	}
}
