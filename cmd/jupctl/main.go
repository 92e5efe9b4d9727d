package main

import (
	"fmt"
	"os"

	"github.com/aman-zulfiqar/jupiter-swap-api-client/cmd/jupctl/commands"
)

func main() {
	if err := commands.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
