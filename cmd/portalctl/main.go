package main

import (
	"os"

	"github.com/dev-mohitbeniwal/echo-portal/cmd/portalctl/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
