package main

import (
	"fmt"
	"os"

	"github.com/tphakala/aliendaw/cmd"
	"github.com/tphakala/aliendaw/internal/conf"
)

func main() {
	settings, err := conf.Load(os.Getenv("ALIENDAW_CONFIG"))
	if err != nil {
		fmt.Fprintf(os.Stderr, "error loading configuration: %v\n", err)
		os.Exit(1)
	}

	if err := cmd.RootCommand(settings).Execute(); err != nil {
		os.Exit(1)
	}
}
