// Package main is the entry point for the linear-dash terminal dashboard.
package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/roeyazroel/linear-dash/internal/config"
)

func main() {
	if err := Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		if errors.Is(err, config.ErrMissingAPIKey) {
			os.Exit(2)
		}
		os.Exit(1)
	}
}
