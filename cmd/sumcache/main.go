// Package main is the entry point for the sumcache server and CLI.
package main

import (
	"fmt"
	"os"

	"go.uber.org/automaxprocs/maxprocs"

	_ "sumcache/cmd/sumcache/docs"
)

func main() {
	if _, err := maxprocs.Set(); err != nil {
		fmt.Fprintf(os.Stderr, "failed to set GOMAXPROCS: %v\n", err)
	}

	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}
