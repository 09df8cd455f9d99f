// Package main provides the tracelink command: it links high-level to
// low-level requirements by TF-IDF cosine similarity and scores the links
// against a reference set.
package main

import (
	"errors"
	"fmt"
	"os"

	"yashubustudio/tracelink/tracelink"
)

const (
	Version = "0.1.0"
	appName = "tracelink"
)

// Exit codes by error kind.
const (
	exitFailure       = 1
	exitConfiguration = 2
	exitInputShape    = 3
	exitDomain        = 4
)

func main() {
	if err := rootCmd().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "%s: %v\n", appName, err)
		os.Exit(exitCode(err))
	}
}

func exitCode(err error) int {
	switch {
	case errors.Is(err, tracelink.ErrConfiguration):
		return exitConfiguration
	case errors.Is(err, tracelink.ErrInputShape):
		return exitInputShape
	case errors.Is(err, tracelink.ErrDomain):
		return exitDomain
	default:
		return exitFailure
	}
}
