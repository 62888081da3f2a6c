package main

import (
	"fmt"
	"os"
	"strings"
)

const VersionFile = "version.latest"

// main is the entry point of the application.
func main() {
	if err := newRootCmd(readVersion()).Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func readVersion() string {
	// read version from VersionFile file
	version, err := os.ReadFile(VersionFile)
	if err != nil {
		return "v0.0.0-dev"
	}
	return strings.TrimSpace(string(version))
}
