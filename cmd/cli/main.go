// Package main is the entry point for the querywatch CLI binary.
package main

import (
	"os"

	cli "querywatch/pkg/cli"
)

func main() {
	os.Exit(cli.Execute())
}
