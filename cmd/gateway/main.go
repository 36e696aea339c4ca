// Command gateway is the process entrypoint: it defers to internal/cli
// for flag parsing and the serve/version subcommands.
package main

import "github.com/daoch4n/zen-router/internal/cli"

func main() {
	cli.Execute()
}
