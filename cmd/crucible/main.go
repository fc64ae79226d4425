// Crucible resolves build target identities and detects changes between
// incremental builds.
package main

import "github.com/crucible-build/crucible/cmd/crucible/internal/cli"

func main() {
	cli.Execute()
}
