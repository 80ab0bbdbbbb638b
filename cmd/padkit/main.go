// Command padkit manages controller profiles and input macros.
package main

import "github.com/mesh-intelligence/padkit/internal/cli"

func main() {
	cli.Execute()
}
