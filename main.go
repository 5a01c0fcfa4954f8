// ./main.go
package main

import (
	"github.com/xkilldash9x/marquee/cmd"
)

// main is the entry point for the marquee CLI. Command-line parsing,
// configuration, and logging setup all live in the cmd package.
func main() {
	cmd.Execute()
}
