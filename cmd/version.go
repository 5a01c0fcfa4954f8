// -- cmd/version.go --
package cmd

// Version is the application version. Overridden at build time via
// -ldflags "-X github.com/xkilldash9x/marquee/cmd.Version=...".
var Version = "0.1.0-dev"
