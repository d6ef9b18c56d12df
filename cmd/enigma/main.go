// enigma runs messages through a simulated rotor cipher machine.
//
// Usage:
//
//	enigma [flags] <machine> [input [output]]
//	enigma run|watch|rotors|describe|history|config|version ...
//
// The machine is a description file in the classic text format or in
// YAML, TOML or JSON. Input defaults to stdin and output to stdout.
package main

import (
	"context"
	"io"
	"os"
	"os/signal"
	"syscall"
)

// version is set at build time with -ldflags "-X main.version=...".
var version = "dev"

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	code := execute(ctx, os.Args[1:], os.Stdin, os.Stdout, os.Stderr)
	stop()
	os.Exit(code)
}

func execute(ctx context.Context, args []string, stdin io.Reader, stdout, stderr io.Writer) int {
	return newApp(stdin, stdout, stderr).execute(ctx, args)
}
