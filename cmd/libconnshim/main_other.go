//go:build !(cgo && linux)

// Command libconnshim is only available on Linux with cgo enabled.
package main

import (
	"fmt"
	"os"
)

func main() {
	fmt.Fprintln(os.Stderr, "libconnshim: build with CGO_ENABLED=1 -buildmode=c-shared on linux")
	os.Exit(1)
}
