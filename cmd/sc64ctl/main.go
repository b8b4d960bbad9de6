// Command sc64ctl is the host-side control and debug agent for the SC64
// flashcart: it uploads and backs up ROM, save and 64DD images, configures
// runtime options, streams debug telemetry, and delivers firmware updates
// and first-boot board bring-up over the cart's USB-serial link.
package main

import (
	"fmt"
	"os"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
