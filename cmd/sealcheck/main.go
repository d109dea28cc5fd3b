// Command sealcheck verifies seal imprints in PDF documents against
// reference templates using a remote detection and comparison service.
package main

import (
	"context"
	"os"

	"github.com/charmbracelet/fang"
)

const version = "0.1.0"

func main() {
	root := newRootCmd()

	if err := fang.Execute(
		context.Background(),
		root,
		fang.WithVersion(version),
		fang.WithNotifySignal(os.Interrupt, os.Kill),
	); err != nil {
		os.Exit(1)
	}
}
