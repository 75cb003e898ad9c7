// Command pidigits serves and prints decimal digits of pi.
package main

import (
	"os"

	"github.com/jonwraymond/pidigits/internal/cli"
)

var version = "dev"

func main() {
	if err := cli.NewRootCmd(version).Execute(); err != nil {
		os.Exit(1)
	}
}
