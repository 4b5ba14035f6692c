package main

import (
	"os"

	"github.com/fastmoviemaker/fmm/internal/cli"
)

func main() {
	if err := cli.Execute(); err != nil {
		os.Exit(1)
	}
}
