package main

import (
	"os"

	"github.com/mtp/newsletter/internal/interfaces/cli"
)

func main() {
	os.Exit(cli.Run(os.Args[1:]))
}
