package main

import (
	"os"

	"bare-backup/src/cli"
)

func main() {
	os.Exit(cli.Execute())
}
