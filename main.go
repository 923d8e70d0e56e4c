package main

import (
	"os"

	"hotpot/cmd"
)

func main() {
	os.Exit(cmd.Execute())
}
