package main

import (
	"os"

	"github.com/Connexions/plpydbapi/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
