package main

import (
	"os"

	"github.com/tryfit/stylist/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
