package main

import (
	"os"

	"github.com/user/wealth-builder/cmd/wealthsim/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
