package main

import (
	"os"

	"github.com/memberdesk/backend/cmd/memberctl/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
