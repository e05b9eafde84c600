package main

import (
	"log"

	"github.com/ByLCY/spoolprint/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		log.Fatalf("spoolprint: %v", err)
	}
}
