package main

import (
	"os"

	"github.com/soundprediction/duocdien/cmd/duocdien"
)

func main() {
	if err := duocdien.Execute(); err != nil {
		os.Exit(1)
	}
}
