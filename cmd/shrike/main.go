package main

import (
	"errors"
	"os"

	"github.com/charmbracelet/log"

	"shrike/internal/app"
)

func main() {
	if err := app.Run(); err != nil {
		if errors.Is(err, app.ErrInterrupted) {
			os.Exit(130)
		}
		log.Fatal("run terminated", "error", err)
	}
}
