package main

import (
	"log/slog"

	"github.com/hookloop/hookloop/pkg/hookloop"
)

func main() {

	//you may do your own logger setup here or use this default one with slog
	hookloop.SetupLogger()

	if err := hookloop.Start(nil); err != nil {
		slog.Error("Engine exited with error", "error", err)
	}
}
