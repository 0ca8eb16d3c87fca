package main

import (
	"os"

	"github.com/questx-lab/raffle/pkg/logger"
)

var server srv

func main() {
	server.loadApp()
	if err := server.app.Run(os.Args); err != nil {
		logger.NewLogger(logger.ERROR).Errorf("Cannot run the command: %v", err)
		os.Exit(1)
	}
}
