package main

import (
	"os"

	"musicbox/cmd"

	"github.com/rs/zerolog/log"
)

func main() {
	if err := cmd.Execute(); err != nil {
		log.Error().Err(err).Msg("musicbox failed")
		os.Exit(1)
	}
}
