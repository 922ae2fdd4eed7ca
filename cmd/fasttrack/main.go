package main

import (
	"os"
	"os/signal"
	"syscall"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/kenbin64/fasttrackgame-sub002/config"
	"github.com/kenbin64/fasttrackgame-sub002/game"
	"github.com/kenbin64/fasttrackgame-sub002/shell"
)

func main() {
	cfg := &config.Config{}
	if err := cfg.Load(os.Args[1:]); err != nil {
		log.Fatal().Err(err).Msg("could not load config")
	}
	zerolog.SetGlobalLevel(zerolog.InfoLevel)
	if cfg.Debug {
		zerolog.SetGlobalLevel(zerolog.DebugLevel)
	}

	rs := game.DefaultRuleset()
	if cfg.RulesetPath != "" {
		var err error
		rs, err = game.LoadRuleset(cfg.RulesetPath)
		if err != nil {
			log.Fatal().Err(err).Msg("could not load ruleset")
		}
	}

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)

	sc := shell.NewShellController(rs)
	go sc.Loop(sig)

	<-sig
	log.Info().Msg("exiting")
}
