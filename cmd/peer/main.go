// The peer command runs a headless synchronized participant: it joins a
// channel, applies every event the other peers broadcast, answers catch-up
// requests, and logs any divergence it detects. Pointing several peers at
// one NATS server and driving the game from any of them keeps them all on
// the same state.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"

	"github.com/kenbin64/fasttrackgame-sub002/config"
	"github.com/kenbin64/fasttrackgame-sub002/eventlog"
	"github.com/kenbin64/fasttrackgame-sub002/game"
	"github.com/kenbin64/fasttrackgame-sub002/peersync"
	"github.com/kenbin64/fasttrackgame-sub002/statehash"
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
	if cfg.PeerName == "" {
		log.Fatal().Msg("-peer-name is required")
	}

	rs := game.DefaultRuleset()
	if cfg.RulesetPath != "" {
		var err error
		rs, err = game.LoadRuleset(cfg.RulesetPath)
		if err != nil {
			log.Fatal().Err(err).Msg("could not load ruleset")
		}
	}
	initial, err := game.NewGameState(rs)
	if err != nil {
		log.Fatal().Err(err).Msg("")
	}

	p, err := peersync.New(peersync.Config{
		Name:          cfg.PeerName,
		NatsURL:       cfg.NatsURL,
		Channel:       cfg.Channel,
		ProbeInterval: time.Duration(cfg.ProbeInterval) * time.Second,
	}, initial)
	if err != nil {
		log.Fatal().Err(err).Msg("could not connect")
	}
	defer p.Close()

	p.OnApplied = func(s *game.GameState) {
		log.Info().Uint64("seq", s.Seq).
			Str("phase", s.Phase.String()).
			Str("hash", fmt.Sprintf("%016x", statehash.Hash(s))).
			Msg("applied")
		if cfg.EventLogPath != "" {
			if err := eventlog.WriteFile(cfg.EventLogPath, s); err != nil {
				log.Error().Err(err).Msg("could not write event log")
			}
		}
	}
	p.OnDiverged = func(err *peersync.ErrSyncDiverged) {
		log.Error().Err(err).Msg("peer has diverged, refusing to continue")
	}

	ctx, cancel := context.WithCancel(context.Background())
	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return p.Run(ctx)
	})
	g.Go(func() error {
		sig := make(chan os.Signal, 1)
		signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)
		select {
		case <-sig:
			cancel()
		case <-ctx.Done():
		}
		return nil
	})

	log.Info().Str("channel", cfg.Channel).Str("peer", cfg.PeerName).Msg("listening")
	if err := g.Wait(); err != nil {
		log.Fatal().Err(err).Msg("")
	}
}
