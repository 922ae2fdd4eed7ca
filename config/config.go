package config

import "github.com/namsral/flag"

type Config struct {
	NatsURL       string
	Channel       string
	PeerName      string
	RulesetPath   string
	EventLogPath  string
	Seed          int64
	ProbeInterval int
	Debug         bool
}

func (c *Config) Load(args []string) error {
	fs := flag.NewFlagSet("fasttrack", flag.ContinueOnError)
	fs.StringVar(&c.NatsURL, "nats-url", "nats://localhost:4222", "the NATS server URL")
	fs.StringVar(&c.Channel, "channel", "fasttrack.game", "the channel prefix for peer traffic")
	fs.StringVar(&c.PeerName, "peer-name", "", "this peer's name on the wire")
	fs.StringVar(&c.RulesetPath, "ruleset-path", "", "a YAML ruleset file; empty uses the built-in rules")
	fs.StringVar(&c.EventLogPath, "event-log-path", "", "where to write the game's event log")
	fs.Int64Var(&c.Seed, "seed", 0, "the game seed; 0 picks one at random")
	fs.IntVar(&c.ProbeInterval, "probe-interval", 3, "seconds between sync fingerprint probes")
	fs.BoolVar(&c.Debug, "debug", false, "debug logging")
	err := fs.Parse(args)
	return err
}
