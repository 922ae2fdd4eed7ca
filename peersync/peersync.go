// Package peersync keeps multiple peers' game states converged over NATS.
// Every peer runs the same reducer; the wire carries events, not state.
// Each event entry is broadcast on <channel>.events; peers apply entries
// strictly in seq order, buffering anything that arrives early. A periodic
// probe on <channel>.sync compares state fingerprints, and peers that have
// fallen behind fetch the missing entries with a request on
// <channel>.resend.
//
// Divergence (equal seq, different hash) is detected and surfaced, never
// repaired: a diverged peer has a bug or a tampered log, and silently
// overwriting local state would mask it.
package peersync

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/coder/quartz"
	"github.com/nats-io/nats.go"
	"github.com/rs/zerolog/log"

	"github.com/kenbin64/fasttrackgame-sub002/game"
	"github.com/kenbin64/fasttrackgame-sub002/statehash"
)

// DefaultProbeInterval is how often a peer announces its fingerprint.
const DefaultProbeInterval = 3 * time.Second

// ErrSyncDiverged reports two peers at the same seq with different state
// fingerprints.
type ErrSyncDiverged struct {
	Seq        uint64
	LocalHash  uint64
	RemoteHash uint64
	RemotePeer string
}

func (e *ErrSyncDiverged) Error() string {
	return fmt.Sprintf("diverged from peer %s at seq %d: local hash %x, remote hash %x",
		e.RemotePeer, e.Seq, e.LocalHash, e.RemoteHash)
}

// Probe is the periodic fingerprint announcement.
type Probe struct {
	Peer string `json:"peer"`
	Seq  uint64 `json:"seq"`
	Hash uint64 `json:"hash"`
}

// ResendRequest asks for the entries in [FromSeq, ToSeq].
type ResendRequest struct {
	FromSeq uint64 `json:"from_seq"`
	ToSeq   uint64 `json:"to_seq"`
}

// Config holds the knobs for one peer.
type Config struct {
	Name          string
	NatsURL       string
	Channel       string
	ProbeInterval time.Duration
	// Clock is swappable for tests. Nil means the real clock.
	Clock quartz.Clock
}

// Peer is one synchronized participant. All exported methods are safe for
// concurrent use.
type Peer struct {
	cfg   Config
	nc    *nats.Conn
	clock quartz.Clock

	mu      sync.Mutex
	state   *game.GameState
	pending map[uint64]game.Entry

	// OnApplied is called with the new state after every applied entry.
	OnApplied func(*game.GameState)
	// OnDiverged is called when a probe exposes divergence.
	OnDiverged func(*ErrSyncDiverged)

	subs []*nats.Subscription
}

// New connects to NATS and returns a peer tracking the given state.
func New(cfg Config, initial *game.GameState) (*Peer, error) {
	if cfg.Name == "" {
		return nil, errors.New("peer needs a name")
	}
	if cfg.ProbeInterval == 0 {
		cfg.ProbeInterval = DefaultProbeInterval
	}
	if cfg.Clock == nil {
		cfg.Clock = quartz.NewReal()
	}
	nc, err := nats.Connect(cfg.NatsURL)
	if err != nil {
		return nil, err
	}
	p := &Peer{
		cfg:     cfg,
		nc:      nc,
		clock:   cfg.Clock,
		state:   initial,
		pending: make(map[uint64]game.Entry),
	}
	if err := p.subscribe(); err != nil {
		nc.Close()
		return nil, err
	}
	return p, nil
}

func (p *Peer) subscribe() error {
	sub, err := p.nc.Subscribe(p.cfg.Channel+".events", func(m *nats.Msg) {
		var e game.Entry
		if err := json.Unmarshal(m.Data, &e); err != nil {
			log.Error().Err(err).Str("peer", p.cfg.Name).Msg("undecodable event entry")
			return
		}
		p.receive(e)
	})
	if err != nil {
		return err
	}
	p.subs = append(p.subs, sub)

	sub, err = p.nc.Subscribe(p.cfg.Channel+".sync", func(m *nats.Msg) {
		var pr Probe
		if err := json.Unmarshal(m.Data, &pr); err != nil {
			log.Error().Err(err).Str("peer", p.cfg.Name).Msg("undecodable probe")
			return
		}
		p.handleProbe(pr)
	})
	if err != nil {
		return err
	}
	p.subs = append(p.subs, sub)

	sub, err = p.nc.Subscribe(p.cfg.Channel+".resend", func(m *nats.Msg) {
		var req ResendRequest
		if err := json.Unmarshal(m.Data, &req); err != nil {
			m.Respond([]byte(err.Error()))
			return
		}
		data, err := json.Marshal(p.entriesBetween(req.FromSeq, req.ToSeq))
		if err != nil {
			m.Respond([]byte(err.Error()))
			return
		}
		m.Respond(data)
	})
	if err != nil {
		return err
	}
	p.subs = append(p.subs, sub)

	p.nc.Flush()
	return p.nc.LastError()
}

// State returns the current state. Callers must treat it as read-only.
func (p *Peer) State() *game.GameState {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.state
}

// Submit applies a locally originated event and broadcasts the resulting
// entry to every peer.
func (p *Peer) Submit(evt game.Event) error {
	p.mu.Lock()
	ns, err := game.Apply(p.state, evt)
	if err != nil {
		p.mu.Unlock()
		return err
	}
	p.state = ns
	entry := ns.History[len(ns.History)-1]
	cb := p.OnApplied
	p.mu.Unlock()

	if cb != nil {
		cb(ns)
	}
	data, err := json.Marshal(entry)
	if err != nil {
		return err
	}
	return p.nc.Publish(p.cfg.Channel+".events", data)
}

// receive applies a remote entry, buffering it if earlier entries are still
// missing, and drains the buffer once the gap closes.
func (p *Peer) receive(e game.Entry) {
	p.mu.Lock()
	var applied []*game.GameState
	switch {
	case e.Seq <= p.state.Seq:
		// Already have it (our own broadcast echoes back too).
	case e.Seq == p.state.Seq+1:
		applied = p.applyLocked(e)
	default:
		log.Debug().Str("peer", p.cfg.Name).Uint64("seq", e.Seq).
			Uint64("have", p.state.Seq).Msg("buffering out-of-order entry")
		p.pending[e.Seq] = e
	}
	cb := p.OnApplied
	p.mu.Unlock()

	if cb != nil {
		for _, s := range applied {
			cb(s)
		}
	}
}

func (p *Peer) applyLocked(e game.Entry) []*game.GameState {
	var applied []*game.GameState
	for {
		evt, err := e.Decode()
		if err != nil {
			log.Error().Err(err).Str("peer", p.cfg.Name).Uint64("seq", e.Seq).
				Msg("entry does not decode, dropping")
			return applied
		}
		ns, err := game.Apply(p.state, evt)
		if err != nil {
			log.Error().Err(err).Str("peer", p.cfg.Name).Uint64("seq", e.Seq).
				Msg("remote entry rejected by reducer")
			return applied
		}
		p.state = ns
		applied = append(applied, ns)
		next, ok := p.pending[ns.Seq+1]
		if !ok {
			return applied
		}
		delete(p.pending, ns.Seq+1)
		e = next
	}
}

func (p *Peer) handleProbe(pr Probe) {
	if pr.Peer == p.cfg.Name {
		return
	}
	p.mu.Lock()
	localSeq := p.state.Seq
	localHash := statehash.Hash(p.state)
	cb := p.OnDiverged
	p.mu.Unlock()

	switch {
	case pr.Seq == localSeq && pr.Hash != localHash:
		err := &ErrSyncDiverged{
			Seq:        localSeq,
			LocalHash:  localHash,
			RemoteHash: pr.Hash,
			RemotePeer: pr.Peer,
		}
		log.Error().Err(err).Str("peer", p.cfg.Name).Msg("sync divergence detected")
		if cb != nil {
			cb(err)
		}
	case pr.Seq > localSeq:
		if err := p.fetchMissing(localSeq+1, pr.Seq); err != nil {
			log.Warn().Err(err).Str("peer", p.cfg.Name).Msg("catch-up fetch failed")
		}
	}
}

// fetchMissing asks any peer for the entries we have not seen.
func (p *Peer) fetchMissing(from, to uint64) error {
	req, err := json.Marshal(ResendRequest{FromSeq: from, ToSeq: to})
	if err != nil {
		return err
	}
	msg, err := p.nc.Request(p.cfg.Channel+".resend", req, 2*time.Second)
	if err != nil {
		return err
	}
	var entries []game.Entry
	if err := json.Unmarshal(msg.Data, &entries); err != nil {
		return err
	}
	for _, e := range entries {
		p.receive(e)
	}
	return nil
}

func (p *Peer) entriesBetween(from, to uint64) []game.Entry {
	p.mu.Lock()
	defer p.mu.Unlock()
	var out []game.Entry
	for _, e := range p.state.History {
		if e.Seq >= from && e.Seq <= to {
			out = append(out, e)
		}
	}
	return out
}

// Run announces this peer's fingerprint on the probe interval until ctx is
// canceled.
func (p *Peer) Run(ctx context.Context) error {
	ticker := p.clock.TickerFunc(ctx, p.cfg.ProbeInterval, func() error {
		p.mu.Lock()
		pr := Probe{
			Peer: p.cfg.Name,
			Seq:  p.state.Seq,
			Hash: statehash.Hash(p.state),
		}
		p.mu.Unlock()
		data, err := json.Marshal(pr)
		if err != nil {
			return err
		}
		return p.nc.Publish(p.cfg.Channel+".sync", data)
	}, "probe")
	err := ticker.Wait()
	if errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}

// Close drains the subscriptions and disconnects.
func (p *Peer) Close() {
	for _, sub := range p.subs {
		sub.Unsubscribe()
	}
	p.nc.Close()
}
