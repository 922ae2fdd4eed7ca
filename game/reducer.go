package game

import (
	"github.com/dgryski/go-pcgr"
	"github.com/rs/zerolog/log"

	"github.com/kenbin64/fasttrackgame-sub002/board"
	"github.com/kenbin64/fasttrackgame-sub002/deck"
	"github.com/kenbin64/fasttrackgame-sub002/move"
	"github.com/kenbin64/fasttrackgame-sub002/movegen"
	"github.com/kenbin64/fasttrackgame-sub002/rules"
)

// A Candidate is one fully vetted move choice: the generator's path and
// outcome plus the validator's verdict. UI and AI pick among these and
// answer with a MovePlayed event.
type Candidate struct {
	Move          move.Move
	Outcome       movegen.Outcome
	HopBudget     int
	CapturedOwner int
	CapturedPiece move.PieceID
	Result        rules.Result
}

// Apply is the reducer: it applies one event to s and returns the successor
// state. s is never mutated; on any error the original s is returned
// unchanged. An event for the wrong player or phase is rejected with
// InvalidEventError.
func Apply(s *GameState, evt Event) (*GameState, error) {
	if s == nil {
		return nil, invalidEvent(evt, "nil state")
	}
	var (
		ns  *GameState
		err error
	)
	switch e := evt.(type) {
	case *PlayerJoined:
		ns, err = applyPlayerJoined(s, e)
	case *GameStarted:
		ns, err = applyGameStarted(s, e)
	case *CardDrawn:
		ns, err = applyCardDrawn(s, e)
	case *MovePlayed:
		ns, err = applyMove(s, e, e.Player, e.Piece, e.Path, false)
	case *SplitMovePlayed:
		ns, err = applyMove(s, e, e.Player, e.Piece, e.Path, true)
	case *TurnEnded:
		ns, err = applyTurnEnded(s, e)
	default:
		return s, invalidEvent(evt, "unhandled event type")
	}
	if err != nil {
		return s, err
	}
	ns.Seq++
	entry, err := NewEntry(ns.Seq, evt)
	if err != nil {
		return s, err
	}
	ns.History = append(ns.History, entry)
	return ns, nil
}

func applyPlayerJoined(s *GameState, e *PlayerJoined) (*GameState, error) {
	if s.Phase != PhaseLobby {
		return nil, invalidEvent(e, "players can only join in the lobby, phase is %v", s.Phase)
	}
	if e.Name == "" {
		return nil, invalidEvent(e, "empty player name")
	}
	if len(s.Players) >= s.rules.Board.Segments {
		return nil, invalidEvent(e, "board seats at most %d players", s.rules.Board.Segments)
	}
	ns := s.Copy()
	ns.Players = append(ns.Players, PlayerState{Name: e.Name})
	return ns, nil
}

func applyGameStarted(s *GameState, e *GameStarted) (*GameState, error) {
	if s.Phase != PhaseLobby {
		return nil, invalidEvent(e, "game already started")
	}
	ns := s.Copy()
	if len(ns.Players) == 0 {
		for _, name := range e.PlayerOrder {
			ns.Players = append(ns.Players, PlayerState{Name: name})
		}
	} else if len(e.PlayerOrder) != 0 && len(e.PlayerOrder) != len(ns.Players) {
		return nil, invalidEvent(e, "player order names %d players, lobby has %d",
			len(e.PlayerOrder), len(ns.Players))
	}
	if len(ns.Players) < 2 {
		return nil, invalidEvent(e, "need at least 2 players, have %d", len(ns.Players))
	}
	if len(ns.Players) > s.rules.Board.Segments {
		return nil, invalidEvent(e, "board seats at most %d players", s.rules.Board.Segments)
	}

	ns.Seed = e.Seed
	ns.RNG = pcgr.New(e.Seed, rngStream)
	ns.Deck = deck.New(&ns.RNG)

	ns.Pieces = nil
	for p := range ns.Players {
		for i := 0; i < s.rules.PiecesPerPlayer; i++ {
			ns.Pieces = append(ns.Pieces, Piece{
				ID:    move.PieceID(p*s.rules.PiecesPerPlayer + i),
				Owner: p,
				Loc:   board.Holding(p),
			})
		}
	}
	ns.OnTurn = 0
	ns.TurnCount = 0
	ns.Phase = PhaseAwaitingDraw
	log.Debug().Int64("seed", e.Seed).Int("players", len(ns.Players)).
		Str("game", ns.ID).Msg("game started")
	return ns, nil
}

func applyCardDrawn(s *GameState, e *CardDrawn) (*GameState, error) {
	if s.Phase != PhaseAwaitingDraw {
		return nil, invalidEvent(e, "cannot draw in phase %v", s.Phase)
	}
	if e.Player != s.OnTurn {
		return nil, invalidEvent(e, "player %d drew out of turn (on turn: %d)", e.Player, s.OnTurn)
	}
	ns := s.Copy()
	c, err := ns.Deck.DrawCard(&ns.RNG)
	if err != nil {
		return nil, invalidEvent(e, "%v", err)
	}
	if c != e.Card {
		// The deck is seeded; every peer must pop the same card.
		return nil, invalidEvent(e, "event card %v disagrees with deck card %v", e.Card, c)
	}
	eff, ok := ns.rules.Effects[c.Rank]
	if !ok {
		return nil, invalidEvent(e, "rank %v has no effect", c.Rank)
	}
	ns.PendingCard = &c
	ns.PendingExtra = eff.ExtraTurn
	ns.Phase = PhaseAwaitingMove

	legal, _, err := CandidateMoves(ns)
	if err != nil {
		return nil, err
	}
	if len(legal) == 0 {
		log.Info().Str("game", ns.ID).Int("player", e.Player).
			Str("card", c.String()).Msg("no legal moves, turn auto-skips")
		ns.Phase = PhaseTurnResolution
	}
	return ns, nil
}

func applyMove(s *GameState, evt Event, player int, piece move.PieceID, path []board.Hole, split bool) (*GameState, error) {
	wantPhase := PhaseAwaitingMove
	if split {
		wantPhase = PhaseAwaitingSplit
	}
	if s.Phase != wantPhase {
		return nil, invalidEvent(evt, "cannot move in phase %v", s.Phase)
	}
	if player != s.OnTurn {
		return nil, invalidEvent(evt, "player %d moved out of turn (on turn: %d)", player, s.OnTurn)
	}
	legal, rejected, err := CandidateMoves(s)
	if err != nil {
		return nil, err
	}
	cand := matchCandidate(legal, piece, path)
	if cand == nil {
		if rej := matchCandidate(rejected, piece, path); rej != nil {
			return nil, &IllegalMoveError{Move: rej.Move, Violations: rej.Result.Violations}
		}
		return nil, &IllegalMoveError{Move: move.Move{Piece: piece, Path: path}}
	}

	// Internal consistency: the path length must equal the declared hop
	// budget. Entry moves are placements and exempt.
	if cand.Move.Type != move.TypeEntry && cand.Move.PathHops() != cand.HopBudget {
		log.Error().
			Str("game", s.ID).
			Str("move", cand.Move.String()).
			Int("declared", cand.HopBudget).
			Int("actual", cand.Move.PathHops()).
			Interface("path", cand.Move.Path).
			Msg("hop mismatch, rejecting move")
		return nil, &HopMismatchError{
			Move:     cand.Move,
			Declared: cand.HopBudget,
			Actual:   cand.Move.PathHops(),
		}
	}

	ns := s.Copy()
	applyCandidate(ns, cand)

	if ns.Phase == PhaseGameWon {
		return ns, nil
	}
	eff := ns.rules.Effects[ns.PendingCard.Rank]
	if !split && eff.SplitMove && cand.HopBudget < eff.Hops {
		ns.Phase = PhaseAwaitingSplit
		ns.SplitRemaining = eff.Hops - cand.HopBudget
		ns.SplitPiece = cand.Move.Piece
		remainder, _, err := CandidateMoves(ns)
		if err != nil {
			return nil, err
		}
		if len(remainder) == 0 {
			// The declared rule: an unplayable split remainder is forfeited.
			log.Info().Str("game", ns.ID).Int("remaining", ns.SplitRemaining).
				Msg("split remainder unplayable, forfeited")
			ns.SplitRemaining = 0
			ns.Phase = PhaseTurnResolution
		}
		return ns, nil
	}
	ns.SplitRemaining = 0
	ns.Phase = PhaseTurnResolution
	return ns, nil
}

// applyCandidate moves the piece, resolves any capture, and copies the
// generator's simulated outcome onto the real piece.
func applyCandidate(ns *GameState, cand *Candidate) {
	if cand.CapturedOwner >= 0 {
		victim := &ns.Pieces[cand.CapturedPiece]
		log.Debug().Str("game", ns.ID).
			Uint8("victim", uint8(victim.ID)).
			Str("at", victim.Loc.String()).
			Msg("piece captured")
		victim.Loc = board.Holding(victim.Owner)
		victim.OnShortcut = false
		victim.CircuitDone = false
		victim.Progress = 0
	}
	p := &ns.Pieces[cand.Move.Piece]
	p.Loc = cand.Move.To
	p.OnShortcut = cand.Outcome.OnShortcut
	p.Progress = cand.Outcome.Progress
	p.CircuitDone = p.CircuitDone || cand.Outcome.CircuitDone
	ns.MovedThisTurn = append(ns.MovedThisTurn, p.ID)

	if cand.Result.Win {
		ns.Winner = p.Owner
		ns.Phase = PhaseGameWon
		log.Info().Str("game", ns.ID).Int("winner", p.Owner).Msg("game won")
	}
}

func applyTurnEnded(s *GameState, e *TurnEnded) (*GameState, error) {
	if s.Phase != PhaseTurnResolution {
		return nil, invalidEvent(e, "cannot end turn in phase %v", s.Phase)
	}
	if e.Player != s.OnTurn {
		return nil, invalidEvent(e, "player %d ended a turn out of turn (on turn: %d)", e.Player, s.OnTurn)
	}
	ns := s.Copy()
	if ns.PendingCard != nil {
		ns.Deck.DiscardCard(*ns.PendingCard)
		ns.PendingCard = nil
	}
	if ns.rules.ForcedShortcutExit {
		relocateShortcutSquatters(ns)
	}
	// Latch circuit completion once the odometer covers a lap.
	for i := range ns.Pieces {
		p := &ns.Pieces[i]
		if p.Owner == ns.OnTurn && p.Progress >= ns.topo.LapDistance() {
			p.CircuitDone = true
		}
	}
	if ns.PendingExtra {
		log.Debug().Str("game", ns.ID).Int("player", ns.OnTurn).Msg("extra turn")
	} else {
		ns.OnTurn = (ns.OnTurn + 1) % len(ns.Players)
	}
	ns.PendingExtra = false
	ns.MovedThisTurn = nil
	ns.SplitRemaining = 0
	ns.TurnCount++
	ns.Phase = PhaseAwaitingDraw
	return ns, nil
}

// relocateShortcutSquatters applies the forced-exit rule: a piece of the
// mover still sitting on a shortcut hole that did not advance this turn is
// relocated to that hole's perimeter exit. An occupied exit defers the
// relocation to a later turn; an opponent on the exit is captured if its
// holding can receive it.
func relocateShortcutSquatters(ns *GameState) {
	for i := range ns.Pieces {
		p := &ns.Pieces[i]
		if p.Owner != ns.OnTurn || p.Loc.Kind != board.HoleShortcut || ns.pieceMoved(p.ID) {
			continue
		}
		exitIdx := (ns.topo.AdjIndex(int(p.Loc.Index)) + 1) % ns.topo.PerimeterLen()
		exit := board.Perimeter(exitIdx)
		if owner, vid, ok := ns.occupantExcluding(exit, p.ID); ok {
			if owner == p.Owner {
				log.Debug().Str("game", ns.ID).Uint8("piece", uint8(p.ID)).
					Msg("forced exit deferred, exit held by own piece")
				continue
			}
			if ns.HoldingCount(owner) >= ns.rules.HoldingCapacity {
				log.Debug().Str("game", ns.ID).Uint8("piece", uint8(p.ID)).
					Msg("forced exit deferred, victim holding full")
				continue
			}
			victim := &ns.Pieces[vid]
			victim.Loc = board.Holding(victim.Owner)
			victim.OnShortcut = false
			victim.CircuitDone = false
			victim.Progress = 0
			log.Debug().Str("game", ns.ID).Uint8("victim", uint8(vid)).
				Msg("forced exit captured the exit occupant")
		}
		log.Info().Str("game", ns.ID).Uint8("piece", uint8(p.ID)).
			Str("from", p.Loc.String()).Str("to", exit.String()).
			Msg("forced shortcut exit")
		p.Loc = exit
		p.OnShortcut = false
		p.Progress++
	}
}

// LegalMoves enumerates the vetted candidates for the pending card. It
// returns ErrNoLegalMoves when the card yields none.
func LegalMoves(s *GameState) ([]Candidate, error) {
	legal, _, err := CandidateMoves(s)
	if err != nil {
		return nil, err
	}
	if len(legal) == 0 {
		return nil, ErrNoLegalMoves
	}
	return legal, nil
}

// CandidateMoves runs the generator and the full rule registry for every
// piece of the player on turn, returning both the legal candidates and the
// rejected ones with their violation lists.
func CandidateMoves(s *GameState) (legal, rejected []Candidate, err error) {
	if s.PendingCard == nil {
		return nil, nil, invalidEvent(&MovePlayed{}, "no card pending")
	}
	eff := s.rules.Effects[s.PendingCard.Rank]
	gen := movegen.NewGenerator(s.topo, s)
	reg := rules.NewRegistry()

	splitPhase := s.Phase == PhaseAwaitingSplit
	var budgets []int
	if splitPhase {
		budgets = []int{s.SplitRemaining}
	} else {
		budgets = append(budgets, eff.Hops)
		if eff.SplitMove {
			for b := 1; b < eff.Hops; b++ {
				budgets = append(budgets, b)
			}
		}
	}

	for i := range s.Pieces {
		p := &s.Pieces[i]
		if p.Owner != s.OnTurn {
			continue
		}
		if splitPhase && p.ID == s.SplitPiece {
			continue
		}
		for _, budget := range budgets {
			if p.Loc.Kind == board.HoleHolding && budget != eff.Hops {
				// Entry is a placement; it only makes sense once, on the
				// full-budget pass.
				continue
			}
			ps := movegen.PieceState{
				ID:          p.ID,
				Owner:       p.Owner,
				Loc:         p.Loc,
				OnShortcut:  p.OnShortcut,
				CircuitDone: p.CircuitDone,
				Progress:    p.Progress,
			}
			for _, mc := range gen.GenAll(ps, eff, budget) {
				cand := Candidate{
					Move:          mc.Move,
					Outcome:       mc.Outcome,
					HopBudget:     budget,
					CapturedOwner: mc.CapturedOwner,
					CapturedPiece: mc.CapturedPiece,
				}
				if (splitPhase || budget < eff.Hops) && cand.Move.Type == move.TypePlay {
					cand.Move.Type = move.TypeSplitPart
				}
				ctx := buildContext(s, &cand, eff, budget)
				cand.Result = reg.Validate(ctx)
				if cand.Result.Valid {
					if cand.Result.Win {
						cand.Move.Annotations = append(cand.Move.Annotations, move.AnnotWins)
					}
					legal = append(legal, cand)
				} else {
					rejected = append(rejected, cand)
				}
			}
		}
	}
	return legal, rejected, nil
}

// buildContext assembles the validator's fact sheet for one candidate.
func buildContext(s *GameState, cand *Candidate, eff deck.Effect, budget int) *rules.Context {
	m := &cand.Move
	mover := s.OnTurn
	ctx := &rules.Context{
		Mover:           mover,
		Move:            *m,
		Effect:          eff,
		HopBudget:       budget,
		HoldingCapacity: s.rules.HoldingCapacity,
		PiecesPerPlayer: s.rules.PiecesPerPlayer,
		MovesBackward:   eff.Backward,
		FromHolding:     m.From.Kind == board.HoleHolding,
		FromCapture:     s.topo.IsCapture(m.From),
	}

	if owner, _, ok := s.occupantExcluding(m.To, m.Piece); ok {
		if owner == mover {
			ctx.LandsOnOwn = true
		} else {
			ctx.LandsOnOpponent = true
			ctx.VictimOwner = owner
			ctx.VictimHoldingCount = s.HoldingCount(owner)
		}
	}
	for i := 1; i < len(m.Path)-1; i++ {
		// Settled safe-zone pieces are hopped over, not walls.
		if m.Path[i].Kind == board.HoleSafe {
			continue
		}
		if owner, _, ok := s.occupantExcluding(m.Path[i], m.Piece); ok && owner == mover {
			ctx.PathBlockedByOwn = true
		}
	}
	for i := 1; i < len(m.Path); i++ {
		h := m.Path[i]
		if h.Kind == board.HoleSafe || h.Kind == board.HoleWinner {
			if int(h.Owner) == mover {
				ctx.EntersOwnSafe = true
			} else {
				ctx.EntersForeignSafe = true
			}
		}
	}

	piece := &s.Pieces[m.Piece]
	ctx.CircuitEligible = piece.CircuitDone || cand.Outcome.CircuitDone
	ctx.DestProtected = m.To.Kind == board.HoleSafe || m.To.Kind == board.HoleWinner ||
		m.To.Kind == board.HoleHolding || s.topo.IsCapture(m.To)

	fromHome := m.From.Kind == board.HoleSafe || m.From.Kind == board.HoleWinner
	toHome := m.To.Kind == board.HoleSafe || m.To.Kind == board.HoleWinner
	ctx.PiecesHomeAfter = s.HomeCount(mover)
	if toHome && !fromHome {
		ctx.PiecesHomeAfter++
	}
	return ctx
}

func matchCandidate(cands []Candidate, piece move.PieceID, path []board.Hole) *Candidate {
	for i := range cands {
		c := &cands[i]
		if c.Move.Piece != piece || len(c.Move.Path) != len(path) {
			continue
		}
		same := true
		for j := range path {
			if c.Move.Path[j] != path[j] {
				same = false
				break
			}
		}
		if same {
			return c
		}
	}
	return nil
}
