package shell

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"syscall"

	"github.com/chzyer/readline"
	"github.com/rs/zerolog/log"

	"github.com/kenbin64/fasttrackgame-sub002/eventlog"
	"github.com/kenbin64/fasttrackgame-sub002/game"
	"github.com/kenbin64/fasttrackgame-sub002/statehash"
)

type ShellController struct {
	l *readline.Instance

	ruleset  *game.Ruleset
	curState *game.GameState

	curCandidates []game.Candidate
}

func filterInput(r rune) (rune, bool) {
	switch r {
	// block CtrlZ feature
	case readline.CharCtrlZ:
		return r, false
	}
	return r, true
}

func showMessage(msg string, w io.Writer) {
	io.WriteString(w, msg)
	io.WriteString(w, "\n")
}

func NewShellController(rs *game.Ruleset) *ShellController {
	l, err := readline.NewEx(&readline.Config{
		Prompt:          "\033[31mfasttrack>\033[0m ",
		HistoryFile:     "/tmp/readline.tmp",
		EOFPrompt:       "exit",
		InterruptPrompt: "^C",

		HistorySearchFold:   true,
		FuncFilterInputRune: filterInput,
	})

	if err != nil {
		panic(err)
	}
	return &ShellController{l: l, ruleset: rs}
}

func (sc *ShellController) showMessage(msg string) {
	showMessage(msg, sc.l.Stderr())
}

func (sc *ShellController) showError(err error) {
	sc.showMessage("Error: " + err.Error())
}

func (sc *ShellController) newGame(line string) error {
	names := strings.Fields(line)[1:]
	if len(names) < 2 {
		return errors.New("need at least two player names")
	}
	s, err := game.NewGameState(sc.ruleset)
	if err != nil {
		return err
	}
	for _, name := range names {
		s, err = game.Apply(s, &game.PlayerJoined{Name: name})
		if err != nil {
			return err
		}
	}
	sc.curState = s
	sc.curCandidates = nil
	return nil
}

func (sc *ShellController) startGame(line string) error {
	if sc.curState == nil {
		return errors.New("create a game first with the `new` command")
	}
	seed := game.RandomSeed()
	fields := strings.Fields(line)
	if len(fields) > 1 {
		var err error
		seed, err = strconv.ParseInt(fields[1], 10, 64)
		if err != nil {
			return err
		}
	}
	s, err := game.Apply(sc.curState, &game.GameStarted{Seed: seed})
	if err != nil {
		return err
	}
	sc.curState = s
	return nil
}

func (sc *ShellController) draw() error {
	if sc.curState == nil {
		return errors.New("no game in progress")
	}
	next, err := game.NextCard(sc.curState)
	if err != nil {
		return err
	}
	s, err := game.Apply(sc.curState, &game.CardDrawn{
		Player: sc.curState.OnTurn,
		Card:   next,
	})
	if err != nil {
		return err
	}
	sc.curState = s
	sc.curCandidates = nil
	sc.showMessage("Drew: " + next.String())
	return nil
}

func (sc *ShellController) genAndDisplay() error {
	if sc.curState == nil {
		return errors.New("no game in progress")
	}
	legal, rejected, err := game.CandidateMoves(sc.curState)
	if err != nil {
		return err
	}
	sc.curCandidates = legal
	var sb strings.Builder
	for i, c := range legal {
		fmt.Fprintf(&sb, "%3d: %s\n", i+1, c.Move.String())
	}
	if len(legal) == 0 {
		sb.WriteString("no legal moves\n")
	}
	if len(rejected) > 0 {
		fmt.Fprintf(&sb, "(%d rejected", len(rejected))
		for _, c := range rejected {
			for _, r := range c.Result.Reasons() {
				fmt.Fprintf(&sb, "; %s", r)
			}
		}
		sb.WriteString(")\n")
	}
	sc.showMessage(sb.String())
	return nil
}

func (sc *ShellController) playMove(line string) error {
	if sc.curState == nil {
		return errors.New("no game in progress")
	}
	if sc.curCandidates == nil {
		if err := sc.genAndDisplay(); err != nil {
			return err
		}
	}
	fields := strings.Fields(line)
	if len(fields) != 2 {
		return errors.New("usage: play <number from the moves list>")
	}
	n, err := strconv.Atoi(fields[1])
	if err != nil {
		return err
	}
	idx := n - 1
	if idx < 0 || idx >= len(sc.curCandidates) {
		return errors.New("move outside range")
	}
	cand := sc.curCandidates[idx]

	var evt game.Event
	if sc.curState.Phase == game.PhaseAwaitingSplit {
		evt = &game.SplitMovePlayed{
			Player: sc.curState.OnTurn,
			Piece:  cand.Move.Piece,
			Path:   cand.Move.Path,
		}
	} else {
		evt = &game.MovePlayed{
			Player: sc.curState.OnTurn,
			Piece:  cand.Move.Piece,
			Path:   cand.Move.Path,
		}
	}
	s, err := game.Apply(sc.curState, evt)
	if err != nil {
		return err
	}
	sc.curState = s
	sc.curCandidates = nil
	return nil
}

func (sc *ShellController) endTurn() error {
	if sc.curState == nil {
		return errors.New("no game in progress")
	}
	s, err := game.Apply(sc.curState, &game.TurnEnded{Player: sc.curState.OnTurn})
	if err != nil {
		return err
	}
	sc.curState = s
	sc.curCandidates = nil
	return nil
}

func (sc *ShellController) saveLog(path string) error {
	if sc.curState == nil {
		return errors.New("no game in progress")
	}
	return eventlog.WriteFile(path, sc.curState)
}

func (sc *ShellController) loadLog(path string) error {
	entries, err := eventlog.ReadFile(path)
	if err != nil {
		return err
	}
	s, err := eventlog.Replay(sc.ruleset, entries, 0)
	if err != nil {
		return err
	}
	sc.curState = s
	sc.curCandidates = nil
	log.Debug().Uint64("seq", s.Seq).Msgf("Loaded game from %v", path)
	return nil
}

func (sc *ShellController) audit() error {
	if sc.curState == nil {
		return errors.New("no game in progress")
	}
	s, corrections := game.Audit(sc.curState)
	if len(corrections) == 0 {
		sc.showMessage("state is consistent")
		return nil
	}
	for _, c := range corrections {
		sc.showMessage(c.String())
	}
	sc.curState = s
	return nil
}

func (sc *ShellController) display() {
	if sc.curState == nil {
		sc.showMessage("no game in progress")
		return
	}
	sc.showMessage(DisplayText(sc.curState))
}

func usage(w io.Writer) {
	io.WriteString(w, "commands:\n")
	io.WriteString(w, "new <name> <name> [...] - create a game with the given players\n")
	io.WriteString(w, "start [seed] - start the game, optionally with a fixed seed\n")
	io.WriteString(w, "draw - draw a card for the player on turn\n")
	io.WriteString(w, "moves - list the legal moves for the pending card\n")
	io.WriteString(w, "play <n> - play move n from the moves list\n")
	io.WriteString(w, "end - end the turn\n")
	io.WriteString(w, "show - display the game state\n")
	io.WriteString(w, "hash - print the state fingerprint\n")
	io.WriteString(w, "save <path> - write the event log\n")
	io.WriteString(w, "load <path> - replay an event log\n")
	io.WriteString(w, "audit - check piece records for inconsistencies\n")
	io.WriteString(w, "exit\n")
}

func (sc *ShellController) commandSwitch(line string) error {
	switch {
	case strings.HasPrefix(line, "new "):
		if err := sc.newGame(line); err != nil {
			sc.showError(err)
			break
		}
		sc.display()

	case line == "start" || strings.HasPrefix(line, "start "):
		if err := sc.startGame(line); err != nil {
			sc.showError(err)
			break
		}
		sc.display()

	case line == "draw":
		if err := sc.draw(); err != nil {
			sc.showError(err)
			break
		}
		sc.display()

	case line == "moves":
		if err := sc.genAndDisplay(); err != nil {
			sc.showError(err)
		}

	case strings.HasPrefix(line, "play "):
		if err := sc.playMove(line); err != nil {
			sc.showError(err)
			break
		}
		sc.display()

	case line == "end":
		if err := sc.endTurn(); err != nil {
			sc.showError(err)
			break
		}
		sc.display()

	case line == "show":
		sc.display()

	case line == "hash":
		if sc.curState == nil {
			sc.showMessage("no game in progress")
			break
		}
		sc.showMessage(fmt.Sprintf("%d %x", sc.curState.Seq, statehash.Hash(sc.curState)))

	case strings.HasPrefix(line, "save "):
		if err := sc.saveLog(strings.TrimSpace(line[5:])); err != nil {
			sc.showError(err)
		}

	case strings.HasPrefix(line, "load "):
		if err := sc.loadLog(strings.TrimSpace(line[5:])); err != nil {
			sc.showError(err)
			break
		}
		sc.display()

	case line == "audit":
		if err := sc.audit(); err != nil {
			sc.showError(err)
		}

	case line == "help":
		usage(sc.l.Stderr())

	default:
		if strings.TrimSpace(line) != "" {
			log.Debug().Msgf("you said: %v", strconv.Quote(line))
		}
	}
	return nil
}

func (sc *ShellController) Loop(sig chan os.Signal) {

	defer sc.l.Close()

	for {

		line, err := sc.l.Readline()
		if err == readline.ErrInterrupt {
			if len(line) == 0 {
				sig <- syscall.SIGINT
				break
			} else {
				continue
			}
		} else if err == io.EOF {
			sig <- syscall.SIGINT
			break
		}
		line = strings.TrimSpace(line)
		if line == "exit" {
			sig <- syscall.SIGINT
			break
		}

		if err := sc.commandSwitch(line); err != nil {
			log.Error().Err(err).Msg("")
			break
		}

	}
	log.Debug().Msgf("Exiting readline loop...")
}
