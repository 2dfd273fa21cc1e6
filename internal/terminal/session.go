// Package terminal plays a game on a line-oriented terminal: it reads typed
// commands, drives an engine.Engine and prints styled reports.
package terminal

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/dustin/go-humanize"
	"github.com/ncruces/go-strftime"

	"github.com/talgya/blackmarket/internal/command"
	"github.com/talgya/blackmarket/internal/economy"
	"github.com/talgya/blackmarket/internal/engine"
	"github.com/talgya/blackmarket/internal/entropy"
	"github.com/talgya/blackmarket/internal/leaderboard"
	"github.com/talgya/blackmarket/internal/world"
)

// Session is one player at one terminal.
type Session struct {
	eng    *engine.Engine
	board  *leaderboard.Service
	out    io.Writer
	styles styles
	scored bool

	// Prompt prints "> " before each read; off when input is piped.
	Prompt bool
}

type styles struct {
	title, money, good, warn, bad, dim lipgloss.Style
}

func newStyles(r *lipgloss.Renderer) styles {
	return styles{
		title: r.NewStyle().Bold(true).Foreground(lipgloss.Color("10")),
		money: r.NewStyle().Foreground(lipgloss.Color("2")),
		good:  r.NewStyle().Foreground(lipgloss.Color("14")),
		warn:  r.NewStyle().Foreground(lipgloss.Color("3")),
		bad:   r.NewStyle().Foreground(lipgloss.Color("1")),
		dim:   r.NewStyle().Foreground(lipgloss.Color("8")),
	}
}

// New deals a game. Output colours follow what out supports.
func New(r engine.Rules, src entropy.Source, board *leaderboard.Service, out io.Writer) *Session {
	return &Session{
		eng:    engine.NewEngine(r, src),
		board:  board,
		out:    out,
		styles: newStyles(lipgloss.NewRenderer(out)),
	}
}

// State returns the current game state.
func (s *Session) State() engine.State { return s.eng.State }

// Run reads commands from in until quit or end of input.
func (s *Session) Run(ctx context.Context, in io.Reader) error {
	s.intro()
	scanner := bufio.NewScanner(in)
	for {
		if s.Prompt {
			fmt.Fprint(s.out, s.styles.dim.Render("> "))
		}
		if !scanner.Scan() {
			return scanner.Err()
		}
		if quit := s.Exec(ctx, scanner.Text()); quit {
			return nil
		}
		if ctx.Err() != nil {
			return ctx.Err()
		}
	}
}

func (s *Session) intro() {
	s.println(s.styles.title.Render("BLACK MARKET"))
	s.printf("%d days to make your fortune. Prices swing hard; buy low, sell high.\n", s.eng.Rules.Days)
	s.println(s.styles.dim.Render("Price ranges:"))
	for _, r := range economy.RangesByMinDesc() {
		s.printf("  %-13s %s - %s\n", r.Commodity, cash(r.Min), cash(r.Max))
	}
	s.println(s.styles.dim.Render("Type help for commands."))
	s.println("")
	s.status()
	s.prices()
}

// Exec runs one command line and reports whether the player quit.
func (s *Session) Exec(ctx context.Context, line string) bool {
	cmd, err := command.Parse(line)
	if err != nil {
		if !errors.Is(err, command.ErrEmpty) {
			s.fail(err)
		}
		return false
	}

	switch cmd.Verb {
	case command.Buy, command.Sell:
		s.trade(cmd)
	case command.Travel:
		s.travel(cmd.Destination)
	case command.Accept, command.Decline:
		s.answer(cmd.Verb == command.Accept)
	case command.Prices:
		s.prices()
	case command.Status:
		s.status()
	case command.Board:
		s.leaderboard(ctx)
	case command.Log:
		s.journal()
	case command.Score:
		s.submit(ctx, cmd.Name)
	case command.Restart:
		s.eng.Restart()
		s.scored = false
		s.println(s.styles.title.Render("New game."))
		s.status()
		s.prices()
	case command.Help:
		s.help()
	case command.Quit:
		s.println("Stay safe out there.")
		return true
	}
	return false
}

func (s *Session) trade(cmd command.Command) {
	st := s.eng.State
	qty := cmd.Quantity
	var (
		trade engine.Trade
		err   error
	)
	if cmd.Verb == command.Buy {
		if cmd.Max {
			qty = engine.MaxBuy(st, cmd.Commodity)
		}
		trade, err = s.eng.Buy(cmd.Commodity, qty)
	} else {
		if cmd.Max {
			qty = st.Inventory[cmd.Commodity]
		}
		trade, err = s.eng.Sell(cmd.Commodity, qty)
	}
	if err != nil {
		s.fail(err)
		return
	}
	if trade.Quantity == 0 {
		s.println(s.styles.dim.Render("Nothing to trade."))
		return
	}
	verb := "Bought"
	if cmd.Verb == command.Sell {
		verb = "Sold"
	}
	s.printf("%s %d %s at %s for %s. Cash: %s\n", verb, trade.Quantity, trade.Commodity,
		cash(trade.Price), cash(trade.Total), s.styles.money.Render(cash(s.eng.State.Cash)))
}

func (s *Session) travel(dest world.Location) {
	report, err := s.eng.Travel(dest)
	if err != nil {
		s.fail(err)
		return
	}
	s.println(s.styles.title.Render(fmt.Sprintf("Day %d: %s", report.Day, report.To)))
	if o := report.Override; o != nil {
		if o.Kind == engine.High {
			s.println(s.styles.good.Render(fmt.Sprintf("Buyers here are desperate: %s goes for %s!", o.Commodity, cash(o.Price()))))
		} else {
			s.println(s.styles.good.Render(fmt.Sprintf("Cheap stash: %s at %s.", o.Commodity, cash(o.Price()))))
		}
	}
	if ev := report.Event; ev != nil {
		style := s.styles.warn
		switch ev.Kind {
		case engine.Crackdown, engine.Overdose, engine.TechGlitch:
			style = s.styles.bad
		}
		s.println(style.Render(ev.Message))
		if ev.Kind == engine.StashUpgrade && s.eng.State.Offer != nil {
			s.println(s.styles.dim.Render("Type accept or decline."))
		}
	}
	if report.GameOver {
		s.println(s.styles.title.Render("Time's up! Final cash: " + cash(report.Score)))
		s.println(s.styles.dim.Render("Type score <your name> to post it, or restart."))
		return
	}
	s.prices()
}

func (s *Session) answer(accept bool) {
	offer := s.eng.State.Offer
	if err := s.eng.Answer(accept); err != nil {
		s.fail(err)
		return
	}
	if accept {
		s.printf("Paid %s. Your stash now holds %d.\n", cash(offer.Price), s.eng.State.Capacity)
		return
	}
	s.println("You walk away from the fixer.")
}

func (s *Session) prices() {
	st := s.eng.State
	s.println(s.styles.dim.Render("Market in " + string(st.Location)))
	for _, q := range st.Prices {
		held := ""
		if n := st.Inventory[q.Commodity]; n > 0 {
			held = s.styles.dim.Render(fmt.Sprintf("(holding %d)", n))
		}
		s.printf("  %-13s %10s  %s\n", q.Commodity, cash(q.Price), held)
	}
}

func (s *Session) status() {
	st := s.eng.State
	s.printf("Day %d/%d  %s  Cash %s  Stash %d/%d\n", st.Day, s.eng.Rules.Days, st.Location,
		s.styles.money.Render(cash(st.Cash)), st.Held(), st.Capacity)
	if o, ok := st.PendingOverride(engine.High); ok {
		s.println(s.styles.dim.Render(fmt.Sprintf("Tip: %s sells high in %s.", o.Commodity, o.Location)))
	}
	if o, ok := st.PendingOverride(engine.Low); ok {
		s.println(s.styles.dim.Render(fmt.Sprintf("Tip: cheap %s in %s.", o.Commodity, o.Location)))
	}
}

func (s *Session) journal() {
	for _, e := range s.eng.Journal {
		s.printf("  day %2d  %s\n", e.Day, e.Description)
	}
}

func (s *Session) leaderboard(ctx context.Context) {
	entries, err := s.board.Board(ctx)
	if err != nil {
		s.println(s.styles.bad.Render("Could not load the leaderboard, showing last known scores."))
	}
	s.renderBoard(entries)
}

func (s *Session) submit(ctx context.Context, name string) {
	st := s.eng.State
	switch {
	case !st.Over:
		s.fail(errors.New("finish the game before posting a score"))
		return
	case s.scored:
		s.fail(errors.New("score already posted, restart to play again"))
		return
	}
	entry, err := leaderboard.NewEntry(name, st.Score())
	if err != nil {
		s.fail(err)
		return
	}
	entries, err := s.board.Submit(ctx, entry)
	if err != nil {
		s.println(s.styles.bad.Render("Could not submit score, try again."))
		return
	}
	s.scored = true
	s.println(s.styles.good.Render(fmt.Sprintf("Posted %s for %s.", cash(entry.Score), entry.Name)))
	s.renderBoard(entries)
}

func (s *Session) renderBoard(entries []leaderboard.Entry) {
	s.println(s.styles.title.Render("Leaderboard"))
	if len(entries) == 0 {
		s.println(s.styles.dim.Render("  no scores yet"))
		return
	}
	for i, e := range entries {
		s.printf("  %2d. %-20s %12s  %s\n", i+1, e.Name, cash(e.Score), s.styles.dim.Render(date(e.CreatedAt)))
	}
}

func (s *Session) help() {
	s.println(strings.Join([]string{
		"  buy <qty|max> <commodity>    sell <qty|all> <commodity>",
		"  travel <city>                accept / decline an offer",
		"  prices   status   log        board   score <name>",
		"  restart  quit",
		"  Cities: " + joinLocations(world.Destinations(s.eng.State.Location)),
	}, "\n"))
}

func (s *Session) fail(err error) {
	s.println(s.styles.bad.Render(err.Error()))
}

func (s *Session) println(line string) { fmt.Fprintln(s.out, line) }

func (s *Session) printf(format string, args ...any) { fmt.Fprintf(s.out, format, args...) }

func cash(n int) string { return "$" + humanize.Comma(int64(n)) }

func date(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return strftime.Format("%b %d %Y", t.Local())
}

func joinLocations(locs []world.Location) string {
	names := make([]string, len(locs))
	for i, l := range locs {
		names[i] = string(l)
	}
	return strings.Join(names, ", ")
}
