// Package command turns typed lines like "buy 3 rage x" or "go to new yrok"
// into game commands, forgiving case, word order of the quantity, and small
// typos in verbs, commodity names and cities.
package command

import (
	"errors"
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/agnivade/levenshtein"

	"github.com/talgya/blackmarket/internal/economy"
	"github.com/talgya/blackmarket/internal/world"
)

type Verb string

const (
	Buy     Verb = "buy"
	Sell    Verb = "sell"
	Travel  Verb = "travel"
	Accept  Verb = "accept"
	Decline Verb = "decline"
	Prices  Verb = "prices"
	Status  Verb = "status"
	Board   Verb = "board"
	Log     Verb = "log"
	Score   Verb = "score"
	Restart Verb = "restart"
	Help    Verb = "help"
	Quit    Verb = "quit"
)

var (
	ErrEmpty       = errors.New("type a command, or help")
	ErrUnknownVerb = errors.New("unknown command")
	ErrMissingArg  = errors.New("missing argument")
	ErrAmbiguous   = errors.New("ambiguous name")
)

// Command is one parsed line.
type Command struct {
	Verb        Verb
	Commodity   economy.Commodity
	Quantity    int  // 1 when omitted
	Max         bool // "max" or "all"
	Destination world.Location
	Name        string // score submissions
}

var verbAliases = map[string]Verb{
	"buy": Buy, "b": Buy, "purchase": Buy,
	"sell": Sell, "s": Sell, "dump": Sell,
	"travel": Travel, "go": Travel, "t": Travel, "fly": Travel, "move": Travel,
	"accept": Accept, "yes": Accept, "y": Accept,
	"decline": Decline, "no": Decline, "n": Decline,
	"prices": Prices, "p": Prices, "market": Prices,
	"status": Status, "stash": Status, "inventory": Status, "i": Status,
	"board": Board, "leaderboard": Board, "scores": Board,
	"log": Log, "journal": Log, "events": Log,
	"score": Score, "submit": Score,
	"restart": Restart, "new": Restart,
	"help": Help, "h": Help, "?": Help,
	"quit": Quit, "q": Quit, "exit": Quit,
}

// fuzzyVerbs leaves out one- and two-letter aliases, which would match
// almost any short typo.
var fuzzyVerbs = func() map[string]string {
	m := make(map[string]string, len(verbAliases))
	for alias, v := range verbAliases {
		if len(alias) > 2 {
			m[alias] = string(v)
		}
	}
	return m
}()

var commodityAliases = func() map[string]string {
	m := map[string]string{}
	for _, c := range economy.Commodities() {
		name := strings.ToLower(string(c))
		m[name] = string(c)
		m[strings.ReplaceAll(name, " ", "")] = string(c)
	}
	return m
}()

var locationAliases = func() map[string]string {
	m := map[string]string{
		"ny": string(world.NewYork), "nyc": string(world.NewYork),
		"sf": string(world.SanFrancisco), "blr": string(world.Bangalore),
		"bkk": string(world.Bangkok), "sg": string(world.Singapore),
	}
	for _, l := range world.Locations() {
		name := strings.ToLower(string(l))
		m[name] = string(l)
		m[strings.ReplaceAll(name, " ", "")] = string(l)
	}
	return m
}()

// Parse reads one input line.
func Parse(line string) (Command, error) {
	tokens := strings.Fields(normalise(line))
	if len(tokens) == 0 {
		return Command{}, ErrEmpty
	}

	verb, err := parseVerb(tokens[0])
	if err != nil {
		return Command{}, err
	}
	cmd := Command{Verb: verb, Quantity: 1}
	args := tokens[1:]

	switch verb {
	case Buy, Sell:
		args = takeQuantity(&cmd, args)
		if len(args) == 0 {
			return Command{}, fmt.Errorf("%w: %s what?", ErrMissingArg, verb)
		}
		name, err := resolve(strings.Join(args, " "), commodityAliases, economy.ErrUnknownCommodity)
		if err != nil {
			return Command{}, err
		}
		cmd.Commodity = economy.Commodity(name)

	case Travel:
		if len(args) > 0 && args[0] == "to" {
			args = args[1:]
		}
		if len(args) == 0 {
			return Command{}, fmt.Errorf("%w: travel where?", ErrMissingArg)
		}
		name, err := resolve(strings.Join(args, " "), locationAliases, world.ErrUnknownLocation)
		if err != nil {
			return Command{}, err
		}
		cmd.Destination = world.Location(name)

	case Score:
		// Names keep their original case.
		raw := strings.Fields(line)
		if len(raw) < 2 {
			return Command{}, fmt.Errorf("%w: score <your name>", ErrMissingArg)
		}
		cmd.Name = strings.Join(raw[1:], " ")
	}
	return cmd, nil
}

func parseVerb(token string) (Verb, error) {
	if v, ok := verbAliases[token]; ok {
		return v, nil
	}
	name, err := resolve(token, fuzzyVerbs, ErrUnknownVerb)
	if err != nil {
		return "", err
	}
	return Verb(name), nil
}

// takeQuantity pulls a number or "max"/"all" from either end of args.
func takeQuantity(cmd *Command, args []string) []string {
	if len(args) == 0 {
		return args
	}
	for _, idx := range []int{len(args) - 1, 0} {
		tok := args[idx]
		switch {
		case tok == "max" || tok == "all":
			cmd.Max = true
		default:
			n, err := strconv.Atoi(tok)
			if err != nil {
				continue
			}
			cmd.Quantity = n
		}
		return append(args[:idx:idx], args[idx+1:]...)
	}
	return args
}

type match struct {
	value string
	score float64
}

// resolve maps input onto one canonical value: exact alias, then prefix,
// then Levenshtein distance within a length-scaled limit.
func resolve(input string, aliases map[string]string, notFound error) (string, error) {
	if v, ok := aliases[input]; ok {
		return v, nil
	}
	best := map[string]float64{}
	for alias, value := range aliases {
		score := 0.0
		switch {
		case strings.HasPrefix(alias, input) && len(input) >= 2:
			score = 0.9
		default:
			dist := levenshtein.ComputeDistance(input, alias)
			if dist > levenshteinLimit(len(alias)) {
				continue
			}
			score = 0.72 - 0.08*float64(dist)
		}
		if score > best[value] {
			best[value] = score
		}
	}
	if len(best) == 0 {
		return "", fmt.Errorf("%w: %q", notFound, input)
	}

	ranked := make([]match, 0, len(best))
	for v, s := range best {
		ranked = append(ranked, match{value: v, score: s})
	}
	sort.Slice(ranked, func(i, j int) bool {
		if ranked[i].score == ranked[j].score {
			return ranked[i].value < ranked[j].value
		}
		return ranked[i].score > ranked[j].score
	})
	if len(ranked) > 1 && ranked[0].score-ranked[1].score < 0.05 {
		return "", fmt.Errorf("%w: %q could be %s or %s", ErrAmbiguous, input, ranked[0].value, ranked[1].value)
	}
	return ranked[0].value, nil
}

func levenshteinLimit(length int) int {
	switch {
	case length <= 4:
		return 1
	case length <= 8:
		return 2
	default:
		return 3
	}
}

// normalise lowercases and keeps letters, digits and single spaces.
func normalise(raw string) string {
	var b strings.Builder
	lastSpace := true
	for _, r := range strings.ToLower(raw) {
		switch {
		case (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') || r == '?':
			b.WriteRune(r)
			lastSpace = false
		case !lastSpace:
			b.WriteByte(' ')
			lastSpace = true
		}
	}
	return strings.TrimSpace(b.String())
}
