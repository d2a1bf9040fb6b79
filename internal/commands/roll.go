package commands

import (
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/bwmarrin/discordgo"

	"github.com/keshon/breadbot/pkg/arguments"
	"github.com/keshon/breadbot/pkg/breadbot"
	"github.com/keshon/breadbot/pkg/plugins/cooldown"
)

const (
	maxDice  = 100
	maxSides = 1000
)

var (
	formulaToken = regexp.MustCompile(`(?i)\d*d\d+|\d+|[+\-*/]`)
	diceToken    = regexp.MustCompile(`(?i)^(\d*)d(\d+)$`)
)

// RollCommand evaluates dice formulas such as 2d6+1d4*2-3.
type RollCommand struct {
	breadbot.Command  `keys:"roll,dice" group:"fun" desc:"Roll dice like 2d20+1d6-2"`
	cooldown.Cooldown `every:"2s" burst:"3"`
}

func (*RollCommand) Annotations() breadbot.Annotations {
	return breadbot.Annotations{
		"Main.0": {breadbot.Name("formula"), breadbot.Width(0)},
	}
}

func (*RollCommand) Main(formula *string) *discordgo.MessageSend {
	if formula == nil {
		return &discordgo.MessageSend{Content: "Give me a formula, for example `2d6+3`."}
	}
	expr := strings.ReplaceAll(*formula, " ", "")
	total, calc, err := evaluate(expr)
	if err != nil {
		return &discordgo.MessageSend{Content: fmt.Sprintf("Cannot roll `%s`: %v.", expr, err)}
	}
	return &discordgo.MessageSend{Embeds: []*discordgo.MessageEmbed{{
		Title:       "🎲 Dice Roll",
		Description: fmt.Sprintf("**Formula**: `%s`\n**Calculation**: %s\n**Result**: **%d**", expr, calc, total),
		Color:       embedColor,
	}}}
}

type term struct {
	op    byte
	value int
	desc  string
}

// evaluate rolls expr, applying * and / before + and -.
func evaluate(expr string) (int, string, error) {
	tokens := formulaToken.FindAllString(expr, -1)
	if len(tokens) == 0 || strings.Join(tokens, "") != expr {
		return 0, "", errors.New("unrecognised formula")
	}

	var terms []term
	op := byte('+')
	expectOperand := true
	for _, tok := range tokens {
		if len(tok) == 1 && strings.ContainsAny(tok, "+-*/") {
			if expectOperand {
				return 0, "", fmt.Errorf("unexpected %q", tok)
			}
			op = tok[0]
			expectOperand = true
			continue
		}
		if !expectOperand {
			return 0, "", fmt.Errorf("missing operator before %q", tok)
		}
		v, desc, err := rollToken(tok)
		if err != nil {
			return 0, "", err
		}
		if op == '*' || op == '/' {
			prev := &terms[len(terms)-1]
			if op == '/' {
				if v == 0 {
					return 0, "", errors.New("division by zero")
				}
				prev.value /= v
			} else {
				prev.value *= v
			}
			prev.desc += fmt.Sprintf(" %c %s", op, desc)
		} else {
			terms = append(terms, term{op: op, value: v, desc: desc})
		}
		expectOperand = false
	}
	if expectOperand {
		return 0, "", errors.New("formula ends with an operator")
	}

	total := 0
	var sb strings.Builder
	for i, t := range terms {
		if i > 0 {
			fmt.Fprintf(&sb, " %c ", t.op)
		}
		sb.WriteString(t.desc)
		if t.op == '-' {
			total -= t.value
		} else {
			total += t.value
		}
	}
	return total, sb.String(), nil
}

func rollToken(tok string) (int, string, error) {
	m := diceToken.FindStringSubmatch(tok)
	if m == nil {
		n, err := strconv.Atoi(tok)
		if err != nil {
			return 0, "", fmt.Errorf("%q is not a number", tok)
		}
		return n, fmt.Sprintf("`%d`", n), nil
	}
	count := 1
	if m[1] != "" {
		count, _ = strconv.Atoi(m[1])
	}
	sides, _ := strconv.Atoi(m[2])
	switch {
	case count < 1:
		return 0, "", errors.New("roll at least one die")
	case sides < 2:
		return 0, "", errors.New("dice need at least 2 sides")
	case count > maxDice || sides > maxSides:
		return 0, "", fmt.Errorf("at most %d dice with %d sides", maxDice, maxSides)
	}
	sum := 0
	rolls := make([]string, count)
	for i := range rolls {
		r := intN(sides) + 1
		sum += r
		rolls[i] = strconv.Itoa(r)
	}
	return sum, fmt.Sprintf("`%s` [%s]", tok, strings.Join(rolls, ", ")), nil
}

// RandomCommand picks a number from a range; a single number n means 1-n.
type RandomCommand struct {
	breadbot.Command  `keys:"random,rand" group:"fun" desc:"Pick a random number"`
	cooldown.Cooldown `every:"2s" burst:"3"`
}

func (*RandomCommand) Annotations() breadbot.Annotations {
	return breadbot.Annotations{
		"Main.0": {breadbot.Name("range")},
	}
}

func (*RandomCommand) Main(r *arguments.Range) string {
	lo, hi := 1, 6
	switch {
	case r == nil:
	case r.From == r.To:
		lo, hi = min(1, r.From), max(1, r.From)
	default:
		lo, hi = min(r.From, r.To), max(r.From, r.To)
	}
	return fmt.Sprintf("🎲 %d (%d-%d)", lo+intN(hi-lo+1), lo, hi)
}
