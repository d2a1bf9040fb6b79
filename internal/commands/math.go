package commands

import (
	"strconv"

	"github.com/keshon/breadbot/pkg/breadbot"
)

type MathCommand struct {
	breadbot.Command `keys:"math,calc" group:"util" desc:"Basic arithmetic"`
}

func (*MathCommand) Annotations() breadbot.Annotations {
	operands := func(method string) map[string][]any {
		return map[string][]any{
			method + ".0": {breadbot.Name("a"), breadbot.Required{}},
			method + ".1": {breadbot.Name("b"), breadbot.Required{}},
		}
	}
	a := breadbot.Annotations{
		"CmdAdd": {breadbot.Description("Add two numbers")},
		"CmdSub": {breadbot.Description("Subtract b from a")},
		"CmdMul": {breadbot.Description("Multiply two numbers")},
		"CmdDiv": {breadbot.Description("Divide a by b")},
	}
	for _, m := range []string{"CmdAdd", "CmdSub", "CmdMul", "CmdDiv"} {
		for k, v := range operands(m) {
			a[k] = v
		}
	}
	return a
}

func (*MathCommand) CmdAdd(a, b float64) string { return format(a + b) }
func (*MathCommand) CmdSub(a, b float64) string { return format(a - b) }
func (*MathCommand) CmdMul(a, b float64) string { return format(a * b) }

func (*MathCommand) CmdDiv(a, b float64) string {
	if b == 0 {
		return "Cannot divide by zero."
	}
	return format(a / b)
}

func format(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
