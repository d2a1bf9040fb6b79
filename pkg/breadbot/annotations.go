package breadbot

import (
	"reflect"
	"regexp"
	"strings"
)

// Command marks a struct as a command when embedded; the field tag carries
// keys:"a,b", name:"...", group:"..." and desc:"...". As a method annotation
// it declares a sub-command.
type Command struct {
	Keys []string
}

// Cmd is shorthand for a Command annotation.
func Cmd(keys ...string) Command { return Command{Keys: keys} }

// MainCommand marks the primary method of a command struct.
type MainCommand struct {
	Keys []string
}

// Main is shorthand for a MainCommand annotation.
func Main(keys ...string) MainCommand { return MainCommand{Keys: keys} }

// Name overrides the display name of a command or parameter.
type Name string

// Description sets a command's description.
type Description string

// Group sets a command's group tag.
type Group string

// Width sets how many tokens a parameter consumes. See ParameterBuilder.SetWidth.
type Width int

// Index pins a parameter to a token position.
type Index int

// Required marks a parameter that must be bound for the handler to run.
type Required struct{}

// Persistent makes a handler reuse one receiver across dispatches.
type Persistent struct{}

// RetainProperties keeps the property map on the built handler.
type RetainProperties struct{}

// Split overrides argument tokenization for one handler.
type Split struct {
	Pattern *regexp.Regexp
	Limit   int
}

// Flag carries parameter hints to argument mappers.
type Flag uint32

const (
	// FlagHex parses integers in base 16.
	FlagHex Flag = 1 << iota
	// FlagUnsigned rejects negative numbers.
	FlagUnsigned
)

// Has reports whether every bit of o is set.
func (f Flag) Has(o Flag) bool { return f&o == o }

// Annotations maps a method name to its properties, and "Method.N" to the
// properties of the method's N-th parameter (receiver excluded).
type Annotations map[string][]any

// Annotated is implemented by command structs that attach properties to their
// methods and parameters.
type Annotated interface {
	Annotations() Annotations
}

// TagProperty is implemented by embeddable marker types that read their value
// from the embedding field's struct tag.
type TagProperty interface {
	FromTag(tag reflect.StructTag) any
}

func splitTagList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

var (
	commandType     = reflect.TypeFor[Command]()
	mainCommandType = reflect.TypeFor[MainCommand]()
)
