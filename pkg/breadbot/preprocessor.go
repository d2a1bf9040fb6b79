package breadbot

import (
	"cmp"
	"reflect"
	"slices"
)

// Preprocessor runs before a handler. It proceeds by calling stack.Next();
// returning without doing so cancels the rest of the pipeline.
type Preprocessor interface {
	Identifier() string
	Process(receiver any, h *Handler, ev *CommandEvent, stack *ProcessStack)
}

// PreprocessorFunc wraps the remainder of the pipeline.
type PreprocessorFunc func(receiver any, h *Handler, ev *CommandEvent, stack *ProcessStack)

// PreprocessorPredicate guards the remainder of the pipeline.
type PreprocessorPredicate func(receiver any, h *Handler, ev *CommandEvent) bool

type funcPreprocessor struct {
	id string
	fn PreprocessorFunc
}

func (p *funcPreprocessor) Identifier() string { return p.id }

func (p *funcPreprocessor) Process(receiver any, h *Handler, ev *CommandEvent, stack *ProcessStack) {
	p.fn(receiver, h, ev, stack)
}

// NewPreprocessor returns a wrapping preprocessor.
func NewPreprocessor(id string, fn PreprocessorFunc) Preprocessor {
	return &funcPreprocessor{id: id, fn: fn}
}

// NewPredicate returns a preprocessor that continues only while fn holds.
func NewPredicate(id string, fn PreprocessorPredicate) Preprocessor {
	return &funcPreprocessor{id: id, fn: func(receiver any, h *Handler, ev *CommandEvent, stack *ProcessStack) {
		if fn(receiver, h, ev) {
			stack.Next()
		}
	}}
}

// PreprocessorFactory builds a preprocessor from a property value.
type PreprocessorFactory func(property any) Preprocessor

type preprocessorAssociation struct {
	propertyType reflect.Type
	factory      PreprocessorFactory
}

// Preprocessors associates property types with preprocessor factories and owns
// the global priority order.
type Preprocessors struct {
	associations []preprocessorAssociation
	priority     []string
	rank         map[string]int
}

func newPreprocessors() *Preprocessors {
	return &Preprocessors{rank: make(map[string]int)}
}

// Associate registers factory for handlers carrying a property of type t.
// A later association for the same type replaces the earlier one.
func (r *Preprocessors) Associate(t reflect.Type, factory PreprocessorFactory) {
	for i, a := range r.associations {
		if a.propertyType == t {
			r.associations[i].factory = factory
			return
		}
	}
	r.associations = append(r.associations, preprocessorAssociation{propertyType: t, factory: factory})
}

// SetPriority replaces the priority order.
func (r *Preprocessors) SetPriority(ids ...string) {
	r.priority = append([]string(nil), ids...)
	r.rank = make(map[string]int, len(ids))
	for i, id := range ids {
		if _, dup := r.rank[id]; !dup {
			r.rank[id] = i
		}
	}
}

// Priority returns a copy of the priority order.
func (r *Preprocessors) Priority() []string {
	return append([]string(nil), r.priority...)
}

// Compare orders preprocessors by their identifier's position in the priority
// list. Unknown identifiers sort after known ones, then by identifier.
func (r *Preprocessors) Compare(a, b Preprocessor) int {
	ra, okA := r.rank[a.Identifier()]
	rb, okB := r.rank[b.Identifier()]
	switch {
	case okA && okB:
		return cmp.Compare(ra, rb)
	case okA:
		return -1
	case okB:
		return 1
	}
	return cmp.Compare(a.Identifier(), b.Identifier())
}

// Sort orders list in place.
func (r *Preprocessors) Sort(list []Preprocessor) {
	slices.SortStableFunc(list, r.Compare)
}

// create instantiates the preprocessors for every property visible from props.
func (r *Preprocessors) create(props *PropertyMap) []Preprocessor {
	var out []Preprocessor
	for _, a := range r.associations {
		if v, ok := props.Get(a.propertyType); ok {
			if p := a.factory(v); p != nil {
				out = append(out, p)
			}
		}
	}
	return out
}

// AssociatePreprocessor wires a wrapping preprocessor to properties of type T.
func AssociatePreprocessor[T any](b *ClientBuilder, id string, factory func(T) PreprocessorFunc) {
	b.preprocessors.Associate(reflect.TypeFor[T](), func(v any) Preprocessor {
		return NewPreprocessor(id, factory(v.(T)))
	})
}

// AssociatePredicate wires a guarding preprocessor to properties of type T.
func AssociatePredicate[T any](b *ClientBuilder, id string, factory func(T) PreprocessorPredicate) {
	b.preprocessors.Associate(reflect.TypeFor[T](), func(v any) Preprocessor {
		return NewPredicate(id, factory(v.(T)))
	})
}
