package breadbot

import "reflect"

// indexSet records claimed token positions for one parse.
type indexSet struct {
	bits []uint64
}

func (s *indexSet) has(i int) bool {
	w := i / 64
	return w < len(s.bits) && s.bits[w]&(1<<(uint(i)%64)) != 0
}

func (s *indexSet) add(i int) {
	w := i / 64
	for len(s.bits) <= w {
		s.bits = append(s.bits, 0)
	}
	s.bits[w] |= 1 << (uint(i) % 64)
}

func (s *indexSet) addAll(indices []int) {
	for _, i := range indices {
		s.add(i)
	}
}

func (s *indexSet) reset() { s.bits = s.bits[:0] }

func (s *indexSet) indices() []int {
	var out []int
	for w, word := range s.bits {
		for b := 0; b < 64; b++ {
			if word&(1<<uint(b)) != 0 {
				out = append(out, w*64+b)
			}
		}
	}
	return out
}

// Parser binds one event's tokens to a handler's parameters.
type Parser struct {
	event   *CommandEvent
	handler *Handler
	list    *ArgumentList
	claimed indexSet
	failed  bool
}

func newParser(ev *CommandEvent, h *Handler, list *ArgumentList) *Parser {
	return &Parser{event: ev, handler: h, list: list}
}

// Claimed returns the token positions bound by the last parse, ascending.
func (p *Parser) Claimed() []int { return p.claimed.indices() }

// Failed reports whether a required parameter was left unbound.
func (p *Parser) Failed() bool { return p.failed }

// Parse binds every parameter in declaration order. On failure no positions
// stay claimed.
func (p *Parser) Parse() ([]reflect.Value, bool) {
	params := p.handler.params
	values := make([]reflect.Value, len(params))
	for i, param := range params {
		switch param.kind {
		case paramEvent:
			values[i] = reflect.ValueOf(p.event)
			continue
		case paramContext:
			values[i] = reflect.ValueOf(p.event.Context())
			continue
		}
		v, ok := param.bind(p.list, &p.claimed)
		if !ok {
			if param.required {
				if param.onMissing != nil {
					param.onMissing(p.event, param)
				}
				p.failed = true
				p.claimed.reset()
				return nil, false
			}
			values[i] = reflect.Zero(param.typ)
			continue
		}
		values[i] = valueOf(v, param.typ)
	}
	return values, true
}

func valueOf(v any, t reflect.Type) reflect.Value {
	if v == nil {
		return reflect.Zero(t)
	}
	rv := reflect.ValueOf(v)
	if rv.Type() != t && rv.Type().ConvertibleTo(t) {
		rv = rv.Convert(t)
	}
	return rv
}
