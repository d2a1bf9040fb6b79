package breadbot

// ProcessStack walks a handler's preprocessors and finally runs the handler.
// It is confined to the dispatching goroutine.
type ProcessStack struct {
	receiver      any
	handler       *Handler
	event         *CommandEvent
	preprocessors []Preprocessor
	pos           int
	runner        func() bool
	ran           bool
	result        bool
}

func newProcessStack(receiver any, h *Handler, ev *CommandEvent, list []Preprocessor, runner func() bool) *ProcessStack {
	return &ProcessStack{receiver: receiver, handler: h, event: ev, preprocessors: list, runner: runner}
}

// Next runs the next preprocessor, or the handler once they are exhausted.
// Calling it after the handler ran does nothing.
func (s *ProcessStack) Next() {
	if s.pos < len(s.preprocessors) {
		p := s.preprocessors[s.pos]
		s.pos++
		p.Process(s.receiver, s.handler, s.event, s)
		return
	}
	if s.ran {
		return
	}
	s.ran = true
	s.result = s.runner()
}

// Result reports whether the handler ran and completed without error.
func (s *ProcessStack) Result() bool { return s.ran && s.result }

// Ran reports whether the pipeline reached the handler.
func (s *ProcessStack) Ran() bool { return s.ran }

func (s *ProcessStack) Handler() *Handler    { return s.handler }
func (s *ProcessStack) Event() *CommandEvent { return s.event }
func (s *ProcessStack) Receiver() any        { return s.receiver }
func (s *ProcessStack) Remaining() int       { return len(s.preprocessors) - s.pos }
