package condtag

import "log/slog"

type switchFrame struct {
	value             any
	anyCaseMet        bool
	sawCase           bool
	parentFilteredOut bool
	ignored           bool
}

// switchEvaluator runs the switch/case/default/endswitch state machine.
// Unlike if blocks, every case is tested on its own: two matching cases
// both render.
type switchEvaluator struct {
	frames stack[switchFrame]
	log    *slog.Logger
}

func (e *switchEvaluator) canHandle(d Directive) bool {
	return d.kind.isSwitch()
}

func (e *switchEvaluator) handle(d Directive, st *status) error {
	if st.restoreAlways() {
		e.log.Debug("restoring filter state after always", "filtered", st.filteredOut)
	}

	f := e.frames.peek()

	if f != nil && f.ignored && d.kind != KindEndSwitch {
		if d.kind == KindSwitch || d.kind == KindSwitchCase {
			e.frames.push(switchFrame{ignored: true, parentFilteredOut: st.filteredOut})
		}
		e.log.Debug("switch directive ignored in unrendered block", "directive", d.kind, "depth", e.frames.depth())
		return nil
	}

	switch d.kind {
	case KindSwitch, KindSwitchCase:
		if f != nil && !f.sawCase {
			return ErrSwitchMustNestInCase
		}
		if st.filteredOut {
			e.frames.push(switchFrame{ignored: true, parentFilteredOut: st.filteredOut})
			e.log.Debug("<switch> found in unrendered block, ignoring block", "depth", e.frames.depth())
			return nil
		}
		e.frames.push(switchFrame{
			value:             d.value,
			parentFilteredOut: st.filteredOut,
		})
		e.log.Debug("<switch> found", "depth", e.frames.depth(), "value", d.value)
		if d.kind == KindSwitchCase {
			e.matchCase(d.cases, st)
		}

	case KindCase:
		if f == nil {
			return ErrMissingSwitch
		}
		e.matchCase(d.cases, st)

	case KindDefault:
		if f == nil {
			return ErrMissingSwitch
		}
		if !f.sawCase {
			return ErrDefaultWithoutCase
		}
		st.filteredOut = f.anyCaseMet
		e.log.Debug("<default> found", "depth", e.frames.depth(), "met", !f.anyCaseMet)

	case KindEndSwitch:
		if f == nil {
			return ErrMissingSwitch
		}
		closed := e.frames.pop()
		st.filteredOut = closed.parentFilteredOut
		e.log.Debug("<endswitch> found", "depth", e.frames.depth())
	}

	return nil
}

// matchCase tests the innermost frame's switch value against cases.
func (e *switchEvaluator) matchCase(cases []any, st *status) {
	var met bool
	e.frames.mutate(func(f *switchFrame) {
		f.sawCase = true
		met = matches(f.value, cases)
		f.anyCaseMet = f.anyCaseMet || met
	})
	st.filteredOut = !met
	e.log.Debug("<case> found", "depth", e.frames.depth(), "met", met)
}
