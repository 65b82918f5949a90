package condtag

import "log/slog"

type ifStep int

const (
	stepIgnored ifStep = iota
	stepIf
	stepElseIf
	stepElse
)

type ifFrame struct {
	anyCondMet        bool
	step              ifStep
	parentFilteredOut bool
}

// ifEvaluator runs the if/elseif/else/endif state machine.
type ifEvaluator struct {
	frames stack[ifFrame]
	log    *slog.Logger
}

func (e *ifEvaluator) canHandle(d Directive) bool {
	return d.kind.isConditional()
}

func (e *ifEvaluator) handle(d Directive, st *status) error {
	if st.restoreAlways() {
		e.log.Debug("restoring filter state after always", "filtered", st.filteredOut)
	}

	f := e.frames.peek()

	// Everything up to the matching endif of a block opened inside an
	// unrendered region is inert.
	if f != nil && f.step == stepIgnored && d.kind != KindEndIf {
		if d.kind == KindIf {
			e.frames.push(ifFrame{step: stepIgnored, parentFilteredOut: st.filteredOut})
		}
		e.log.Debug("if directive ignored in unrendered block", "directive", d.kind, "depth", e.frames.depth())
		return nil
	}

	switch d.kind {
	case KindIf:
		if st.filteredOut {
			e.frames.push(ifFrame{step: stepIgnored, parentFilteredOut: st.filteredOut})
			e.log.Debug("<if> found in unrendered block, ignoring block", "depth", e.frames.depth())
			return nil
		}
		e.frames.push(ifFrame{
			anyCondMet:        d.cond,
			step:              stepIf,
			parentFilteredOut: st.filteredOut,
		})
		st.filteredOut = !d.cond
		e.log.Debug("<if> found", "depth", e.frames.depth(), "met", d.cond)

	case KindElseIf:
		if f == nil {
			return ErrMissingIf
		}
		if f.step > stepElseIf {
			return ErrElseIfAfterElse
		}
		f.step = stepElseIf
		if !f.anyCondMet {
			f.anyCondMet = d.cond
			st.filteredOut = !d.cond
			e.log.Debug("<elseif> found", "depth", e.frames.depth(), "met", d.cond)
		} else {
			st.filteredOut = true
			e.log.Debug("<elseif> found, earlier branch taken", "depth", e.frames.depth())
		}

	case KindElse:
		if f == nil {
			return ErrMissingIf
		}
		if f.step > stepElseIf {
			return ErrDuplicateElse
		}
		f.step = stepElse
		if !f.anyCondMet {
			f.anyCondMet = true
			st.filteredOut = false
		} else {
			st.filteredOut = true
		}
		e.log.Debug("<else> found", "depth", e.frames.depth(), "met", !st.filteredOut)

	case KindEndIf:
		if f == nil {
			return ErrMissingIf
		}
		closed := e.frames.pop()
		st.filteredOut = closed.parentFilteredOut
		e.log.Debug("<endif> found", "depth", e.frames.depth())
	}

	return nil
}
