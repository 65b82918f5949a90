package condtag

import "log/slog"

// evaluator is one block state machine. Directives are always dropped from
// the output, so handle only reports errors.
type evaluator interface {
	canHandle(d Directive) bool
	handle(d Directive, st *status) error
}

// parsed is the result of the filter pass.
type parsed struct {
	// output holds the surviving fragments; deferred callables are wrapped
	// in a deferred value and not yet invoked.
	output []any
	// handled lists, in ascending order and without duplicates, the output
	// positions at which a directive was removed.
	handled []int
}

// parse filters items in a single pass. The evaluators and status are
// created per call, so concurrent renders share nothing.
func parse(items []any, log *slog.Logger) (parsed, error) {
	var (
		st         status
		evaluators = []evaluator{
			&ifEvaluator{log: log},
			&switchEvaluator{log: log},
		}
		res = parsed{output: make([]any, 0, len(items))}
	)

	markHandled := func() {
		idx := len(res.output)
		if n := len(res.handled); n == 0 || res.handled[n-1] != idx {
			res.handled = append(res.handled, idx)
		}
	}

	for i, item := range items {
		if d, ok := AsDirective(item); ok {
			markHandled()
			if d.kind == KindAlways {
				st.always()
				log.Debug("<always> found", "index", i)
				continue
			}
			for _, ev := range evaluators {
				if !ev.canHandle(d) {
					continue
				}
				if err := ev.handle(d, &st); err != nil {
					return parsed{}, &SyntaxError{Index: i, Kind: d.kind, Err: err}
				}
				break
			}
			continue
		}

		if d, ok := asDeferred(i, item); ok {
			if st.filteredOut {
				log.Debug("deferred fragment skipped", "index", i)
				continue
			}
			log.Debug("deferred fragment kept", "index", i)
			res.output = append(res.output, d)
			continue
		}

		if st.filteredOut {
			continue
		}
		res.output = append(res.output, item)
	}

	return res, nil
}
