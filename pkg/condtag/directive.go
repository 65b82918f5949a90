package condtag

import (
	"fmt"
	"reflect"
)

// Kind identifies the shape of a Directive.
type Kind int

const (
	KindInvalid    Kind = iota // zero Directive
	KindIf                     // If(cond)
	KindElseIf                 // ElseIf(cond)
	KindElse                   // Else
	KindEndIf                  // EndIf
	KindSwitch                 // Switch(v)
	KindCase                   // Case(vals...)
	KindSwitchCase             // SwitchCase(v, vals...) or Switch(v).Case(vals...)
	KindDefault                // Default
	KindEndSwitch              // EndSwitch
	KindAlways                 // Always
)

func (k Kind) String() string {
	switch k {
	case KindIf:
		return "if"
	case KindElseIf:
		return "elseif"
	case KindElse:
		return "else"
	case KindEndIf:
		return "endif"
	case KindSwitch:
		return "switch"
	case KindCase:
		return "case"
	case KindSwitchCase:
		return "switch.case"
	case KindDefault:
		return "default"
	case KindEndSwitch:
		return "endswitch"
	case KindAlways:
		return "always"
	default:
		return "invalid"
	}
}

// isConditional reports whether k belongs to the if/elseif/else/endif family.
func (k Kind) isConditional() bool {
	return k >= KindIf && k <= KindEndIf
}

// isSwitch reports whether k belongs to the switch/case/default/endswitch family.
func (k Kind) isSwitch() bool {
	return k >= KindSwitch && k <= KindEndSwitch
}

// Directive is a control token embedded in a fragment sequence. Directives
// carry no behavior; the renderer interprets them.
type Directive struct {
	kind  Kind
	cond  bool
	value any
	cases []any
}

var (
	// Else starts the branch taken when no earlier branch of the block matched.
	Else = Directive{kind: KindElse}
	// EndIf closes a conditional block.
	EndIf = Directive{kind: KindEndIf}
	// Default starts the branch taken when no case of the switch matched.
	Default = Directive{kind: KindDefault}
	// EndSwitch closes a switch block.
	EndSwitch = Directive{kind: KindEndSwitch}
	// Always renders the following fragments regardless of the enclosing
	// branch, up to the next block directive, which restores the previous
	// state. Consecutive Always directives keep the state saved by the
	// first one.
	Always = Directive{kind: KindAlways}
)

// If opens a conditional block.
func If(cond bool) Directive {
	return Directive{kind: KindIf, cond: cond}
}

// ElseIf continues a conditional block.
func ElseIf(cond bool) Directive {
	return Directive{kind: KindElseIf, cond: cond}
}

// Switch opens a switch block over v.
func Switch(v any) Directive {
	return Directive{kind: KindSwitch, value: v}
}

// Case starts a case branch matching any of vals.
func Case(vals ...any) Directive {
	return Directive{kind: KindCase, cases: vals}
}

// SwitchCase opens a switch block over v and immediately tests its first case.
func SwitchCase(v any, vals ...any) Directive {
	return Directive{kind: KindSwitchCase, value: v, cases: vals}
}

// Case chains a first case onto a switch directive, so that
// Switch(v).Case(a, b) is the same as SwitchCase(v, a, b). On any other
// directive it behaves like the package-level Case.
func (d Directive) Case(vals ...any) Directive {
	if d.kind == KindSwitch {
		return SwitchCase(d.value, vals...)
	}
	return Case(vals...)
}

// Kind reports which directive d is.
func (d Directive) Kind() Kind { return d.kind }

// Cond returns the condition of an If or ElseIf directive.
func (d Directive) Cond() bool { return d.cond }

// Value returns the switch value of a Switch or SwitchCase directive.
func (d Directive) Value() any { return d.value }

// Cases returns the values tested by a Case or SwitchCase directive.
func (d Directive) Cases() []any { return d.cases }

func (d Directive) String() string {
	switch d.kind {
	case KindIf, KindElseIf:
		return fmt.Sprintf("%s(%t)", d.kind, d.cond)
	case KindSwitch:
		return fmt.Sprintf("switch(%v)", d.value)
	case KindCase:
		return fmt.Sprintf("case%v", d.cases)
	case KindSwitchCase:
		return fmt.Sprintf("switch(%v).case%v", d.value, d.cases)
	default:
		return d.kind.String()
	}
}

// AsDirective recognizes v as a directive. Both Directive and *Directive
// values are accepted; anything else, including a zero Directive, is not
// a directive.
func AsDirective(v any) (Directive, bool) {
	var d Directive
	switch t := v.(type) {
	case Directive:
		d = t
	case *Directive:
		if t == nil {
			return Directive{}, false
		}
		d = *t
	default:
		return Directive{}, false
	}
	if d.kind == KindInvalid || d.kind > KindAlways {
		return Directive{}, false
	}
	return d, true
}

// matches reports whether v equals any of the case values.
func matches(v any, cases []any) bool {
	for _, c := range cases {
		if equal(v, c) {
			return true
		}
	}
	return false
}

func equal(a, b any) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	va, vb := reflect.ValueOf(a), reflect.ValueOf(b)
	if va.Type() != vb.Type() {
		return false
	}
	// Comparable on the value, not the type: an interface field holding a
	// slice would make == panic.
	if va.Comparable() {
		return a == b
	}
	return reflect.DeepEqual(a, b)
}
