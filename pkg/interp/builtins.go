package interp

import (
	"fmt"

	"github.com/neurodesk/condtag/pkg/condtag"
	"go.starlark.net/starlark"
)

// directiveValue carries a condtag directive through Starlark evaluation.
// It is used by pointer: Starlark compares values of unknown types by
// identity, and Directive is not comparable.
type directiveValue struct {
	d condtag.Directive
}

var (
	_ starlark.Value    = (*directiveValue)(nil)
	_ starlark.HasAttrs = (*directiveValue)(nil)
)

func (v *directiveValue) String() string        { return "_" + v.d.String() }
func (v *directiveValue) Type() string          { return "directive" }
func (v *directiveValue) Freeze()               {}
func (v *directiveValue) Truth() starlark.Bool  { return starlark.True }
func (v *directiveValue) Hash() (uint32, error) { return 0, fmt.Errorf("unhashable type: directive") }

// Attr exposes _case on switch directives: _switch(x)._case(1, 2).
func (v *directiveValue) Attr(name string) (starlark.Value, error) {
	if name != "_case" || v.d.Kind() != condtag.KindSwitch {
		return nil, nil
	}
	return starlark.NewBuiltin("_case", func(_ *starlark.Thread, b *starlark.Builtin, args starlark.Tuple, kwargs []starlark.Tuple) (starlark.Value, error) {
		if len(kwargs) > 0 {
			return nil, fmt.Errorf("%s: unexpected keyword arguments", b.Name())
		}
		return &directiveValue{v.d.Case(goValues(args)...)}, nil
	}), nil
}

func (v *directiveValue) AttrNames() []string {
	if v.d.Kind() == condtag.KindSwitch {
		return []string{"_case"}
	}
	return nil
}

func goValues(args starlark.Tuple) []any {
	out := make([]any, len(args))
	for i, a := range args {
		out[i] = toGo(a)
	}
	return out
}

// builtins returns the directive vocabulary predeclared in every
// placeholder, plus get_var for optional variables.
func builtins(vars starlark.StringDict) starlark.StringDict {
	cond := func(name string, mk func(bool) condtag.Directive) *starlark.Builtin {
		return starlark.NewBuiltin(name, func(_ *starlark.Thread, b *starlark.Builtin, args starlark.Tuple, kwargs []starlark.Tuple) (starlark.Value, error) {
			var c starlark.Value
			if err := starlark.UnpackPositionalArgs(b.Name(), args, kwargs, 1, &c); err != nil {
				return nil, err
			}
			return &directiveValue{mk(bool(c.Truth()))}, nil
		})
	}

	return starlark.StringDict{
		"_if":        cond("_if", condtag.If),
		"_elseif":    cond("_elseif", condtag.ElseIf),
		"_else":      &directiveValue{condtag.Else},
		"_endif":     &directiveValue{condtag.EndIf},
		"_default":   &directiveValue{condtag.Default},
		"_endswitch": &directiveValue{condtag.EndSwitch},
		"_always":    &directiveValue{condtag.Always},

		"_switch": starlark.NewBuiltin("_switch", func(_ *starlark.Thread, b *starlark.Builtin, args starlark.Tuple, kwargs []starlark.Tuple) (starlark.Value, error) {
			var v starlark.Value
			if err := starlark.UnpackPositionalArgs(b.Name(), args, kwargs, 1, &v); err != nil {
				return nil, err
			}
			return &directiveValue{condtag.Switch(toGo(v))}, nil
		}),

		"_case": starlark.NewBuiltin("_case", func(_ *starlark.Thread, b *starlark.Builtin, args starlark.Tuple, kwargs []starlark.Tuple) (starlark.Value, error) {
			if len(kwargs) > 0 {
				return nil, fmt.Errorf("%s: unexpected keyword arguments", b.Name())
			}
			return &directiveValue{condtag.Case(goValues(args)...)}, nil
		}),

		"get_var": starlark.NewBuiltin("get_var", func(_ *starlark.Thread, b *starlark.Builtin, args starlark.Tuple, kwargs []starlark.Tuple) (starlark.Value, error) {
			var (
				name string
				def  starlark.Value = starlark.None
			)
			if err := starlark.UnpackArgs(b.Name(), args, kwargs, "name", &name, "default?", &def); err != nil {
				return nil, err
			}
			if v, ok := vars[name]; ok {
				return v, nil
			}
			return def, nil
		}),
	}
}
