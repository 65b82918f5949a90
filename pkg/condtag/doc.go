// Package condtag renders conditional blocks in sequences of alternating
// text and value fragments, as produced by string interpolation.
//
// Directives are values placed between text fragments:
//
//	out, err := condtag.Render(
//		"Hello ", condtag.If(admin), "admin", condtag.Else, "guest", condtag.EndIf, "!",
//	)
//
// if/elseif/else/endif blocks render the first branch whose condition holds.
// switch/case/default/endswitch blocks render every case whose values
// contain the switch value, and default only when none did. Always renders
// the fragments that follow it regardless of the enclosing blocks, up to
// the next block directive. Blocks do not need to be closed at the end of
// the sequence.
//
// Zero-argument funcs in the sequence are only called when they survive
// filtering. Render calls them in order; RenderAsync calls them
// concurrently and awaits any Promise they return.
//
// A line that held nothing but a directive and whitespace is removed from
// the output.
package condtag
