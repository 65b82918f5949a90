package condtag

import (
	"errors"
	"fmt"
	"strings"
	"testing"
)

type renderCase struct {
	name  string
	items []any
	want  string
}

func runRenderCases(t *testing.T, cases []renderCase) {
	t.Helper()
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got, err := Render(tc.items...)
			if err != nil {
				t.Fatalf("render error: %v", err)
			}
			if got != tc.want {
				t.Fatalf("got %q, want %q", got, tc.want)
			}
		})
	}
}

func TestRenderExamples(t *testing.T) {
	runRenderCases(t, []renderCase{
		{
			name:  "if elseif else",
			items: []any{".", If(true), "IF", ElseIf(false), "ELSEIF", Else, "ELSE", EndIf, "."},
			want:  ".IF.",
		},
		{
			name:  "switch second case",
			items: []any{"", Switch(2), "", Case(1), "CASE1", Case(2), "CASE2", Default, "DEFAULT", EndSwitch, ""},
			want:  "CASE2",
		},
		{
			name:  "always inside unrendered if",
			items: []any{"", If(false), "IF", Always, ".ALWAYS", ElseIf(true), ".ELSEIF", Else, ".ELSE", ""},
			want:  ".ALWAYS.ELSEIF",
		},
		{
			name:  "newline collapse",
			items: []any{"a\n", If(true), "\nb"},
			want:  "a\nb",
		},
	})
}

func TestRenderMissingSwitch(t *testing.T) {
	_, err := Render("", Case(1), "")
	if !errors.Is(err, ErrMissingSwitch) {
		t.Fatalf("want ErrMissingSwitch, got %v", err)
	}
	var se *SyntaxError
	if !errors.As(err, &se) {
		t.Fatalf("want *SyntaxError, got %T", err)
	}
	if se.Index != 1 || se.Kind != KindCase {
		t.Fatalf("unexpected error position: %+v", se)
	}
}

func TestRenderPlainValues(t *testing.T) {
	runRenderCases(t, []renderCase{
		{"no directives", []any{"a", 1, "b", 2.5, "c"}, "a1b2.5c"},
		{"nil renders empty", []any{"a", nil, "b"}, "ab"},
		{"stringer", []any{"<", Kind(KindIf), ">"}, "<if>"},
		{"bool", []any{"", true, ""}, "true"},
		{"values filtered", []any{"", If(false), "x", 42, "y", EndIf, "z"}, "z"},
	})
}

func TestRenderRoundTrip(t *testing.T) {
	src := []any{"line one\n  line two ", 3, " tail"}
	want, err := Render(src...)
	if err != nil {
		t.Fatalf("render error: %v", err)
	}
	wrapped := append([]any{"", If(true)}, src...)
	wrapped = append(wrapped, EndIf, "")
	got, err := Render(wrapped...)
	if err != nil {
		t.Fatalf("render error: %v", err)
	}
	if got != want {
		t.Fatalf("got %q, want %q", got, want)
	}
}

// Exactly one branch of an if chain renders: the first one whose condition
// holds, else the else branch.
func TestFirstMatchWins(t *testing.T) {
	for mask := 0; mask < 16; mask++ {
		conds := []bool{mask&1 != 0, mask&2 != 0, mask&4 != 0, mask&8 != 0}
		for _, withElse := range []bool{true, false} {
			items := []any{"", If(conds[0]), "B0"}
			for i := 1; i < len(conds); i++ {
				items = append(items, ElseIf(conds[i]), fmt.Sprintf("B%d", i))
			}
			if withElse {
				items = append(items, Else, "ELSE")
			}
			items = append(items, EndIf, "")

			want := ""
			for i, c := range conds {
				if c {
					want = fmt.Sprintf("B%d", i)
					break
				}
			}
			if want == "" && withElse {
				want = "ELSE"
			}

			got, err := Render(items...)
			if err != nil {
				t.Fatalf("conds %v: render error: %v", conds, err)
			}
			if got != want {
				t.Errorf("conds %v else=%t: got %q, want %q", conds, withElse, got, want)
			}
		}
	}
}

// Every matching case renders; default renders iff no case matched.
func TestIndependentCases(t *testing.T) {
	for v := 0; v < 5; v++ {
		items := []any{"", Switch(v), "", Case(1, 2), "A", Case(2, 3), "B", Case(4), "C", Default, "D", EndSwitch, ""}
		var want strings.Builder
		if v == 1 || v == 2 {
			want.WriteString("A")
		}
		if v == 2 || v == 3 {
			want.WriteString("B")
		}
		if v == 4 {
			want.WriteString("C")
		}
		if want.Len() == 0 {
			want.WriteString("D")
		}
		got, err := Render(items...)
		if err != nil {
			t.Fatalf("v=%d: render error: %v", v, err)
		}
		if got != want.String() {
			t.Errorf("v=%d: got %q, want %q", v, got, want.String())
		}
	}
}

func TestRenderersAreIndependent(t *testing.T) {
	// a failed render must not leak state into the next one
	if _, err := Render("", If(true), "", Else, "", Else, ""); !errors.Is(err, ErrDuplicateElse) {
		t.Fatalf("want ErrDuplicateElse, got %v", err)
	}
	// an unterminated render must not leave blocks open either
	if _, err := Render("", If(false), "x"); err != nil {
		t.Fatalf("render error: %v", err)
	}
	got, err := Render("a", EndIf, "")
	if !errors.Is(err, ErrMissingIf) {
		t.Fatalf("want ErrMissingIf, got %q, %v", got, err)
	}
	got, err = Render("plain")
	if err != nil || got != "plain" {
		t.Fatalf("got %q, %v", got, err)
	}
}

func TestInterleave(t *testing.T) {
	got := Interleave([]string{"a", "b", "c"}, []any{1, 2})
	want := []any{"a", 1, "b", 2, "c"}
	if fmt.Sprint(got) != fmt.Sprint(want) {
		t.Fatalf("got %v, want %v", got, want)
	}
	got = Interleave([]string{"only"}, nil)
	if len(got) != 1 || got[0] != "only" {
		t.Fatalf("got %v", got)
	}
}

func TestRendererMethods(t *testing.T) {
	r := NewRenderer(nil)
	got, err := r.Render("x", Switch("a").Case("a", "b"), "y", EndSwitch, "z")
	if err != nil {
		t.Fatalf("render error: %v", err)
	}
	if got != "xyz" {
		t.Fatalf("got %q", got)
	}
}
