package condtag

import "regexp"

var (
	// whitespace back to the start of the line (or of the fragment)
	beforeRx = regexp.MustCompile(`(^|\r?\n)[^\S\r\n]*$`)
	// whitespace forward to the end of the line (or of the fragment)
	afterRx = regexp.MustCompile(`^[^\S\r\n]*(\r?\n|$)`)
	nlRx    = regexp.MustCompile(`^[\r\n]+$`)
)

// trim removes the lines left blank by removed directives. A directive's
// line is only trimmed when both neighbouring fragments hold nothing but
// horizontal whitespace up to a line boundary. When both boundaries are
// newlines one of them is kept.
func trim(strs []string, handled []int) {
	for _, after := range handled {
		before := after - 1
		if before < 0 || after >= len(strs) {
			continue
		}
		bm := beforeRx.FindStringSubmatchIndex(strs[before])
		am := afterRx.FindStringSubmatchIndex(strs[after])
		if bm == nil || am == nil {
			continue
		}
		bs, as := strs[before], strs[after]
		bnl, anl := bs[bm[2]:bm[3]], as[am[2]:am[3]]

		repl := ""
		if nlRx.MatchString(bnl) && nlRx.MatchString(anl) {
			repl = bnl
		}
		strs[before] = bs[:bm[0]] + repl + bs[bm[1]:]
		strs[after] = as[:am[0]] + as[am[1]:]
	}
}
