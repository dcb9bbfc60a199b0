package jinjac

// Named stop-sets: the keywords that close or branch the body of each tag.
// Each parseXxx method in parser.go hands the relevant set to parseBody so
// raw-text scanning knows when to yield control back to the enclosing tag
// instead of recursing into a new nested statement.

func stopSet(kws ...string) map[string]struct{} {
	m := make(map[string]struct{}, len(kws))
	for _, k := range kws {
		m[k] = struct{}{}
	}
	return m
}

var (
	rootStops   = stopSet()
	ifStops     = stopSet("elif", "else", "endif")
	elifStops   = stopSet("elif", "else", "endif")
	elseStops   = stopSet("endif")
	forStops    = stopSet("else", "endfor")
	forElseStop = stopSet("endfor")
	macroStops  = stopSet("endmacro")
	callStops   = stopSet("endcall")
	filterStops = stopSet("endfilter")
	blockStops  = stopSet("endblock")
)
