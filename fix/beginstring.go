package fix

// BeginString values recognized on the wire (tag 8). FIXT.1.1 is the
// transport-only variant carrying an application-version tag, used with
// FIX 5.0 and later.
const (
	BeginString_FIX40     = "FIX.4.0"
	BeginString_FIX41     = "FIX.4.1"
	BeginString_FIX42     = "FIX.4.2"
	BeginString_FIX43     = "FIX.4.3"
	BeginString_FIX44     = "FIX.4.4"
	BeginString_FIX50     = "FIX.5.0"
	BeginString_FIX50SP1  = "FIX.5.0SP1"
	BeginString_FIX50SP2  = "FIX.5.0SP2"
	BeginString_FIXT11    = "FIXT.1.1"
)

// beginStringOrder ranks BeginString values so version comparisons
// ("BeginString >= FIX.4.2") can be done numerically instead of
// lexicographically (FIX.4.10 would otherwise sort before FIX.4.2).
var beginStringOrder = map[string]int{
	BeginString_FIX40:    0,
	BeginString_FIX41:    1,
	BeginString_FIX42:    2,
	BeginString_FIX43:    3,
	BeginString_FIX44:    4,
	BeginString_FIX50:    5,
	BeginString_FIX50SP1: 6,
	BeginString_FIX50SP2: 7,
	BeginString_FIXT11:   8,
}

// CompareBeginString returns -1, 0, or 1 as a is less than, equal to, or
// greater than b in protocol version order. Unknown values sort last.
func CompareBeginString(a, b string) int {
	ra, oka := beginStringOrder[a]
	rb, okb := beginStringOrder[b]
	if !oka {
		ra = len(beginStringOrder)
	}
	if !okb {
		rb = len(beginStringOrder)
	}
	switch {
	case ra < rb:
		return -1
	case ra > rb:
		return 1
	default:
		return 0
	}
}

// IsFIXT reports whether beginString is the FIXT transport variant.
func IsFIXT(beginString string) bool { return beginString == BeginString_FIXT11 }
