package tenant

import (
	"fmt"
	"sort"
	"strings"
)

// Default is the canonical tenant for single-site deployments. It maps to the
// unsuffixed partition set.
const Default = "default"

type Kind int

const (
	ClockEvents Kind = iota
	Absences
	ExcusedAbsences
	FinalizedEvents
)

// Kinds lists every partition kind in declaration order.
var Kinds = []Kind{ClockEvents, Absences, ExcusedAbsences, FinalizedEvents}

// Stored collection names. FinalizedEvents keeps the existing spelling.
var baseNames = map[Kind]string{
	ClockEvents:     "pontos",
	Absences:        "faltas",
	ExcusedAbsences: "abonos",
	FinalizedEvents: "pontosFfetivados",
}

var defaultSuffixes = map[string]string{
	"colinas":   "CoLinas",
	"colinas25": "CoLinas25",
}

func (k Kind) String() string {
	switch k {
	case ClockEvents:
		return "clock_events"
	case Absences:
		return "absences"
	case ExcusedAbsences:
		return "excused_absences"
	case FinalizedEvents:
		return "finalized_events"
	default:
		return fmt.Sprintf("kind(%d)", int(k))
	}
}

func (k Kind) Valid() bool {
	_, ok := baseNames[k]
	return ok
}

// BaseName returns the unsuffixed partition name for kind.
func (k Kind) BaseName() string {
	return baseNames[k]
}

// Router maps (kind, tenant) to a partition name. A Router is immutable after
// construction and safe for concurrent use.
type Router struct {
	suffixes map[string]string
}

// NewRouter builds a router from the built-in suffix table plus extra entries.
// Extra entries override built-in ones with the same key.
func NewRouter(extra map[string]string) *Router {
	suffixes := make(map[string]string, len(defaultSuffixes)+len(extra))
	for key, suffix := range defaultSuffixes {
		suffixes[key] = suffix
	}
	for key, suffix := range extra {
		key = normalizeKey(key)
		if key == "" || key == Default {
			continue
		}
		suffixes[key] = strings.TrimSpace(suffix)
	}
	return &Router{suffixes: suffixes}
}

func (r *Router) Resolve(kind Kind, tenantID string) string {
	return kind.BaseName() + r.Suffix(tenantID)
}

// Suffix returns the partition suffix for tenantID; unknown tenants get "".
func (r *Router) Suffix(tenantID string) string {
	if r == nil {
		return defaultSuffixes[normalizeKey(tenantID)]
	}
	return r.suffixes[normalizeKey(tenantID)]
}

// Known reports whether tenantID has its own partition set.
func (r *Router) Known(tenantID string) bool {
	_, ok := r.suffixes[normalizeKey(tenantID)]
	return ok
}

// Tenants returns the default tenant followed by every configured tenant key,
// sorted.
func (r *Router) Tenants() []string {
	keys := make([]string, 0, len(r.suffixes))
	for key := range r.suffixes {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	return append([]string{Default}, keys...)
}

// Normalize trims tenantID and replaces a blank value with Default.
func Normalize(tenantID string) string {
	tenantID = strings.TrimSpace(tenantID)
	if tenantID == "" {
		return Default
	}
	return tenantID
}

// ParseSuffixes reads "key=Suffix,key2=Suffix2".
func ParseSuffixes(raw string) (map[string]string, error) {
	out := map[string]string{}
	for _, part := range strings.Split(raw, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		key, suffix, ok := strings.Cut(part, "=")
		if !ok || strings.TrimSpace(key) == "" || strings.TrimSpace(suffix) == "" {
			return nil, fmt.Errorf("invalid tenant suffix entry %q", part)
		}
		out[normalizeKey(key)] = strings.TrimSpace(suffix)
	}
	return out, nil
}

func normalizeKey(tenantID string) string {
	return strings.ToLower(strings.TrimSpace(tenantID))
}
