package schema

import (
	"regexp"
	"strings"
	"sync"

	"github.com/rs/zerolog"

	"golang.org/x/text/unicode/norm"
)

var (
	parentheticalRe = regexp.MustCompile(`\([^()]*\)`)
	andOrRe         = regexp.MustCompile(`(?i)\band/or\b`)
	camelBoundaryRe = regexp.MustCompile(`([a-z0-9])([A-Z])`)
)

// NormalizeKey canonicalizes an arbitrary text key into the stable form used
// for all internal comparisons. The result uses only lowercase letters,
// digits, and underscores. The function is deterministic, idempotent, and
// total: every input, including the empty string, produces an output.
//
// Normalization is not injective; distinct inputs may collide. Collisions are
// the KeyMap's concern, not this function's.
func NormalizeKey(text string) string {
	s := norm.NFKC.String(text)

	// Parenthetical text carries no identity: "age (years)" keys the same
	// field as "age".
	for parentheticalRe.MatchString(s) {
		s = parentheticalRe.ReplaceAllString(s, " ")
	}

	// Conjunction variants collapse to "and" before "/" is consumed as a
	// delimiter below.
	s = andOrRe.ReplaceAllString(s, " and ")
	s = strings.ReplaceAll(s, "&", " and ")
	s = strings.ReplaceAll(s, "/", " and ")

	s = strings.ReplaceAll(s, "_", " ")
	s = strings.ReplaceAll(s, "-", " ")

	// Split camelCase at lower→upper boundaries while case is still present.
	s = camelBoundaryRe.ReplaceAllString(s, "$1 $2")

	s = strings.ToLower(s)

	// Any remaining punctuation acts as a separator.
	var b strings.Builder
	b.Grow(len(s))
	for _, r := range s {
		if (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') {
			b.WriteRune(r)
		} else {
			b.WriteByte(' ')
		}
	}

	return strings.Join(strings.Fields(b.String()), "_")
}

// Collision records two distinct original keys normalizing to the same
// canonical key. The most recently submitted spelling wins the mapping.
type Collision struct {
	Canonical string
	Previous  string
	Current   string
}

// KeyMap maintains the reverse mapping from canonical keys to the most
// recently seen original spelling. It is built during schema normalization
// and ad-hoc field addition, read during output mapping, and never shrinks.
type KeyMap struct {
	mu         sync.RWMutex
	forward    map[string]string
	collisions []Collision
	log        zerolog.Logger
}

// NewKeyMap creates an empty KeyMap that reports collisions to the given logger.
func NewKeyMap(log zerolog.Logger) *KeyMap {
	return &KeyMap{
		forward: make(map[string]string),
		log:     log,
	}
}

// Set records original as the spelling behind canonical. A second distinct
// original for the same canonical key is a collision: it is logged as a
// warning, recorded, and the latest spelling wins.
func (m *KeyMap) Set(canonical, original string) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if prev, ok := m.forward[canonical]; ok && prev != original {
		m.collisions = append(m.collisions, Collision{
			Canonical: canonical,
			Previous:  prev,
			Current:   original,
		})
		m.log.Warn().
			Str("canonical_key", canonical).
			Str("previous", prev).
			Str("current", original).
			Msg("key collision: distinct original keys normalize to the same canonical key")
	}
	m.forward[canonical] = original
}

// Original returns the original spelling for a canonical key, or the
// canonical key itself when no mapping exists.
func (m *KeyMap) Original(canonical string) string {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if orig, ok := m.forward[canonical]; ok {
		return orig
	}
	return canonical
}

// Has reports whether canonical has a recorded original spelling.
func (m *KeyMap) Has(canonical string) bool {
	m.mu.RLock()
	defer m.mu.RUnlock()

	_, ok := m.forward[canonical]
	return ok
}

// Keys returns every canonical key in the mapping.
func (m *KeyMap) Keys() []string {
	m.mu.RLock()
	defer m.mu.RUnlock()

	keys := make([]string, 0, len(m.forward))
	for k := range m.forward {
		keys = append(keys, k)
	}
	return keys
}

// Len returns the number of canonical keys recorded.
func (m *KeyMap) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()

	return len(m.forward)
}

// Collisions returns every collision observed so far, in submission order.
func (m *KeyMap) Collisions() []Collision {
	m.mu.RLock()
	defer m.mu.RUnlock()

	out := make([]Collision, len(m.collisions))
	copy(out, m.collisions)
	return out
}
