package hd

import (
	"strconv"
	"strings"

	"github.com/pkg/errors"
)

// HardenedOffset is added to an index to mark it hardened (BIP-32).
const HardenedOffset = uint32(0x80000000)

// Purpose is the BIP-44 purpose level.
const Purpose = 44

// Segment is one level of a derivation path.
type Segment struct {
	Index    uint32
	Hardened bool
}

// ChildNumber returns the BIP-32 child number, with the hardened bit set when needed.
func (s Segment) ChildNumber() uint32 {
	if s.Hardened {
		return s.Index + HardenedOffset
	}
	return s.Index
}

func (s Segment) String() string {
	if s.Hardened {
		return strconv.FormatUint(uint64(s.Index), 10) + "'"
	}
	return strconv.FormatUint(uint64(s.Index), 10)
}

// DerivationPath is an ordered list of segments below the master key.
// Values are never mutated after construction; Child returns a copy.
type DerivationPath struct {
	segments []Segment
}

// NewPath builds a path from segments.
func NewPath(segments ...Segment) DerivationPath {
	s := make([]Segment, len(segments))
	copy(s, segments)
	return DerivationPath{segments: s}
}

// BIP44 returns m/44'/coin'/account'/change/index.
func BIP44(coin, account, change, index uint32) DerivationPath {
	return NewPath(
		Segment{Index: Purpose, Hardened: true},
		Segment{Index: coin, Hardened: true},
		Segment{Index: account, Hardened: true},
		Segment{Index: change},
		Segment{Index: index},
	)
}

// ParsePath parses "m/44'/60'/0'/0/0". Hardened markers ', h and H are accepted.
func ParsePath(s string) (DerivationPath, error) {
	parts := strings.Split(strings.TrimSpace(s), "/")
	if len(parts) == 0 || parts[0] != "m" {
		return DerivationPath{}, errors.Wrapf(ErrInvalidPath, "%q must start with m", s)
	}

	segments := make([]Segment, 0, len(parts)-1)
	for _, p := range parts[1:] {
		hardened := false
		if n := len(p); n > 0 && (p[n-1] == '\'' || p[n-1] == 'h' || p[n-1] == 'H') {
			hardened = true
			p = p[:n-1]
		}
		idx, err := strconv.ParseUint(p, 10, 32)
		if err != nil || uint32(idx) >= HardenedOffset {
			return DerivationPath{}, errors.Wrapf(ErrInvalidPath, "bad segment %q in %q", p, s)
		}
		segments = append(segments, Segment{Index: uint32(idx), Hardened: hardened})
	}
	return DerivationPath{segments: segments}, nil
}

// Segments returns a copy of the path segments.
func (p DerivationPath) Segments() []Segment {
	s := make([]Segment, len(p.segments))
	copy(s, p.segments)
	return s
}

// Len returns the path depth.
func (p DerivationPath) Len() int {
	return len(p.segments)
}

// Child returns a new path with one more segment.
func (p DerivationPath) Child(index uint32, hardened bool) DerivationPath {
	s := make([]Segment, len(p.segments), len(p.segments)+1)
	copy(s, p.segments)
	return DerivationPath{segments: append(s, Segment{Index: index, Hardened: hardened})}
}

// Parent returns the path without its last segment.
func (p DerivationPath) Parent() DerivationPath {
	if len(p.segments) == 0 {
		return p
	}
	return NewPath(p.segments[:len(p.segments)-1]...)
}

// Last returns the terminal segment. ok is false for the master path.
func (p DerivationPath) Last() (seg Segment, ok bool) {
	if len(p.segments) == 0 {
		return Segment{}, false
	}
	return p.segments[len(p.segments)-1], true
}

// String renders the canonical form, e.g. m/44'/0'/0'/0/5.
func (p DerivationPath) String() string {
	var b strings.Builder
	b.WriteString("m")
	for _, s := range p.segments {
		b.WriteByte('/')
		b.WriteString(s.String())
	}
	return b.String()
}
