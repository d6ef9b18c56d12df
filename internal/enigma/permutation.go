package enigma

import (
	"fmt"
	"strings"
	"unicode"
)

// Permutation is a bijection over the indices of an alphabet, written in
// cycle notation such as "(AELTPHQXRU) (BKNW) (S)". Symbols that appear in
// no cycle map to themselves.
type Permutation struct {
	alpha   *Alphabet
	forward []int
	inverse []int
}

// NewPermutation parses cycles over alpha. An empty string or "()" is the
// identity. A symbol may appear at most once across all cycles.
func NewPermutation(cycles string, alpha *Alphabet) (*Permutation, error) {
	if alpha == nil {
		return nil, fmt.Errorf("%w: permutation needs an alphabet", ErrConfig)
	}

	n := alpha.Size()
	p := &Permutation{
		alpha:   alpha,
		forward: make([]int, n),
		inverse: make([]int, n),
	}
	for i := range n {
		p.forward[i] = i
		p.inverse[i] = i
	}

	groups, err := splitCycles(cycles)
	if err != nil {
		return nil, err
	}

	used := make(map[rune]bool, n)
	for _, g := range groups {
		if err := p.addCycle(g, used); err != nil {
			return nil, err
		}
	}
	return p, nil
}

// splitCycles breaks "(AB) (CDE)(F)" into its cycle bodies.
func splitCycles(s string) ([]string, error) {
	var (
		cycles []string
		cur    strings.Builder
		open   bool
	)
	for _, r := range s {
		switch {
		case r == '(':
			if open {
				return nil, fmt.Errorf("%w: nested '(' in cycles %q", ErrConfig, s)
			}
			open = true
			cur.Reset()
		case r == ')':
			if !open {
				return nil, fmt.Errorf("%w: unbalanced ')' in cycles %q", ErrConfig, s)
			}
			open = false
			cycles = append(cycles, cur.String())
		case unicode.IsSpace(r):
			if open {
				return nil, fmt.Errorf("%w: whitespace inside cycle in %q", ErrConfig, s)
			}
		default:
			if !open {
				return nil, fmt.Errorf("%w: symbol %q outside parentheses in %q", ErrConfig, r, s)
			}
			cur.WriteRune(r)
		}
	}
	if open {
		return nil, fmt.Errorf("%w: unterminated cycle in %q", ErrConfig, s)
	}
	return cycles, nil
}

// addCycle links c0->c1->...->ck->c0. Cycles of length 0 and 1 change nothing
// but still claim their symbol.
func (p *Permutation) addCycle(cycle string, used map[rune]bool) error {
	idx := make([]int, 0, len(cycle))
	for _, r := range cycle {
		i, err := p.alpha.ToInt(r)
		if err != nil {
			return fmt.Errorf("%w: cycle (%s) uses %q outside alphabet", ErrConfig, cycle, r)
		}
		if used[r] {
			return fmt.Errorf("%w: symbol %q appears more than once in cycles", ErrConfig, r)
		}
		used[r] = true
		idx = append(idx, i)
	}

	for k, from := range idx {
		to := idx[(k+1)%len(idx)]
		p.forward[from] = to
		p.inverse[to] = from
	}
	return nil
}

// Size returns the size of the underlying alphabet.
func (p *Permutation) Size() int {
	return len(p.forward)
}

// Wrap returns i modulo Size(), always in [0, Size()).
func (p *Permutation) Wrap(i int) int {
	r := i % p.Size()
	if r < 0 {
		r += p.Size()
	}
	return r
}

// Permute applies the permutation to index i, after wrapping it.
func (p *Permutation) Permute(i int) int {
	return p.forward[p.Wrap(i)]
}

// Invert applies the inverse permutation to index i, after wrapping it.
func (p *Permutation) Invert(i int) int {
	return p.inverse[p.Wrap(i)]
}

// PermuteRune applies the permutation to symbol r.
func (p *Permutation) PermuteRune(r rune) (rune, error) {
	i, err := p.alpha.ToInt(r)
	if err != nil {
		return 0, err
	}
	return p.alpha.symbol(p.forward[i]), nil
}

// InvertRune applies the inverse permutation to symbol r.
func (p *Permutation) InvertRune(r rune) (rune, error) {
	i, err := p.alpha.ToInt(r)
	if err != nil {
		return 0, err
	}
	return p.alpha.symbol(p.inverse[i]), nil
}

// Derangement reports whether no symbol maps to itself.
func (p *Permutation) Derangement() bool {
	for i := range p.forward {
		if p.forward[i] == i || p.inverse[i] == i {
			return false
		}
	}
	return true
}

// Alphabet returns the alphabet the permutation is defined over.
func (p *Permutation) Alphabet() *Alphabet {
	return p.alpha
}

// Cycles renders the permutation in canonical cycle notation: each cycle
// starts at its lowest index and fixed points are omitted.
func (p *Permutation) Cycles() string {
	seen := make([]bool, len(p.forward))
	var parts []string
	for start := range p.forward {
		if seen[start] || p.forward[start] == start {
			continue
		}
		var b strings.Builder
		b.WriteByte('(')
		for i := start; !seen[i]; i = p.forward[i] {
			seen[i] = true
			b.WriteRune(p.alpha.symbol(i))
		}
		b.WriteByte(')')
		parts = append(parts, b.String())
	}
	return strings.Join(parts, " ")
}
