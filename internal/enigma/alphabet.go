// Package enigma implements a rotor cipher machine: alphabets, cycle-notation
// permutations, rotors that step on notches, and a machine that chains them
// through a plugboard and a reflector.
//
// A Machine is a sequential state machine. It is not safe for concurrent use;
// callers that share one across goroutines must serialize access themselves.
package enigma

import (
	"fmt"
	"strings"
	"unicode"
)

// reservedSymbols may never appear in an alphabet because the description
// formats use them as punctuation.
const reservedSymbols = "()*-"

// Alphabet is an ordered, duplicate-free set of symbols numbered 0..Size()-1.
// It is immutable once built.
type Alphabet struct {
	symbols []rune
	index   map[rune]int
}

// NewAlphabet returns an alphabet made of the symbols of chars, in order.
func NewAlphabet(chars string) (*Alphabet, error) {
	if chars == "" {
		return nil, fmt.Errorf("%w: alphabet cannot be empty", ErrConfig)
	}

	a := &Alphabet{index: make(map[rune]int)}
	for _, r := range chars {
		if err := checkSymbol(r); err != nil {
			return nil, err
		}
		if _, dup := a.index[r]; dup {
			return nil, fmt.Errorf("%w: duplicate alphabet symbol %q", ErrConfig, r)
		}
		a.index[r] = len(a.symbols)
		a.symbols = append(a.symbols, r)
	}
	return a, nil
}

// NewRange returns the alphabet of all symbols from first to last inclusive.
func NewRange(first, last rune) (*Alphabet, error) {
	if last < first {
		return nil, fmt.Errorf("%w: empty alphabet range %c-%c", ErrConfig, first, last)
	}
	var b strings.Builder
	for r := first; r <= last; r++ {
		b.WriteRune(r)
	}
	return NewAlphabet(b.String())
}

// Messages are upper-cased before lookup, so lower-case symbols could never
// be reached.
func checkSymbol(r rune) error {
	switch {
	case unicode.IsSpace(r):
		return fmt.Errorf("%w: whitespace in alphabet", ErrConfig)
	case strings.ContainsRune(reservedSymbols, r):
		return fmt.Errorf("%w: reserved symbol %q in alphabet", ErrConfig, r)
	case unicode.IsLower(r):
		return fmt.Errorf("%w: lower-case symbol %q in alphabet", ErrConfig, r)
	case r == unicode.ReplacementChar:
		return fmt.Errorf("%w: invalid UTF-8 in alphabet", ErrConfig)
	}
	return nil
}

// Size returns the number of symbols.
func (a *Alphabet) Size() int {
	return len(a.symbols)
}

// Contains reports whether r is a member of the alphabet.
func (a *Alphabet) Contains(r rune) bool {
	_, ok := a.index[r]
	return ok
}

// ToChar returns the symbol numbered index.
func (a *Alphabet) ToChar(index int) (rune, error) {
	if index < 0 || index >= len(a.symbols) {
		return 0, fmt.Errorf("%w: %d not in [0,%d)", ErrRange, index, len(a.symbols))
	}
	return a.symbols[index], nil
}

// ToInt returns the index of symbol r.
func (a *Alphabet) ToInt(r rune) (int, error) {
	i, ok := a.index[r]
	if !ok {
		return 0, fmt.Errorf("%w: %q", ErrUnknownSymbol, r)
	}
	return i, nil
}

// Equal reports whether a and b hold the same symbols in the same order.
func (a *Alphabet) Equal(b *Alphabet) bool {
	if a == b {
		return true
	}
	if a == nil || b == nil || len(a.symbols) != len(b.symbols) {
		return false
	}
	for i, r := range a.symbols {
		if b.symbols[i] != r {
			return false
		}
	}
	return true
}

// String returns the symbols in index order.
func (a *Alphabet) String() string {
	return string(a.symbols)
}

// symbol is ToChar for indices already known to be in range.
func (a *Alphabet) symbol(i int) rune {
	return a.symbols[i]
}
