package enigma

import (
	"fmt"
	"strings"
	"unicode"
)

// Machine holds a row of rotor slots, a plugboard, and a catalog of rotors
// that can be placed in the slots. Slot 0 always holds the reflector; the
// highest slot is the fastest rotor.
type Machine struct {
	alpha     *Alphabet
	numRotors int
	pawls     int

	catalog []*Rotor
	byName  map[string]*Rotor

	rotors    []*Rotor
	plugboard *Permutation

	// scratch for step; sized on InsertRotors
	advance []bool
}

// NewMachine returns a machine with numRotors slots, pawls moving rotors and
// the given catalog of available rotors. The catalog rotors are never
// mutated: InsertRotors places copies in the slots.
func NewMachine(alpha *Alphabet, numRotors, pawls int, catalog []*Rotor) (*Machine, error) {
	if alpha == nil {
		return nil, fmt.Errorf("%w: machine needs an alphabet", ErrConfig)
	}
	if numRotors < 1 {
		return nil, fmt.Errorf("%w: bad number of rotors %d", ErrConfig, numRotors)
	}
	if pawls < 0 || pawls >= numRotors {
		return nil, fmt.Errorf("%w: bad number of pawls %d for %d rotors", ErrConfig, pawls, numRotors)
	}

	m := &Machine{
		alpha:     alpha,
		numRotors: numRotors,
		pawls:     pawls,
		byName:    make(map[string]*Rotor, len(catalog)),
	}
	for _, r := range catalog {
		if r == nil {
			return nil, fmt.Errorf("%w: nil rotor in catalog", ErrConfig)
		}
		if !r.Alphabet().Equal(alpha) {
			return nil, fmt.Errorf("%w: rotor %s uses a different alphabet", ErrConfig, r.Name())
		}
		key := strings.ToUpper(r.Name())
		if _, dup := m.byName[key]; dup {
			return nil, fmt.Errorf("%w: duplicate rotor name %s", ErrConfig, r.Name())
		}
		m.byName[key] = r
		m.catalog = append(m.catalog, r)
	}

	identity, err := NewPermutation("", alpha)
	if err != nil {
		return nil, err
	}
	m.plugboard = identity
	return m, nil
}

// Alphabet returns the machine's alphabet.
func (m *Machine) Alphabet() *Alphabet { return m.alpha }

// NumRotors returns the number of rotor slots.
func (m *Machine) NumRotors() int { return m.numRotors }

// NumPawls returns the number of pawls, and so of moving rotors.
func (m *Machine) NumPawls() int { return m.pawls }

// Catalog returns the available rotors in declaration order.
func (m *Machine) Catalog() []*Rotor {
	return append([]*Rotor(nil), m.catalog...)
}

// Rotors returns the rotors currently in the slots, reflector first. It is
// empty until InsertRotors succeeds.
func (m *Machine) Rotors() []*Rotor {
	return append([]*Rotor(nil), m.rotors...)
}

// Plugboard returns the current plugboard permutation.
func (m *Machine) Plugboard() *Permutation { return m.plugboard }

// InsertRotors fills the slots with the catalog rotors named by names,
// reflector first. Names match case-insensitively. Every inserted rotor
// starts at setting 0. On error the previous slots are kept.
func (m *Machine) InsertRotors(names ...string) error {
	if len(names) != m.numRotors {
		return fmt.Errorf("%w: expected %d rotors, got %d", ErrSettings, m.numRotors, len(names))
	}

	slots := make([]*Rotor, 0, len(names))
	seen := make(map[string]bool, len(names))
	moving := 0
	for i, name := range names {
		key := strings.ToUpper(name)
		if seen[key] {
			return fmt.Errorf("%w: rotor %s used twice", ErrSettings, name)
		}
		seen[key] = true

		r, ok := m.byName[key]
		if !ok {
			return fmt.Errorf("%w: unknown rotor %s", ErrConfig, name)
		}
		switch {
		case i == 0 && !r.Reflecting():
			return fmt.Errorf("%w: slot 0 needs a reflector, %s is %s", ErrConfig, r.Name(), r.Kind())
		case i != 0 && r.Reflecting():
			return fmt.Errorf("%w: reflector %s in slot %d", ErrConfig, r.Name(), i)
		}
		if r.Rotates() {
			moving++
		}

		c := r.Clone()
		c.setting = 0
		slots = append(slots, c)
	}
	if moving != m.pawls {
		return fmt.Errorf("%w: %d moving rotors for %d pawls", ErrConfig, moving, m.pawls)
	}

	m.rotors = slots
	m.advance = make([]bool, len(slots))
	return nil
}

// SetRotors sets slots 1..n from the symbols of setting, left to right. The
// reflector is not set.
func (m *Machine) SetRotors(setting string) error {
	if len(m.rotors) == 0 {
		return fmt.Errorf("%w: no rotors inserted", ErrConfig)
	}
	symbols := []rune(setting)
	if len(symbols) != len(m.rotors)-1 {
		return fmt.Errorf("%w: setting %q has %d symbols, want %d",
			ErrSettings, setting, len(symbols), len(m.rotors)-1)
	}

	idx := make([]int, len(symbols))
	for i, c := range symbols {
		k, err := m.alpha.ToInt(c)
		if err != nil {
			return fmt.Errorf("rotor setting: %w", err)
		}
		idx[i] = k
	}
	for i, k := range idx {
		m.rotors[i+1].setting = k
	}
	return nil
}

// SetPlugboard replaces the plugboard. Any permutation over the machine's
// alphabet is accepted.
func (m *Machine) SetPlugboard(p *Permutation) error {
	if p == nil {
		return fmt.Errorf("%w: nil plugboard", ErrConfig)
	}
	if !p.Alphabet().Equal(m.alpha) {
		return fmt.Errorf("%w: plugboard uses a different alphabet", ErrConfig)
	}
	m.plugboard = p
	return nil
}

// Settings returns the symbols under the window of slots 1..n.
func (m *Machine) Settings() string {
	if len(m.rotors) < 2 {
		return ""
	}
	var b strings.Builder
	for _, r := range m.rotors[1:] {
		b.WriteRune(m.alpha.symbol(r.setting))
	}
	return b.String()
}

// Convert steps the rotors and then encodes index c.
func (m *Machine) Convert(c int) (int, error) {
	if len(m.rotors) == 0 {
		return 0, fmt.Errorf("%w: no rotors inserted", ErrConfig)
	}
	if c < 0 || c >= m.alpha.Size() {
		return 0, fmt.Errorf("%w: %d not in [0,%d)", ErrRange, c, m.alpha.Size())
	}
	return m.convert(c), nil
}

func (m *Machine) convert(c int) int {
	m.step()

	c = m.plugboard.Permute(c)
	for i := len(m.rotors) - 1; i >= 0; i-- {
		c = m.rotors[i].ConvertForward(c)
	}
	for i := 1; i < len(m.rotors); i++ {
		c = m.rotors[i].ConvertBackward(c)
	}
	return m.plugboard.Permute(c)
}

// step advances the rotors. All decisions are taken from the positions
// before any rotor moves, which produces the double step of the middle
// rotor.
func (m *Machine) step() {
	last := len(m.rotors) - 1
	for i := range m.advance {
		m.advance[i] = false
	}
	for i := 1; i <= last; i++ {
		r := m.rotors[i]
		if i == last {
			m.advance[i] = true
			continue
		}
		left, right := m.rotors[i-1], m.rotors[i+1]
		m.advance[i] = (r.AtNotch() && left.Rotates()) || (right.AtNotch() && r.Rotates())
	}
	for i, ok := range m.advance {
		if ok {
			m.rotors[i].Advance()
		}
	}
}

// ConvertString encodes msg. Whitespace is dropped and letters are
// upper-cased first. Every symbol is checked before the rotors move, so an
// unknown symbol leaves the machine untouched.
func (m *Machine) ConvertString(msg string) (string, error) {
	if len(m.rotors) == 0 {
		return "", fmt.Errorf("%w: no rotors inserted", ErrConfig)
	}

	idx := make([]int, 0, len(msg))
	for _, r := range msg {
		if unicode.IsSpace(r) {
			continue
		}
		k, err := m.alpha.ToInt(unicode.ToUpper(r))
		if err != nil {
			return "", fmt.Errorf("message: %w", err)
		}
		idx = append(idx, k)
	}

	var b strings.Builder
	b.Grow(len(idx))
	for _, k := range idx {
		b.WriteRune(m.alpha.symbol(m.convert(k)))
	}
	return b.String(), nil
}
