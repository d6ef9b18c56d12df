package enigma

import (
	"fmt"
	"strings"
)

// Kind selects how a rotor behaves inside a machine.
type Kind int

const (
	// KindReflector never rotates and turns the signal back. Its wiring
	// has no fixed points.
	KindReflector Kind = iota
	// KindFixed never rotates.
	KindFixed
	// KindMoving rotates and may drive its left neighbour at a notch.
	KindMoving
)

// String returns the lower-case name of the kind.
func (k Kind) String() string {
	switch k {
	case KindReflector:
		return "reflector"
	case KindFixed:
		return "fixed"
	case KindMoving:
		return "moving"
	default:
		return fmt.Sprintf("Kind(%d)", int(k))
	}
}

// Rotor is a permutation mounted at a rotational offset (its setting).
// Reflectors, fixed rotors and moving rotors share this layout and differ
// only in how they rotate.
type Rotor struct {
	name    string
	kind    Kind
	perm    *Permutation
	notches []bool // indexed by setting; only set for moving rotors
	setting int
}

// NewReflector returns a reflector. perm must be a derangement.
func NewReflector(name string, perm *Permutation) (*Rotor, error) {
	if err := checkRotor(name, perm); err != nil {
		return nil, err
	}
	if !perm.Derangement() {
		return nil, fmt.Errorf("%w: reflector %s has a fixed point", ErrConfig, name)
	}
	return &Rotor{name: name, kind: KindReflector, perm: perm}, nil
}

// NewFixedRotor returns a rotor that never rotates.
func NewFixedRotor(name string, perm *Permutation) (*Rotor, error) {
	if err := checkRotor(name, perm); err != nil {
		return nil, err
	}
	return &Rotor{name: name, kind: KindFixed, perm: perm}, nil
}

// NewMovingRotor returns a rotating rotor whose notches sit at the symbols
// of notches. An empty notch string gives a rotor that never drives its
// neighbour.
func NewMovingRotor(name string, perm *Permutation, notches string) (*Rotor, error) {
	if err := checkRotor(name, perm); err != nil {
		return nil, err
	}
	marks := make([]bool, perm.Size())
	for _, c := range notches {
		i, err := perm.Alphabet().ToInt(c)
		if err != nil {
			return nil, fmt.Errorf("%w: rotor %s notch %q not in alphabet", ErrConfig, name, c)
		}
		marks[i] = true
	}
	return &Rotor{name: name, kind: KindMoving, perm: perm, notches: marks}, nil
}

func checkRotor(name string, perm *Permutation) error {
	if strings.TrimSpace(name) == "" {
		return fmt.Errorf("%w: rotor name cannot be empty", ErrConfig)
	}
	if perm == nil {
		return fmt.Errorf("%w: rotor %s has no permutation", ErrConfig, name)
	}
	return nil
}

// Name returns the catalog name of the rotor.
func (r *Rotor) Name() string { return r.name }

// Kind returns the rotor variant.
func (r *Rotor) Kind() Kind { return r.kind }

// Size returns the size of the rotor's alphabet.
func (r *Rotor) Size() int { return r.perm.Size() }

// Permutation returns the rotor's wiring at setting 0.
func (r *Rotor) Permutation() *Permutation { return r.perm }

// Alphabet returns the rotor's alphabet.
func (r *Rotor) Alphabet() *Alphabet { return r.perm.Alphabet() }

// Setting returns the current rotational offset.
func (r *Rotor) Setting() int { return r.setting }

// Set changes the setting to index.
func (r *Rotor) Set(index int) error {
	if index < 0 || index >= r.Size() {
		return fmt.Errorf("%w: rotor %s setting %d not in [0,%d)", ErrRange, r.name, index, r.Size())
	}
	r.setting = index
	return nil
}

// SetRune changes the setting to the index of symbol c.
func (r *Rotor) SetRune(c rune) error {
	i, err := r.Alphabet().ToInt(c)
	if err != nil {
		return fmt.Errorf("rotor %s: %w", r.name, err)
	}
	r.setting = i
	return nil
}

// Rotates reports whether the rotor can advance.
func (r *Rotor) Rotates() bool { return r.kind == KindMoving }

// Reflecting reports whether the rotor is a reflector.
func (r *Rotor) Reflecting() bool { return r.kind == KindReflector }

// AtNotch reports whether the rotor's current setting is one of its notches.
// Only moving rotors have notches.
func (r *Rotor) AtNotch() bool {
	return r.kind == KindMoving && r.notches[r.setting]
}

// Notches returns the notch symbols in alphabet order.
func (r *Rotor) Notches() string {
	var b strings.Builder
	for i, ok := range r.notches {
		if ok {
			b.WriteRune(r.Alphabet().symbol(i))
		}
	}
	return b.String()
}

// Advance moves a moving rotor forward one position. Other kinds ignore it.
func (r *Rotor) Advance() {
	if r.kind == KindMoving {
		r.setting = r.perm.Wrap(r.setting + 1)
	}
}

// ConvertForward maps contact p on the right of the rotor to the contact on
// its left, taking the current setting into account.
func (r *Rotor) ConvertForward(p int) int {
	return r.perm.Wrap(r.perm.Permute(r.perm.Wrap(p+r.setting)) - r.setting)
}

// ConvertBackward is the inverse of ConvertForward at the same setting.
func (r *Rotor) ConvertBackward(c int) int {
	return r.perm.Wrap(r.perm.Invert(r.perm.Wrap(c+r.setting)) - r.setting)
}

// Clone returns a copy with its own setting. Wiring and notches are shared
// since they never change.
func (r *Rotor) Clone() *Rotor {
	c := *r
	return &c
}

// String describes the rotor, e.g. "III (moving, notches V) at A".
func (r *Rotor) String() string {
	pos := r.Alphabet().symbol(r.setting)
	if r.kind == KindMoving {
		return fmt.Sprintf("%s (%s, notches %q) at %c", r.name, r.kind, r.Notches(), pos)
	}
	return fmt.Sprintf("%s (%s) at %c", r.name, r.kind, pos)
}
