// Package catalog loads machine descriptions: the alphabet, the slot and pawl
// counts, and the rotors a machine may be assembled from.
//
// Two encodings are supported. The classic text format is a stream of
// whitespace-separated tokens:
//
//	A-Z
//	5 3
//	B R (AE) (BN) (CK) ...
//	I MQ (AELTPHQXRU) (BKNW) ...
//
// The structured format carries the same fields as YAML, TOML or JSON and is
// checked against an embedded JSON Schema before use.
package catalog

import (
	"bytes"
	"encoding/hex"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"golang.org/x/crypto/blake2b"

	"enigma/internal/enigma"
)

// Rotor types as written in structured descriptions.
const (
	TypeReflector = "reflector"
	TypeFixed     = "fixed"
	TypeMoving    = "moving"
)

// Description is a parsed machine description. It is plain data: Build may
// be called any number of times and every call returns an independent
// machine.
type Description struct {
	Alphabet string      `json:"alphabet" yaml:"alphabet" toml:"alphabet" validate:"required"`
	Slots    int         `json:"slots" yaml:"slots" toml:"slots" validate:"min=1"`
	Pawls    int         `json:"pawls" yaml:"pawls" toml:"pawls" validate:"min=0,ltfield=Slots"`
	Rotors   []RotorSpec `json:"rotors" yaml:"rotors" toml:"rotors" validate:"required,min=1,dive"`
}

// RotorSpec describes one catalog rotor.
type RotorSpec struct {
	Name    string `json:"name" yaml:"name" toml:"name" validate:"required,excludesall=()"`
	Type    string `json:"type" yaml:"type" toml:"type" validate:"oneof=reflector fixed moving"`
	Notches string `json:"notches,omitempty" yaml:"notches,omitempty" toml:"notches,omitempty" validate:"required_if=Type moving,excluded_unless=Type moving"`
	Cycles  string `json:"cycles" yaml:"cycles" toml:"cycles"`
}

var (
	rangePattern = regexp.MustCompile(`^[^-()\s]-[^-()\s]$`)
	setPattern   = regexp.MustCompile(`^[^a-z()\-*\s]+$`)
)

// ParseAlphabet reads an alphabet written either as a range such as "A-Z"
// or as an explicit run of symbols such as "ABCDEF".
func ParseAlphabet(s string) (*enigma.Alphabet, error) {
	switch {
	case rangePattern.MatchString(s):
		bounds := []rune(s)
		return enigma.NewRange(bounds[0], bounds[2])
	case setPattern.MatchString(s):
		return enigma.NewAlphabet(s)
	default:
		return nil, fmt.Errorf("%w: invalid alphabet %q", enigma.ErrConfig, s)
	}
}

// Build assembles a machine with the described catalog. No rotors are
// inserted yet.
func (d *Description) Build() (*enigma.Machine, error) {
	if err := d.Validate(); err != nil {
		return nil, err
	}
	alpha, err := ParseAlphabet(d.Alphabet)
	if err != nil {
		return nil, err
	}
	rotors := make([]*enigma.Rotor, 0, len(d.Rotors))
	for _, spec := range d.Rotors {
		r, err := spec.Build(alpha)
		if err != nil {
			return nil, err
		}
		rotors = append(rotors, r)
	}
	return enigma.NewMachine(alpha, d.Slots, d.Pawls, rotors)
}

// Build constructs the rotor over alpha.
func (s RotorSpec) Build(alpha *enigma.Alphabet) (*enigma.Rotor, error) {
	perm, err := enigma.NewPermutation(s.Cycles, alpha)
	if err != nil {
		return nil, fmt.Errorf("rotor %s: %w", s.Name, err)
	}
	switch s.Type {
	case TypeReflector:
		return enigma.NewReflector(s.Name, perm)
	case TypeFixed:
		return enigma.NewFixedRotor(s.Name, perm)
	case TypeMoving:
		if s.Notches == "" {
			return nil, fmt.Errorf("%w: moving rotor %s has no notches", enigma.ErrConfig, s.Name)
		}
		return enigma.NewMovingRotor(s.Name, perm, s.Notches)
	default:
		return nil, fmt.Errorf("%w: rotor %s has unknown type %q", enigma.ErrConfig, s.Name, s.Type)
	}
}

// Rotor returns the spec for name, matched case-insensitively.
func (d *Description) Rotor(name string) (RotorSpec, bool) {
	for _, s := range d.Rotors {
		if strings.EqualFold(s.Name, name) {
			return s, true
		}
	}
	return RotorSpec{}, false
}

// Fingerprint identifies the description by content. Two descriptions that
// encode to the same classic text share a fingerprint whatever file format
// they were loaded from.
func (d *Description) Fingerprint() string {
	var buf bytes.Buffer
	_ = writeClassic(&buf, d)
	sum := blake2b.Sum256(buf.Bytes())
	return hex.EncodeToString(sum[:8])
}

// Load reads the description at path. The format follows the file
// extension; anything that is not YAML, TOML or JSON is read as the classic
// text format.
func Load(path string) (*Description, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("could not open %s: %w", path, err)
	}
	return Decode(data, FormatFromPath(path))
}

// Decode parses data in the given format.
func Decode(data []byte, format Format) (*Description, error) {
	if format == FormatClassic {
		return Parse(bytes.NewReader(data))
	}
	return decodeStructured(data, format)
}

// FormatFromPath picks a format from a file extension.
func FormatFromPath(path string) Format {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return FormatYAML
	case ".toml":
		return FormatTOML
	case ".json":
		return FormatJSON
	default:
		return FormatClassic
	}
}
