// Package session drives a machine from a message stream: settings lines
// reconfigure it and every other line is converted and written out in
// fixed-size groups.
package session

import (
	"fmt"
	"strings"

	"enigma/internal/catalog"
	"enigma/internal/enigma"
)

// Settings is a parsed settings line such as
//
//	* B Beta III IV I AXLE (HQ) (EX) (IP) (TR) (BY)
type Settings struct {
	Rotors    []string
	Position  string
	Plugboard string
}

// IsSettingsLine reports whether line starts a reconfiguration. The '*'
// must be the first character; an indented line is a message.
func IsSettingsLine(line string) bool {
	return strings.HasPrefix(line, "*")
}

// ParseSettings reads a settings line for m. It checks the shape of the
// line only; rotor names and symbols are checked when the settings are
// applied.
func ParseSettings(line string, m *enigma.Machine) (*Settings, error) {
	if !IsSettingsLine(line) {
		return nil, fmt.Errorf("%w: settings line must start with '*'", enigma.ErrSettings)
	}
	fields := strings.Fields(line[1:])
	slots := m.NumRotors()

	s := &Settings{Rotors: make([]string, 0, slots)}
	seen := make(map[string]bool, slots)
	for i := 0; i < slots; i++ {
		if i >= len(fields) {
			return nil, fmt.Errorf("%w: not enough arguments, want %d rotors and a setting", enigma.ErrSettings, slots)
		}
		if catalog.CyclesPattern.MatchString(fields[i]) {
			return nil, fmt.Errorf("%w: either too few rotors or no rotor settings", enigma.ErrSettings)
		}
		key := strings.ToUpper(fields[i])
		if seen[key] {
			return nil, fmt.Errorf("%w: duplicate rotor %s in settings line", enigma.ErrSettings, fields[i])
		}
		seen[key] = true
		s.Rotors = append(s.Rotors, fields[i])
	}

	if slots >= len(fields) || catalog.CyclesPattern.MatchString(fields[slots]) {
		return nil, fmt.Errorf("%w: no rotor settings given", enigma.ErrSettings)
	}
	s.Position = fields[slots]

	cycles := fields[slots+1:]
	for _, c := range cycles {
		if !catalog.CyclesPattern.MatchString(c) {
			return nil, fmt.Errorf("%w: invalid plugboard cycles %q", enigma.ErrSettings, c)
		}
	}
	s.Plugboard = strings.Join(cycles, " ")
	return s, nil
}

// Apply inserts the rotors, sets their positions and installs the
// plugboard, in that order.
func Apply(m *enigma.Machine, s *Settings) error {
	plug, err := enigma.NewPermutation(s.Plugboard, m.Alphabet())
	if err != nil {
		return fmt.Errorf("plugboard: %w", err)
	}
	if err := m.InsertRotors(s.Rotors...); err != nil {
		return err
	}
	if err := m.SetRotors(s.Position); err != nil {
		return err
	}
	return m.SetPlugboard(plug)
}

// String renders the settings back as a settings line.
func (s *Settings) String() string {
	parts := append([]string{"*"}, s.Rotors...)
	parts = append(parts, s.Position)
	if s.Plugboard != "" {
		parts = append(parts, s.Plugboard)
	}
	return strings.Join(parts, " ")
}
