package catalog

import (
	"bufio"
	"fmt"
	"io"
	"regexp"
	"strings"

	"enigma/internal/enigma"
)

var (
	namePattern = regexp.MustCompile(`^[^()]+$`)
	typePattern = regexp.MustCompile(`^(M[^a-z()\-*\s]*|N|R)$`)
)

// CyclesPattern matches a single token of parenthesized cycles such as
// "(AB)" or "(AB)(CD)".
var CyclesPattern = regexp.MustCompile(`^(\([^()]+\))+$`)

// Parse reads a description in the classic text format. Line breaks carry
// no meaning; a rotor descriptor may continue over several lines.
func Parse(r io.Reader) (*Description, error) {
	t, err := NewTokenizer(r)
	if err != nil {
		return nil, err
	}

	d := &Description{}
	if !t.PeekMatches(rangePattern) && !t.PeekMatches(setPattern) {
		return nil, t.errorf("missing or invalid alphabet")
	}
	tok, _ := t.Next()
	alpha, err := ParseAlphabet(tok.Text)
	if err != nil {
		return nil, atLine(tok.Line, err)
	}
	d.Alphabet = tok.Text

	line := t.Line()
	if d.Slots, err = t.NextInt("number of rotors"); err != nil {
		return nil, err
	}
	if d.Slots <= 0 {
		return nil, atLine(line, fmt.Errorf("%w: bad number of rotors %d", enigma.ErrConfig, d.Slots))
	}
	line = t.Line()
	if d.Pawls, err = t.NextInt("number of pawls"); err != nil {
		return nil, err
	}
	if d.Pawls < 0 || d.Pawls >= d.Slots {
		return nil, atLine(line, fmt.Errorf("%w: bad number of pawls %d", enigma.ErrConfig, d.Pawls))
	}

	seen := make(map[string]bool)
	for !t.Done() {
		start := t.Line()
		spec, err := parseRotor(t, alpha)
		if err != nil {
			return nil, err
		}
		key := strings.ToUpper(spec.Name)
		if seen[key] {
			return nil, atLine(start, fmt.Errorf("%w: duplicate rotor name %s", enigma.ErrConfig, spec.Name))
		}
		seen[key] = true
		d.Rotors = append(d.Rotors, spec)
	}
	if len(d.Rotors) == 0 {
		return nil, t.errorf("configuration truncated: no rotors")
	}
	return d, nil
}

func parseRotor(t *Tokenizer, alpha *enigma.Alphabet) (RotorSpec, error) {
	name, err := t.ExpectPattern(namePattern, "rotor name")
	if err != nil {
		return RotorSpec{}, err
	}
	typ, err := t.ExpectPattern(typePattern, "rotor type for "+name.Text)
	if err != nil {
		return RotorSpec{}, err
	}
	var cycles []string
	for t.PeekMatches(CyclesPattern) {
		tok, _ := t.Next()
		cycles = append(cycles, tok.Text)
	}

	spec := RotorSpec{Name: name.Text, Cycles: strings.Join(cycles, " ")}
	switch typ.Text[0] {
	case 'R':
		spec.Type = TypeReflector
	case 'N':
		spec.Type = TypeFixed
	default:
		spec.Type = TypeMoving
		spec.Notches = typ.Text[1:]
		if spec.Notches == "" {
			return RotorSpec{}, atLine(typ.Line, fmt.Errorf("%w: moving rotor %s has no notches", enigma.ErrConfig, spec.Name))
		}
		for _, c := range spec.Notches {
			if !alpha.Contains(c) {
				return RotorSpec{}, atLine(typ.Line, fmt.Errorf("%w: rotor %s notch %q not in alphabet", enigma.ErrConfig, spec.Name, c))
			}
		}
	}

	if _, err := spec.Build(alpha); err != nil {
		return RotorSpec{}, atLine(name.Line, err)
	}
	return spec, nil
}

// writeClassic renders d in the classic format, one rotor per line.
func writeClassic(w io.Writer, d *Description) error {
	bw := bufio.NewWriter(w)
	fmt.Fprintln(bw, d.Alphabet)
	fmt.Fprintf(bw, "%d %d\n", d.Slots, d.Pawls)
	for _, r := range d.Rotors {
		var typ string
		switch r.Type {
		case TypeReflector:
			typ = "R"
		case TypeFixed:
			typ = "N"
		default:
			typ = "M" + r.Notches
		}
		if r.Cycles == "" {
			fmt.Fprintf(bw, "%s %s\n", r.Name, typ)
			continue
		}
		fmt.Fprintf(bw, "%s %s %s\n", r.Name, typ, r.Cycles)
	}
	return bw.Flush()
}
