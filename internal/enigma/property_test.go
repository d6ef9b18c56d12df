package enigma

import (
	"math/rand"
	"strings"
	"testing"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
)

// randomCycles shuffles upperString with seed and cuts it into disjoint
// cycles, leaving some symbols fixed.
func randomCycles(seed int64) string {
	rng := rand.New(rand.NewSource(seed))
	symbols := []rune(upperString)
	rng.Shuffle(len(symbols), func(i, j int) { symbols[i], symbols[j] = symbols[j], symbols[i] })

	var b strings.Builder
	for len(symbols) > 0 {
		n := 1 + rng.Intn(len(symbols))
		if rng.Intn(4) > 0 {
			b.WriteString("(" + string(symbols[:n]) + ") ")
		}
		symbols = symbols[n:]
	}
	return b.String()
}

// randomPairs builds a reflector-style wiring: 13 disjoint transpositions.
func randomPairs(seed int64) string {
	rng := rand.New(rand.NewSource(seed))
	symbols := []rune(upperString)
	rng.Shuffle(len(symbols), func(i, j int) { symbols[i], symbols[j] = symbols[j], symbols[i] })

	var b strings.Builder
	for i := 0; i < len(symbols); i += 2 {
		b.WriteString("(" + string(symbols[i:i+2]) + ")")
	}
	return b.String()
}

func TestPermutationProperties(t *testing.T) {
	a := upper(t)
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 200
	properties := gopter.NewProperties(parameters)

	properties.Property("invert undoes permute", prop.ForAll(
		func(seed int64) bool {
			p, err := NewPermutation(randomCycles(seed), a)
			if err != nil {
				return false
			}
			for _, s := range upperString {
				f, _ := p.PermuteRune(s)
				back, _ := p.InvertRune(f)
				i, _ := p.InvertRune(s)
				fwd, _ := p.PermuteRune(i)
				if back != s || fwd != s {
					return false
				}
			}
			return true
		},
		gen.Int64(),
	))

	properties.Property("canonical cycles rebuild the same permutation", prop.ForAll(
		func(seed int64) bool {
			p, err := NewPermutation(randomCycles(seed), a)
			if err != nil {
				return false
			}
			q, err := NewPermutation(p.Cycles(), a)
			if err != nil {
				return false
			}
			for i := range upperString {
				if p.Permute(i) != q.Permute(i) {
					return false
				}
			}
			return true
		},
		gen.Int64(),
	))

	properties.TestingRun(t)
}

func TestRotorProperties(t *testing.T) {
	a := upper(t)
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 200
	properties := gopter.NewProperties(parameters)

	properties.Property("backward undoes forward at any setting", prop.ForAll(
		func(seed int64, setting int) bool {
			p, err := NewPermutation(randomCycles(seed), a)
			if err != nil {
				return false
			}
			r, err := NewMovingRotor("R", p, "A")
			if err != nil || r.Set(setting) != nil {
				return false
			}
			for i := range upperString {
				if r.ConvertBackward(r.ConvertForward(i)) != i {
					return false
				}
			}
			return true
		},
		gen.Int64(),
		gen.IntRange(0, 25),
	))

	properties.Property("size advances return to the start", prop.ForAll(
		func(setting int) bool {
			r, err := NewMovingRotor("I", perm(t, "I"), "Q")
			if err != nil || r.Set(setting) != nil {
				return false
			}
			for range r.Size() {
				r.Advance()
			}
			return r.Setting() == setting
		},
		gen.IntRange(0, 25),
	))

	properties.TestingRun(t)
}

func TestMachineProperties(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 100
	properties := gopter.NewProperties(parameters)

	settingGen := gen.SliceOfN(4, gen.IntRange(0, 25)).Map(func(v []int) string {
		var b strings.Builder
		for _, i := range v {
			b.WriteByte(byte('A' + i))
		}
		return b.String()
	})
	messageGen := gen.SliceOf(gen.IntRange(0, 25)).Map(func(v []int) string {
		var b strings.Builder
		for _, i := range v {
			b.WriteByte(byte('A' + i))
		}
		return b.String()
	})

	properties.Property("encryption is its own inverse", prop.ForAll(
		func(setting, plain string, plugSeed int64) bool {
			m := navalMachine(t)
			if m.SetPlugboard(plugboard(t, randomPairs(plugSeed))) != nil {
				return false
			}
			if m.SetRotors(setting) != nil {
				return false
			}
			enc, err := m.ConvertString(plain)
			if err != nil {
				return false
			}
			if m.SetRotors(setting) != nil {
				return false
			}
			dec, err := m.ConvertString(enc)
			return err == nil && dec == plain
		},
		settingGen,
		messageGen,
		gen.Int64(),
	))

	properties.Property("no symbol encrypts to itself", prop.ForAll(
		func(setting string, c int) bool {
			m := navalMachine(t)
			if m.SetRotors(setting) != nil {
				return false
			}
			out, err := m.Convert(c)
			return err == nil && out != c
		},
		settingGen,
		gen.IntRange(0, 25),
	))

	properties.TestingRun(t)
}
