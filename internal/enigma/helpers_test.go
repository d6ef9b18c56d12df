package enigma

import (
	"testing"

	"github.com/stretchr/testify/require"
)

const upperString = "ABCDEFGHIJKLMNOPQRSTUVWXYZ"

// navalCycles is the naval rotor set in cycle notation.
var navalCycles = map[string]string{
	"I":     "(AELTPHQXRU) (BKNW) (CMOY) (DFG) (IV) (JZ) (S)",
	"II":    "(FIXVYOMW) (CDKLHUP) (ESZ) (BJ) (GR) (NT) (A) (Q)",
	"III":   "(ABDHPEJT) (CFLVMZOYQIRWUKXSG) (N)",
	"IV":    "(AEPLIYWCOXMRFZBSTGJQNH) (DV) (KU)",
	"V":     "(AVOLDRWFIUQ)(BZKSMNHYC) (EGTJPX)",
	"VI":    "(AJQDVLEOZWIYTS) (CGMNHFUX) (BPRK)",
	"VII":   "(ANOUPFRIMBZTLWKSVEGCJYDHXQ)",
	"VIII":  "(AFLSETWUNDHOZVICQ) (BKJ) (GXY) (MPR)",
	"Beta":  "(ALBEVFCYODJWUGNMQTZSKPR) (HIX)",
	"Gamma": "(AFNIRLBSQWVXGUZDKMTPCOYJHE)",
	"B":     "(AE) (BN) (CK) (DQ) (FU) (GY) (HW) (IJ) (LO) (MP) (RX) (SZ) (TV)",
	"C":     "(AR) (BD) (CO) (EJ) (FN) (GT) (HK) (IV) (LM) (PW) (QZ) (SX) (UY)",
}

// navalWiring is each rotor's image of upperString at setting A.
var navalWiring = map[string]string{
	"I":   "EKMFLGDQVZNTOWYHXUSPAIBRCJ",
	"III": "BDFHJLCPRTXVZNYEIWGAKMUSQO",
	"IV":  "ESOVPZJAYQUIRHXLNFTGKDCMWB",
}

func upper(t testing.TB) *Alphabet {
	t.Helper()
	a, err := NewRange('A', 'Z')
	require.NoError(t, err)
	return a
}

func perm(t testing.TB, name string) *Permutation {
	t.Helper()
	p, err := NewPermutation(navalCycles[name], upper(t))
	require.NoError(t, err)
	return p
}

// navalCatalog mirrors the rotor set used for the double-step scenarios:
// B / Beta / III / IV / I with four pawls.
func navalCatalog(t testing.TB) []*Rotor {
	t.Helper()
	b, err := NewReflector("B", perm(t, "B"))
	require.NoError(t, err)
	beta, err := NewMovingRotor("Beta", perm(t, "Beta"), "")
	require.NoError(t, err)
	iii, err := NewMovingRotor("III", perm(t, "III"), "V")
	require.NoError(t, err)
	iv, err := NewMovingRotor("IV", perm(t, "IV"), "J")
	require.NoError(t, err)
	i, err := NewMovingRotor("I", perm(t, "I"), "Q")
	require.NoError(t, err)
	return []*Rotor{b, beta, iii, iv, i}
}

func navalMachine(t testing.TB) *Machine {
	t.Helper()
	m, err := NewMachine(upper(t), 5, 4, navalCatalog(t))
	require.NoError(t, err)
	require.NoError(t, m.InsertRotors("B", "Beta", "III", "IV", "I"))
	return m
}
