package enigma

import "errors"

// Error kinds returned by the engine. Every error is wrapped with context,
// so callers should match with errors.Is.
var (
	// ErrConfig reports a malformed alphabet, cycle, rotor or machine layout.
	ErrConfig = errors.New("enigma: configuration error")

	// ErrRange reports an index outside [0, size).
	ErrRange = errors.New("enigma: index out of range")

	// ErrUnknownSymbol reports a symbol that is not a member of the alphabet.
	ErrUnknownSymbol = errors.New("enigma: symbol not in alphabet")

	// ErrSettings reports a bad rotor setting string or rotor selection.
	ErrSettings = errors.New("enigma: bad settings")
)
