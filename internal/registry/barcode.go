package registry

import "math/rand"

// barcodeAlphabet matches what Code 128 badge printers accept without
// shifting: uppercase letters and digits.
const barcodeAlphabet = "ABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"

// DefaultBarcodeLength is used when config supplies nothing sensible.
const DefaultBarcodeLength = 8

// Generator produces fixed-length barcode candidates.
type Generator struct {
	length int
}

// NewGenerator creates a generator for candidates of the given length.
func NewGenerator(length int) Generator {
	if length <= 0 {
		length = DefaultBarcodeLength
	}
	return Generator{length: length}
}

// Candidate returns a random candidate. Uniqueness is not guaranteed here;
// the store's constraint decides.
func (g Generator) Candidate() string {
	b := make([]byte, g.length)
	for i := range b {
		b[i] = barcodeAlphabet[rand.Intn(len(barcodeAlphabet))]
	}
	return string(b)
}
