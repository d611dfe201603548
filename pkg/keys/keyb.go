package keys

import (
	"crypto/rsa"
	"encoding/binary"
	"fmt"
	"io"
	"math/big"
)

const requiredExponent = 65537

// DumpRSAPublicKey writes pub in the pre-processed layout futility expects
// for --key when packing a .vbpubk: the modulus length in 32-bit words,
// n0inv = -1/N mod 2^32, the modulus, and R^2 mod N with R = 2^(32*words).
// All values are little-endian 32-bit words, least significant word first.
func DumpRSAPublicKey(pub *rsa.PublicKey, w io.Writer) error {
	if pub == nil || pub.N == nil {
		return fmt.Errorf("no RSA public key")
	}
	if pub.E != requiredExponent {
		return fmt.Errorf("public exponent %d is not supported, only %d", pub.E, requiredExponent)
	}
	bits := pub.N.BitLen()
	if bits == 0 || bits%32 != 0 {
		return fmt.Errorf("modulus length %d is not a multiple of 32 bits", bits)
	}
	words := bits / 32

	b := new(big.Int).Lsh(big.NewInt(1), 32)
	n0inv := new(big.Int).Mod(pub.N, b)
	if n0inv.ModInverse(n0inv, b) == nil {
		return fmt.Errorf("modulus is even")
	}
	n0inv.Sub(b, n0inv)

	r := new(big.Int).Lsh(big.NewInt(1), uint(words*32))
	rr := new(big.Int).Mul(r, r)
	rr.Mod(rr, pub.N)

	out := make([]uint32, 0, 2+2*words)
	out = append(out, uint32(words), uint32(n0inv.Uint64()))
	out = append(out, toWords(pub.N, words)...)
	out = append(out, toWords(rr, words)...)

	return binary.Write(w, binary.LittleEndian, out)
}

// toWords splits v into n little-endian 32-bit words.
func toWords(v *big.Int, n int) []uint32 {
	buf := make([]byte, n*4)
	v.FillBytes(buf)
	words := make([]uint32, n)
	for i := range words {
		end := len(buf) - i*4
		words[i] = binary.BigEndian.Uint32(buf[end-4 : end])
	}
	return words
}
