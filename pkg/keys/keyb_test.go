package keys

import (
	"bytes"
	"crypto/rand"
	"crypto/rsa"
	"encoding/binary"
	"math/big"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

func fromWords(words []uint32) *big.Int {
	v := new(big.Int)
	for i := len(words) - 1; i >= 0; i-- {
		v.Lsh(v, 32)
		v.Or(v, big.NewInt(int64(words[i])))
	}
	return v
}

var _ = Describe("DumpRSAPublicKey", func() {
	var key *rsa.PrivateKey

	BeforeEach(func() {
		var err error
		key, err = rsa.GenerateKey(rand.Reader, 1024)
		Expect(err).ToNot(HaveOccurred())
	})

	It("Writes the pre-processed key layout", func() {
		var buf bytes.Buffer
		Expect(DumpRSAPublicKey(&key.PublicKey, &buf)).To(Succeed())
		Expect(buf.Len()).To(Equal((2 + 2*32) * 4))

		words := make([]uint32, buf.Len()/4)
		Expect(binary.Read(&buf, binary.LittleEndian, words)).To(Succeed())

		Expect(words[0]).To(Equal(uint32(32)))

		n := fromWords(words[2:34])
		Expect(n.Cmp(key.N)).To(BeZero())

		// n0inv * N = -1 mod 2^32
		b := new(big.Int).Lsh(big.NewInt(1), 32)
		prod := new(big.Int).Mul(big.NewInt(int64(words[1])), key.N)
		prod.Mod(prod, b)
		Expect(prod.Uint64()).To(Equal(uint64(0xffffffff)))

		r := new(big.Int).Lsh(big.NewInt(1), 1024)
		rr := new(big.Int).Mul(r, r)
		rr.Mod(rr, key.N)
		Expect(fromWords(words[34:]).Cmp(rr)).To(BeZero())
	})

	It("Is stable for the same key", func() {
		var first, second bytes.Buffer
		Expect(DumpRSAPublicKey(&key.PublicKey, &first)).To(Succeed())
		Expect(DumpRSAPublicKey(&key.PublicKey, &second)).To(Succeed())
		Expect(first.Bytes()).To(Equal(second.Bytes()))
	})

	It("Rejects exponents other than 65537", func() {
		pub := key.PublicKey
		pub.E = 3
		Expect(DumpRSAPublicKey(&pub, &bytes.Buffer{})).ToNot(Succeed())
	})

	It("Rejects a missing key", func() {
		Expect(DumpRSAPublicKey(nil, &bytes.Buffer{})).ToNot(Succeed())
	})
})
