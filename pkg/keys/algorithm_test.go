package keys

import (
	"github.com/google/go-tpm/tpm2"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

var _ = Describe("Algorithms", func() {
	DescribeTable("Maps RSA length and hash to the futility algorithm id",
		func(bits int, hash string, id int, name string) {
			got, err := AlgorithmID(bits, hash)
			Expect(err).ToNot(HaveOccurred())
			Expect(got).To(Equal(id))

			gotName, err := AlgorithmName(id)
			Expect(err).ToNot(HaveOccurred())
			Expect(gotName).To(Equal(name))
		},
		Entry(nil, 1024, "SHA1", 0, "RSA1024 SHA1"),
		Entry(nil, 1024, "SHA256", 1, "RSA1024 SHA256"),
		Entry(nil, 1024, "SHA512", 2, "RSA1024 SHA512"),
		Entry(nil, 2048, "SHA1", 3, "RSA2048 SHA1"),
		Entry(nil, 2048, "SHA256", 4, "RSA2048 SHA256"),
		Entry(nil, 2048, "SHA512", 5, "RSA2048 SHA512"),
		Entry(nil, 4096, "SHA1", 6, "RSA4096 SHA1"),
		Entry(nil, 4096, "SHA256", 7, "RSA4096 SHA256"),
		Entry(nil, 4096, "SHA512", 8, "RSA4096 SHA512"),
		Entry(nil, 8192, "SHA1", 9, "RSA8192 SHA1"),
		Entry(nil, 8192, "SHA256", 10, "RSA8192 SHA256"),
		Entry(nil, 8192, "SHA512", 11, "RSA8192 SHA512"),
	)

	DescribeTable("Accepts hash spellings",
		func(hash string) {
			Expect(AlgorithmID(2048, hash)).To(Equal(4))
		},
		Entry(nil, "sha256"),
		Entry(nil, "SHA-256"),
		Entry(nil, "Sha256"),
	)

	It("Rejects unknown lengths, hashes and ids", func() {
		_, err := AlgorithmID(3072, "SHA256")
		Expect(err).To(HaveOccurred())
		_, err = AlgorithmID(2048, "SHA384")
		Expect(err).To(HaveOccurred())
		_, err = AlgorithmID(2048, "MD5")
		Expect(err).To(HaveOccurred())
		_, err = AlgorithmName(12)
		Expect(err).To(HaveOccurred())
		_, err = AlgorithmName(-1)
		Expect(err).To(HaveOccurred())
	})

	It("Parses hash names into algorithm ids", func() {
		Expect(ParseHashAlgorithm("SHA512")).To(Equal(tpm2.TPMAlgSHA512))
		Expect(ParseHashAlgorithm("sha1")).To(Equal(tpm2.TPMAlgSHA1))
	})
})
