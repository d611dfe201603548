package keys

import (
	"fmt"
	"strings"

	"github.com/google/go-tpm/tpm2"
)

// vboot orders algorithms by RSA length, then by hash. Hashes are kept as
// TPM algorithm ids: their crypto.Hash names give the accepted spellings, and
// SHA1 < SHA256 < SHA512 is also the vboot hash order.
var (
	rsaLengths     = []int{1024, 2048, 4096, 8192}
	hashAlgorithms = []tpm2.TPMAlgID{tpm2.TPMAlgSHA1, tpm2.TPMAlgSHA256, tpm2.TPMAlgSHA512}
)

// ParseHashAlgorithm maps a name such as "SHA256" or "sha-256" to its algorithm id.
func ParseHashAlgorithm(name string) (tpm2.TPMAlgID, error) {
	want := normalizeHashName(name)
	for _, alg := range hashAlgorithms {
		h, err := alg.Hash()
		if err != nil {
			return 0, err
		}
		if normalizeHashName(h.String()) == want {
			return alg, nil
		}
	}
	return 0, fmt.Errorf("unsupported hash algorithm %q", name)
}

// AlgorithmID returns the futility --algorithm value for an RSA length and hash name.
func AlgorithmID(rsaLength int, hashAlg string) (int, error) {
	rsaIndex := -1
	for i, l := range rsaLengths {
		if l == rsaLength {
			rsaIndex = i
		}
	}
	if rsaIndex < 0 {
		return 0, fmt.Errorf("unsupported RSA length %d", rsaLength)
	}

	alg, err := ParseHashAlgorithm(hashAlg)
	if err != nil {
		return 0, err
	}
	for i, a := range hashAlgorithms {
		if a == alg {
			return rsaIndex*len(hashAlgorithms) + i, nil
		}
	}
	return 0, fmt.Errorf("unsupported hash algorithm %q", hashAlg)
}

// AlgorithmName returns the "RSA2048 SHA256" style name of a futility algorithm id.
func AlgorithmName(id int) (string, error) {
	if id < 0 || id >= len(rsaLengths)*len(hashAlgorithms) {
		return "", fmt.Errorf("unknown algorithm id %d", id)
	}
	h, err := hashAlgorithms[id%len(hashAlgorithms)].Hash()
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("RSA%d %s", rsaLengths[id/len(hashAlgorithms)], normalizeHashName(h.String())), nil
}

func normalizeHashName(name string) string {
	return strings.ToUpper(strings.ReplaceAll(name, "-", ""))
}
