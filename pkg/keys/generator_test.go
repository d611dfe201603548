package keys

import (
	"bytes"
	"context"
	"os"
	"path/filepath"

	"github.com/kairos-io/go-cuckoo/pkg/types"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"github.com/spf13/afero"
)

var _ = Describe("Generator", func() {
	var fs afero.Fs
	var runner *fakeRunner
	var generator *Generator
	var keyList []types.KeyConfig
	var keyblocks []types.KeyblockConfig

	BeforeEach(func() {
		fs = afero.NewMemMapFs()
		runner = &fakeRunner{fs: fs}
		generator = &Generator{KeyDir: "/keys", Fs: fs, Runner: runner}
		keyList = []types.KeyConfig{
			{Name: "kernel_subkey", RSALength: 2048, HashAlg: "SHA256"},
			{Name: "kernel_data_key", RSALength: 1024, HashAlg: "SHA1"},
		}
		keyblocks = []types.KeyblockConfig{
			{Name: "kernel", Flags: 7, DataPubKey: "kernel_data_key", SignPrivate: "kernel_subkey"},
		}
	})

	It("Generates the key hierarchy", func() {
		Expect(generator.Generate(context.Background(), keyList, keyblocks)).To(Succeed())

		for _, f := range []string{
			"/keys/kernel_subkey.vbpubk",
			"/keys/kernel_subkey.vbprivk",
			"/keys/kernel_data_key.vbpubk",
			"/keys/kernel_data_key.vbprivk",
			"/keys/kernel.keyblock",
			"/keys/temp/kernel_subkey.pem",
			"/keys/temp/kernel_subkey.crt",
			"/keys/temp/kernel_subkey.keyb",
		} {
			_, err := fs.Stat(f)
			Expect(err).ToNot(HaveOccurred(), f)
		}
		_, err := fs.Stat("/keys/temp/kernel_subkey.vbpubk")
		Expect(os.IsNotExist(err)).To(BeTrue())

		Expect(runner.calls).To(Equal([]string{
			"openssl genrsa -F4 -out /keys/temp/kernel_subkey.pem 2048",
			"openssl req -batch -new -x509 -key /keys/temp/kernel_subkey.pem -out /keys/temp/kernel_subkey.crt",
			"futility vbutil_key --pack /keys/temp/kernel_subkey.vbpubk --key /keys/temp/kernel_subkey.keyb --version 1 --algorithm 4",
			"futility vbutil_key --pack /keys/temp/kernel_subkey.vbprivk --key /keys/temp/kernel_subkey.pem --algorithm 4",
			"openssl genrsa -F4 -out /keys/temp/kernel_data_key.pem 1024",
			"openssl req -batch -new -x509 -key /keys/temp/kernel_data_key.pem -out /keys/temp/kernel_data_key.crt",
			"futility vbutil_key --pack /keys/temp/kernel_data_key.vbpubk --key /keys/temp/kernel_data_key.keyb --version 1 --algorithm 0",
			"futility vbutil_key --pack /keys/temp/kernel_data_key.vbprivk --key /keys/temp/kernel_data_key.pem --algorithm 0",
			"futility vbutil_keyblock --pack /keys/kernel.keyblock --flags 7 --datapubkey /keys/kernel_data_key.vbpubk --signprivate /keys/kernel_subkey.vbprivk",
		}))
	})

	It("Writes a .keyb matching the generated certificate", func() {
		Expect(generator.GenerateKey(context.Background(), keyList[1])).To(Succeed())

		pub, err := LoadPublicKey(fs, "/keys/temp/kernel_data_key.crt")
		Expect(err).ToNot(HaveOccurred())
		keyb, err := afero.ReadFile(fs, "/keys/temp/kernel_data_key.keyb")
		Expect(err).ToNot(HaveOccurred())

		expected := &bytes.Buffer{}
		Expect(DumpRSAPublicKey(pub, expected)).To(Succeed())
		Expect(keyb).To(Equal(expected.Bytes()))
	})

	It("Checks every algorithm before running anything", func() {
		keyList = append(keyList, types.KeyConfig{Name: "bad", RSALength: 3072, HashAlg: "SHA256"})
		err := generator.Generate(context.Background(), keyList, keyblocks)
		Expect(err).To(MatchError(ContainSubstring("key bad")))
		Expect(runner.calls).To(BeEmpty())
	})

	It("Refuses keyblocks whose keys are missing", func() {
		err := generator.GenerateKeyblock(context.Background(), keyblocks[0])
		Expect(err).To(MatchError(os.ErrNotExist))
		Expect(err.Error()).To(ContainSubstring(filepath.Join("/keys", "kernel_data_key.vbpubk")))
		Expect(runner.calls).To(BeEmpty())
	})

	It("Stops at the first failing tool", func() {
		runner.fail = "req"
		err := generator.Generate(context.Background(), keyList, keyblocks)
		Expect(err).To(MatchError(ContainSubstring("key kernel_subkey")))
		Expect(runner.calls).To(HaveLen(2))
	})
})
