package keys

import (
	"crypto"
	"crypto/rsa"
	"errors"
	"fmt"
	"net/url"
	"strconv"
	"strings"

	"github.com/ThalesGroup/crypto11"
)

// pkcs11Token is the parsed form of a PKCS#11 URI.
type pkcs11Token struct {
	config *crypto11.Config
	id     []byte
	label  []byte
}

// parsePKCS11URI parses a URI in the format:
// pkcs11:token=<token-label>;slot-id=<slot-id>;id=<key-id>?module-path=<path>&pin-value=<pin>
// or
// pkcs11:object=<key-object-label>?module-path=<path>&pin-value=<pin>
func parsePKCS11URI(pkcs11uri string) (*pkcs11Token, error) {
	uri, err := url.Parse(pkcs11uri)
	if err != nil {
		return nil, err
	}
	if uri.Scheme != "pkcs11" {
		return nil, fmt.Errorf("not a PKCS#11 URI: %q", pkcs11uri)
	}

	params := uri.Query()
	token := &pkcs11Token{
		config: &crypto11.Config{
			Path: params.Get("module-path"),
			Pin:  params.Get("pin-value"),
		},
	}
	if token.config.Path == "" || token.config.Pin == "" {
		return nil, errors.New("module-path and pin-value required in PKCS#11 URI")
	}

	for _, param := range strings.Split(uri.Opaque, ";") {
		key, value, _ := strings.Cut(param, "=")
		value, err = url.PathUnescape(value)
		if err != nil {
			return nil, err
		}
		switch key {
		case "token":
			token.config.TokenLabel = value
		case "slot-id":
			slotID, err := strconv.Atoi(value)
			if err != nil {
				return nil, fmt.Errorf("invalid slot-id: %w", err)
			}
			token.config.SlotNumber = &slotID
		case "id":
			token.id = []byte(value)
		case "object":
			token.label = []byte(value)
		}
	}

	if token.config.TokenLabel == "" && token.config.SlotNumber == nil {
		return nil, errors.New("token or slot-id required in PKCS#11 URI")
	}
	if token.id == nil && token.label == nil {
		return nil, errors.New("no valid key identifier (id= or object=) provided in PKCS#11 URI")
	}
	return token, nil
}

// loadPKCS11PublicKey reads the public half of an RSA key pair held on a PKCS#11 token.
func loadPKCS11PublicKey(pkcs11uri string) (*rsa.PublicKey, error) {
	token, err := parsePKCS11URI(pkcs11uri)
	if err != nil {
		return nil, err
	}

	ctx, err := crypto11.Configure(token.config)
	if err != nil {
		return nil, err
	}
	defer ctx.Close()

	var key crypto.Signer
	key, err = ctx.FindKeyPair(token.id, token.label)
	if err != nil {
		return nil, err
	}
	if key == nil {
		return nil, errors.New("no key found on PKCS#11 token")
	}

	pub, ok := key.Public().(*rsa.PublicKey)
	if !ok {
		return nil, errors.New("PKCS#11 key is not an RSA key")
	}
	return pub, nil
}
