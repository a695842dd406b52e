package signer

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"os"
	"strings"

	"github.com/btcsuite/btcd/btcec/v2"
	"github.com/btcsuite/btcd/btcec/v2/ecdsa"

	"github.com/chainforge/validator/module"
)

// Secp256k1Signer signs the SHA-256 digest of a message with a secp256k1 key.
// Signatures are DER encoded, public keys are in compressed form.
type Secp256k1Signer struct {
	key *btcec.PrivateKey
}

var _ module.Signer = (*Secp256k1Signer)(nil)

func NewSecp256k1Signer(key *btcec.PrivateKey) *Secp256k1Signer {
	return &Secp256k1Signer{key: key}
}

// GenerateSigner creates a signer with a fresh random key.
func GenerateSigner() (*Secp256k1Signer, error) {
	key, err := btcec.NewPrivateKey()
	if err != nil {
		return nil, fmt.Errorf("could not generate private key: %w", err)
	}
	return NewSecp256k1Signer(key), nil
}

// LoadSigner reads a hex encoded private key from the given file.
func LoadSigner(path string) (*Secp256k1Signer, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("could not read key file %s: %w", path, err)
	}
	raw, err := hex.DecodeString(strings.TrimSpace(string(data)))
	if err != nil {
		return nil, fmt.Errorf("could not decode key file %s: %w", path, err)
	}
	if len(raw) != btcec.PrivKeyBytesLen {
		return nil, fmt.Errorf("invalid private key length %d, expected %d", len(raw), btcec.PrivKeyBytesLen)
	}
	key, _ := btcec.PrivKeyFromBytes(raw)
	return NewSecp256k1Signer(key), nil
}

// WriteKeyFile stores the signer's private key hex encoded at path.
func (s *Secp256k1Signer) WriteKeyFile(path string) error {
	encoded := hex.EncodeToString(s.key.Serialize())
	return os.WriteFile(path, []byte(encoded), 0600)
}

func (s *Secp256k1Signer) PublicKey() []byte {
	return s.key.PubKey().SerializeCompressed()
}

func (s *Secp256k1Signer) Sign(data []byte) ([]byte, error) {
	digest := sha256.Sum256(data)
	return ecdsa.Sign(s.key, digest[:]).Serialize(), nil
}

// Verify checks a signature produced by a Secp256k1Signer. Malformed keys or
// signatures verify as false.
func Verify(publicKey []byte, data []byte, signature []byte) bool {
	pub, err := btcec.ParsePubKey(publicKey)
	if err != nil {
		return false
	}
	sig, err := ecdsa.ParseDERSignature(signature)
	if err != nil {
		return false
	}
	digest := sha256.Sum256(data)
	return sig.Verify(digest[:], pub)
}
