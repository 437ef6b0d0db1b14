package secrets

import (
	"crypto/rand"
	"crypto/rsa"
	"crypto/sha256"
	"crypto/x509"
	"encoding/base64"
	"encoding/pem"
	"errors"
	"fmt"
	"os"
)

// Cipher encrypts short secrets with an RSA public key so they can be
// persisted, and decrypts them with the matching private key when they
// are needed again. Key material is loaded once and read-only after.
type Cipher struct {
	private *rsa.PrivateKey
	public  *rsa.PublicKey
}

// Load reads a PEM keypair from disk.
func Load(privateKeyPath, publicKeyPath string) (*Cipher, error) {
	privPEM, err := os.ReadFile(privateKeyPath)
	if err != nil {
		return nil, fmt.Errorf("secrets: read private key: %w", err)
	}

	pubPEM, err := os.ReadFile(publicKeyPath)
	if err != nil {
		return nil, fmt.Errorf("secrets: read public key: %w", err)
	}

	priv, err := parsePrivateKey(privPEM)
	if err != nil {
		return nil, err
	}

	pub, err := parsePublicKey(pubPEM)
	if err != nil {
		return nil, err
	}

	return &Cipher{private: priv, public: pub}, nil
}

// NewFromKey builds a Cipher from an in-memory private key.
func NewFromKey(priv *rsa.PrivateKey) *Cipher {
	return &Cipher{private: priv, public: &priv.PublicKey}
}

// Encrypt seals plaintext under the public key and returns base64.
func (c *Cipher) Encrypt(plaintext string) (string, error) {
	data, err := rsa.EncryptOAEP(sha256.New(), rand.Reader, c.public, []byte(plaintext), nil)
	if err != nil {
		return "", fmt.Errorf("secrets: encrypt: %w", err)
	}
	return base64.StdEncoding.EncodeToString(data), nil
}

// Decrypt reverses Encrypt using the private key.
func (c *Cipher) Decrypt(ciphertext string) (string, error) {
	data, err := base64.StdEncoding.DecodeString(ciphertext)
	if err != nil {
		return "", fmt.Errorf("secrets: decode: %w", err)
	}

	plain, err := rsa.DecryptOAEP(sha256.New(), rand.Reader, c.private, data, nil)
	if err != nil {
		return "", fmt.Errorf("secrets: decrypt: %w", err)
	}
	return string(plain), nil
}

func parsePrivateKey(pemBytes []byte) (*rsa.PrivateKey, error) {
	block, _ := pem.Decode(pemBytes)
	if block == nil {
		return nil, errors.New("secrets: no PEM block in private key")
	}

	if key, err := x509.ParsePKCS1PrivateKey(block.Bytes); err == nil {
		return key, nil
	}

	parsed, err := x509.ParsePKCS8PrivateKey(block.Bytes)
	if err != nil {
		return nil, fmt.Errorf("secrets: parse private key: %w", err)
	}

	key, ok := parsed.(*rsa.PrivateKey)
	if !ok {
		return nil, errors.New("secrets: private key is not RSA")
	}
	return key, nil
}

func parsePublicKey(pemBytes []byte) (*rsa.PublicKey, error) {
	block, _ := pem.Decode(pemBytes)
	if block == nil {
		return nil, errors.New("secrets: no PEM block in public key")
	}

	if key, err := x509.ParsePKCS1PublicKey(block.Bytes); err == nil {
		return key, nil
	}

	parsed, err := x509.ParsePKIXPublicKey(block.Bytes)
	if err != nil {
		return nil, fmt.Errorf("secrets: parse public key: %w", err)
	}

	key, ok := parsed.(*rsa.PublicKey)
	if !ok {
		return nil, errors.New("secrets: public key is not RSA")
	}
	return key, nil
}
