// Package pki provides the low-level certificate primitives: keypair
// generation, PEM codecs, certificate template construction and signing.
// Higher layers treat these as black-box services and only ever see PEM
// bytes or parsed x509 certificates.
package pki

import (
	"crypto/ecdsa"
	"crypto/elliptic"
	"crypto/rand"
	"crypto/sha1" // #nosec G505 - SHA-1 is the conventional digest for subject key identifiers
	"crypto/x509"
	"encoding/asn1"
	"encoding/pem"
	"errors"
	"fmt"
	"math/big"
)

// Sentinel errors
var (
	// ErrNoPrivateKey is returned when a signing operation is requested but
	// no private key material is available.
	ErrNoPrivateKey = errors.New("no private key available for signing")
)

const (
	certificatePEMType = "CERTIFICATE"
	privateKeyPEMType  = "EC PRIVATE KEY"
)

// GenerateKey generates a new ECDSA P-256 private key.
func GenerateKey() (*ecdsa.PrivateKey, error) {
	key, err := ecdsa.GenerateKey(elliptic.P256(), rand.Reader)
	if err != nil {
		return nil, fmt.Errorf("failed to generate key: %w", err)
	}

	return key, nil
}

// EncodePrivateKeyPEM encodes an ECDSA private key to PEM.
func EncodePrivateKeyPEM(key *ecdsa.PrivateKey) ([]byte, error) {
	der, err := x509.MarshalECPrivateKey(key)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal private key: %w", err)
	}

	return pem.EncodeToMemory(&pem.Block{Type: privateKeyPEMType, Bytes: der}), nil
}

// ParsePrivateKeyPEM parses a PEM-encoded ECDSA private key.
func ParsePrivateKeyPEM(data []byte) (*ecdsa.PrivateKey, error) {
	block, _ := pem.Decode(data)
	if block == nil {
		return nil, fmt.Errorf("failed to decode private key PEM")
	}

	key, err := x509.ParseECPrivateKey(block.Bytes)
	if err != nil {
		return nil, fmt.Errorf("failed to parse private key: %w", err)
	}

	return key, nil
}

// EncodeCertificatePEM encodes DER certificate bytes to PEM.
func EncodeCertificatePEM(der []byte) []byte {
	return pem.EncodeToMemory(&pem.Block{Type: certificatePEMType, Bytes: der})
}

// ParseCertificatePEM parses a PEM-encoded X.509 certificate.
func ParseCertificatePEM(data []byte) (*x509.Certificate, error) {
	block, _ := pem.Decode(data)
	if block == nil {
		return nil, fmt.Errorf("failed to decode certificate PEM")
	}

	cert, err := x509.ParseCertificate(block.Bytes)
	if err != nil {
		return nil, fmt.Errorf("failed to parse certificate: %w", err)
	}

	return cert, nil
}

// Verify reports whether cert carries a valid signature from issuer. It never
// returns an error; any mismatch, including issuer certificates that are not
// marked for certificate signing, reports false.
func Verify(cert, issuer *x509.Certificate) bool {
	return cert.CheckSignatureFrom(issuer) == nil
}

// SubjectKeyID derives the subject key identifier for a public key, the
// SHA-1 digest of the subjectPublicKey BIT STRING per RFC 5280 section 4.2.1.2.
func SubjectKeyID(pub *ecdsa.PublicKey) ([]byte, error) {
	der, err := x509.MarshalPKIXPublicKey(pub)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal public key: %w", err)
	}

	var spki struct {
		Algorithm        asn1.RawValue
		SubjectPublicKey asn1.BitString
	}
	if _, err := asn1.Unmarshal(der, &spki); err != nil {
		return nil, fmt.Errorf("failed to unmarshal public key info: %w", err)
	}

	sum := sha1.Sum(spki.SubjectPublicKey.Bytes) // #nosec G401
	return sum[:], nil
}

// newSerialNumber generates a random 128-bit certificate serial number.
func newSerialNumber() (*big.Int, error) {
	limit := new(big.Int).Lsh(big.NewInt(1), 128)

	serial, err := rand.Int(rand.Reader, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to generate serial number: %w", err)
	}

	return serial, nil
}
