package pki

import (
	"crypto"
	"crypto/ecdsa"
	"crypto/rand"
	"crypto/x509"
	"fmt"
)

// CASigner signs certificate templates to create certificates.
type CASigner interface {
	// SignCertificate signs a certificate template and returns the DER-encoded
	// certificate bytes. The template must be fully populated with all required
	// fields (subject, validity, extensions, public key).
	SignCertificate(template *x509.Certificate) ([]byte, error)

	// CACertificate returns the CA certificate (public key only).
	CACertificate() *x509.Certificate
}

// KeypairSigner implements CASigner using an in-memory CA keypair. The key
// material typically comes from the secret store rather than a file on disk.
type KeypairSigner struct {
	caKey  *ecdsa.PrivateKey
	caCert *x509.Certificate
}

// NewKeypairSigner creates a KeypairSigner from PEM-encoded key and
// certificate bytes. Returns ErrNoPrivateKey when keyPEM is empty, so callers
// can distinguish "key never loaded" from malformed material.
func NewKeypairSigner(keyPEM, certPEM []byte) (*KeypairSigner, error) {
	if len(keyPEM) == 0 {
		return nil, ErrNoPrivateKey
	}

	caKey, err := ParsePrivateKeyPEM(keyPEM)
	if err != nil {
		return nil, fmt.Errorf("failed to parse CA private key: %w", err)
	}

	caCert, err := ParseCertificatePEM(certPEM)
	if err != nil {
		return nil, fmt.Errorf("failed to parse CA certificate: %w", err)
	}

	if err := verifyCertKeyPair(caCert, caKey); err != nil {
		return nil, fmt.Errorf("CA key and certificate do not match: %w", err)
	}

	return &KeypairSigner{
		caKey:  caKey,
		caCert: caCert,
	}, nil
}

// SignCertificate signs a certificate template using the CA private key.
// Returns DER-encoded certificate bytes.
func (s *KeypairSigner) SignCertificate(template *x509.Certificate) ([]byte, error) {
	return x509.CreateCertificate(rand.Reader, template, s.caCert, template.PublicKey, s.caKey)
}

// CACertificate returns the CA certificate.
func (s *KeypairSigner) CACertificate() *x509.Certificate {
	return s.caCert
}

// SelfSign signs a CA template with its own key, producing the root
// certificate. Returns DER-encoded certificate bytes.
func SelfSign(template *x509.Certificate, key *ecdsa.PrivateKey) ([]byte, error) {
	return x509.CreateCertificate(rand.Reader, template, template, &key.PublicKey, key)
}

// verifyCertKeyPair checks that a certificate's public key matches a private key
func verifyCertKeyPair(cert *x509.Certificate, key crypto.PrivateKey) error {
	ecdsaKey, ok := key.(*ecdsa.PrivateKey)
	if !ok {
		return fmt.Errorf("private key is not ECDSA")
	}

	certPubKey, ok := cert.PublicKey.(*ecdsa.PublicKey)
	if !ok {
		return fmt.Errorf("certificate public key is not ECDSA")
	}

	if !ecdsaKey.PublicKey.Equal(certPubKey) {
		return fmt.Errorf("public keys do not match")
	}

	return nil
}
