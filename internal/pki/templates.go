package pki

import (
	"crypto/ecdsa"
	"crypto/x509"
	"crypto/x509/pkix"
	"fmt"
	"net"
	"time"
)

// clockSkewGrace backdates notBefore so a freshly issued certificate is
// immediately valid on machines whose clocks lag slightly.
const clockSkewGrace = 10 * time.Second

// AuthorityTemplate builds a self-signed root CA certificate template with the
// given common name, valid from ~10 seconds in the past through validFor days.
// The CA is constrained to signing end-entity certificates only (path length 0).
func AuthorityTemplate(commonName string, validFor time.Duration, pub *ecdsa.PublicKey) (*x509.Certificate, error) {
	serial, err := newSerialNumber()
	if err != nil {
		return nil, err
	}

	ski, err := SubjectKeyID(pub)
	if err != nil {
		return nil, err
	}

	now := time.Now()

	return &x509.Certificate{
		SerialNumber:          serial,
		Subject:               pkix.Name{CommonName: commonName},
		NotBefore:             now.Add(-clockSkewGrace),
		NotAfter:              now.Add(validFor),
		KeyUsage:              x509.KeyUsageCertSign | x509.KeyUsageCRLSign,
		BasicConstraintsValid: true,
		IsCA:                  true,
		MaxPathLen:            0,
		MaxPathLenZero:        true,
		SubjectKeyId:          ski,
		PublicKey:             pub,
	}, nil
}

// LeafTemplate builds an end-entity certificate template for one or more
// hosts. The first host becomes the subject common name; every host becomes a
// subject alternative name, classified as an IP address or a DNS name.
func LeafTemplate(hosts []string, validFor time.Duration, pub *ecdsa.PublicKey) (*x509.Certificate, error) {
	if len(hosts) == 0 {
		return nil, fmt.Errorf("at least one host is required")
	}

	serial, err := newSerialNumber()
	if err != nil {
		return nil, err
	}

	ski, err := SubjectKeyID(pub)
	if err != nil {
		return nil, err
	}

	now := time.Now()

	tmpl := &x509.Certificate{
		SerialNumber:          serial,
		Subject:               pkix.Name{CommonName: hosts[0]},
		NotBefore:             now.Add(-clockSkewGrace),
		NotAfter:              now.Add(validFor),
		KeyUsage:              x509.KeyUsageDigitalSignature,
		ExtKeyUsage:           []x509.ExtKeyUsage{x509.ExtKeyUsageServerAuth, x509.ExtKeyUsageClientAuth},
		BasicConstraintsValid: true,
		SubjectKeyId:          ski,
		PublicKey:             pub,
	}

	for _, host := range hosts {
		if ip := net.ParseIP(host); ip != nil {
			tmpl.IPAddresses = append(tmpl.IPAddresses, ip)
		} else {
			tmpl.DNSNames = append(tmpl.DNSNames, host)
		}
	}

	return tmpl, nil
}
