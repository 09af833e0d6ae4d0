// Carga de certificado desde .p12/.pfx (PKCS#12, con cadena) o PEM.

package signer

import (
	"crypto"
	"crypto/ecdsa"
	"crypto/rsa"
	"crypto/tls"
	"crypto/x509"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/jhoicas/Fiskalizacija-api/internal/domain"
	"golang.org/x/crypto/pkcs12"
)

// LoadCertificate carga el certificado del emisor según la extensión del archivo.
// Cualquier fallo es domain.ErrConfiguration: nunca se llega a la red sin certificado válido.
func LoadCertificate(path, password string) (tls.Certificate, error) {
	if strings.TrimSpace(path) == "" {
		return tls.Certificate{}, fmt.Errorf("%w: ruta del certificado FINA no configurada", domain.ErrConfiguration)
	}
	lower := strings.ToLower(path)
	var (
		cert tls.Certificate
		err  error
	)
	if strings.HasSuffix(lower, ".p12") || strings.HasSuffix(lower, ".pfx") {
		cert, err = LoadFromP12(path, password)
	} else {
		cert, err = LoadFromPEM(path, path)
	}
	if err != nil {
		return tls.Certificate{}, fmt.Errorf("%w: %v", domain.ErrConfiguration, err)
	}
	if cert.PrivateKey == nil || len(cert.Certificate) == 0 {
		return tls.Certificate{}, fmt.Errorf("%w: el certificado no contiene llave privada", domain.ErrConfiguration)
	}
	// La firma de la CIS es RSA-SHA1: otra llave no sirve para firmar.
	if _, ok := cert.PrivateKey.(*rsa.PrivateKey); !ok {
		return tls.Certificate{}, fmt.Errorf("%w: la llave privada del certificado no es RSA (%T)", domain.ErrConfiguration, cert.PrivateKey)
	}
	return cert, nil
}

// LoadFromP12 carga certificado y llave privada desde un .p12/.pfx. A diferencia de pkcs12.Decode,
// acepta archivos con cadena de certificación y elige como hoja el que corresponde a la llave.
func LoadFromP12(path, password string) (tls.Certificate, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return tls.Certificate{}, fmt.Errorf("leer p12: %w", err)
	}
	blocks, err := pkcs12.ToPEM(data, password)
	if err != nil {
		return tls.Certificate{}, fmt.Errorf("decodificar p12: %w", err)
	}

	var (
		key   crypto.PrivateKey
		certs []*x509.Certificate
	)
	for _, b := range blocks {
		switch b.Type {
		case "PRIVATE KEY", "RSA PRIVATE KEY", "EC PRIVATE KEY":
			if key, err = parsePrivateKey(b.Bytes); err != nil {
				return tls.Certificate{}, err
			}
		case "CERTIFICATE":
			c, err := x509.ParseCertificate(b.Bytes)
			if err != nil {
				return tls.Certificate{}, fmt.Errorf("parsear certificado del p12: %w", err)
			}
			certs = append(certs, c)
		}
	}
	if key == nil {
		return tls.Certificate{}, errors.New("el p12 no contiene llave privada")
	}
	if len(certs) == 0 {
		return tls.Certificate{}, errors.New("el p12 no contiene certificados")
	}

	leafIdx := 0
	for i, c := range certs {
		if publicKeyMatches(c.PublicKey, key) {
			leafIdx = i
			break
		}
	}
	chain := [][]byte{certs[leafIdx].Raw}
	for i, c := range certs {
		if i != leafIdx {
			chain = append(chain, c.Raw)
		}
	}
	return tls.Certificate{
		Certificate: chain,
		PrivateKey:  key,
		Leaf:        certs[leafIdx],
	}, nil
}

// LoadFromPEM carga certificado y llave desde PEM (archivos separados o combinados).
func LoadFromPEM(certPath, keyPath string) (tls.Certificate, error) {
	if keyPath == "" {
		keyPath = certPath
	}
	cert, err := tls.LoadX509KeyPair(certPath, keyPath)
	if err != nil {
		return tls.Certificate{}, fmt.Errorf("cargar PEM: %w", err)
	}
	if cert.Leaf == nil {
		if leaf, err := x509.ParseCertificate(cert.Certificate[0]); err == nil {
			cert.Leaf = leaf
		}
	}
	return cert, nil
}

// IssuerSerial nombre del emisor y número de serie decimal para X509IssuerSerial.
func IssuerSerial(cert *x509.Certificate) (issuerName string, serial string) {
	return cert.Issuer.String(), cert.SerialNumber.String()
}

func parsePrivateKey(der []byte) (crypto.PrivateKey, error) {
	if k, err := x509.ParsePKCS1PrivateKey(der); err == nil {
		return k, nil
	}
	if k, err := x509.ParsePKCS8PrivateKey(der); err == nil {
		return k, nil
	}
	if k, err := x509.ParseECPrivateKey(der); err == nil {
		return k, nil
	}
	return nil, errors.New("formato de llave privada no soportado")
}

func publicKeyMatches(pub any, key crypto.PrivateKey) bool {
	switch k := key.(type) {
	case *rsa.PrivateKey:
		p, ok := pub.(*rsa.PublicKey)
		return ok && p.Equal(&k.PublicKey)
	case *ecdsa.PrivateKey:
		p, ok := pub.(*ecdsa.PublicKey)
		return ok && p.Equal(&k.PublicKey)
	}
	return false
}
