// Firma XML-DSig enveloped para peticiones a la CIS.
// Añade <Signature> como último hijo del elemento raíz firmado.

package signer

import (
	"bytes"
	"crypto"
	"crypto/rsa"
	"crypto/sha1" //nolint:gosec // algoritmo impuesto por el perfil XML-DSig de la CIS
	"crypto/tls"
	"crypto/x509"
	"encoding/base64"
	"encoding/xml"
	"fmt"

	"github.com/beevik/etree"
	"github.com/jhoicas/Fiskalizacija-api/internal/domain"
	"github.com/jhoicas/Fiskalizacija-api/pkg/fiskal"
	"github.com/ucarion/c14n"
)

// DigitalSignatureService firma el RacunZahtjev con el certificado del emisor.
type DigitalSignatureService struct {
	referenceID string
}

// NewDigitalSignatureService crea el servicio con la Reference por defecto (#RacunZahtjev).
func NewDigitalSignatureService() *DigitalSignatureService {
	return &DigitalSignatureService{referenceID: ReferenceID}
}

// Sign implementa pkg/fiskal.Signer.
func (s *DigitalSignatureService) Sign(xmlBytes []byte, cert tls.Certificate) ([]byte, error) {
	if len(xmlBytes) == 0 {
		return nil, fmt.Errorf("fina: XML vacío")
	}
	if len(cert.Certificate) == 0 {
		return nil, fmt.Errorf("fina: certificado vacío")
	}
	priv, ok := cert.PrivateKey.(*rsa.PrivateKey)
	if !ok {
		return nil, fmt.Errorf("%w: fina: el certificado debe incluir llave privada RSA", domain.ErrConfiguration)
	}
	x509Cert := cert.Leaf
	if x509Cert == nil {
		var err error
		if x509Cert, err = x509.ParseCertificate(cert.Certificate[0]); err != nil {
			return nil, fmt.Errorf("fina: parsear certificado: %w", err)
		}
	}

	doc := etree.NewDocument()
	if err := doc.ReadFromBytes(xmlBytes); err != nil {
		return nil, fmt.Errorf("fina: parsear XML: %w", err)
	}
	root := doc.Root()
	if root == nil {
		return nil, fmt.Errorf("fina: documento sin raíz")
	}
	if root.SelectAttrValue("Id", "") != s.referenceID {
		return nil, fmt.Errorf("fina: la raíz no tiene Id=%q", s.referenceID)
	}

	// 1) Digest del documento sin firma (equivale a aplicar la transformación enveloped).
	canonicalDoc, err := canonicalize(xmlBytes)
	if err != nil {
		return nil, fmt.Errorf("fina: canonicalizar documento: %w", err)
	}
	docDigest := sha1.Sum(canonicalDoc) //nolint:gosec
	docDigestB64 := base64.StdEncoding.EncodeToString(docDigest[:])

	// 2) SignedInfo canonicalizado y firmado con RSA-SHA1.
	signedInfo := s.buildSignedInfo(docDigestB64)
	signedInfoBytes, err := elementBytes(signedInfo)
	if err != nil {
		return nil, err
	}
	canonicalSignedInfo, err := canonicalize(signedInfoBytes)
	if err != nil {
		return nil, fmt.Errorf("fina: canonicalizar SignedInfo: %w", err)
	}
	signHash := sha1.Sum(canonicalSignedInfo) //nolint:gosec
	signatureValue, err := rsa.SignPKCS1v15(nil, priv, crypto.SHA1, signHash[:])
	if err != nil {
		return nil, fmt.Errorf("fina: firmar SignedInfo: %w", err)
	}

	// 3) Signature = SignedInfo + SignatureValue + KeyInfo, como último hijo de la raíz.
	sig := etree.NewElement("Signature")
	sig.CreateAttr("xmlns", NamespaceDS)
	sig.AddChild(signedInfo)
	sig.CreateElement("SignatureValue").SetText(base64.StdEncoding.EncodeToString(signatureValue))
	s.appendKeyInfo(sig, x509Cert)
	root.AddChild(sig)

	var out bytes.Buffer
	if _, err := doc.WriteTo(&out); err != nil {
		return nil, fmt.Errorf("fina: serializar XML firmado: %w", err)
	}
	return out.Bytes(), nil
}

func canonicalize(data []byte) ([]byte, error) {
	dec := xml.NewDecoder(bytes.NewReader(data))
	dec.Entity = map[string]string{}
	return c14n.Canonicalize(dec)
}

func elementBytes(el *etree.Element) ([]byte, error) {
	d := etree.NewDocument()
	d.SetRoot(el.Copy())
	var buf bytes.Buffer
	if _, err := d.WriteTo(&buf); err != nil {
		return nil, fmt.Errorf("fina: serializar SignedInfo: %w", err)
	}
	return buf.Bytes(), nil
}

func (s *DigitalSignatureService) buildSignedInfo(docDigestB64 string) *etree.Element {
	si := etree.NewElement("SignedInfo")
	si.CreateAttr("xmlns", NamespaceDS)
	si.CreateElement("CanonicalizationMethod").CreateAttr("Algorithm", AlgExcC14N)
	si.CreateElement("SignatureMethod").CreateAttr("Algorithm", AlgRSASHA1)

	ref := si.CreateElement("Reference")
	ref.CreateAttr("URI", "#"+s.referenceID)
	transforms := ref.CreateElement("Transforms")
	transforms.CreateElement("Transform").CreateAttr("Algorithm", TransformEnveloped)
	transforms.CreateElement("Transform").CreateAttr("Algorithm", AlgExcC14N)
	ref.CreateElement("DigestMethod").CreateAttr("Algorithm", AlgSHA1)
	ref.CreateElement("DigestValue").SetText(docDigestB64)
	return si
}

func (s *DigitalSignatureService) appendKeyInfo(sig *etree.Element, cert *x509.Certificate) {
	x509Data := sig.CreateElement("KeyInfo").CreateElement("X509Data")
	x509Data.CreateElement("X509Certificate").SetText(base64.StdEncoding.EncodeToString(cert.Raw))
	issuerSerial := x509Data.CreateElement("X509IssuerSerial")
	issuerName, serial := IssuerSerial(cert)
	issuerSerial.CreateElement("X509IssuerName").SetText(issuerName)
	issuerSerial.CreateElement("X509SerialNumber").SetText(serial)
}

var _ fiskal.Signer = (*DigitalSignatureService)(nil)
