package fiskal

import "crypto/tls"

// Signer firma un documento XML y devuelve el documento con ds:Signature como último hijo de la raíz.
type Signer interface {
	// Sign toma el XML sin firma y el certificado con llave privada.
	Sign(xmlBytes []byte, cert tls.Certificate) ([]byte, error)
}
