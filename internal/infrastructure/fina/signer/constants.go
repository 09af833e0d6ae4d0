// Algoritmos XML-DSig exigidos por la CIS (perfil fijo: exc-c14n + RSA-SHA1).

package signer

const (
	NamespaceDS        = "http://www.w3.org/2000/09/xmldsig#"
	AlgExcC14N         = "http://www.w3.org/2001/10/xml-exc-c14n#"
	AlgRSASHA1         = "http://www.w3.org/2000/09/xmldsig#rsa-sha1"
	AlgSHA1            = "http://www.w3.org/2000/09/xmldsig#sha1"
	TransformEnveloped = "http://www.w3.org/2000/09/xmldsig#enveloped-signature"
)

// ReferenceID Id del elemento firmado (Reference URI="#RacunZahtjev").
const ReferenceID = "RacunZahtjev"
