// certcheck verifica que un certificado FINA (.p12/.pfx o PEM) se puede cargar con la contraseña
// dada y muestra sus datos de firma.
//
// Uso: go run ./cmd/certcheck -cert ruta/fina.p12 [-password xxx]
// La contraseña también se lee de FINA_CERT_PASSWORD.
package main

import (
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/jhoicas/Fiskalizacija-api/internal/infrastructure/fina/signer"
)

func main() {
	certPath := flag.String("cert", "", "ruta del certificado (.p12, .pfx o .pem)")
	password := flag.String("password", os.Getenv("FINA_CERT_PASSWORD"), "contraseña del certificado")
	warnDays := flag.Int("warn-days", 30, "avisar si caduca en menos de N días")
	flag.Parse()

	if *certPath == "" {
		flag.Usage()
		os.Exit(2)
	}

	fmt.Printf("Certificado: %s\n", *certPath)
	cert, err := signer.LoadCertificate(*certPath, *password)
	if err != nil {
		fmt.Fprintf(os.Stderr, "ERROR: %v\n", err)
		os.Exit(1)
	}
	leaf := cert.Leaf
	if leaf == nil {
		fmt.Fprintln(os.Stderr, "ERROR: el archivo no contiene certificado de firma")
		os.Exit(1)
	}

	issuer, serial := signer.IssuerSerial(leaf)
	fmt.Printf("  Titular:  %s\n", leaf.Subject.String())
	fmt.Printf("  Emisor:   %s\n", issuer)
	fmt.Printf("  Serie:    %s\n", serial)
	fmt.Printf("  Válido:   %s → %s\n", leaf.NotBefore.Format(time.DateOnly), leaf.NotAfter.Format(time.DateOnly))
	fmt.Printf("  Cadena:   %d certificado(s)\n", len(cert.Certificate))

	now := time.Now()
	switch {
	case now.Before(leaf.NotBefore):
		fmt.Fprintln(os.Stderr, "ERROR: el certificado aún no es válido")
		os.Exit(1)
	case now.After(leaf.NotAfter):
		fmt.Fprintln(os.Stderr, "ERROR: el certificado está caducado")
		os.Exit(1)
	case leaf.NotAfter.Sub(now) < time.Duration(*warnDays)*24*time.Hour:
		fmt.Printf("AVISO: caduca en %d días\n", int(leaf.NotAfter.Sub(now).Hours()/24))
	}
	fmt.Println("OK: certificado y contraseña correctos")
}
