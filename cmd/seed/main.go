// seed crea el esquema y una empresa de prueba con facturas pendientes de fiscalizar, para
// ejercitar la API contra los entornos de prueba de FINA y MojeRačun.
//
// Uso: go run ./cmd/seed [-invoices 5] [-cert ruta/fina.p12]
// Lee la conexión de DATABASE_URL / DB_* como la API.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/jhoicas/Fiskalizacija-api/internal/domain/entity"
	"github.com/jhoicas/Fiskalizacija-api/internal/infrastructure/postgres"
	"github.com/jhoicas/Fiskalizacija-api/pkg/config"
	"github.com/shopspring/decimal"
)

func main() {
	count := flag.Int("invoices", 5, "número de facturas a crear")
	certPath := flag.String("cert", os.Getenv("FINA_CERT_PATH"), "certificado FINA del emisor de prueba")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Configuración: %v\n", err)
		os.Exit(1)
	}

	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	pool, err := postgres.NewPool(ctx, cfg.DB)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Conexión: %v\n", err)
		os.Exit(1)
	}
	defer pool.Close()

	if err := postgres.EnsureSchema(ctx, pool); err != nil {
		fmt.Fprintf(os.Stderr, "Esquema: %v\n", err)
		os.Exit(1)
	}

	company := &entity.Company{
		Name:                "Demo Grijanje d.o.o.",
		OIB:                 "12345678903",
		Address:             "Ilica 1",
		City:                "Zagreb",
		PostalCode:          "10000",
		Country:             "HR",
		IBAN:                "HR1210010051863000160",
		InVATSystem:         true,
		BusinessPremise:     "POS1",
		Device:              "1",
		FinaEnabled:         *certPath != "",
		FinaCertPath:        *certPath,
		FinaCertPassword:    os.Getenv("FINA_CERT_PASSWORD"),
		MojeRacunEnabled:    os.Getenv("MOJERACUN_CLIENT_ID") != "",
		MojeRacunClientID:   os.Getenv("MOJERACUN_CLIENT_ID"),
		MojeRacunSecret:     os.Getenv("MOJERACUN_SECRET"),
		MojeRacunSoftwareID: os.Getenv("MOJERACUN_SOFTWARE_ID"),
		MojeRacunCompanyBU:  os.Getenv("MOJERACUN_COMPANY_BU"),
		Environment:         entity.EnvironmentTest,
	}
	if err := postgres.NewCompanyRepository(pool).Create(ctx, company); err != nil {
		fmt.Fprintf(os.Stderr, "Empresa: %v\n", err)
		os.Exit(1)
	}

	invoices := postgres.NewInvoiceRepository(pool)
	now := time.Now().UTC()
	for i := 1; i <= *count; i++ {
		inv := demoInvoice(company.ID, now, i)
		if err := invoices.Create(ctx, inv); err != nil {
			fmt.Fprintf(os.Stderr, "Factura %s: %v\n", inv.Number, err)
			os.Exit(1)
		}
	}

	fmt.Printf("Empresa %s creada con %d facturas pendientes\n", company.ID, *count)
}

// demoInvoice factura de calefacción: energía al 13 % más un servicio al 25 %.
func demoInvoice(companyID string, now time.Time, n int) *entity.Invoice {
	kwh := decimal.NewFromInt(int64(100 * n))
	energy := kwh.Mul(decimal.RequireFromString("0.12")).Round(2)
	service := decimal.NewFromInt(20)
	tax := energy.Mul(decimal.NewFromInt(13)).Div(decimal.NewFromInt(100)).
		Add(service.Mul(decimal.NewFromInt(25)).Div(decimal.NewFromInt(100))).Round(2)
	subtotal := energy.Add(service)
	due := now.AddDate(0, 0, 15)

	return &entity.Invoice{
		CompanyID:     companyID,
		Number:        fmt.Sprintf("%d/POS1/1", n),
		IssueDate:     now.Add(-time.Duration(n) * time.Hour),
		DueDate:       &due,
		Subtotal:      subtotal,
		TaxAmount:     tax,
		Total:         subtotal.Add(tax),
		TaxRate:       decimal.NewFromInt(25),
		PaymentMethod: "T",
		BuyerName:     "Kupac d.o.o.",
		BuyerOIB:      "98765432106",
		BuyerCity:     "Split",
		BuyerCountry:  "HR",
		Items: []entity.InvoiceItem{
			{Description: "Grijanje", Quantity: kwh, Unit: "kWh", UnitPrice: decimal.RequireFromString("0.12"),
				TaxRate: decimal.NewFromInt(13), Amount: energy},
			{Description: "Servis kotla", Quantity: decimal.NewFromInt(1), Unit: "kom", UnitPrice: service,
				TaxRate: decimal.NewFromInt(25), Amount: service},
		},
	}
}
