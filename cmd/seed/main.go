// seed genera un script SQL con sucursales y saldos iniciales de kardex a partir de un CSV
// exportado del sistema de tiendas.
//
// Formato (separador ';', líneas con # se ignoran):
//
//	sucursal;K01;Tienda Norte;store
//	saldo;K01;A100;M;20
//
// Uso: go run ./cmd/seed -in saldos.csv [-latin1] [-driver sqlite] [-schema] [-out seed.sql]
// Sin -out escribe en stdout.
package main

import (
	"bufio"
	"encoding/csv"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/transform"

	"github.com/jhoicas/backoffice-api/internal/domain/entity"
	"github.com/jhoicas/backoffice-api/internal/domain/numbering"
	"github.com/jhoicas/backoffice-api/internal/infrastructure/postgres"
	"github.com/jhoicas/backoffice-api/pkg/config"
)

// openingDocument es el número con el que se registran los saldos iniciales en el kardex.
const openingDocument = "SALDO-INICIAL"

type seedData struct {
	branches []entity.Branch
	entries  []entity.StockLedgerEntry
}

func main() {
	in := flag.String("in", "saldos.csv", "CSV de entrada")
	out := flag.String("out", "", "archivo SQL de salida (vacío = stdout)")
	latin1 := flag.Bool("latin1", false, "el CSV viene en ISO-8859-1")
	driver := flag.String("driver", config.DriverPostgres, "dialecto: postgres | sqlite")
	withSchema := flag.Bool("schema", false, "anteponer el esquema (solo postgres)")
	date := flag.String("date", "", "fecha efectiva de los saldos (YYYY-MM-DD, vacío = hoy)")
	sep := flag.String("sep", ";", "separador de campos")
	flag.Parse()

	effective := time.Now().UTC()
	if *date != "" {
		t, err := time.Parse("2006-01-02", *date)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Fecha inválida: %v\n", err)
			os.Exit(1)
		}
		effective = t
	}

	f, err := os.Open(*in)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Abrir CSV: %v\n", err)
		os.Exit(1)
	}
	defer f.Close()

	var r io.Reader = f
	if *latin1 {
		r = transform.NewReader(f, charmap.ISO8859_1.NewDecoder())
	}
	data, err := parse(r, []rune(*sep)[0], effective)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Leer CSV: %v\n", err)
		os.Exit(1)
	}

	var w io.Writer = os.Stdout
	if *out != "" {
		file, err := os.Create(*out)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Crear archivo: %v\n", err)
			os.Exit(1)
		}
		defer file.Close()
		w = file
	}
	bw := bufio.NewWriter(w)
	if *withSchema && *driver == config.DriverPostgres {
		bw.WriteString(postgres.Schema())
		bw.WriteString("\n")
	}
	if err := render(bw, *driver, data); err != nil {
		fmt.Fprintf(os.Stderr, "Generar SQL: %v\n", err)
		os.Exit(1)
	}
	if err := bw.Flush(); err != nil {
		fmt.Fprintf(os.Stderr, "Escribir SQL: %v\n", err)
		os.Exit(1)
	}
	fmt.Fprintf(os.Stderr, "Generado: %d sucursales, %d saldos\n", len(data.branches), len(data.entries))
}

// parse lee los registros sucursal/saldo. Un saldo negativo se registra como salida.
func parse(r io.Reader, sep rune, effective time.Time) (*seedData, error) {
	cr := csv.NewReader(r)
	cr.Comma = sep
	cr.Comment = '#'
	cr.FieldsPerRecord = -1
	cr.TrimLeadingSpace = true

	data := &seedData{}
	seen := map[string]bool{}
	for {
		rec, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, err
		}
		line, _ := cr.FieldPos(0)
		for i := range rec {
			rec[i] = strings.TrimSpace(rec[i])
		}
		switch strings.ToLower(rec[0]) {
		case "sucursal":
			if len(rec) != 4 {
				return nil, fmt.Errorf("línea %d: sucursal espera 4 campos", line)
			}
			code := strings.ToUpper(rec[1])
			if !numbering.ValidBranchCode(code) || !entity.ValidBranchRole(rec[3]) {
				return nil, fmt.Errorf("línea %d: sucursal inválida %q (%s)", line, rec[1], rec[3])
			}
			if seen[code] {
				return nil, fmt.Errorf("línea %d: sucursal %s repetida", line, code)
			}
			seen[code] = true
			data.branches = append(data.branches, entity.Branch{
				Code: code, Name: rec[2], Role: rec[3], Active: true, CreatedAt: effective,
			})
		case "saldo":
			if len(rec) != 5 {
				return nil, fmt.Errorf("línea %d: saldo espera 5 campos", line)
			}
			qty, err := strconv.ParseInt(rec[4], 10, 64)
			if err != nil {
				return nil, fmt.Errorf("línea %d: cantidad inválida %q", line, rec[4])
			}
			if qty == 0 || rec[2] == "" {
				continue
			}
			e := entity.StockLedgerEntry{
				ID: uuid.New().String(), Branch: strings.ToUpper(rec[1]), ItemCode: rec[2], Variant: rec[3],
				Active: true, EffectiveDate: effective, DocumentNumber: openingDocument, CreatedAt: effective,
			}
			if qty > 0 {
				e.Inbound = qty
			} else {
				e.Outbound = -qty
			}
			data.entries = append(data.entries, e)
		default:
			return nil, fmt.Errorf("línea %d: tipo de registro desconocido %q", line, rec[0])
		}
	}
	return data, nil
}

// render escribe los INSERT en el dialecto pedido. SQLite guarda fechas en nanosegundos Unix.
func render(w io.Writer, driver string, data *seedData) error {
	var ts func(time.Time) string
	var boolean func(bool) string
	switch driver {
	case config.DriverPostgres:
		ts = func(t time.Time) string { return "'" + t.UTC().Format(time.RFC3339Nano) + "'" }
		boolean = func(b bool) string { return strconv.FormatBool(b) }
	case config.DriverSQLite:
		ts = func(t time.Time) string { return strconv.FormatInt(t.UTC().UnixNano(), 10) }
		boolean = func(b bool) string {
			if b {
				return "1"
			}
			return "0"
		}
	default:
		return fmt.Errorf("dialecto no soportado: %q", driver)
	}

	fmt.Fprintln(w, "-- Sucursales y saldos iniciales")
	fmt.Fprintln(w, "BEGIN;")
	for _, b := range data.branches {
		fmt.Fprintf(w, "INSERT INTO branches (code, name, role, active, created_at) VALUES ('%s', '%s', '%s', %s, %s) ON CONFLICT (code) DO NOTHING;\n",
			escapeSQL(b.Code), escapeSQL(b.Name), b.Role, boolean(b.Active), ts(b.CreatedAt))
	}
	for _, e := range data.entries {
		fmt.Fprintf(w, "INSERT INTO stock_ledger (id, branch, item_code, variant, inbound, outbound, active, effective_date, document_number, created_at) VALUES ('%s', '%s', '%s', '%s', %d, %d, %s, %s, '%s', %s);\n",
			e.ID, escapeSQL(e.Branch), escapeSQL(e.ItemCode), escapeSQL(e.Variant), e.Inbound, e.Outbound,
			boolean(e.Active), ts(e.EffectiveDate), e.DocumentNumber, ts(e.CreatedAt))
	}
	_, err := fmt.Fprintln(w, "COMMIT;")
	return err
}

func escapeSQL(s string) string {
	return strings.ReplaceAll(s, "'", "''")
}
