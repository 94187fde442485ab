package main

import (
	"bytes"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/transform"
)

var day = time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)

const sample = `# exportación de tiendas
sucursal;G01;Centro;central
sucursal;k01;Tienda O'Higgins;store
saldo;G01;A100;M;20
saldo;K01;A100;M;-3
saldo;K01;A200;;0
`

func TestParse(t *testing.T) {
	data, err := parse(strings.NewReader(sample), ';', day)
	require.NoError(t, err)

	require.Len(t, data.branches, 2)
	assert.Equal(t, "K01", data.branches[1].Code)
	require.Len(t, data.entries, 2)
	assert.Equal(t, int64(20), data.entries[0].Inbound)
	assert.Equal(t, int64(3), data.entries[1].Outbound)
	assert.Equal(t, openingDocument, data.entries[1].DocumentNumber)
}

func TestParse_Errores(t *testing.T) {
	cases := map[string]string{
		"tipo desconocido":   "factura;K01;x\n",
		"rol inválido":       "sucursal;K01;Tienda;bodega\n",
		"sucursal repetida":  "sucursal;K01;A;store\nsucursal;k01;B;store\n",
		"cantidad inválida":  "saldo;K01;A100;M;diez\n",
		"campos incompletos": "saldo;K01;A100\n",
	}
	for name, in := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := parse(strings.NewReader(in), ';', day)
			assert.Error(t, err)
		})
	}
}

func TestParse_Latin1(t *testing.T) {
	raw, err := charmap.ISO8859_1.NewEncoder().String("sucursal;K02;Tienda Peñalolén;store\n")
	require.NoError(t, err)
	r := transform.NewReader(strings.NewReader(raw), charmap.ISO8859_1.NewDecoder())

	data, err := parse(r, ';', day)
	require.NoError(t, err)
	require.Len(t, data.branches, 1)
	assert.Equal(t, "Tienda Peñalolén", data.branches[0].Name)
}

func TestRender_Dialectos(t *testing.T) {
	data, err := parse(strings.NewReader(sample), ';', day)
	require.NoError(t, err)

	var pg bytes.Buffer
	require.NoError(t, render(&pg, "postgres", data))
	assert.Contains(t, pg.String(), "'Tienda O''Higgins', 'store', true, '2026-01-01T00:00:00Z'")
	assert.Equal(t, 4, strings.Count(pg.String(), "INSERT INTO"))

	var lite bytes.Buffer
	require.NoError(t, render(&lite, "sqlite", data))
	assert.Contains(t, lite.String(), "'store', 1, 1767225600000000000")

	assert.Error(t, render(&bytes.Buffer{}, "mysql", data))
}
