package main

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/transform"
)

func TestParse_LeeLatin1(t *testing.T) {
	utf8 := "codigo;nombre\nin_return;Devolución de cliente\nOUT_DAMAGE;Baja por daño\nIN_RETURN;Devolución\n"
	latin1, err := charmap.ISO8859_1.NewEncoder().String(utf8)
	require.NoError(t, err)

	types, err := parse(transform.NewReader(strings.NewReader(latin1), charmap.ISO8859_1.NewDecoder()))
	require.NoError(t, err)
	require.Len(t, types, 2)
	assert.Equal(t, "IN_RETURN", types[0].code)
	assert.Equal(t, "Devolución", types[0].name)
	assert.Equal(t, "OUT_DAMAGE", types[1].code)
	assert.Equal(t, "Baja por daño", types[1].name)
}

func TestParse_RechazaCodigoSinDireccion(t *testing.T) {
	_, err := parse(strings.NewReader("AJUSTE;Ajuste general\n"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "IN u OUT")
}

func TestParse_AceptaPrefijoSinGuionBajo(t *testing.T) {
	types, err := parse(strings.NewReader("OUTMERMA;Merma\nINAJUSTE;Ajuste de entrada\n"))
	require.NoError(t, err)
	require.Len(t, types, 2)
	assert.Equal(t, "INAJUSTE", types[0].code)
	assert.Equal(t, "OUTMERMA", types[1].code)
}

func TestWriteSQL_EscapaComillas(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, writeSQL(&buf, []movementType{{code: "IN_RETURN", name: "Devolución d'cliente"}}))
	assert.Contains(t, buf.String(), "'IN_RETURN', 'Devolución d''cliente'")
	assert.Contains(t, buf.String(), "ON CONFLICT (code)")

	assert.Error(t, writeSQL(&buf, nil))
}
