package postgres

import (
	"regexp"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/inventario-kardex/internal/domain/entity"
)

var viewBranch = regexp.MustCompile(`WHEN t\.code LIKE '([^']*)' THEN (-?)m\.quantity`)

// likeToRegexp traduce un patrón LIKE de PostgreSQL (escape por defecto '\').
func likeToRegexp(pattern string) *regexp.Regexp {
	var b strings.Builder
	b.WriteString("^")
	for i := 0; i < len(pattern); i++ {
		switch c := pattern[i]; c {
		case '\\':
			if i+1 < len(pattern) {
				i++
				b.WriteString(regexp.QuoteMeta(string(pattern[i])))
			}
		case '%':
			b.WriteString(".*")
		case '_':
			b.WriteString(".")
		default:
			b.WriteString(regexp.QuoteMeta(string(c)))
		}
	}
	b.WriteString("$")
	return regexp.MustCompile(b.String())
}

func TestVistaStock_SignoCoincideConMovementSign(t *testing.T) {
	raw, err := migrationFiles.ReadFile("migrations/000001_init.up.sql")
	require.NoError(t, err)
	sql := string(raw)

	start := strings.Index(sql, "CREATE VIEW current_stock_by_location")
	require.GreaterOrEqual(t, start, 0)
	view := sql[start:]
	view = view[:strings.Index(view, ";")]

	branches := viewBranch.FindAllStringSubmatch(view, -1)
	require.NotEmpty(t, branches)
	require.Contains(t, view, "ELSE 0 END", "un código sin prefijo no debe sumar")

	viewSign := func(code string) int {
		for _, br := range branches {
			if likeToRegexp(br[1]).MatchString(code) {
				if br[2] == "-" {
					return -1
				}
				return 1
			}
		}
		return 0
	}

	codes := []string{
		entity.MovementCodeInPurchase, entity.MovementCodeInTransfer, entity.MovementCodeInAdjust,
		entity.MovementCodeOutSale, entity.MovementCodeOutTransfer, entity.MovementCodeOutAdjust,
		"OUTMERMA", "INAJUSTE", "OUT", "IN", "AJUSTE", "DEVOLUCION", "",
	}
	for _, code := range codes {
		assert.Equal(t, entity.MovementSign(code), viewSign(code), "código %q", code)
	}
}
