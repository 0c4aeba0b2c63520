// seed_catalog genera un script SQL con tipos de movimiento a partir de un CSV exportado del
// sistema anterior (ISO-8859-1, separador ';', columnas codigo;nombre).
//
// Uso: go run ./cmd/seed_catalog tipos.csv > seed.sql
package main

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"sort"
	"strings"

	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/transform"

	"github.com/jhoicas/inventario-kardex/internal/domain/entity"
)

type movementType struct {
	code, name string
}

func main() {
	if len(os.Args) < 2 {
		fmt.Fprintln(os.Stderr, "uso: seed_catalog <archivo.csv>")
		os.Exit(2)
	}
	f, err := os.Open(os.Args[1])
	if err != nil {
		fmt.Fprintf(os.Stderr, "Abrir CSV: %v\n", err)
		os.Exit(1)
	}
	defer f.Close()

	types, err := parse(transform.NewReader(f, charmap.ISO8859_1.NewDecoder()))
	if err != nil {
		fmt.Fprintf(os.Stderr, "Leer CSV: %v\n", err)
		os.Exit(1)
	}
	if err := writeSQL(os.Stdout, types); err != nil {
		fmt.Fprintf(os.Stderr, "Escribir SQL: %v\n", err)
		os.Exit(1)
	}
	fmt.Fprintf(os.Stderr, "Generados %d tipos de movimiento\n", len(types))
}

// parse lee codigo;nombre. Omite el encabezado y rechaza códigos que no empiezan por IN u OUT.
func parse(r io.Reader) ([]movementType, error) {
	cr := csv.NewReader(r)
	cr.Comma = ';'
	cr.FieldsPerRecord = -1
	cr.TrimLeadingSpace = true

	seen := make(map[string]string)
	line := 0
	for {
		rec, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, err
		}
		line++
		if len(rec) < 2 {
			continue
		}
		code := strings.ToUpper(strings.TrimSpace(rec[0]))
		name := strings.TrimSpace(rec[1])
		if line == 1 && strings.EqualFold(code, "codigo") {
			continue
		}
		if code == "" || name == "" {
			continue
		}
		if entity.MovementSign(code) == 0 {
			return nil, fmt.Errorf("línea %d: el código %q debe empezar por IN u OUT", line, code)
		}
		seen[code] = name
	}

	out := make([]movementType, 0, len(seen))
	for code, name := range seen {
		out = append(out, movementType{code: code, name: name})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].code < out[j].code })
	return out, nil
}

func writeSQL(w io.Writer, types []movementType) error {
	if len(types) == 0 {
		return fmt.Errorf("el CSV no trae tipos de movimiento")
	}
	var b strings.Builder
	b.WriteString("-- Tipos de movimiento importados (generado por seed_catalog)\n")
	b.WriteString("INSERT INTO movement_types (id, code, name) VALUES\n")
	for i, t := range types {
		fmt.Fprintf(&b, "  (gen_random_uuid(), '%s', '%s')", escapeSQL(t.code), escapeSQL(t.name))
		if i < len(types)-1 {
			b.WriteString(",\n")
		} else {
			b.WriteString("\n")
		}
	}
	b.WriteString("ON CONFLICT (code) DO UPDATE SET name = EXCLUDED.name;\n")
	_, err := io.WriteString(w, b.String())
	return err
}

func escapeSQL(s string) string {
	return strings.ReplaceAll(s, "'", "''")
}
