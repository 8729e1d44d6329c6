// seed_catalog genera un script SQL para poblar categorías y productos a partir de un CSV.
//
// Uso: go run ./cmd/seed_catalog [ruta/catalogo.csv] [salida.sql]
// Columnas: category,name,price[,description]. La primera fila es el encabezado.
// El CSV puede venir en UTF-8 o ISO-8859-1 (exportaciones de hojas de cálculo).
// Por defecto escribe seed/catalog.sql en la raíz del módulo.
//
// El stock de los productos queda en 0: el inventario inicial se carga con transacciones stock_in.
package main

import (
	"fmt"
	"os"
	"path/filepath"
)

func main() {
	csvPath := "catalogo.csv"
	if len(os.Args) > 1 {
		csvPath = os.Args[1]
	}
	outPath := filepath.Join(findModuleRoot(), "seed", "catalog.sql")
	if len(os.Args) > 2 {
		outPath = os.Args[2]
	}

	raw, err := os.ReadFile(csvPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Leer CSV: %v\n", err)
		os.Exit(1)
	}
	rows, err := parseCatalog(raw)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Procesar CSV: %v\n", err)
		os.Exit(1)
	}

	if err := os.MkdirAll(filepath.Dir(outPath), 0o755); err != nil {
		fmt.Fprintf(os.Stderr, "Crear directorio: %v\n", err)
		os.Exit(1)
	}
	out, err := os.Create(outPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Crear archivo: %v\n", err)
		os.Exit(1)
	}
	defer out.Close()

	categories, products := writeSeed(out, rows, csvPath)
	fmt.Printf("Generado %s: %d categorías, %d productos\n", outPath, categories, products)
}

func findModuleRoot() string {
	dir, _ := os.Getwd()
	for {
		if _, err := os.Stat(filepath.Join(dir, "go.mod")); err == nil {
			return dir
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			return dir
		}
		dir = parent
	}
}
