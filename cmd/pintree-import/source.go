package main

import (
	"encoding/json/jsontext"
	"encoding/json/v2"
	"fmt"
	"io"
	"os"

	"github.com/pintree/pintree-admin/internal/importer"
)

// readFile opens path ("-" for stdin) and reads at most limit bytes.
func readFile(path string, limit int64) ([]byte, error) {
	if path == "-" {
		return importer.ReadSource(os.Stdin, limit)
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open import file: %w", err)
	}
	defer f.Close()
	return importer.ReadSource(f, limit)
}

func writeJSON(w io.Writer, v any) error {
	return json.MarshalWrite(w, v, jsontext.WithIndent("  "))
}
