package importer

import (
	"bytes"
	"encoding/json/jsontext"
	"encoding/json/v2"
	"fmt"
	"io"

	"github.com/pintree/pintree-admin/internal/domain"
	domainerrors "github.com/pintree/pintree-admin/internal/errors"
)

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// ReadSource reads an import file, refusing anything larger than limit
// bytes before it is parsed.
func ReadSource(r io.Reader, limit int64) ([]byte, error) {
	data, err := io.ReadAll(io.LimitReader(r, limit+1))
	if err != nil {
		return nil, domainerrors.Wrap(err, domainerrors.CodeInternal, "read import file")
	}
	if int64(len(data)) > limit {
		return nil, domainerrors.TooLargef("import file exceeds %s", formatSize(limit))
	}
	data = bytes.TrimPrefix(data, utf8BOM)
	if len(bytes.TrimSpace(data)) == 0 {
		return nil, domainerrors.Validation("import file is empty")
	}
	return data, nil
}

// ParseNative decodes a native export. Both folders and bookmarks must be
// present; either may be empty.
func ParseNative(data []byte) (*domain.NativeExport, error) {
	var export domain.NativeExport
	if err := json.Unmarshal(data, &export); err != nil {
		return nil, domainerrors.Formatf("malformed native export: %v", err)
	}
	if export.Folders == nil {
		return nil, domainerrors.Format("native export has no folders section")
	}
	if export.Bookmarks == nil {
		return nil, domainerrors.Format("native export has no bookmarks section")
	}
	return &export, nil
}

// ParseGeneric decodes a generic tree and returns the children of its
// first root node.
func ParseGeneric(data []byte) ([]domain.GenericNode, error) {
	if jsontext.Value(data).Kind() != '[' {
		return nil, domainerrors.Format("generic export must be a JSON array of root nodes")
	}
	var roots []domain.GenericNode
	if err := json.Unmarshal(data, &roots); err != nil {
		return nil, domainerrors.Formatf("malformed generic export: %v", err)
	}
	if len(roots) == 0 || !roots[0].IsFolder() {
		return nil, domainerrors.Format("generic export root has no children")
	}
	return roots[0].Children, nil
}

func formatSize(n int64) string {
	const mib = 1 << 20
	if n >= mib && n%mib == 0 {
		return fmt.Sprintf("%d MiB", n/mib)
	}
	return fmt.Sprintf("%d bytes", n)
}
