package importer

import (
	"encoding/json/jsontext"
	"encoding/json/v2"

	"github.com/pintree/pintree-admin/internal/domain"
)

// DefaultNativeMarker is the metadata.exportedFrom value of native exports.
const DefaultNativeMarker = "Pintree"

// Detector classifies import files.
type Detector struct {
	Marker string
}

// Detect returns FormatNative when the document is an object whose
// metadata.exportedFrom equals the marker, and FormatGeneric otherwise.
// It never fails; a malformed document is rejected later by the parser.
func (d Detector) Detect(data []byte) domain.Format {
	if jsontext.Value(data).Kind() != '{' {
		return domain.FormatGeneric
	}

	var probe struct {
		Metadata struct {
			ExportedFrom string `json:"exportedFrom"`
		} `json:"metadata"`
	}
	if err := json.Unmarshal(data, &probe); err != nil {
		return domain.FormatGeneric
	}

	marker := d.Marker
	if marker == "" {
		marker = DefaultNativeMarker
	}
	if probe.Metadata.ExportedFrom == marker {
		return domain.FormatNative
	}
	return domain.FormatGeneric
}
