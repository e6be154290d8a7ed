package storage

import (
	"encoding/json"
	"io"
)

type ExportData struct {
	RunMetadata
	Columns []string             `json:"columns"`
	Data    map[string][]float64 `json:"data"`
}

// ExportJSON writes a run and its cells as a single JSON document.
func ExportJSON(w io.Writer, meta RunMetadata, cells Cells) error {
	data := ExportData{
		RunMetadata: meta,
		Columns:     Columns[1:],
		Data:        make(map[string][]float64, len(Columns)-1),
	}
	for _, name := range data.Columns {
		data.Data[name] = cells.Column(name)
	}

	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(data)
}
