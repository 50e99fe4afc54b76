package storage

import (
	"encoding/json"
	"io"

	"github.com/san-kum/velcmd/internal/sim"
)

// ExportData is the single-document form of a stored run.
type ExportData struct {
	*RunMetadata
	Series []sim.Sample `json:"series"`
}

// Export writes a run's metadata and series as one indented JSON document.
func (s *Store) Export(w io.Writer, runID string) error {
	meta, err := s.Load(runID)
	if err != nil {
		return err
	}
	series, err := s.LoadSeries(runID)
	if err != nil {
		return err
	}

	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(ExportData{RunMetadata: meta, Series: series})
}
