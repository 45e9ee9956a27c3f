// Package export writes the active weighing rows as CSV.
package export

import (
	"bytes"
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"go.uber.org/zap"

	"github.com/jask/kgview/internal/database/repository"
	"github.com/jask/kgview/internal/weighing"
)

// Column maps a record field to a CSV column title.
type Column struct {
	Field string `mapstructure:"field"`
	Title string `mapstructure:"title"`
}

// DefaultColumns is the column layout used when none is configured.
func DefaultColumns() []Column {
	return []Column{
		{Field: weighing.FieldPlate, Title: "Kenteken"},
		{Field: weighing.FieldSequenceNo, Title: "Volgnummer"},
		{Field: weighing.FieldDateStr, Title: "Datum"},
		{Field: weighing.FieldTimeStr, Title: "Tijd"},
		{Field: weighing.FieldFraction, Title: "Fractie"},
		{Field: weighing.FieldNetWeight, Title: "Netto gewicht"},
		{Field: weighing.FieldAddress, Title: "Adres"},
		{Field: weighing.FieldNeighborhood, Title: "Wijk"},
		{Field: weighing.FieldDistrict, Title: "Stadsdeel"},
	}
}

// CSV writes a header row and one row per record. A column without a title
// is headed by its field name.
func CSV(w io.Writer, records []weighing.Record, columns []Column) error {
	cw := csv.NewWriter(w)
	header := make([]string, len(columns))
	for i, c := range columns {
		header[i] = c.Title
		if header[i] == "" {
			header[i] = c.Field
		}
	}
	if err := cw.Write(header); err != nil {
		return err
	}
	row := make([]string, len(columns))
	for _, r := range records {
		for i, c := range columns {
			row[i] = r.Format(c.Field)
		}
		if err := cw.Write(row); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

// FileExporter writes exports to Path and records them in History when set.
type FileExporter struct {
	Path    string
	Columns []Column
	History *repository.ExportRepo
	Logger  *zap.Logger
}

// Export replaces the file at Path atomically.
func (e *FileExporter) Export(ctx context.Context, records []weighing.Record) error {
	columns := e.Columns
	if len(columns) == 0 {
		columns = DefaultColumns()
	}
	var buf bytes.Buffer
	if err := CSV(&buf, records, columns); err != nil {
		return fmt.Errorf("encode csv: %w", err)
	}
	if dir := filepath.Dir(e.Path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create export dir: %w", err)
		}
	}
	tmp := e.Path + ".tmp"
	if err := os.WriteFile(tmp, buf.Bytes(), 0o644); err != nil {
		return err
	}
	if err := os.Rename(tmp, e.Path); err != nil {
		return err
	}
	if e.History != nil {
		if _, err := e.History.Record(ctx, e.Path, len(records)); err != nil && e.Logger != nil {
			e.Logger.Warn("record export", zap.Error(err))
		}
	}
	return nil
}
