// Package spreadsheet liest den Massenimport aus Excel- oder CSV-Dateien.
// Jede Zeile entspricht genau einem rohen Datensatz; Spalten werden über die
// Kopfzeile adressiert.
package spreadsheet

import (
	"bytes"
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"unicode"

	"github.com/xuri/excelize/v2"
	"go.uber.org/zap"

	"aacsb-sync/models"
	"aacsb-sync/normalize"
	"aacsb-sync/providers"
)

// Row ist eine Datenzeile, adressiert über normalisierte Spaltennamen.
type Row struct {
	Line   int
	values map[string]string
}

// Get liefert den Zellwert der Spalte oder "".
func (r Row) Get(column string) string {
	return r.values[headerKey(column)]
}

// Sheet ist eine geladene Importdatei.
type Sheet struct {
	Path   string
	Rows   []Row
	Logger *zap.Logger
}

var (
	_ providers.FacultyProvider  = (*Sheet)(nil)
	_ providers.ResearchProvider = (*Sheet)(nil)
)

// Open lädt die erste Tabelle einer .xlsx-Datei oder eine .csv-Datei.
func Open(path string, logger *zap.Logger) (*Sheet, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return Read(bytes.NewReader(data), path, logger)
}

// Read liest eine Importdatei aus r; das Format ergibt sich aus der Endung von name.
func Read(r io.Reader, name string, logger *zap.Logger) (*Sheet, error) {
	var (
		records [][]string
		err     error
	)
	switch strings.ToLower(filepath.Ext(name)) {
	case ".xlsx", ".xlsm":
		records, err = readXLSX(r)
	case ".csv":
		records, err = readCSV(r)
	default:
		return nil, fmt.Errorf("unsupported spreadsheet format: %s", name)
	}
	if err != nil {
		return nil, fmt.Errorf("%s: %w", filepath.Base(name), err)
	}
	if len(records) == 0 {
		return nil, fmt.Errorf("%s: no header row", filepath.Base(name))
	}

	header := make([]string, len(records[0]))
	for i, h := range records[0] {
		header[i] = headerKey(h)
	}

	sheet := &Sheet{Path: name, Logger: logger}
	for i, rec := range records[1:] {
		if blank(rec) {
			continue
		}
		values := make(map[string]string, len(header))
		for j, key := range header {
			if key == "" || j >= len(rec) {
				continue
			}
			values[key] = rec[j]
		}
		// Zeile 1 ist die Kopfzeile.
		sheet.Rows = append(sheet.Rows, Row{Line: i + 2, values: values})
	}
	logger.Info("Importdatei gelesen", zap.String("file", filepath.Base(name)), zap.Int("rows", len(sheet.Rows)))
	return sheet, nil
}

// Name gibt den Namen der Quelle zurück.
func (s *Sheet) Name() string {
	return "spreadsheet:" + filepath.Base(s.Path)
}

// Origin gibt die Herkunftskennung für Tabellenimporte zurück.
func (s *Sheet) Origin() models.DataSource {
	return models.SourceSpreadsheet
}

// FetchFaculty liefert jede Zeile als Lehrpersonen-Datensatz.
func (s *Sheet) FetchFaculty(ctx context.Context) ([]providers.FacultyItem, error) {
	items := make([]providers.FacultyItem, 0, len(s.Rows))
	for _, row := range s.Rows {
		items = append(items, facultyRow{row: row, file: filepath.Base(s.Path)})
	}
	return items, nil
}

// FetchResearch liefert jede Zeile als Forschungsergebnis-Datensatz.
func (s *Sheet) FetchResearch(ctx context.Context) ([]providers.ResearchItem, error) {
	items := make([]providers.ResearchItem, 0, len(s.Rows))
	for _, row := range s.Rows {
		items = append(items, researchRow{row: row, file: filepath.Base(s.Path)})
	}
	return items, nil
}

func readXLSX(r io.Reader) ([][]string, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, errors.New("workbook has no sheets")
	}
	return f.GetRows(sheets[0])
}

func readCSV(r io.Reader) ([][]string, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}
	data = bytes.TrimPrefix(data, []byte("\xef\xbb\xbf"))
	cr := csv.NewReader(bytes.NewReader(data))
	cr.FieldsPerRecord = -1
	return cr.ReadAll()
}

// headerKey normalisiert Spaltennamen; Zeilenumbrüche in Kopfzellen
// ("석사학위\n취득년도") werden dabei entfernt.
func headerKey(h string) string {
	h = normalize.Text(h)
	return strings.ToLower(strings.Map(func(r rune) rune {
		if unicode.IsSpace(r) {
			return -1
		}
		return r
	}, h))
}

func blank(rec []string) bool {
	for _, v := range rec {
		if strings.TrimSpace(v) != "" {
			return false
		}
	}
	return true
}
