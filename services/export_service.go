package services

import (
	"encoding/csv"
	"fmt"
	"io"
	"path"
	"strings"
	"time"

	log "github.com/sirupsen/logrus"
	"github.com/xuri/excelize/v2"

	"github.com/camden-git/checkinkiosk/media"
	"github.com/camden-git/checkinkiosk/models"
	"github.com/camden-git/checkinkiosk/repository"
	"github.com/camden-git/checkinkiosk/utils"
)

const (
	ExportSheet     = "Peserta"
	exportCSVName   = "db_peserta.csv"
	registeredField = "2006-01-02 15:04:05"
)

// ExportRow is a participant as exported in JSON, with photo details.
type ExportRow struct {
	models.Participant
	Registered *string         `json:"Terdaftar"`
	PhotoInfo  *media.Metadata `json:"FotoInfo,omitempty"`
}

// ExportService renders the participant list in download formats.
type ExportService struct {
	repo     repository.ParticipantRepository
	photos   media.Store
	Location *time.Location
}

func NewExportService(repo repository.ParticipantRepository, photos media.Store) *ExportService {
	return &ExportService{repo: repo, photos: photos, Location: time.Local}
}

func (s *ExportService) registered(p models.Participant) *string {
	ts, ok := media.PhotoTimestamp(p.Photo)
	if !ok {
		return nil
	}
	loc := s.Location
	if loc == nil {
		loc = time.Local
	}
	v := ts.In(loc).Format(registeredField)
	return &v
}

// WriteCSV writes the store's columns in file order.
func (s *ExportService) WriteCSV(w io.Writer) error {
	rows, err := s.repo.All()
	if err != nil {
		return err
	}
	return writeParticipantsCSV(w, rows)
}

func writeParticipantsCSV(w io.Writer, rows []models.Participant) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(models.CSVHeader); err != nil {
		return fmt.Errorf("failed to write csv header: %w", err)
	}
	for _, row := range rows {
		if err := cw.Write(row.Record()); err != nil {
			return fmt.Errorf("failed to write csv row %s: %w", row.UID, err)
		}
	}
	cw.Flush()
	return cw.Error()
}

// Rows returns every participant with registration time and photo metadata.
func (s *ExportService) Rows() ([]ExportRow, error) {
	rows, err := s.repo.All()
	if err != nil {
		return nil, err
	}
	out := make([]ExportRow, 0, len(rows))
	for _, row := range rows {
		er := ExportRow{Participant: row, Registered: s.registered(row)}
		if photo := strings.TrimSpace(row.Photo); photo != "" && s.photos.Exists(photo) {
			if full, err := s.photos.FullPath(photo); err == nil {
				meta, err := media.ReadMetadata(full)
				if err != nil {
					log.Warnf("services: Failed to read metadata for %s: %v", photo, err)
				} else {
					er.PhotoInfo = meta
				}
			}
		}
		out = append(out, er)
	}
	return out, nil
}

// WriteZIP streams the CSV followed by every referenced photo that exists.
// Photos keep their stored relative path inside the archive.
func (s *ExportService) WriteZIP(w io.Writer) error {
	rows, err := s.repo.All()
	if err != nil {
		return err
	}

	zb := utils.NewZipBuilder(w)
	entry, err := zb.Create(exportCSVName)
	if err != nil {
		return err
	}
	if err := writeParticipantsCSV(entry, rows); err != nil {
		return err
	}

	added := 0
	for _, row := range rows {
		photo := strings.TrimSpace(row.Photo)
		if photo == "" || !s.photos.Exists(photo) {
			continue
		}
		full, err := s.photos.FullPath(photo)
		if err != nil {
			continue
		}
		name := path.Join(path.Dir(photo), path.Base(full))
		if zb.AddFile(name, full) {
			added++
		}
	}
	if err := zb.Close(); err != nil {
		return err
	}
	log.Printf("services: Exported zip with %d participants and %d photos", len(rows), added)
	return nil
}

// WriteXLSX renders one sheet with a bold frozen header row.
func (s *ExportService) WriteXLSX(w io.Writer) error {
	rows, err := s.repo.All()
	if err != nil {
		return err
	}

	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", ExportSheet); err != nil {
		return fmt.Errorf("failed to name sheet: %w", err)
	}

	headerStyle, err := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true},
		Fill: excelize.Fill{Type: "pattern", Color: []string{"#E6F3FF"}, Pattern: 1},
	})
	if err != nil {
		return fmt.Errorf("failed to create header style: %w", err)
	}

	headers := []interface{}{"UID", "Nama", "Foto", "Terdaftar"}
	if err := f.SetSheetRow(ExportSheet, "A1", &headers); err != nil {
		return fmt.Errorf("failed to write header: %w", err)
	}
	if err := f.SetCellStyle(ExportSheet, "A1", "D1", headerStyle); err != nil {
		return fmt.Errorf("failed to style header: %w", err)
	}

	for i, row := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return err
		}
		registered := ""
		if r := s.registered(row); r != nil {
			registered = *r
		}
		values := []interface{}{row.UID, row.Name, row.Photo, registered}
		if err := f.SetSheetRow(ExportSheet, cell, &values); err != nil {
			return fmt.Errorf("failed to write row %d: %w", i+2, err)
		}
	}

	for col, width := range map[string]float64{"A": 16, "B": 28, "C": 40, "D": 20} {
		if err := f.SetColWidth(ExportSheet, col, col, width); err != nil {
			return fmt.Errorf("failed to set column width: %w", err)
		}
	}
	if err := f.SetPanes(ExportSheet, &excelize.Panes{
		Freeze:      true,
		YSplit:      1,
		TopLeftCell: "A2",
		ActivePane:  "bottomLeft",
	}); err != nil {
		return fmt.Errorf("failed to freeze header: %w", err)
	}

	if _, err := f.WriteTo(w); err != nil {
		return fmt.Errorf("failed to write workbook: %w", err)
	}
	return nil
}
