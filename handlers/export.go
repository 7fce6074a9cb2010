package handlers

import (
	"bytes"
	"fmt"
	"net/http"
	"time"

	log "github.com/sirupsen/logrus"

	"github.com/camden-git/checkinkiosk/services"
	"github.com/camden-git/checkinkiosk/utils"
)

const exportPrefix = "peserta"

type ExportHandler struct {
	Exports *services.ExportService
	Now     func() time.Time
}

func (eh *ExportHandler) now() time.Time {
	if eh.Now != nil {
		return eh.Now()
	}
	return time.Now()
}

func (eh *ExportHandler) attachment(w http.ResponseWriter, contentType, ext string) {
	w.Header().Set("Content-Type", contentType)
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", utils.ArchiveName(exportPrefix, ext, eh.now())))
	w.Header().Set("Cache-Control", "no-store")
}

// ExportCSV buffers the file so a read failure still yields a clean error.
func (eh *ExportHandler) ExportCSV(w http.ResponseWriter, r *http.Request) {
	var buf bytes.Buffer
	if err := eh.Exports.WriteCSV(&buf); err != nil {
		writeServiceError(w, "export csv", err)
		return
	}
	eh.attachment(w, "text/csv; charset=utf-8", "csv")
	w.Write(buf.Bytes())
}

func (eh *ExportHandler) ExportJSON(w http.ResponseWriter, r *http.Request) {
	rows, err := eh.Exports.Rows()
	if err != nil {
		writeServiceError(w, "export json", err)
		return
	}
	eh.attachment(w, "application/json", "json")
	writeJSON(w, http.StatusOK, Envelope{OK: true, Data: rows})
}

// ExportZIP streams the archive; errors after the first byte can only be logged.
func (eh *ExportHandler) ExportZIP(w http.ResponseWriter, r *http.Request) {
	eh.attachment(w, "application/zip", "zip")
	if err := eh.Exports.WriteZIP(w); err != nil {
		log.Errorf("handlers: export zip failed: %v", err)
	}
}

func (eh *ExportHandler) ExportXLSX(w http.ResponseWriter, r *http.Request) {
	var buf bytes.Buffer
	if err := eh.Exports.WriteXLSX(&buf); err != nil {
		writeServiceError(w, "export xlsx", err)
		return
	}
	eh.attachment(w, "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet", "xlsx")
	w.Write(buf.Bytes())
}
