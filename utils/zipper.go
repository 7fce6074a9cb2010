package utils

import (
	"archive/zip"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"
)

// ArchiveName builds a download name such as peserta_1723559012_1a2b3c4d.zip.
func ArchiveName(prefix, ext string, now time.Time) string {
	archiveUUID, _ := uuid.NewRandom()
	return fmt.Sprintf("%s_%d_%s.%s", prefix, now.Unix(), archiveUUID.String()[:8], ext)
}

// ZipBuilder streams entries into a zip archive. Entry names are recorded
// so the same file is never added twice.
type ZipBuilder struct {
	zw    *zip.Writer
	names map[string]bool
}

func NewZipBuilder(w io.Writer) *ZipBuilder {
	return &ZipBuilder{zw: zip.NewWriter(w), names: make(map[string]bool)}
}

// Create opens a new entry for writing.
func (b *ZipBuilder) Create(name string) (io.Writer, error) {
	if b.names[name] {
		return nil, fmt.Errorf("duplicate zip entry %s", name)
	}
	b.names[name] = true
	return b.zw.CreateHeader(&zip.FileHeader{
		Name:     name,
		Method:   zip.Deflate,
		Modified: time.Now(),
	})
}

// AddFile copies the file at path into the archive as name. Missing or
// unreadable files are skipped and reported as false.
func (b *ZipBuilder) AddFile(name, path string) bool {
	if b.names[name] {
		return false
	}
	fileToZip, err := os.Open(path)
	if err != nil {
		log.Printf("zipper: Failed to open file %s for zipping: %v. Skipping.", path, err)
		return false
	}
	defer fileToZip.Close()

	writer, err := b.Create(name)
	if err != nil {
		log.Printf("zipper: Failed to create entry in zip for %s: %v. Skipping.", name, err)
		return false
	}
	if _, err := io.Copy(writer, fileToZip); err != nil {
		log.Printf("zipper: Failed to write file %s to zip: %v", name, err)
		return false
	}
	return true
}

func (b *ZipBuilder) Close() error {
	if err := b.zw.Close(); err != nil {
		return fmt.Errorf("failed to finalize zip writer: %w", err)
	}
	return nil
}
