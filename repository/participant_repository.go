package repository

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"github.com/facette/natsort"
	log "github.com/sirupsen/logrus"

	"github.com/camden-git/checkinkiosk/media"
	"github.com/camden-git/checkinkiosk/models"
)

// csvFileMode is applied to every rewrite; CreateTemp alone would leave 0600.
const csvFileMode os.FileMode = 0644

// ErrParticipantNotFound is returned when no row carries the requested UID.
var ErrParticipantNotFound = errors.New("participant not found")

// CSVParticipantRepository keeps participants in a single CSV file that is
// rewritten in full on every mutation. The mutex serializes read-modify-write
// cycles within the process; other processes writing the same file are not
// coordinated.
type CSVParticipantRepository struct {
	path string
	mu   sync.Mutex
}

func NewCSVParticipantRepository(path string) *CSVParticipantRepository {
	return &CSVParticipantRepository{path: path}
}

func (r *CSVParticipantRepository) Path() string {
	return r.path
}

// readAll loads every data row. A missing file is an empty store.
func (r *CSVParticipantRepository) readAll() ([]models.Participant, error) {
	f, err := os.Open(r.path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to open participant file %s: %w", r.path, err)
	}
	defer f.Close()

	reader := csv.NewReader(f)
	reader.FieldsPerRecord = -1

	var rows []models.Participant
	header := true
	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to parse participant file %s: %w", r.path, err)
		}
		if header {
			header = false
			continue
		}
		rows = append(rows, models.ParticipantFromRecord(record))
	}
	return rows, nil
}

// writeAll replaces the file with header + rows via a temp file and rename.
func (r *CSVParticipantRepository) writeAll(rows []models.Participant) error {
	dir := filepath.Dir(r.path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create directory %s: %w", dir, err)
	}

	tmp, err := os.CreateTemp(dir, "."+filepath.Base(r.path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("failed to create temp file in %s: %w", dir, err)
	}
	tmpName := tmp.Name()
	cleanup := func() {
		tmp.Close()
		os.Remove(tmpName)
	}

	w := csv.NewWriter(tmp)
	if err := w.Write(models.CSVHeader); err != nil {
		cleanup()
		return fmt.Errorf("failed to write participant header: %w", err)
	}
	for _, row := range rows {
		if err := w.Write(row.Record()); err != nil {
			cleanup()
			return fmt.Errorf("failed to write participant %s: %w", row.UID, err)
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		cleanup()
		return fmt.Errorf("failed to flush participant file: %w", err)
	}
	if err := tmp.Chmod(csvFileMode); err != nil {
		cleanup()
		return fmt.Errorf("failed to set mode on temp participant file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("failed to close temp participant file: %w", err)
	}
	if err := os.Rename(tmpName, r.path); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("failed to replace participant file %s: %w", r.path, err)
	}
	return nil
}

// Upsert drops any row with the same UID and appends p.
func (r *CSVParticipantRepository) Upsert(p models.Participant) error {
	_, err := r.Replace(p)
	return err
}

// Replace works like Upsert and returns the row it replaced, or nil when the
// UID was new. Lookup and rewrite happen under the same lock.
func (r *CSVParticipantRepository) Replace(p models.Participant) (*models.Participant, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	rows, err := r.readAll()
	if err != nil {
		return nil, err
	}
	var previous *models.Participant
	kept := rows[:0]
	for _, row := range rows {
		if row.UID == p.UID {
			prev := row
			previous = &prev
			continue
		}
		kept = append(kept, row)
	}
	kept = append(kept, p)

	if err := r.writeAll(kept); err != nil {
		return nil, err
	}
	log.Printf("repository: Upserted participant %s (%s)", p.UID, p.Name)
	return previous, nil
}

func (r *CSVParticipantRepository) FindByUID(uid string) (*models.Participant, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	rows, err := r.readAll()
	if err != nil {
		return nil, err
	}
	for i := range rows {
		if rows[i].UID == uid {
			return &rows[i], nil
		}
	}
	return nil, ErrParticipantNotFound
}

// All returns rows in file order.
func (r *CSVParticipantRepository) All() ([]models.Participant, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.readAll()
}

// List filters by a case-insensitive substring of UID or name and orders
// newest registration first. Rows without a photo timestamp sort last,
// equal timestamps fall back to natural name order.
func (r *CSVParticipantRepository) List(query string) ([]models.Participant, error) {
	rows, err := r.All()
	if err != nil {
		return nil, err
	}

	q := strings.ToLower(strings.TrimSpace(query))
	out := make([]models.Participant, 0, len(rows))
	for _, row := range rows {
		if q != "" && !strings.Contains(strings.ToLower(row.UID+" "+row.Name), q) {
			continue
		}
		out = append(out, row)
	}

	keys := make([]int64, len(out))
	for i, row := range out {
		if ts, ok := media.PhotoTimestamp(row.Photo); ok {
			keys[i] = ts.Unix()
		}
	}
	idx := make([]int, len(out))
	for i := range idx {
		idx[i] = i
	}
	sort.SliceStable(idx, func(a, b int) bool {
		ka, kb := keys[idx[a]], keys[idx[b]]
		if ka != kb {
			return ka > kb
		}
		return natsort.Compare(out[idx[a]].Name, out[idx[b]].Name)
	})

	sorted := make([]models.Participant, len(out))
	for i, j := range idx {
		sorted[i] = out[j]
	}
	return sorted, nil
}

// Update applies fn to the row with uid and rewrites the file. Nothing is
// written when fn returns an error.
func (r *CSVParticipantRepository) Update(uid string, fn func(p *models.Participant) error) (models.Participant, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	rows, err := r.readAll()
	if err != nil {
		return models.Participant{}, err
	}
	for i := range rows {
		if rows[i].UID != uid {
			continue
		}
		if err := fn(&rows[i]); err != nil {
			return models.Participant{}, err
		}
		// the callback must not re-key the row
		rows[i].UID = uid
		if err := r.writeAll(rows); err != nil {
			return models.Participant{}, err
		}
		log.Printf("repository: Updated participant %s", uid)
		return rows[i], nil
	}
	return models.Participant{}, ErrParticipantNotFound
}

// Delete removes the row with uid and returns it.
func (r *CSVParticipantRepository) Delete(uid string) (models.Participant, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	rows, err := r.readAll()
	if err != nil {
		return models.Participant{}, err
	}
	var removed *models.Participant
	kept := make([]models.Participant, 0, len(rows))
	for i := range rows {
		if rows[i].UID == uid {
			if removed == nil {
				removed = &rows[i]
			}
			continue
		}
		kept = append(kept, rows[i])
	}
	if removed == nil {
		return models.Participant{}, ErrParticipantNotFound
	}
	if err := r.writeAll(kept); err != nil {
		return models.Participant{}, err
	}
	log.Printf("repository: Deleted participant %s", uid)
	return *removed, nil
}
