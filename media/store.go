package media

import (
	"fmt"
	"io"
	"io/fs"
	"os"
	"path"
	"path/filepath"
	"strings"

	log "github.com/sirupsen/logrus"
)

// Store defines the operations the participant service needs on photo files.
// Paths handed in and out are relative to the data directory and always
// start with the photo subdirectory, matching what the CSV stores.
type Store interface {
	// Save writes data under filename in the photo directory and returns the relative path
	Save(filename string, data io.Reader) (string, error)
	// Delete removes a photo; missing files are not an error
	Delete(relativePath string) error
	Exists(relativePath string) bool
	// FullPath resolves a stored relative path to an absolute file inside the photo directory
	FullPath(relativePath string) (string, error)
	// TotalSize sums the size of every file under the photo directory
	TotalSize() (int64, error)
}

// LocalStorage implements Store on the local filesystem.
type LocalStorage struct {
	basePath  string // absolute data directory
	subDir    string // photo directory name, e.g. "foto_peserta"
	photoPath string // absolute photo directory
}

// NewLocalStorage creates the photo directory if needed.
func NewLocalStorage(basePath, subDir string) (*LocalStorage, error) {
	absBasePath, err := filepath.Abs(basePath)
	if err != nil {
		return nil, fmt.Errorf("invalid base storage path '%s': %w", basePath, err)
	}

	photoPath := filepath.Join(absBasePath, subDir)
	if filepath.Dir(photoPath) != absBasePath {
		return nil, fmt.Errorf("invalid photo directory '%s': must be a direct child of '%s'", subDir, absBasePath)
	}

	if err := os.MkdirAll(photoPath, 0755); err != nil {
		return nil, fmt.Errorf("failed to create photo directory '%s': %w", photoPath, err)
	}

	log.Printf("media.store: Initialized LocalStorage at %s", photoPath)
	return &LocalStorage{
		basePath:  absBasePath,
		subDir:    subDir,
		photoPath: photoPath,
	}, nil
}

func (ls *LocalStorage) Dir() string {
	return ls.photoPath
}

// maxNameAttempts bounds the numbered variants Save tries for a taken name.
const maxNameAttempts = 100

// numberedName returns filename for attempt 1 and otherwise inserts "-<n>"
// before the last "_" of the stem, so "Siti_1723559012.jpg" becomes
// "Siti-2_1723559012.jpg" and the timestamp suffix stays last.
func numberedName(filename string, attempt int) string {
	if attempt <= 1 {
		return filename
	}
	ext := filepath.Ext(filename)
	stem := strings.TrimSuffix(filename, ext)
	if idx := strings.LastIndex(stem, "_"); idx > 0 {
		return fmt.Sprintf("%s-%d%s%s", stem[:idx], attempt, stem[idx:], ext)
	}
	return fmt.Sprintf("%s-%d%s", stem, attempt, ext)
}

// Save writes the file and returns "<subDir>/<filename>". An existing file
// is never overwritten; a numbered variant of the name is used instead.
func (ls *LocalStorage) Save(filename string, data io.Reader) (string, error) {
	if filename == "" || filename != filepath.Base(filename) || strings.HasPrefix(filename, ".") {
		return "", fmt.Errorf("invalid photo filename '%s'", filename)
	}

	if err := os.MkdirAll(ls.photoPath, 0755); err != nil {
		return "", fmt.Errorf("failed to ensure directory '%s': %w", ls.photoPath, err)
	}

	base := filename
	var (
		fullSavePath string
		outFile      *os.File
		err          error
	)
	for attempt := 1; attempt <= maxNameAttempts; attempt++ {
		filename = numberedName(base, attempt)
		fullSavePath = filepath.Join(ls.photoPath, filename)
		outFile, err = os.OpenFile(fullSavePath, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0644)
		if err == nil || !os.IsExist(err) {
			break
		}
	}
	if err != nil {
		return "", fmt.Errorf("failed to create destination file '%s': %w", fullSavePath, err)
	}

	if _, err = io.Copy(outFile, data); err != nil {
		outFile.Close()
		os.Remove(fullSavePath)
		return "", fmt.Errorf("failed to write data to '%s': %w", fullSavePath, err)
	}
	if err := outFile.Close(); err != nil {
		os.Remove(fullSavePath)
		return "", fmt.Errorf("failed to close '%s': %w", fullSavePath, err)
	}

	log.Printf("media.store: Saved photo to %s", fullSavePath)
	return path.Join(ls.subDir, filename), nil
}

// FullPath only honours the basename of relativePath, so a crafted CSV
// value cannot point outside the photo directory.
func (ls *LocalStorage) FullPath(relativePath string) (string, error) {
	name := path.Base(filepath.ToSlash(strings.TrimSpace(relativePath)))
	if name == "" || name == "." || name == "/" || name == ".." {
		return "", fmt.Errorf("invalid photo path '%s'", relativePath)
	}
	return filepath.Join(ls.photoPath, name), nil
}

func (ls *LocalStorage) Exists(relativePath string) bool {
	fullPath, err := ls.FullPath(relativePath)
	if err != nil {
		return false
	}
	info, err := os.Stat(fullPath)
	return err == nil && info.Mode().IsRegular()
}

// Delete removes a photo file
func (ls *LocalStorage) Delete(relativePath string) error {
	fullPath, err := ls.FullPath(relativePath)
	if err != nil {
		return err
	}

	err = os.Remove(fullPath)
	if err != nil && !os.IsNotExist(err) { // Ignore "not exist" errors
		return fmt.Errorf("failed to delete photo '%s': %w", relativePath, err)
	}
	if err == nil {
		log.Printf("media.store: Deleted photo %s", fullPath)
	}
	return nil
}

func (ls *LocalStorage) TotalSize() (int64, error) {
	var total int64
	err := filepath.WalkDir(ls.photoPath, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			if os.IsNotExist(err) {
				return nil
			}
			return err
		}
		if d.IsDir() {
			return nil
		}
		info, err := d.Info()
		if err != nil {
			// file vanished between listing and stat
			return nil
		}
		total += info.Size()
		return nil
	})
	if err != nil {
		return 0, fmt.Errorf("failed to scan photo directory '%s': %w", ls.photoPath, err)
	}
	return total, nil
}
