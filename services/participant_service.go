package services

import (
	"errors"
	"fmt"
	"strings"
	"time"

	log "github.com/sirupsen/logrus"

	"github.com/camden-git/checkinkiosk/media"
	"github.com/camden-git/checkinkiosk/models"
	"github.com/camden-git/checkinkiosk/nfc"
	"github.com/camden-git/checkinkiosk/realtime"
	"github.com/camden-git/checkinkiosk/repository"
)

// ValidationError carries a message safe to show the operator.
type ValidationError struct {
	Message string
	Err     error
}

func (e *ValidationError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *ValidationError) Unwrap() error {
	return e.Err
}

func invalid(msg string, err error) error {
	return &ValidationError{Message: msg, Err: err}
}

// EventPublisher pushes realtime events to connected browsers.
type EventPublisher interface {
	Broadcast(event realtime.Event)
}

type nopPublisher struct{}

func (nopPublisher) Broadcast(realtime.Event) {}

// ParticipantService implements registration and maintenance of participants
// on top of the CSV repository and the photo store.
type ParticipantService struct {
	repo      repository.ParticipantRepository
	photos    media.Store
	processor *media.Processor
	events    EventPublisher
	now       func() time.Time
}

func NewParticipantService(
	repo repository.ParticipantRepository,
	photos media.Store,
	processor *media.Processor,
	events EventPublisher,
) *ParticipantService {
	if events == nil {
		events = nopPublisher{}
	}
	return &ParticipantService{
		repo:      repo,
		photos:    photos,
		processor: processor,
		events:    events,
		now:       time.Now,
	}
}

// SetClock overrides the time source used for photo names.
func (s *ParticipantService) SetClock(now func() time.Time) {
	s.now = now
}

type RegisterInput struct {
	UID   string
	Name  string
	Photo string // base64 image data URL
}

// NormalizeUID trims and upper-cases a UID as read from the reader.
func NormalizeUID(uid string) string {
	return strings.ToUpper(strings.TrimSpace(uid))
}

// Register stores the photo and upserts the participant. A previous photo
// of the same UID is removed once the new row is written.
func (s *ParticipantService) Register(in RegisterInput) (models.Participant, error) {
	uid := NormalizeUID(in.UID)
	name := strings.TrimSpace(in.Name)

	if uid == "" {
		return models.Participant{}, invalid("UID belum diterima dari tap.", nil)
	}
	if !nfc.IsValidUID(uid) {
		return models.Participant{}, invalid("UID tidak valid.", nil)
	}
	if name == "" {
		return models.Participant{}, invalid("Nama kosong.", nil)
	}
	if !media.IsImageDataURL(in.Photo) {
		return models.Participant{}, invalid("Foto tidak valid.", nil)
	}
	raw, err := media.DecodeDataURL(in.Photo)
	if err != nil {
		return models.Participant{}, invalid("Decode foto gagal.", err)
	}

	photo, err := s.processor.SavePhoto(name, raw, s.now())
	if err != nil {
		if errors.Is(err, media.ErrUndecodableImage) {
			return models.Participant{}, invalid("Decode foto gagal.", err)
		}
		return models.Participant{}, err
	}

	p := models.Participant{UID: uid, Name: name, Photo: photo}
	previous, err := s.repo.Replace(p)
	if err != nil {
		s.deletePhoto(photo)
		return models.Participant{}, fmt.Errorf("failed to save participant %s: %w", uid, err)
	}
	s.dropReplacedPhoto(previous, photo)

	log.Printf("services: Registered participant %s (%s)", uid, name)
	s.events.Broadcast(realtime.NewParticipantEvent(realtime.EventParticipantRegistered, p))
	return p, nil
}

// Upsert stores an already saved photo reference, used by the attendant CLI.
// The replaced row's photo is removed like in Register.
func (s *ParticipantService) Upsert(p models.Participant) error {
	p.UID = NormalizeUID(p.UID)
	previous, err := s.repo.Replace(p)
	if err != nil {
		return err
	}
	s.dropReplacedPhoto(previous, p.Photo)
	s.events.Broadcast(realtime.NewParticipantEvent(realtime.EventParticipantRegistered, p))
	return nil
}

func (s *ParticipantService) Get(uid string) (*models.Participant, error) {
	return s.repo.FindByUID(strings.TrimSpace(uid))
}

func (s *ParticipantService) List(query string) ([]models.Participant, error) {
	return s.repo.List(query)
}

func (s *ParticipantService) All() ([]models.Participant, error) {
	return s.repo.All()
}

type UpdateInput struct {
	Name         string
	PhotoDataURL string
}

// Update replaces the name when a non-empty one is given and swaps in a new
// photo when an image data URL is given. The old photo file is deleted only
// after the CSV rewrite succeeded.
func (s *ParticipantService) Update(uid string, in UpdateInput) (models.Participant, error) {
	uid = strings.TrimSpace(uid)
	name := strings.TrimSpace(in.Name)

	var newPhoto, oldPhoto string
	updated, err := s.repo.Update(uid, func(p *models.Participant) error {
		if name != "" {
			p.Name = name
		}
		if !media.IsImageDataURL(in.PhotoDataURL) {
			return nil
		}
		raw, err := media.DecodeDataURL(in.PhotoDataURL)
		if err != nil {
			return invalid("Foto baru gagal diproses.", err)
		}
		rel, err := s.processor.SavePhoto(p.Name, raw, s.now())
		if err != nil {
			if errors.Is(err, media.ErrUndecodableImage) {
				return invalid("Foto baru gagal diproses.", err)
			}
			return err
		}
		newPhoto = rel
		oldPhoto = p.Photo
		p.Photo = rel
		return nil
	})
	if err != nil {
		if newPhoto != "" && newPhoto != oldPhoto {
			s.deletePhoto(newPhoto)
		}
		return models.Participant{}, err
	}

	if oldPhoto != "" && oldPhoto != newPhoto {
		s.deletePhoto(oldPhoto)
	}

	s.events.Broadcast(realtime.NewParticipantEvent(realtime.EventParticipantUpdated, updated))
	return updated, nil
}

// Delete removes the participant and, when cascadePhoto is set, its photo.
func (s *ParticipantService) Delete(uid string, cascadePhoto bool) (models.Participant, error) {
	removed, err := s.repo.Delete(strings.TrimSpace(uid))
	if err != nil {
		return models.Participant{}, err
	}
	if cascadePhoto && strings.TrimSpace(removed.Photo) != "" {
		s.deletePhoto(removed.Photo)
	}
	s.events.Broadcast(realtime.NewParticipantEvent(realtime.EventParticipantDeleted, removed))
	return removed, nil
}

func (s *ParticipantService) dropReplacedPhoto(previous *models.Participant, current string) {
	if previous == nil || strings.TrimSpace(previous.Photo) == "" || previous.Photo == current {
		return
	}
	s.deletePhoto(previous.Photo)
}

// deletePhoto is best-effort; failures never reach the caller.
func (s *ParticipantService) deletePhoto(rel string) {
	if err := s.photos.Delete(rel); err != nil {
		log.Warnf("services: Failed to delete photo %s: %v", rel, err)
	}
}
