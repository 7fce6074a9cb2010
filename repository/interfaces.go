package repository

import (
	"github.com/camden-git/checkinkiosk/models"
)

// ParticipantRepository defines the methods for participant data operations
type ParticipantRepository interface {
	Upsert(p models.Participant) error
	Replace(p models.Participant) (*models.Participant, error)
	FindByUID(uid string) (*models.Participant, error)
	All() ([]models.Participant, error)
	List(query string) ([]models.Participant, error)
	Update(uid string, fn func(p *models.Participant) error) (models.Participant, error)
	Delete(uid string) (models.Participant, error)
}

var _ ParticipantRepository = (*CSVParticipantRepository)(nil)
