package services

import (
	"errors"

	"gorm.io/gorm"

	"github.com/seeall/facturation/internal/models"
	"github.com/seeall/facturation/internal/validation"
)

// ClientService owns client persistence and the referential guard
// protecting clients referenced by documents.
type ClientService struct{ DB *gorm.DB }

func NewClientService(db *gorm.DB) *ClientService { return &ClientService{DB: db} }

// List returns all clients ordered by name.
func (s *ClientService) List() ([]models.Client, error) {
	var clients []models.Client
	if err := s.DB.Order("name").Find(&clients).Error; err != nil {
		return nil, storageErr("list clients", err)
	}
	return clients, nil
}

// Get returns a single client by id.
func (s *ClientService) Get(id uint) (*models.Client, error) {
	var client models.Client
	if err := s.DB.First(&client, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, storageErr("get client", err)
	}
	return &client, nil
}

// Save creates the client if it has no id yet, updates it otherwise, and
// returns the id.
func (s *ClientService) Save(client *models.Client) (uint, error) {
	v := validation.Violations{}
	validation.Required("name", client.Name, v)
	if !v.Empty() {
		return 0, &ValidationError{Violations: v}
	}
	if err := s.DB.Save(client).Error; err != nil {
		return 0, storageErr("save client", err)
	}
	return client.ID, nil
}

// Delete removes a client. It is blocked while any document of either
// kind references the client; the conflict carries the blocking count.
func (s *ClientService) Delete(id uint) error {
	return s.DB.Transaction(func(tx *gorm.DB) error {
		var client models.Client
		if err := tx.First(&client, id).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrNotFound
			}
			return storageErr("delete client", err)
		}
		var count int64
		if err := tx.Model(&models.Document{}).Where("client_id = ?", id).Count(&count).Error; err != nil {
			return storageErr("delete client", err)
		}
		if count > 0 {
			return &ConflictError{Code: "client_has_documents", BlockingCount: int(count)}
		}
		if err := tx.Delete(&models.Client{}, id).Error; err != nil {
			return storageErr("delete client", err)
		}
		return nil
	})
}

// DocumentCount reports how many documents of either kind reference the
// client.
func (s *ClientService) DocumentCount(id uint) (int64, error) {
	var count int64
	if err := s.DB.Model(&models.Document{}).Where("client_id = ?", id).Count(&count).Error; err != nil {
		return 0, storageErr("count documents", err)
	}
	return count, nil
}
