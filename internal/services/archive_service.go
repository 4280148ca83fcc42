// internal/services/archive_service.go
package services

import (
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"github.com/mintnprint/backend/internal/models"
)

// ArchiveService records every fulfillment submission for support and
// reconciliation. With no database configured it degrades to logging;
// archiving never blocks or fails the order flow.
type ArchiveService struct {
	db *gorm.DB
}

func NewArchiveService(db *gorm.DB) *ArchiveService {
	return &ArchiveService{db: db}
}

func (s *ArchiveService) Record(archive *models.OrderArchive) {
	if s.db == nil {
		logrus.WithFields(logrus.Fields{
			"session_id":        archive.SessionID,
			"status":            archive.Status,
			"provider_order_id": archive.ProviderOrderID,
		}).Info("order archive (no database configured)")
		return
	}

	if err := s.db.Create(archive).Error; err != nil {
		logrus.WithError(err).Error("failed to write order archive")
	}
}
