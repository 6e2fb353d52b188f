package filestorage

import (
	"context"
	"fmt"

	"github.com/saransh1220/qrdrop/internal/modules/filestorage/application"
	"github.com/saransh1220/qrdrop/internal/modules/filestorage/domain"
	"github.com/saransh1220/qrdrop/internal/modules/filestorage/infrastructure/local"
	"github.com/saransh1220/qrdrop/internal/modules/filestorage/infrastructure/s3"
	"github.com/saransh1220/qrdrop/internal/shared/infrastructure/config"
)

// Module represents the FileStorage module
type Module struct {
	service *application.FileService
	storage domain.FileStorage
}

// NewModule creates and initializes the FileStorage module
func NewModule(ctx context.Context, cfg config.FileStorageConfig) (*Module, error) {
	var storage domain.FileStorage
	var err error

	if cfg.UseS3 {
		s3Cfg := s3.S3Config{
			BucketName: cfg.S3BucketName,
			Region:     cfg.S3Region,
			Endpoint:   cfg.S3Endpoint,
			AccessKey:  cfg.S3AccessKey,
			SecretKey:  cfg.S3SecretKey,
			UseSSL:     cfg.S3UseSSL,
			Prefix:     cfg.S3Prefix,
		}
		storage, err = s3.NewS3Storage(ctx, s3Cfg)
		if err != nil {
			return nil, fmt.Errorf("failed to initialize S3 storage: %w", err)
		}
	} else {
		storage, err = local.NewLocalStorage(cfg.LocalPath)
		if err != nil {
			return nil, fmt.Errorf("failed to initialize local storage: %w", err)
		}
	}

	return &Module{
		service: application.NewFileService(storage),
		storage: storage,
	}, nil
}

// Service returns the file service for use by other modules
func (m *Module) Service() *application.FileService {
	return m.service
}
