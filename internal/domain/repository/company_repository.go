package repository

import (
	"context"

	"github.com/jhoicas/Fiskalizacija-api/internal/domain/entity"
)

// CompanyRepository define el puerto de lectura del perfil fiscal del emisor.
// La implementación vive en infrastructure.
type CompanyRepository interface {
	GetByID(ctx context.Context, id string) (*entity.Company, error)
}
