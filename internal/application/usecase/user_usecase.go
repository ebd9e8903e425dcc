package usecase

import (
	"context"

	"github.com/jhoicas/Licencias-api/internal/application/access"
	"github.com/jhoicas/Licencias-api/internal/application/dto"
	"github.com/jhoicas/Licencias-api/internal/domain"
	"github.com/jhoicas/Licencias-api/internal/domain/entity"
	"github.com/jhoicas/Licencias-api/internal/domain/repository"
)

// UserUseCase consultas de usuarios del back-office.
type UserUseCase struct {
	repo       repository.UserRepository
	authorizer *access.Authorizer
}

// NewUserUseCase construye el caso de uso con el puerto de persistencia.
func NewUserUseCase(repo repository.UserRepository, authorizer *access.Authorizer) *UserUseCase {
	return &UserUseCase{repo: repo, authorizer: authorizer}
}

// GetByID obtiene un usuario visible para el actor.
func (uc *UserUseCase) GetByID(ctx context.Context, actor entity.Actor, id string) (*dto.UserResponse, error) {
	user, err := uc.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, domain.ErrUserNotFound
	}
	if err := uc.authorizer.CanAccessCompany(ctx, actor, user.CompanyID); err != nil {
		return nil, err
	}
	return entityToUserResponse(user), nil
}

// ListByCompany usuarios de una empresa.
func (uc *UserUseCase) ListByCompany(ctx context.Context, actor entity.Actor, companyID string, limit, offset int) ([]dto.UserResponse, error) {
	if err := uc.authorizer.CanAccessCompany(ctx, actor, companyID); err != nil {
		return nil, err
	}
	list, err := uc.repo.ListByCompany(ctx, companyID, limit, offset)
	if err != nil {
		return nil, err
	}
	out := make([]dto.UserResponse, 0, len(list))
	for _, u := range list {
		out = append(out, *entityToUserResponse(u))
	}
	return out, nil
}

func entityToUserResponse(u *entity.User) *dto.UserResponse {
	if u == nil {
		return nil
	}
	return &dto.UserResponse{
		ID:        u.ID,
		CompanyID: u.CompanyID,
		Email:     u.Email,
		Name:      u.Name,
		Role:      u.Role,
		Status:    u.Status,
		CreatedAt: u.CreatedAt,
		UpdatedAt: u.UpdatedAt,
	}
}
