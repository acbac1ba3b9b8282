package persistence

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"

	"github.com/spec-kit/campus-support/internal/auth"
	"github.com/spec-kit/campus-support/internal/domain"
	"github.com/spec-kit/campus-support/internal/repository"
)

var defaultDepartments = []domain.Department{
	{Name: "Bilgi Islem", Description: "Teknik destek ve altyapi"},
	{Name: "Yapi Isleri", Description: "Kampus bakim ve fiziksel sorunlar"},
	{Name: "Ogrenci Isleri", Description: "Akademik ve idari islemler"},
}

// Seed provisions the default departments and the agent bot user. Guarded
// by existence checks, safe to re-run at every startup.
func Seed(ctx context.Context, departments repository.DepartmentRepository, users repository.UserRepository, bcryptCost int, logger *zap.Logger) error {
	for _, dept := range defaultDepartments {
		_, err := departments.GetByName(ctx, dept.Name)
		if err == nil {
			continue
		}
		if !errors.Is(err, pgx.ErrNoRows) {
			return err
		}
		created := dept
		if err := departments.Create(ctx, &created); err != nil {
			return err
		}
		logger.Info("seeded department", zap.String("name", created.Name))
	}

	_, err := users.GetByEmail(ctx, domain.BotEmail)
	if err == nil {
		return nil
	}
	if !errors.Is(err, pgx.ErrNoRows) {
		return err
	}

	hash, err := auth.HashPassword("agent-system", bcryptCost)
	if err != nil {
		return err
	}
	bot := &domain.User{
		Email:        domain.BotEmail,
		FullName:     "Agent Bot",
		PasswordHash: hash,
		Role:         domain.RoleAdmin,
		IsActive:     true,
	}
	if err := users.Create(ctx, bot); err != nil {
		return err
	}
	logger.Info("seeded agent bot user", zap.Int64("user_id", bot.ID))
	return nil
}
