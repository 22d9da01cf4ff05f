package db

import (
	"context"
	"errors"
	"log/slog"

	"github.com/geocoder89/medid/internal/config"
	"github.com/geocoder89/medid/internal/domain/account"
)

// AdminCreator is the part of the identity service the seed needs.
type AdminCreator interface {
	AdminCreateAccount(ctx context.Context, in account.NewAccount) (account.Account, error)
}

// EnsureAdminUser creates the bootstrap administrator from config when it does not exist yet.
// It is a no-op when ADMIN_EMAIL or ADMIN_PASSWORD is unset.
func EnsureAdminUser(ctx context.Context, svc AdminCreator, cfg config.Config, log *slog.Logger) error {
	if cfg.AdminEmail == "" || cfg.AdminPassword == "" {
		return nil
	}

	a, err := svc.AdminCreateAccount(ctx, account.NewAccount{
		Email:     cfg.AdminEmail,
		Password:  cfg.AdminPassword,
		Role:      account.RoleAdmin,
		FirstName: cfg.AdminFirstName,
		LastName:  cfg.AdminLastName,
	})

	if errors.Is(err, account.ErrDuplicateEmail) {
		return nil
	}

	if err != nil {
		return err
	}

	log.Info("bootstrap admin created", "id", a.ID, "email", a.Email)
	return nil
}
