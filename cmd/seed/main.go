// Command seed loads demo accounts, one or two per role, into the configured store.
// Existing emails are skipped so it can be run repeatedly.
package main

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"time"

	"github.com/geocoder89/medid/internal/app"
	"github.com/geocoder89/medid/internal/config"
	"github.com/geocoder89/medid/internal/domain/account"
	"github.com/geocoder89/medid/internal/observability"
)

const demoPassword = "Password123"

func str(s string) *string { return &s }

func demoAccounts() []account.NewAccount {
	return []account.NewAccount{
		{
			Email: "admin@test.com", Role: account.RoleAdmin,
			FirstName: "Admin", LastName: "Système", Phone: str("+331-234-56789"),
		},
		{
			Email: "patient@test.com", Role: account.RolePatient,
			FirstName: "Jean", LastName: "Dupont", Phone: str("+331-234-56790"),
			Attributes: account.RoleAttributes{
				DateOfBirth: str("1985-06-15"),
				Address:     str("123 Rue de la Santé, 75001 Paris"),
			},
		},
		{
			Email: "hopital@test.com", Role: account.RoleHospital,
			FirstName: "Dr. Marie", LastName: "Martin", Phone: str("+331-234-56791"),
			Attributes: account.RoleAttributes{
				HospitalName:    str("Centre Hospitalier Universitaire"),
				HospitalAddress: str("456 Avenue des Soins, 75002 Paris"),
				LicenseNumber:   str("HOP-2024-001"),
			},
		},
		{
			Email: "labo@test.com", Role: account.RoleLab,
			FirstName: "Dr. Pierre", LastName: "Durand", Phone: str("+331-234-56792"),
			Attributes: account.RoleAttributes{
				LabName:    str("Laboratoire d'Analyses Médicales BioTech"),
				LabAddress: str("789 Boulevard des Analyses, 75003 Paris"),
				LabLicense: str("LAB-2024-001"),
			},
		},
		{
			Email: "patient2@test.com", Role: account.RolePatient,
			FirstName: "Sophie", LastName: "Bernard", Phone: str("+331-234-56793"),
			Attributes: account.RoleAttributes{
				DateOfBirth: str("1990-03-22"),
				Address:     str("321 Rue de la Paix, 75004 Paris"),
			},
		},
		{
			Email: "hopital2@test.com", Role: account.RoleHospital,
			FirstName: "Dr. Claire", LastName: "Moreau", Phone: str("+331-234-56794"),
			Attributes: account.RoleAttributes{
				HospitalName:    str("Hôpital Saint-Antoine"),
				HospitalAddress: str("654 Place de la Médecine, 75005 Paris"),
				LicenseNumber:   str("HOP-2024-002"),
			},
		},
		{
			Email: "labo2@test.com", Role: account.RoleLab,
			FirstName: "Dr. Michel", LastName: "Leroy", Phone: str("+331-234-56795"),
			Attributes: account.RoleAttributes{
				LabName:    str("Laboratoire Central d'Analyses"),
				LabAddress: str("987 Rue des Sciences, 75006 Paris"),
				LabLicense: str("LAB-2024-002"),
			},
		},
	}
}

func main() {
	os.Exit(run())
}

func run() int {
	cfg := config.Load()
	log := observability.NewLogger(cfg.Env)

	ctx, cancel := config.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	a, err := app.New(ctx, cfg, log)
	if err != nil {
		log.Error("startup failed", "err", err)
		return 1
	}
	defer a.Close()

	created, skipped, err := seed(ctx, a.Service, log)
	if err != nil {
		return 1
	}

	log.Info("seeding complete", "created", created, "skipped", skipped, "password", demoPassword)
	return 0
}

// AccountCreator is the slice of the identity service the seeder needs.
type AccountCreator interface {
	AdminCreateAccount(ctx context.Context, in account.NewAccount) (account.Account, error)
}

func seed(ctx context.Context, svc AccountCreator, log *slog.Logger) (created, skipped int, err error) {
	for _, in := range demoAccounts() {
		in.Password = demoPassword

		acc, err := svc.AdminCreateAccount(ctx, in)
		switch {
		case errors.Is(err, account.ErrDuplicateEmail):
			skipped++
			log.Info("account exists, skipped", "email", in.Email)
		case err != nil:
			log.Error("seed failed", "email", in.Email, "err", err)
			return created, skipped, err
		default:
			created++
			log.Info("account created", "email", acc.Email, "role", string(acc.Role()))
		}
	}
	return created, skipped, nil
}
