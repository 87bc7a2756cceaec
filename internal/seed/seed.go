package seed

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/shiftline-hq/shiftline/backend/internal/config"
	"github.com/shiftline-hq/shiftline/backend/internal/domain"
	"github.com/shiftline-hq/shiftline/backend/internal/repository"
	"github.com/shiftline-hq/shiftline/backend/internal/scheduling"
	"golang.org/x/crypto/bcrypt"
)

type seedUser struct {
	username string
	fullName string
	role     domain.MembershipRole
}

var seedUsers = []seedUser{
	{"olivia.owner", "Olivia Owner", domain.RoleOwner},
	{"mark.manager", "Mark Manager", domain.RoleManager},
	{"amy.admin", "Amy Admin", domain.RoleAdmin},
	{"sam.staff", "Sam Staff", domain.RoleMember},
	{"nina.staff", "Nina Staff", domain.RoleMember},
	{"leo.staff", "Leo Staff", domain.RoleMember},
}

// Run populates a demo organization: accounts with every role, two shift
// templates, and a week of shifts expanded from them with the first days
// published and partly assigned. Running it twice reuses existing accounts
// but always inserts fresh shifts.
func Run(ctx context.Context, cfg *config.Config, repo *repository.Repository) error {
	org := &domain.Organization{
		Slug:     "demo",
		Name:     "Demo Coffee Roasters",
		Timezone: "UTC",
	}
	if err := repo.CreateOrganization(ctx, org); err != nil {
		pgErr := &pgconn.PgError{}
		if !errors.As(err, &pgErr) || pgErr.ConstraintName != "organizations_slug_key" {
			return fmt.Errorf("create organization: %w", err)
		}
		org, err = repo.GetOrganizationBySlug(ctx, "demo")
		if err != nil {
			return fmt.Errorf("load organization: %w", err)
		}
	}

	passwordHash, err := bcrypt.GenerateFromPassword([]byte(cfg.Seed.User.Password), bcrypt.DefaultCost)
	if err != nil {
		return fmt.Errorf("hash seed password: %w", err)
	}

	users := make([]*domain.User, 0, len(seedUsers))
	for _, su := range seedUsers {
		user := &domain.User{
			Username:     su.username,
			PasswordHash: string(passwordHash),
			FullName:     su.fullName,
			Email:        su.username + "@example.com",
		}
		if err := repo.CreateUser(ctx, user); err != nil {
			pgErr := &pgconn.PgError{}
			if !errors.As(err, &pgErr) || pgErr.ConstraintName != "users_username_key" {
				return fmt.Errorf("create user %s: %w", su.username, err)
			}
			user, err = repo.GetUserByUsername(ctx, su.username)
			if err != nil {
				return fmt.Errorf("load user %s: %w", su.username, err)
			}
		}

		m := &domain.Membership{OrganizationID: org.ID, UserID: user.ID, Role: su.role}
		if err := repo.AddMembership(ctx, m); err != nil {
			pgErr := &pgconn.PgError{}
			if !errors.As(err, &pgErr) || pgErr.ConstraintName != "memberships_pkey" {
				return fmt.Errorf("add membership for %s: %w", su.username, err)
			}
		}

		users = append(users, user)
	}

	location := int64(1)
	templates := []*domain.ShiftTemplate{
		{
			OrganizationID:    org.ID,
			Name:              "Morning",
			StartTime:         "08:00",
			EndTime:           "16:00",
			BreakMinutes:      30,
			DefaultLocationID: &location,
			Color:             "#4f9dde",
			IsActive:          true,
		},
		{
			OrganizationID:    org.ID,
			Name:              "Evening",
			StartTime:         "16:00",
			EndTime:           "23:30",
			BreakMinutes:      30,
			DefaultLocationID: &location,
			Color:             "#de8f4f",
			IsActive:          true,
		},
	}
	for _, tpl := range templates {
		if err := repo.CreateShiftTemplate(ctx, tpl); err != nil {
			return fmt.Errorf("create template %s: %w", tpl.Name, err)
		}
	}

	owner := users[0]
	staff := users[3:]

	// A week of shifts starting next Monday, both templates every day. The
	// first three days are published, with staff rotated over the slots.
	now := time.Now().UTC()
	daysUntilMonday := (8 - int(now.Weekday())) % 7
	if daysUntilMonday == 0 {
		daysUntilMonday = 7
	}
	monday := now.AddDate(0, 0, daysUntilMonday)

	slot := 0
	for day := 0; day < 7; day++ {
		date := monday.AddDate(0, 0, day).Format("2006-01-02")
		for _, tpl := range templates {
			shift, err := scheduling.ExpandTemplate(tpl, date, owner.ID, scheduling.ExpandOptions{})
			if err != nil {
				return fmt.Errorf("expand template %s for %s: %w", tpl.Name, date, err)
			}
			if err := repo.CreateShift(ctx, shift); err != nil {
				return fmt.Errorf("create shift: %w", err)
			}

			if day < 3 {
				if _, err := repo.PublishShift(ctx, org.ID, shift.ID); err != nil {
					return fmt.Errorf("publish shift: %w", err)
				}
				// Leave every third slot open so claiming can be exercised.
				if slot%3 != 2 {
					assignee := staff[slot%len(staff)]
					if _, err := repo.SetAssignee(ctx, org.ID, shift.ID, &assignee.ID); err != nil {
						return fmt.Errorf("assign shift: %w", err)
					}
				}
			}
			slot++
		}
	}

	slog.Info("seeded demo organization", "slug", org.Slug, "users", len(users), "templates", len(templates))
	return nil
}
