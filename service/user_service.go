package service

import (
	"context"
	"fmt"
	"strings"

	"sicbo/config"
	"sicbo/events"
	"sicbo/models"

	log "github.com/sirupsen/logrus"
)

// userService implements the UserService interface
type userService struct {
	uowFactory UnitOfWorkFactory
	serializer *Serializer
}

// NewUserService creates a new user service
func NewUserService(uowFactory UnitOfWorkFactory, serializer *Serializer) UserService {
	return &userService{
		uowFactory: uowFactory,
		serializer: serializer,
	}
}

// Register returns the user, creating the account on first contact. The first account
// ever created becomes the super admin; IDs listed in ADMIN_DISCORD_IDS become admins.
func (s *userService) Register(ctx context.Context, discordID int64, username string) (*models.User, bool, error) {
	var user *models.User
	created := false
	err := s.serializer.Do(ctx, func(ctx context.Context) error {
		uow := s.uowFactory.Create()
		if err := uow.Begin(ctx); err != nil {
			return fmt.Errorf("failed to begin transaction: %w", err)
		}
		defer uow.Rollback()

		var err error
		user, err = uow.UserRepository().GetByDiscordID(ctx, discordID)
		if err != nil {
			return fmt.Errorf("failed to check existing user: %w", err)
		}
		if user != nil {
			if username != "" && user.Username != username {
				if err := uow.UserRepository().UpdateUsername(ctx, discordID, username); err != nil {
					return err
				}
				user.Username = username
				return uow.Commit()
			}
			return nil
		}

		count, err := uow.UserRepository().Count(ctx)
		if err != nil {
			return err
		}

		cfg := config.Get()
		role := models.RoleNone
		switch {
		case count == 0:
			role = models.RoleSuperAdmin
		case cfg.IsAdminID(discordID):
			role = models.RoleAdmin
		}

		user, err = uow.UserRepository().Create(ctx, discordID, username, role)
		if err != nil {
			return fmt.Errorf("failed to create user: %w", err)
		}

		if cfg.StartingBalance > 0 {
			metadata := map[string]any{"reason": "starting_balance"}
			if _, err := credit(ctx, uow, user, cfg.StartingBalance, models.TransactionTypeRecharge,
				models.SystemActorID, nil, "", metadata); err != nil {
				return fmt.Errorf("failed to record starting balance: %w", err)
			}
		}

		uow.EventBus().Publish(events.UserRegisteredEvent{
			DiscordID:      discordID,
			Username:       username,
			Role:           role,
			InitialBalance: user.Balance,
		})

		created = true
		return uow.Commit()
	})
	if err != nil {
		return nil, false, err
	}

	if created {
		log.WithFields(log.Fields{
			"user":     discordID,
			"username": username,
			"role":     user.Role,
		}).Info("User registered")
	}
	return user, created, nil
}

// GetUser returns a registered user or ErrUnregistered
func (s *userService) GetUser(ctx context.Context, discordID int64) (*models.User, error) {
	uow := s.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer uow.Rollback()

	user, err := uow.UserRepository().GetByDiscordID(ctx, discordID)
	if err != nil {
		return nil, fmt.Errorf("failed to get user: %w", err)
	}
	if user == nil {
		return nil, ErrUnregistered
	}
	return user, nil
}

// SetRole grants or revokes the admin role by username
func (s *userService) SetRole(ctx context.Context, actorID int64, username string, role models.Role) (*models.User, error) {
	if role == models.RoleSuperAdmin {
		return nil, fmt.Errorf("%w: the super admin role cannot be granted", ErrInvalidSetting)
	}
	username = strings.TrimPrefix(strings.TrimSpace(username), "@")

	var target *models.User
	err := s.serializer.Do(ctx, func(ctx context.Context) error {
		uow := s.uowFactory.Create()
		if err := uow.Begin(ctx); err != nil {
			return fmt.Errorf("failed to begin transaction: %w", err)
		}
		defer uow.Rollback()

		if err := requireRole(ctx, uow, actorID, models.RoleSuperAdmin); err != nil {
			return err
		}

		var err error
		target, err = uow.UserRepository().GetByUsername(ctx, username)
		if err != nil {
			return fmt.Errorf("failed to find user: %w", err)
		}
		if target == nil {
			return fmt.Errorf("%w: %s", ErrUserNotFound, username)
		}
		if target.IsSuperAdmin() {
			return fmt.Errorf("%w: the super admin role cannot be changed", ErrNotAuthorized)
		}

		if err := uow.UserRepository().SetRole(ctx, target.DiscordID, role); err != nil {
			return err
		}
		target.Role = role
		return uow.Commit()
	})
	if err != nil {
		return nil, err
	}

	log.WithFields(log.Fields{
		"actor":  actorID,
		"target": target.DiscordID,
		"role":   role,
	}).Info("User role changed")
	return target, nil
}

// requireRole fails unless the actor holds at least the given role
func requireRole(ctx context.Context, uow UnitOfWork, actorID int64, role models.Role) error {
	actor, err := uow.UserRepository().GetByDiscordID(ctx, actorID)
	if err != nil {
		return fmt.Errorf("failed to get actor: %w", err)
	}
	if actor == nil {
		return ErrUnregistered
	}

	allowed := actor.IsAdmin()
	if role == models.RoleSuperAdmin {
		allowed = actor.IsSuperAdmin()
	}
	if !allowed {
		return ErrNotAuthorized
	}
	return nil
}
