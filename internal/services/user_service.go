package services

import (
	"context"
	"errors"
	"fmt"

	"shopledger/internal/core"
	ports "shopledger/internal/gateway"
	"shopledger/internal/log"
)

// ErrSelfDelete is returned, without any request being sent, when an admin
// tries to delete their own account.
var ErrSelfDelete = errors.New("cannot delete your own account")

// UserService handles the admin user page: listing, adding and deleting
// accounts. Debt edits go through DebtService, not here.
type UserService struct {
	auth   ports.Authenticator
	users  ports.UserDirectory
	logger *log.Logger
}

func NewUserService(backend ports.Backend, logger *log.Logger) *UserService {
	return &UserService{
		auth:   backend,
		users:  backend,
		logger: logger.WithComponent(log.ComponentSession),
	}
}

func (s *UserService) Users(ctx context.Context) ([]core.User, error) {
	users, err := s.users.Users(ctx)
	if err != nil {
		return nil, fmt.Errorf("list users: %w", err)
	}
	return users, nil
}

// Add registers a new account. Field validation happens before the request.
func (s *UserService) Add(ctx context.Context, input ports.NewUser) error {
	role := input.Role
	if role == "" {
		role = core.RoleUser
		input.Role = role
	}
	u := core.User{Username: input.Username, Email: input.Email, Role: role}
	if err := u.Validate(); err != nil {
		return err
	}
	if input.Password == "" {
		return core.ErrEmptyPassword
	}
	if err := s.auth.Register(ctx, input); err != nil {
		return fmt.Errorf("register user: %w", err)
	}
	s.logger.InfoContext(ctx, "user registered",
		log.FieldOperation, log.OpCreate,
		log.FieldUsername, input.Username,
		log.FieldRole, string(role))
	return nil
}

// Delete removes an account. Deleting the session's own account is refused
// locally; nothing reaches the server.
func (s *UserService) Delete(ctx context.Context, targetID, sessionUserID string, confirmed bool) error {
	if targetID == sessionUserID {
		return ErrSelfDelete
	}
	if !confirmed {
		return ErrConfirmationRequired
	}
	if err := s.users.DeleteUser(ctx, targetID); err != nil {
		return fmt.Errorf("delete user: %w", err)
	}
	s.logger.InfoContext(ctx, "user deleted",
		log.FieldOperation, log.OpDelete,
		log.FieldUserID, targetID)
	return nil
}
