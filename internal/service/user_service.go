package service

import (
	"context"
	"time"

	"go.uber.org/zap"

	"nest/backend/internal/dto"
	"nest/backend/internal/model"
	"nest/backend/internal/repository"
)

// UserService handles profile reads and the admin user-management
// operations. Role and status changes are guarded twice: here against
// self-modification, and inside the repository transaction against
// removing the last active admin.
type UserService struct {
	users     repository.UserRepository
	notifier  *notifier
	publisher ChangePublisher
	logger    *zap.Logger
}

// NewUserService creates the user service.
func NewUserService(users repository.UserRepository, n *notifier, publisher ChangePublisher, logger *zap.Logger) *UserService {
	return &UserService{users: users, notifier: n, publisher: publisher, logger: logger}
}

// List returns a filtered, paginated user page.
func (s *UserService) List(ctx context.Context, req *dto.ListUsersRequest) ([]dto.UserResponse, int64, error) {
	users, total, err := s.users.List(ctx, req.Search, req.Role, req.Status, req.GetOffset(), req.GetPageSize())
	if err != nil {
		return nil, 0, err
	}
	out := make([]dto.UserResponse, len(users))
	for i := range users {
		out[i] = toUserResponse(&users[i])
	}
	return out, total, nil
}

// Get returns one profile.
func (s *UserService) Get(ctx context.Context, id string) (*dto.UserResponse, error) {
	user, err := s.users.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	resp := toUserResponse(user)
	return &resp, nil
}

// Update edits profile fields.
func (s *UserService) Update(ctx context.Context, id string, req *dto.UpdateUserRequest) (*dto.UserResponse, error) {
	user, err := s.users.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if req.FullName != "" {
		user.FullName = req.FullName
	}
	if req.Department != "" {
		user.Department = req.Department
	}
	if req.Phone != "" {
		user.Phone = req.Phone
	}
	if err := s.users.Update(ctx, user); err != nil {
		return nil, err
	}

	s.publisher.Publish("profiles", "UPDATE", user.UserID)
	resp := toUserResponse(user)
	return &resp, nil
}

// SetRole promotes or demotes a user. Admins cannot change their own role.
func (s *UserService) SetRole(ctx context.Context, actorID, targetID, role string) (*dto.UserResponse, error) {
	if actorID == targetID {
		return nil, ErrSelfAction
	}
	if err := s.users.SetRole(ctx, targetID, role); err != nil {
		return nil, err
	}
	user, err := s.users.GetByID(ctx, targetID)
	if err != nil {
		return nil, err
	}

	s.publisher.Publish("profiles", "UPDATE", targetID)
	s.notifier.send(ctx, notice{
		user:    user,
		ntype:   model.NotificationTypeAccountChanged,
		title:   "Your role was updated",
		message: "Your account role is now " + role + ".",
		email:   true,
	})
	s.logger.Info("role changed",
		zap.String("actor", actorID),
		zap.String("target", targetID),
		zap.String("role", role))

	resp := toUserResponse(user)
	return &resp, nil
}

// SetStatus suspends or reactivates a user. Admins cannot suspend
// themselves.
func (s *UserService) SetStatus(ctx context.Context, actorID, targetID, status string) (*dto.UserResponse, error) {
	if actorID == targetID {
		return nil, ErrSelfAction
	}
	if err := s.users.SetStatus(ctx, targetID, status); err != nil {
		return nil, err
	}
	user, err := s.users.GetByID(ctx, targetID)
	if err != nil {
		return nil, err
	}

	s.publisher.Publish("profiles", "UPDATE", targetID)
	s.notifier.send(ctx, notice{
		user:    user,
		ntype:   model.NotificationTypeAccountChanged,
		title:   "Your account status was updated",
		message: "Your account is now " + status + ".",
		email:   true,
	})

	resp := toUserResponse(user)
	return &resp, nil
}

// Delete soft-deletes a user. Admins cannot delete themselves and the
// repository refuses to delete the last active admin.
func (s *UserService) Delete(ctx context.Context, actorID, targetID string) error {
	if actorID == targetID {
		return ErrSelfAction
	}
	if err := s.users.Delete(ctx, targetID); err != nil {
		return err
	}
	s.publisher.Publish("profiles", "DELETE", targetID)
	s.logger.Info("user deleted",
		zap.String("actor", actorID),
		zap.String("target", targetID))
	return nil
}

func toUserResponse(u *model.User) dto.UserResponse {
	return dto.UserResponse{
		ID:         u.UserID,
		Email:      u.Email,
		FullName:   u.FullName,
		Role:       u.Role,
		Status:     u.Status,
		Department: u.Department,
		Phone:      u.Phone,
		CreatedAt:  u.CreatedAt.Format(time.RFC3339),
	}
}
