package services

import (
	"RetinaCare/clinicerrors"
	"RetinaCare/database"
	"RetinaCare/models"
	"RetinaCare/repositories"
	"RetinaCare/utils"
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/google/uuid"
)

type UserService interface {
	RegisterPatient(ctx context.Context, user *models.User) error
	CreateStaff(ctx context.Context, actor Actor, user *models.User) error
	AuthenticateUser(ctx context.Context, email, password string) (*models.User, error)
	GetUserByID(ctx context.Context, userID string) (*models.User, error)
	ListPatients(ctx context.Context, actor Actor) ([]models.User, error)
	SendResetCode(ctx context.Context, email string) error
	ResetPassword(ctx context.Context, email, resetCode, newPassword string) error
}

type userService struct {
	userRepo repositories.UserRepository
}

func NewUserService(userRepo repositories.UserRepository) UserService {
	return &userService{userRepo: userRepo}
}

// RegisterPatient self-registers a patient account. Staff accounts are
// created by an admin through CreateStaff; the role is never taken from the
// request.
func (s *userService) RegisterPatient(ctx context.Context, user *models.User) error {
	user.Role = models.RolePatient
	return s.createUser(ctx, user)
}

// CreateStaff lets an admin create doctor, clinic_manager or admin accounts.
func (s *userService) CreateStaff(ctx context.Context, actor Actor, user *models.User) error {
	if actor.Role != models.RoleAdmin {
		return clinicerrors.PermissionDenied("only admins may create staff accounts")
	}
	if !models.ValidAccountRole(user.Role) {
		return clinicerrors.Validation("unrecognized role %q", user.Role)
	}
	return s.createUser(ctx, user)
}

func (s *userService) createUser(ctx context.Context, user *models.User) error {
	// Serialize duplicate registrations on the same email; the unique index
	// backstops this if the lock is unavailable.
	lockKey := fmt.Sprintf("user_lock:%s", user.Email)
	lockValue := uuid.New().String()
	locked, err := database.NewLock(ctx, lockKey, lockValue, time.Minute)
	if err != nil {
		return fmt.Errorf("failed to acquire lock: %w", err)
	}
	if !locked {
		return errors.New("failed to acquire lock")
	}
	defer func() {
		if err := database.ReleaseLock(ctx, lockKey, lockValue); err != nil {
			log.Printf("Failed to release lock: %v", err)
		}
	}()

	if err := utils.ValidateUserData(*user); err != nil {
		return clinicerrors.Validation("invalid user data: %v", err)
	}

	if exists, err := s.userRepo.EmailExists(ctx, user.Email); err != nil {
		return err
	} else if exists {
		return clinicerrors.Validation("email already registered")
	}

	hashedPassword, err := utils.HashPassword(user.Password)
	if err != nil {
		return fmt.Errorf("failed to hash password: %w", err)
	}

	user.ID = uuid.New().String()
	user.Password = hashedPassword
	user.IsActive = true
	return s.userRepo.CreateUser(ctx, user)
}

// AuthenticateUser verifies credentials and returns the account.
func (s *userService) AuthenticateUser(ctx context.Context, email, password string) (*models.User, error) {
	user, err := s.userRepo.GetUserByEmail(ctx, email)
	if err != nil {
		return nil, err
	}
	if user == nil || !user.IsActive {
		return nil, errors.New("invalid email or password")
	}
	if !utils.CheckPassword(user.Password, password) {
		return nil, errors.New("invalid email or password")
	}
	return user, nil
}

func (s *userService) GetUserByID(ctx context.Context, userID string) (*models.User, error) {
	user, err := s.userRepo.GetUserByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, clinicerrors.NotFound("user %s not found", userID)
	}
	return user, nil
}

// ListPatients returns patient accounts for staff who open exams.
func (s *userService) ListPatients(ctx context.Context, actor Actor) ([]models.User, error) {
	switch actor.Role {
	case models.RoleDoctor, models.RoleClinicManager, models.RoleAdmin:
		return s.userRepo.ListByRole(ctx, models.RolePatient)
	}
	return nil, clinicerrors.PermissionDenied("role %q may not list patients", actor.Role)
}

// SendResetCode emails a short-lived reset code to a registered address.
// Unknown addresses return nil so the endpoint does not leak which emails
// have accounts.
func (s *userService) SendResetCode(ctx context.Context, email string) error {
	user, err := s.userRepo.GetUserByEmail(ctx, email)
	if err != nil {
		return err
	}
	if user == nil {
		return nil
	}

	code, err := utils.GenerateResetCode()
	if err != nil {
		return err
	}
	if err := utils.SetResetCode(ctx, email, code); err != nil {
		return err
	}
	return utils.SendResetCodeEmail(email, code)
}

// ResetPassword verifies the emailed code and replaces the password.
func (s *userService) ResetPassword(ctx context.Context, email, resetCode, newPassword string) error {
	if err := utils.ValidatePasswordReset(resetCode, newPassword); err != nil {
		return clinicerrors.Validation("invalid reset input: %v", err)
	}

	stored, err := utils.GetResetCode(ctx, email)
	if err != nil {
		return err
	}
	if stored == nil || *stored != resetCode {
		return clinicerrors.Validation("invalid reset code")
	}

	user, err := s.userRepo.GetUserByEmail(ctx, email)
	if err != nil {
		return err
	}
	if user == nil {
		return clinicerrors.NotFound("user not found")
	}

	hashedPassword, err := utils.HashPassword(newPassword)
	if err != nil {
		return fmt.Errorf("failed to hash password: %w", err)
	}
	if err := s.userRepo.UpdateUserPassword(ctx, user.ID, hashedPassword); err != nil {
		return err
	}
	return utils.DeleteResetCode(ctx, email)
}
