package user

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/magictales/backend/internal/apperror"
	"github.com/magictales/backend/internal/database"
	"github.com/magictales/backend/internal/mail"
	"github.com/magictales/backend/internal/plan"
	"github.com/magictales/backend/internal/vercode"
)

// planGetter is the slice of the plan repository this service needs.
type planGetter interface {
	FindByID(ctx context.Context, id int64) (*plan.Plan, error)
}

// UserService defines the business logic contract for the account
// resource. Handlers call these methods and never touch the repository
// directly.
type UserService interface {
	GetUser(ctx context.Context, id int64) (*User, error)
	UpdateUser(ctx context.Context, id int64, req UpdateRequest) (*User, error)
	ConfirmEmailChange(ctx context.Context, id int64, code int) (*User, error)
	MonthStoriesCount(ctx context.Context, id int64) (*MonthStoriesCount, error)
	ChangePlan(ctx context.Context, userID, planID int64) error
}

// userService implements UserService.
type userService struct {
	repo  UserRepository
	plans planGetter
	mail  mail.Sender
	tx    database.TxRunner
}

// NewUserService creates a user service with the given dependencies.
func NewUserService(repo UserRepository, plans planGetter, sender mail.Sender, tx database.TxRunner) UserService {
	return &userService{
		repo:  repo,
		plans: plans,
		mail:  sender,
		tx:    tx,
	}
}

// GetUser returns the account with its plan joined in.
func (s *userService) GetUser(ctx context.Context, id int64) (*User, error) {
	return s.repo.FindByID(ctx, id)
}

// UpdateUser applies the editable account fields. Name, last name and
// username change immediately; a new email address is parked as pending
// and a confirmation code is sent to the current address. The field
// updates and the code mint share one unit of work, so a failed mail
// send leaves the account untouched.
func (s *userService) UpdateUser(ctx context.Context, id int64, req UpdateRequest) (*User, error) {
	name := strings.TrimSpace(req.Name)
	lastName := strings.TrimSpace(req.LastName)
	username := strings.TrimSpace(req.Username)
	email := strings.ToLower(strings.TrimSpace(req.Email))

	if username == "" {
		return nil, apperror.NewBadRequest("Username is required")
	}
	if email == "" {
		return nil, apperror.NewBadRequest("Email is required")
	}

	current, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}

	err = s.tx.WithTx(ctx, func(ctx context.Context) error {
		if err := s.repo.UpdateProfile(ctx, id, name, lastName, username); err != nil {
			return err
		}

		if email == current.Email {
			return nil
		}

		code, err := vercode.Generate()
		if err != nil {
			return apperror.NewInternal(fmt.Errorf("generating validation code: %w", err))
		}
		if err := s.repo.SetPendingEmail(ctx, id, email, code); err != nil {
			return err
		}

		// The code goes to the address on record, not the new one, so a
		// hijacked session cannot move the account to an attacker inbox.
		body := fmt.Sprintf(
			"A change of your account email to %s was requested.\n\nYour confirmation code is: %d\n\nIf you did not request this, you can ignore this message.",
			email, code)
		if err := s.mail.Send(ctx, current.Email, "Confirm your email change", body); err != nil {
			return apperror.NewInternal(fmt.Errorf("sending email change code: %w", err))
		}

		slog.Info("email change requested",
			slog.Int64("user_id", id),
			slog.String("pending_email", email),
		)
		return nil
	})
	if err != nil {
		var appErr *apperror.AppError
		if errors.As(err, &appErr) {
			return nil, err
		}
		return nil, apperror.NewInternal(fmt.Errorf("updating user %d: %w", id, err))
	}

	return s.repo.FindByID(ctx, id)
}

// ConfirmEmailChange consumes the emailed code and promotes the pending
// address. A wrong code, a code minted for another flow, or an already
// consumed code all fail the same way and leave the account unchanged.
func (s *userService) ConfirmEmailChange(ctx context.Context, id int64, code int) (*User, error) {
	err := s.tx.WithTx(ctx, func(ctx context.Context) error {
		u, err := s.repo.FindByID(ctx, id)
		if err != nil {
			return err
		}

		if u.CodePurpose == nil || *u.CodePurpose != vercode.PurposeEmailChange {
			return apperror.NewValidation("Invalid or already used validation code")
		}
		if !vercode.Matches(u.ValidationCode, code) {
			return apperror.NewValidation("Invalid or already used validation code")
		}

		if err := s.repo.ApplyPendingEmail(ctx, id); err != nil {
			return err
		}

		slog.Info("email change confirmed", slog.Int64("user_id", id))
		return nil
	})
	if err != nil {
		var appErr *apperror.AppError
		if errors.As(err, &appErr) {
			return nil, err
		}
		return nil, apperror.NewInternal(fmt.Errorf("confirming email change for user %d: %w", id, err))
	}

	return s.repo.FindByID(ctx, id)
}

// MonthStoriesCount counts the user's stories in the current calendar
// month. The window is [first of this month, first of next month) so
// stories from the same month of a previous year are never counted.
func (s *userService) MonthStoriesCount(ctx context.Context, id int64) (*MonthStoriesCount, error) {
	now := time.Now()
	from := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, now.Location())
	to := from.AddDate(0, 1, 0)

	count, err := s.repo.MonthStoriesCount(ctx, id, from, to)
	if err != nil {
		return nil, apperror.NewInternal(fmt.Errorf("counting monthly stories: %w", err))
	}

	return &MonthStoriesCount{UserID: id, StoriesThisMonth: count}, nil
}

// ChangePlan moves the user to another plan. Both the user and the plan
// must exist; the check and the update share one unit of work.
func (s *userService) ChangePlan(ctx context.Context, userID, planID int64) error {
	err := s.tx.WithTx(ctx, func(ctx context.Context) error {
		if _, err := s.repo.FindByID(ctx, userID); err != nil {
			return err
		}
		if _, err := s.plans.FindByID(ctx, planID); err != nil {
			return err
		}
		return s.repo.UpdatePlan(ctx, userID, planID)
	})
	if err != nil {
		var appErr *apperror.AppError
		if errors.As(err, &appErr) {
			return err
		}
		return apperror.NewInternal(fmt.Errorf("changing plan for user %d: %w", userID, err))
	}

	slog.Info("user plan changed",
		slog.Int64("user_id", userID),
		slog.Int64("plan_id", planID),
	)
	return nil
}
