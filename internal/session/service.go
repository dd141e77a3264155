package session

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"regexp"
	"strings"

	"github.com/magictales/backend/internal/apperror"
	"github.com/magictales/backend/internal/database"
	"github.com/magictales/backend/internal/mail"
	"github.com/magictales/backend/internal/password"
	"github.com/magictales/backend/internal/plan"
	"github.com/magictales/backend/internal/token"
	"github.com/magictales/backend/internal/user"
	"github.com/magictales/backend/internal/vercode"
)

// emailPattern discriminates email logins from username logins.
var emailPattern = regexp.MustCompile(`[^@]+@[^@]+\.[^@]+`)

// credentialMessage is the single message for every login failure so
// responses do not reveal whether the account exists.
const credentialMessage = "Invalid user or password"

// codeMessage is the single message for every validation code failure:
// wrong code, consumed code, or a code minted for another flow.
const codeMessage = "Invalid or already used validation code"

// planFinder is the slice of the plan repository this service needs.
type planFinder interface {
	FindByName(ctx context.Context, name string) (*plan.Plan, error)
}

// SessionService defines the business logic contract for authentication.
// Handlers call these methods and never touch the repositories directly.
type SessionService interface {
	Login(ctx context.Context, identifier, plaintext string) (*UserAPI, error)
	LoginSwagger(ctx context.Context, email, plaintext string) (*TokenAPI, error)
	Register(ctx context.Context, req RegisterRequest) (*RegisterAPI, error)
	Activate(ctx context.Context, email string, code int) error
	RecoverPassword(ctx context.Context, email string) error
	ResetPassword(ctx context.Context, req ResetPasswordRequest) error
}

// sessionService implements SessionService with bcrypt credentials and
// stateless JWT sessions.
type sessionService struct {
	users  user.UserRepository
	plans  planFinder
	hasher *password.Hasher
	tokens *token.Manager
	mail   mail.Sender
	tx     database.TxRunner
}

// NewSessionService creates a session service with the given dependencies.
func NewSessionService(
	users user.UserRepository,
	plans planFinder,
	hasher *password.Hasher,
	tokens *token.Manager,
	sender mail.Sender,
	tx database.TxRunner,
) SessionService {
	return &sessionService{
		users:  users,
		plans:  plans,
		hasher: hasher,
		tokens: tokens,
		mail:   sender,
		tx:     tx,
	}
}

// Login authenticates by email or username plus password and returns the
// account with a fresh bearer token.
func (s *sessionService) Login(ctx context.Context, identifier, plaintext string) (*UserAPI, error) {
	identifier = strings.TrimSpace(identifier)

	var u *user.User
	var err error
	if emailPattern.MatchString(identifier) {
		u, err = s.users.FindByEmail(ctx, strings.ToLower(identifier))
	} else {
		u, err = s.users.FindByUsername(ctx, identifier)
	}
	if err != nil {
		if isNotFound(err) {
			return nil, apperror.NewUnauthorized(credentialMessage)
		}
		return nil, apperror.NewInternal(fmt.Errorf("finding user: %w", err))
	}

	ok, err := s.hasher.Verify(ctx, plaintext, u.Password)
	if err != nil {
		return nil, apperror.NewInternal(fmt.Errorf("verifying password: %w", err))
	}
	if !ok {
		return nil, apperror.NewUnauthorized(credentialMessage)
	}

	tok, err := s.tokens.Issue(token.Claims{UserID: u.ID, Username: u.Username, Email: u.Email})
	if err != nil {
		return nil, apperror.NewInternal(fmt.Errorf("issuing token: %w", err))
	}

	slog.Info("user logged in",
		slog.Int64("user_id", u.ID),
		slog.String("username", u.Username),
	)

	return &UserAPI{
		ID:       u.ID,
		Name:     u.Name,
		LastName: u.LastName,
		Username: u.Username,
		Email:    u.Email,
		Token:    "Bearer " + tok,
	}, nil
}

// LoginSwagger authenticates by email for the OAuth2 password form used
// by API docs tooling. The issued token omits the username claim.
func (s *sessionService) LoginSwagger(ctx context.Context, email, plaintext string) (*TokenAPI, error) {
	u, err := s.users.FindByEmail(ctx, strings.ToLower(strings.TrimSpace(email)))
	if err != nil {
		if isNotFound(err) {
			return nil, apperror.NewUnauthorized(credentialMessage)
		}
		return nil, apperror.NewInternal(fmt.Errorf("finding user: %w", err))
	}

	ok, err := s.hasher.Verify(ctx, plaintext, u.Password)
	if err != nil {
		return nil, apperror.NewInternal(fmt.Errorf("verifying password: %w", err))
	}
	if !ok {
		return nil, apperror.NewUnauthorized(credentialMessage)
	}

	tok, err := s.tokens.Issue(token.Claims{UserID: u.ID, Email: u.Email})
	if err != nil {
		return nil, apperror.NewInternal(fmt.Errorf("issuing token: %w", err))
	}

	return &TokenAPI{AccessToken: tok, TokenType: "bearer"}, nil
}

// Register creates a new inactive account on the free plan and emails
// its activation code. The user row, the code and the mail send share
// one unit of work: if the mail cannot be dispatched the account is
// rolled back and the client may retry cleanly.
func (s *sessionService) Register(ctx context.Context, req RegisterRequest) (*RegisterAPI, error) {
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
	if req.Password == "" {
		return nil, apperror.NewBadRequest("Password is required")
	}

	// Fast path before the expensive hash; the unique indexes still
	// arbitrate races at insert time.
	if taken, err := s.users.EmailExists(ctx, email); err != nil {
		return nil, apperror.NewInternal(fmt.Errorf("checking email: %w", err))
	} else if taken {
		return nil, apperror.NewConflict("Username or email already in use")
	}
	if taken, err := s.users.UsernameExists(ctx, username); err != nil {
		return nil, apperror.NewInternal(fmt.Errorf("checking username: %w", err))
	} else if taken {
		return nil, apperror.NewConflict("Username or email already in use")
	}

	hash, err := s.hasher.Hash(ctx, req.Password)
	if err != nil {
		return nil, apperror.NewInternal(fmt.Errorf("hashing password: %w", err))
	}

	var created *user.User
	err = s.tx.WithTx(ctx, func(ctx context.Context) error {
		freePlan, err := s.plans.FindByName(ctx, plan.FreePlanName)
		if err != nil {
			if isNotFound(err) {
				return apperror.NewNotFound("Free plan doesn't exist")
			}
			return fmt.Errorf("finding free plan: %w", err)
		}

		code, err := vercode.Generate()
		if err != nil {
			return fmt.Errorf("generating activation code: %w", err)
		}

		purpose := vercode.PurposeActivation
		u := &user.User{
			Name:           name,
			LastName:       lastName,
			Username:       username,
			Email:          email,
			Password:       hash,
			ValidationCode: &code,
			CodePurpose:    &purpose,
			Active:         false,
			PlanID:         freePlan.ID,
		}
		if err := s.users.Create(ctx, u); err != nil {
			return err
		}

		body := fmt.Sprintf(
			"Welcome to Magic Tales, %s!\n\nYour activation code is: %d\n\nEnter it in the app to activate your account.",
			username, code)
		if err := s.mail.Send(ctx, email, "Activate your Magic Tales account", body); err != nil {
			return apperror.NewInternal(fmt.Errorf("sending activation code: %w", err))
		}

		created = u
		return nil
	})
	if err != nil {
		var appErr *apperror.AppError
		if errors.As(err, &appErr) {
			return nil, err
		}
		return nil, apperror.NewInternal(fmt.Errorf("registering user: %w", err))
	}

	slog.Info("user registered",
		slog.Int64("user_id", created.ID),
		slog.String("username", created.Username),
	)

	return &RegisterAPI{
		ID:       created.ID,
		Name:     created.Name,
		LastName: created.LastName,
		Username: created.Username,
		Email:    created.Email,
	}, nil
}

// Activate consumes the emailed activation code and marks the account
// active. The match and the state change share one unit of work, so a
// repeated submission finds the code already cleared and fails.
func (s *sessionService) Activate(ctx context.Context, email string, code int) error {
	err := s.tx.WithTx(ctx, func(ctx context.Context) error {
		u, err := s.users.FindByEmail(ctx, strings.ToLower(strings.TrimSpace(email)))
		if err != nil {
			return err
		}

		if u.CodePurpose == nil || *u.CodePurpose != vercode.PurposeActivation {
			return apperror.NewValidation(codeMessage)
		}
		if !vercode.Matches(u.ValidationCode, code) {
			return apperror.NewValidation(codeMessage)
		}

		return s.users.Activate(ctx, u.ID)
	})
	if err != nil {
		var appErr *apperror.AppError
		if errors.As(err, &appErr) {
			return err
		}
		return apperror.NewInternal(fmt.Errorf("activating account: %w", err))
	}

	slog.Info("account activated", slog.String("email", email))
	return nil
}

// RecoverPassword mints a password reset code for the account and emails
// it. An unknown email is reported as 404.
func (s *sessionService) RecoverPassword(ctx context.Context, email string) error {
	email = strings.ToLower(strings.TrimSpace(email))

	err := s.tx.WithTx(ctx, func(ctx context.Context) error {
		u, err := s.users.FindByEmail(ctx, email)
		if err != nil {
			return err
		}

		code, err := vercode.Generate()
		if err != nil {
			return fmt.Errorf("generating reset code: %w", err)
		}
		if err := s.users.SetValidationCode(ctx, u.ID, code, vercode.PurposePasswordReset); err != nil {
			return err
		}

		body := fmt.Sprintf(
			"A password reset was requested for your account.\n\nYour reset code is: %d\n\nIf you did not request this, you can ignore this message.",
			code)
		if err := s.mail.Send(ctx, u.Email, "Reset your Magic Tales password", body); err != nil {
			return apperror.NewInternal(fmt.Errorf("sending reset code: %w", err))
		}
		return nil
	})
	if err != nil {
		var appErr *apperror.AppError
		if errors.As(err, &appErr) {
			return err
		}
		return apperror.NewInternal(fmt.Errorf("recovering password: %w", err))
	}

	slog.Info("password recovery initiated", slog.String("email", email))
	return nil
}

// ResetPassword consumes the reset code and replaces the password. The
// code check, the hash and the update share one unit of work; the update
// clears the code so it cannot be replayed.
func (s *sessionService) ResetPassword(ctx context.Context, req ResetPasswordRequest) error {
	if req.NewPassword == "" {
		return apperror.NewBadRequest("Password is required")
	}
	if req.NewPassword != req.RepeatPassword {
		return apperror.NewValidation("Passwords do not match")
	}

	err := s.tx.WithTx(ctx, func(ctx context.Context) error {
		u, err := s.users.FindByEmail(ctx, strings.ToLower(strings.TrimSpace(req.Email)))
		if err != nil {
			return err
		}

		if u.CodePurpose == nil || *u.CodePurpose != vercode.PurposePasswordReset {
			return apperror.NewValidation(codeMessage)
		}
		if !vercode.Matches(u.ValidationCode, req.ValidationCode) {
			return apperror.NewValidation(codeMessage)
		}

		hash, err := s.hasher.Hash(ctx, req.NewPassword)
		if err != nil {
			return fmt.Errorf("hashing password: %w", err)
		}
		return s.users.UpdatePassword(ctx, u.ID, hash)
	})
	if err != nil {
		var appErr *apperror.AppError
		if errors.As(err, &appErr) {
			return err
		}
		return apperror.NewInternal(fmt.Errorf("resetting password: %w", err))
	}

	slog.Info("password reset", slog.String("email", req.Email))
	return nil
}

// isNotFound reports whether err is a 404 AppError.
func isNotFound(err error) bool {
	var appErr *apperror.AppError
	return errors.As(err, &appErr) && appErr.Code == http.StatusNotFound
}
