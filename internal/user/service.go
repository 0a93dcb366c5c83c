package user

import (
	"context"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"os"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"wecare_donations_backend/internal/common"
	"wecare_donations_backend/internal/filestorage"
	"wecare_donations_backend/internal/platform/crypto"
	"wecare_donations_backend/internal/shared"
)

// Service defines the user use cases.
type Service interface {
	Register(ctx context.Context, req CreateUserRequest) (*User, *shared.TokenResponse, error)
	Login(ctx context.Context, email, password string) (*User, *shared.TokenResponse, error)
	GetUserByID(ctx context.Context, id uuid.UUID) (*User, error)
	GetProfile(ctx context.Context, principal shared.Principal, id uuid.UUID) (*User, error)
	UpdateProfile(ctx context.Context, principal shared.Principal, req UpdateProfileRequest, avatar *multipart.FileHeader) (*User, error)
	EnsureAdmin(ctx context.Context, email, password string) error
	AvatarURL(path string) string
}

// ServiceImplementation implements Service.
type ServiceImplementation struct {
	repo         Repository
	tokenService shared.TokenService
	store        filestorage.Store
	imageRules   filestorage.ImageRules
	logger       *zap.Logger
	// console receives the generated admin password. It is never logged.
	console      io.Writer
}

var _ Service = (*ServiceImplementation)(nil)

// NewService creates a new user service.
func NewService(
	repo Repository,
	tokenService shared.TokenService,
	store filestorage.Store,
	imageRules filestorage.ImageRules,
	logger *zap.Logger,
) *ServiceImplementation {
	return &ServiceImplementation{
		repo:         repo,
		tokenService: tokenService,
		store:        store,
		imageRules:   imageRules,
		logger:       logger.Named("user"),
		console:      os.Stderr,
	}
}

// Register creates a donor or receiver account and issues tokens for it.
func (s *ServiceImplementation) Register(ctx context.Context, req CreateUserRequest) (*User, *shared.TokenResponse, error) {
	role, err := shared.ParseRole(req.Role)
	if err != nil {
		return nil, nil, common.FieldError("Role", "Role must be donor or receiver.")
	}
	switch role {
	case shared.RoleDonor, shared.RoleReceiver:
	case shared.RoleAdmin:
		return nil, nil, common.FieldError("Role", "Admin accounts cannot be registered.")
	default:
		return nil, nil, common.FieldError("Role", "Role must be donor or receiver.")
	}

	name := common.SanitizeText(req.Name)
	if name == "" {
		return nil, nil, common.FieldError("Name", "The name field is required.")
	}

	_, err = s.repo.FindByEmail(ctx, req.Email)
	if err == nil {
		return nil, nil, common.ErrConflict.WithDetails("User with this email already exists.")
	}
	if !errors.Is(err, common.ErrNotFound) {
		return nil, nil, err
	}

	hashedPassword, err := common.HashPassword(req.Password)
	if err != nil {
		return nil, nil, fmt.Errorf("register: %w", err)
	}

	phone := req.Phone
	dbUser := &User{
		Name:         name,
		Email:        req.Email,
		Phone:        &phone,
		PasswordHash: hashedPassword,
		Role:         role,
		Bio:          common.SanitizeOptional(req.Bio),
	}
	if err := s.repo.Create(ctx, dbUser); err != nil {
		return nil, nil, err
	}

	tokens, err := s.issueTokens(dbUser)
	if err != nil {
		return nil, nil, err
	}

	s.logger.Info("User registered successfully", zap.String("userID", dbUser.ID.String()), zap.Stringer("role", role))
	return dbUser, tokens, nil
}

// Login verifies credentials. Unknown emails and wrong passwords are indistinguishable.
func (s *ServiceImplementation) Login(ctx context.Context, email, password string) (*User, *shared.TokenResponse, error) {
	dbUser, err := s.repo.FindByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, common.ErrNotFound) {
			return nil, nil, common.ErrUnauthorized.WithDetails("Invalid email or password.")
		}
		return nil, nil, err
	}

	if !common.CheckPassword(dbUser.PasswordHash, password) {
		s.logger.Warn("Invalid password attempt", zap.String("userID", dbUser.ID.String()))
		return nil, nil, common.ErrUnauthorized.WithDetails("Invalid email or password.")
	}

	tokens, err := s.issueTokens(dbUser)
	if err != nil {
		return nil, nil, err
	}

	s.logger.Info("User logged in successfully", zap.String("userID", dbUser.ID.String()))
	return dbUser, tokens, nil
}

func (s *ServiceImplementation) issueTokens(u *User) (*shared.TokenResponse, error) {
	accessToken, accessExpiresAt, err := s.tokenService.GenerateAccessToken(u)
	if err != nil {
		return nil, fmt.Errorf("generate access token: %w", err)
	}
	refreshToken, _, err := s.tokenService.GenerateRefreshToken(u)
	if err != nil {
		return nil, fmt.Errorf("generate refresh token: %w", err)
	}
	return &shared.TokenResponse{
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
		TokenType:    "Bearer",
		ExpiresAt:    accessExpiresAt,
	}, nil
}

func (s *ServiceImplementation) GetUserByID(ctx context.Context, id uuid.UUID) (*User, error) {
	return s.repo.FindByID(ctx, id)
}

// GetProfile returns a user's profile to the user themself or to an admin.
func (s *ServiceImplementation) GetProfile(ctx context.Context, principal shared.Principal, id uuid.UUID) (*User, error) {
	if !principal.IsSelfOrAdmin(id) {
		return nil, common.ErrForbidden.WithDetails("You are not authorized to view this profile.")
	}
	return s.repo.FindByID(ctx, id)
}

// UpdateProfile applies the provided fields to the caller's own profile.
// A new avatar replaces the old one; the old file is removed after the row is saved.
func (s *ServiceImplementation) UpdateProfile(ctx context.Context, principal shared.Principal, req UpdateProfileRequest, avatar *multipart.FileHeader) (*User, error) {
	if (req.Latitude == nil) != (req.Longitude == nil) {
		return nil, common.FieldError("Latitude", "Latitude and longitude must be provided together.")
	}
	if avatar != nil {
		if err := s.imageRules.ValidateImage("avatar", avatar); err != nil {
			return nil, err
		}
	}

	dbUser, err := s.repo.FindByID(ctx, principal.UserID)
	if err != nil {
		return nil, err
	}

	if req.Email != nil && NormalizeEmail(*req.Email) != dbUser.Email {
		existing, err := s.repo.FindByEmail(ctx, *req.Email)
		switch {
		case err == nil && existing.ID != dbUser.ID:
			return nil, common.ErrConflict.WithDetails("Email is already taken.")
		case err != nil && !errors.Is(err, common.ErrNotFound):
			return nil, err
		}
		dbUser.Email = *req.Email
	}
	if req.Name != nil {
		name := common.SanitizeText(*req.Name)
		if name == "" {
			return nil, common.FieldError("Name", "The name field may not be blank.")
		}
		dbUser.Name = name
	}
	if req.Phone != nil {
		dbUser.Phone = req.Phone
	}
	if req.Bio != nil {
		dbUser.Bio = common.SanitizeOptional(req.Bio)
	}
	if req.Latitude != nil {
		dbUser.Latitude = req.Latitude
		dbUser.Longitude = req.Longitude
	}

	var oldAvatar string
	if avatar != nil {
		stored, err := s.store.Save(ctx, avatar, filestorage.DirAvatars)
		if err != nil {
			return nil, common.ErrStorage.WithCause(err)
		}
		if dbUser.Avatar != nil {
			oldAvatar = *dbUser.Avatar
		}
		dbUser.Avatar = &stored
	}

	dbUser.UpdatedAt = time.Now()
	if err := s.repo.Update(ctx, dbUser); err != nil {
		if avatar != nil {
			s.removeFile(ctx, *dbUser.Avatar)
		}
		return nil, err
	}
	if oldAvatar != "" {
		s.removeFile(ctx, oldAvatar)
	}

	s.logger.Info("Profile updated", zap.String("userID", dbUser.ID.String()))
	return dbUser, nil
}

func (s *ServiceImplementation) removeFile(ctx context.Context, path string) {
	if err := s.store.Delete(ctx, path); err != nil {
		s.logger.Warn("Failed to remove stored file", zap.String("path", path), zap.Error(err))
	}
}

// EnsureAdmin creates the bootstrap admin account when it does not exist.
// With an empty password a random one is generated and written once to the
// console, outside the structured logs.
func (s *ServiceImplementation) EnsureAdmin(ctx context.Context, email, password string) error {
	if email == "" {
		return nil
	}
	existing, err := s.repo.FindByEmail(ctx, email)
	if err == nil {
		if existing.Role != shared.RoleAdmin {
			s.logger.Warn("Bootstrap admin email belongs to a non-admin account", zap.String("email", existing.Email))
		}
		return nil
	}
	if !errors.Is(err, common.ErrNotFound) {
		return err
	}

	generated := false
	if password == "" {
		password, err = crypto.GenerateSecureRandomString(18)
		if err != nil {
			return fmt.Errorf("generate admin password: %w", err)
		}
		generated = true
	}
	hashed, err := common.HashPassword(password)
	if err != nil {
		return err
	}

	admin := &User{Name: "Administrator", Email: email, PasswordHash: hashed, Role: shared.RoleAdmin}
	if err := s.repo.Create(ctx, admin); err != nil {
		if errors.Is(err, common.ErrConflict) {
			return nil
		}
		return err
	}

	if generated {
		fmt.Fprintf(s.console, "Generated password for admin %s: %s\nChange it after first login.\n", admin.Email, password)
		s.logger.Warn("Created admin account with a generated password; see the console output", zap.String("email", admin.Email))
	} else {
		s.logger.Info("Created admin account", zap.String("email", admin.Email))
	}
	return nil
}

// AvatarURL resolves a stored avatar path to its public URL.
func (s *ServiceImplementation) AvatarURL(path string) string {
	return s.store.URL(path)
}
