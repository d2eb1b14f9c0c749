package services

import (
	"context"
	"errors"
	"time"

	"github.com/rs/zerolog/log"
	"gorm.io/gorm"

	"github.com/example/bozor/internal/models"
	"github.com/example/bozor/internal/utils"
)

// AuthConfig carries token settings for AuthService.
type AuthConfig struct {
	AccessSecret  string
	RefreshSecret string
	AccessTTL     time.Duration
	RefreshTTL    time.Duration
	// ExposeOTP returns the generated code to the caller. Local demos only.
	ExposeOTP bool
}

// AuthService implements OTP verification, registration, login and token refresh.
type AuthService struct {
	db     *gorm.DB
	cfg    AuthConfig
	otp    *OTPService
	sender OTPSender
	tokens RefreshTokenStore
}

func NewAuthService(db *gorm.DB, cfg AuthConfig, otp *OTPService, sender OTPSender, tokens RefreshTokenStore) *AuthService {
	if sender == nil {
		sender = NoopOTPSender{}
	}
	return &AuthService{db: db, cfg: cfg, otp: otp, sender: sender, tokens: tokens}
}

type SendOTPInput struct {
	Phone string `json:"phone" validate:"required,phone"`
	Email string `json:"email" validate:"required,email"`
}

type VerifyOTPInput struct {
	Phone string `json:"phone" validate:"required,phone"`
	Email string `json:"email" validate:"required,email"`
	OTP   string `json:"otp" validate:"required,otp"`
}

type RegisterInput struct {
	FullName string      `json:"fullName" validate:"required,min=3,max=100"`
	Year     int         `json:"year" validate:"omitempty,gte=1900,lte=2100"`
	Phone    string      `json:"phone" validate:"required,phone"`
	Email    string      `json:"email" validate:"required,email"`
	Password string      `json:"password" validate:"required,min=6,max=72"`
	RegionID uint        `json:"region_id" validate:"required,gt=0"`
	Photo    string      `json:"photo" validate:"omitempty,max=255"`
	Role     models.Role `json:"role" validate:"omitempty,oneof=USER ADMIN SUPERADMIN SELLER"`
}

type LoginInput struct {
	Phone    string `json:"phone" validate:"required,phone"`
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=6"`
}

// TokenPair is returned by Login.
type TokenPair struct {
	AccessToken  string `json:"accesstoken"`
	RefreshToken string `json:"refreshtoken"`
}

// SendOTP generates a code for phone+email and dispatches it. The code is
// returned only when ExposeOTP is enabled; otherwise the result is empty.
func (s *AuthService) SendOTP(ctx context.Context, in SendOTPInput) (string, error) {
	if err := utils.ValidateStruct(in); err != nil {
		return "", ValidationError(err.Error())
	}

	code, err := s.otp.Generate(in.Phone, in.Email)
	if err != nil {
		return "", internal("generate otp", err)
	}

	if err := s.sender.SendOTP(ctx, in.Phone, in.Email, code); err != nil {
		return "", internal("deliver otp", err)
	}

	log.Info().Str("phone", in.Phone).Msg("otp sent")

	if s.cfg.ExposeOTP {
		return code, nil
	}
	return "", nil
}

// VerifyOTP checks code against the current window for phone+email.
func (s *AuthService) VerifyOTP(_ context.Context, in VerifyOTPInput) error {
	if err := utils.ValidateStruct(in); err != nil {
		return ValidationError(err.Error())
	}
	if !s.otp.Validate(in.Phone, in.Email, in.OTP) {
		return ErrInvalidOTP
	}
	return nil
}

// Register creates a USER or SELLER account. ADMIN and SUPERADMIN cannot be self-assigned.
func (s *AuthService) Register(ctx context.Context, in RegisterInput) (*models.User, error) {
	if err := utils.ValidateStruct(in); err != nil {
		return nil, ValidationError(err.Error())
	}
	if in.Role == "" {
		in.Role = models.RoleUser
	}
	if in.Role.Elevated() {
		return nil, forbidden("this role cannot be chosen at registration")
	}
	return s.createUser(ctx, in)
}

// CreateSuperAdmin creates a SUPERADMIN account. Only an ADMIN caller may do so.
func (s *AuthService) CreateSuperAdmin(ctx context.Context, callerRole models.Role, in RegisterInput) (*models.User, error) {
	if callerRole != models.RoleAdmin {
		return nil, forbidden("only an admin can create a superadmin")
	}
	in.Role = models.RoleSuperAdmin
	if err := utils.ValidateStruct(in); err != nil {
		return nil, ValidationError(err.Error())
	}
	return s.createUser(ctx, in)
}

func (s *AuthService) createUser(ctx context.Context, in RegisterInput) (*models.User, error) {
	db := s.db.WithContext(ctx)

	var count int64
	if err := db.Model(&models.User{}).Where("phone = ?", in.Phone).Count(&count).Error; err != nil {
		return nil, internal("check phone", err)
	}
	if count > 0 {
		return nil, conflict("user already exists")
	}

	if err := db.Model(&models.Region{}).Where("id = ?", in.RegionID).Count(&count).Error; err != nil {
		return nil, internal("check region", err)
	}
	if count == 0 {
		return nil, ValidationError("region_id does not reference an existing region")
	}

	hash, err := utils.HashPassword(in.Password)
	if err != nil {
		return nil, internal("hash password", err)
	}

	user := models.User{
		FullName:     in.FullName,
		Year:         in.Year,
		Phone:        in.Phone,
		Email:        in.Email,
		PasswordHash: hash,
		Role:         in.Role,
		RegionID:     in.RegionID,
		Photo:        in.Photo,
	}
	if err := db.Create(&user).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, conflict("user already exists")
		}
		return nil, internal("create user", err)
	}

	log.Info().Uint("user_id", user.ID).Str("role", string(user.Role)).Msg("user registered")
	return &user, nil
}

// Login checks credentials and issues an access/refresh token pair. The
// refresh token is recorded in the token store.
func (s *AuthService) Login(ctx context.Context, in LoginInput) (*TokenPair, error) {
	if err := utils.ValidateStruct(in); err != nil {
		return nil, ValidationError(err.Error())
	}

	var user models.User
	err := s.db.WithContext(ctx).
		Where("phone = ? AND email = ?", in.Phone, in.Email).
		First(&user).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, notFound("user")
		}
		return nil, internal("load user", err)
	}

	if !utils.CheckPassword(user.PasswordHash, in.Password) {
		return nil, unauthorized("wrong credentials")
	}

	if utils.NeedsRehash(user.PasswordHash) {
		if hash, err := utils.HashPassword(in.Password); err == nil {
			if err := s.db.WithContext(ctx).Model(&user).Update("password_hash", hash).Error; err != nil {
				log.Warn().Err(err).Uint("user_id", user.ID).Msg("password rehash failed")
			}
		}
	}

	access, err := utils.GenerateAccessToken(s.cfg.AccessSecret, user.ID, user.Role, s.cfg.AccessTTL)
	if err != nil {
		return nil, internal("sign access token", err)
	}
	refresh, err := utils.GenerateRefreshToken(s.cfg.RefreshSecret, user.ID, user.Role, s.cfg.RefreshTTL)
	if err != nil {
		return nil, internal("sign refresh token", err)
	}
	if err := s.tokens.Save(ctx, refresh, user.ID, s.cfg.RefreshTTL); err != nil {
		return nil, err
	}

	log.Info().Uint("user_id", user.ID).Msg("user logged in")
	return &TokenPair{AccessToken: access, RefreshToken: refresh}, nil
}

// Refresh exchanges a tracked refresh token for a new access token with the
// same subject and role. The refresh token itself is not rotated.
func (s *AuthService) Refresh(ctx context.Context, token string) (string, error) {
	if token == "" {
		return "", ValidationError("token is required")
	}

	active, err := s.tokens.Exists(ctx, token)
	if err != nil {
		return "", err
	}
	if !active {
		return "", forbidden("refresh token is invalid or expired")
	}

	claims, err := utils.ParseRefreshToken(s.cfg.RefreshSecret, token)
	if err != nil {
		return "", forbidden("refresh token is invalid or expired")
	}

	access, err := utils.GenerateAccessToken(s.cfg.AccessSecret, claims.UserID, claims.Role, s.cfg.AccessTTL)
	if err != nil {
		return "", internal("sign access token", err)
	}
	return access, nil
}

// Logout removes a refresh token from the store. Unknown tokens are ignored.
func (s *AuthService) Logout(ctx context.Context, token string) error {
	if token == "" {
		return ValidationError("token is required")
	}
	return s.tokens.Revoke(ctx, token)
}
