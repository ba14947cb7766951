package usecase

import (
	"context"
	"crypto/rand"
	"errors"
	"math/big"
	"strconv"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/v2/mongo"

	"github.com/jirawatp/anon-message-api/internal/auth"
	"github.com/jirawatp/anon-message-api/internal/config"
	"github.com/jirawatp/anon-message-api/internal/model"
	"github.com/jirawatp/anon-message-api/internal/repository"
	"github.com/jirawatp/anon-message-api/internal/security"
)

// AuthUsecase defines the authentication-related use cases.
type AuthUsecase interface {
	Register(ctx context.Context, params RegisterParams) (*model.User, error)
	Login(ctx context.Context, params LoginParams) (*Tokens, error)
	VerifyCode(ctx context.Context, username, code string) error
	Refresh(ctx context.Context, refreshToken string) (*Tokens, error)
	SignOut(ctx context.Context, sessionID string) error
	IsUsernameTaken(ctx context.Context, username string) (bool, error)
}

// RegisterParams defines the parameters for user registration.
type RegisterParams struct {
	Username string
	Email    string
	Password string
}

// LoginParams defines the parameters for user login. Identifier matches
// either the username or the email.
type LoginParams struct {
	Identifier string
	Password   string
}

// Tokens bundles an access token and a refresh token.
type Tokens struct {
	AccessToken  string
	RefreshToken string
}

// VerificationMailer sends sign-up verification codes.
type VerificationMailer interface {
	SendVerificationCode(to, username, code string) error
}

var (
	ErrUserAlreadyExists  = errors.New("user already exists")
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrUserNotVerified    = errors.New("user is not verified")
	ErrInvalidVerifyCode  = errors.New("invalid verification code")
	ErrVerifyCodeExpired  = errors.New("verification code has expired")
	ErrInvalidSession     = errors.New("invalid session")
)

type authUsecase struct {
	userRepo    repository.UserRepository
	sessionRepo repository.SessionRepository
	jwtAuth     auth.JWTAuthenticator
	mailer      VerificationMailer
	cfg         *config.Config
	now         func() time.Time
}

// NewAuthUsecase creates a new instance of AuthUsecase.
func NewAuthUsecase(
	userRepo repository.UserRepository,
	sessionRepo repository.SessionRepository,
	jwtAuth auth.JWTAuthenticator,
	mailer VerificationMailer,
	cfg *config.Config,
) AuthUsecase {
	return &authUsecase{
		userRepo:    userRepo,
		sessionRepo: sessionRepo,
		jwtAuth:     jwtAuth,
		mailer:      mailer,
		cfg:         cfg,
		now:         time.Now,
	}
}

// Register creates an unverified user and mails them a verification code.
// A username held by a verified user is taken for good; an email that was
// registered but never verified gets its password and code re-issued.
func (u *authUsecase) Register(ctx context.Context, params RegisterParams) (*model.User, error) {
	byUsername, err := u.userRepo.GetUserByUsername(ctx, params.Username)
	if err != nil && !errors.Is(err, mongo.ErrNoDocuments) {
		return nil, err
	}
	if err == nil && byUsername.Verified {
		return nil, ErrUserAlreadyExists
	}

	passwordHash, err := security.HashPassword(params.Password)
	if err != nil {
		return nil, err
	}

	code, err := generateVerifyCode()
	if err != nil {
		return nil, err
	}
	expiresAt := u.now().Add(u.cfg.Token.VerifyCodeExpiresIn)

	byEmail, err := u.userRepo.GetUserByEmail(ctx, params.Email)
	if err != nil && !errors.Is(err, mongo.ErrNoDocuments) {
		return nil, err
	}

	var user *model.User
	switch {
	case err == nil && byEmail.Verified:
		return nil, ErrUserAlreadyExists

	case err == nil:
		if updateErr := u.userRepo.UpdateVerification(ctx, byEmail.ID.Hex(), repository.UpdateVerificationParams{
			PasswordHash:        passwordHash,
			VerifyCode:          code,
			VerifyCodeExpiresAt: expiresAt,
		}); updateErr != nil {
			return nil, updateErr
		}
		byEmail.PasswordHash = passwordHash
		byEmail.VerifyCode = code
		byEmail.VerifyCodeExpiresAt = expiresAt
		user = byEmail

	default:
		user, err = u.userRepo.CreateUser(ctx, &model.User{
			Username:            params.Username,
			Email:               params.Email,
			PasswordHash:        passwordHash,
			Verified:            false,
			VerifyCode:          code,
			VerifyCodeExpiresAt: expiresAt,
			IsAcceptingMessages: true,
		})
		if err != nil {
			if mongo.IsDuplicateKeyError(err) {
				return nil, ErrUserAlreadyExists
			}
			return nil, err
		}
	}

	if err := u.mailer.SendVerificationCode(user.Email, user.Username, code); err != nil {
		return nil, err
	}

	return user, nil
}

// Login verifies credentials and mints a token pair. Unverified users are
// rejected even with correct credentials.
func (u *authUsecase) Login(ctx context.Context, params LoginParams) (*Tokens, error) {
	user, err := u.userRepo.GetUserByIdentifier(ctx, params.Identifier)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrInvalidCredentials
		}
		return nil, err
	}

	if ok, err := security.VerifyPassword(params.Password, user.PasswordHash); err != nil {
		return nil, err
	} else if !ok {
		return nil, ErrInvalidCredentials
	}

	if !user.Verified {
		return nil, ErrUserNotVerified
	}

	return u.createAuthSession(ctx, user)
}

// VerifyCode marks the user verified when the submitted code matches and has
// not expired.
func (u *authUsecase) VerifyCode(ctx context.Context, username, code string) error {
	user, err := u.userRepo.GetUserByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return ErrUserNotFound
		}
		return err
	}

	if user.VerifyCode != code {
		return ErrInvalidVerifyCode
	}
	if u.now().After(user.VerifyCodeExpiresAt) {
		return ErrVerifyCodeExpired
	}

	return u.userRepo.MarkVerified(ctx, user.ID.Hex())
}

// Refresh rotates the token pair on a live session.
func (u *authUsecase) Refresh(ctx context.Context, refreshToken string) (*Tokens, error) {
	var claims auth.SessionClaims
	if _, err := u.jwtAuth.ValidateTokenWithClaims(refreshToken, u.cfg.Token.RefreshTokenSecret, &claims); err != nil {
		return nil, ErrInvalidSession
	}

	session, err := u.sessionRepo.GetSession(ctx, claims.SessionID)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrInvalidSession
		}
		return nil, err
	}

	if session.RefreshToken != refreshToken {
		return nil, ErrInvalidSession
	}

	return u.issueTokens(ctx, session.ID.Hex(), claims.UserID, claims.Username)
}

// SignOut revokes the session. Revoking an already-revoked session is not an error.
func (u *authUsecase) SignOut(ctx context.Context, sessionID string) error {
	if err := u.sessionRepo.DeleteSession(ctx, sessionID); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil
		}
		return err
	}

	return nil
}

// IsUsernameTaken reports whether a verified user already holds the username.
// An unverified holder does not block the name; their registration can still
// be displaced by a fresh sign-up.
func (u *authUsecase) IsUsernameTaken(ctx context.Context, username string) (bool, error) {
	user, err := u.userRepo.GetUserByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return false, nil
		}
		return false, err
	}

	return user.Verified, nil
}

func (u *authUsecase) createAuthSession(ctx context.Context, user *model.User) (*Tokens, error) {
	session, err := u.sessionRepo.CreateSession(ctx, &model.Session{
		UserID: user.ID.Hex(),
		JTI:    uuid.NewString(),
	})
	if err != nil {
		return nil, err
	}

	return u.issueTokens(ctx, session.ID.Hex(), user.ID.Hex(), user.Username)
}

func (u *authUsecase) issueTokens(ctx context.Context, sessionID, userID, username string) (*Tokens, error) {
	accessToken, err := u.generateToken(
		userID, username, sessionID,
		u.cfg.Token.AccessTokenSecret,
		u.cfg.Token.AccessTokenExpiresIn,
	)
	if err != nil {
		return nil, err
	}

	refreshToken, err := u.generateToken(
		userID, username, sessionID,
		u.cfg.Token.RefreshTokenSecret,
		u.cfg.Token.RefreshTokenExpiresIn,
	)
	if err != nil {
		return nil, err
	}

	now := u.now()
	if _, err := u.sessionRepo.UpdateTokens(ctx, sessionID, repository.UpdateTokensParams{
		AccessToken:           accessToken,
		RefreshToken:          refreshToken,
		AccessTokenExpiresAt:  now.Add(u.cfg.Token.AccessTokenExpiresIn),
		RefreshTokenExpiresAt: now.Add(u.cfg.Token.RefreshTokenExpiresIn),
	}); err != nil {
		return nil, err
	}

	return &Tokens{
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
	}, nil
}

func (u *authUsecase) generateToken(
	userID, username, sessionID, secret string,
	expiresIn time.Duration,
) (string, error) {
	now := u.now()
	claims := auth.SessionClaims{
		UserID:    userID,
		Username:  username,
		SessionID: sessionID,
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(expiresIn)),
			NotBefore: jwt.NewNumericDate(now),
			Issuer:    u.cfg.Token.Issuer,
			Audience:  jwt.ClaimStrings{u.cfg.Token.Issuer},
		},
	}

	return u.jwtAuth.GenerateToken(claims, secret)
}

// generateVerifyCode returns a random 6-digit code.
func generateVerifyCode() (string, error) {
	n, err := rand.Int(rand.Reader, big.NewInt(900000))
	if err != nil {
		return "", err
	}

	return strconv.FormatInt(n.Int64()+100000, 10), nil
}
