package services

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"

	"tripplanner/internal/auth"
	"tripplanner/internal/config"
	"tripplanner/internal/models"
	"tripplanner/internal/storage"

	"gorm.io/gorm"
)

var (
	ErrEmptyCredentials      = errors.New("请填写所有字段")
	ErrPasswordTooShort      = errors.New("密码长度不能少于5个字符")
	ErrPasswordMismatch      = errors.New("两次输入的密码不一致")
	ErrEmailTaken            = errors.New("该邮箱已被注册")
	ErrInvalidCredentials    = errors.New("邮箱或密码错误")
	ErrUserNotFound          = errors.New("用户不存在")
	ErrWrongOldPassword      = errors.New("旧密码不正确")
	ErrFederatedTokenInvalid = errors.New("第三方登录凭证无效")
)

// AuthService handles registration, login, password change and federated
// token exchange.
type AuthService interface {
	Register(ctx context.Context, email, password, confirmPassword string) (*models.User, string, error)
	Login(ctx context.Context, email, password string) (*models.User, string, error)
	ChangePassword(ctx context.Context, userID uint, oldPassword, newPassword string) error
	// ExchangeFederatedToken verifies a provider ID token and returns the
	// local user (created on first sign-in) plus a session JWT.
	ExchangeFederatedToken(ctx context.Context, idToken string) (*models.User, string, error)
}

type authService struct {
	userRepo storage.UserRepository
	verifier auth.FederatedTokenVerifier
	authCfg  config.AuthConfig
}

// NewAuthService creates a new AuthService instance.
func NewAuthService(userRepo storage.UserRepository, verifier auth.FederatedTokenVerifier, authCfg config.AuthConfig) AuthService {
	return &authService{
		userRepo: userRepo,
		verifier: verifier,
		authCfg:  authCfg,
	}
}

// Register validates the input, creates the user and returns a session token.
// The initial username is derived from the email local part.
func (s *authService) Register(ctx context.Context, email, password, confirmPassword string) (*models.User, string, error) {
	email = strings.TrimSpace(email)
	if email == "" || password == "" || confirmPassword == "" {
		return nil, "", ErrEmptyCredentials
	}
	if len(password) < 5 {
		return nil, "", ErrPasswordTooShort
	}
	if password != confirmPassword {
		return nil, "", ErrPasswordMismatch
	}

	existing, err := s.userRepo.GetByEmail(ctx, email)
	if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, "", fmt.Errorf("检查邮箱是否已注册失败: %w", err)
	}
	if existing != nil {
		return nil, "", ErrEmailTaken
	}

	hashedPassword, err := auth.HashPassword(password)
	if err != nil {
		return nil, "", fmt.Errorf("密码哈希失败: %w", err)
	}

	user := &models.User{
		Username:     usernameFromEmail(email),
		Email:        email,
		PasswordHash: hashedPassword,
	}
	if err := s.userRepo.Create(ctx, user); err != nil {
		return nil, "", fmt.Errorf("创建用户失败: %w", err)
	}

	token, err := auth.GenerateToken(user.ID, user.Username, s.authCfg)
	if err != nil {
		return nil, "", fmt.Errorf("生成令牌失败: %w", err)
	}
	log.Printf("新用户注册成功: %s (ID: %d)", user.Email, user.ID)
	return user, token, nil
}

// Login verifies credentials and returns the user with a fresh session token.
func (s *authService) Login(ctx context.Context, email, password string) (*models.User, string, error) {
	email = strings.TrimSpace(email)
	if email == "" || password == "" {
		return nil, "", ErrEmptyCredentials
	}

	user, err := s.userRepo.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, "", ErrInvalidCredentials
		}
		return nil, "", fmt.Errorf("查询用户失败: %w", err)
	}
	if !auth.CheckPasswordHash(password, user.PasswordHash) {
		return nil, "", ErrInvalidCredentials
	}

	token, err := auth.GenerateToken(user.ID, user.Username, s.authCfg)
	if err != nil {
		return nil, "", fmt.Errorf("生成令牌失败: %w", err)
	}
	return user, token, nil
}

// ChangePassword re-authenticates with the old password before updating.
func (s *authService) ChangePassword(ctx context.Context, userID uint, oldPassword, newPassword string) error {
	if oldPassword == "" || newPassword == "" {
		return ErrEmptyCredentials
	}
	if len(newPassword) < 5 {
		return ErrPasswordTooShort
	}

	user, err := s.userRepo.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrUserNotFound
		}
		return fmt.Errorf("查询用户失败: %w", err)
	}
	if !auth.CheckPasswordHash(oldPassword, user.PasswordHash) {
		return ErrWrongOldPassword
	}

	hashedPassword, err := auth.HashPassword(newPassword)
	if err != nil {
		return fmt.Errorf("密码哈希失败: %w", err)
	}
	user.PasswordHash = hashedPassword
	if err := s.userRepo.Update(ctx, user); err != nil {
		return fmt.Errorf("更新密码失败: %w", err)
	}
	return nil
}

// ExchangeFederatedToken verifies the provider ID token, resolves or creates
// the local account and issues a session JWT.
func (s *authService) ExchangeFederatedToken(ctx context.Context, idToken string) (*models.User, string, error) {
	if idToken == "" {
		return nil, "", ErrFederatedTokenInvalid
	}
	claims, err := s.verifier.Verify(ctx, idToken)
	if err != nil {
		log.Printf("第三方令牌验证失败: %v", err)
		return nil, "", ErrFederatedTokenInvalid
	}
	// 邮箱为空的令牌不可用：空邮箱账号会在 users.email 唯一索引上互相冲突。
	if claims.Email == "" {
		log.Printf("第三方令牌缺少邮箱 (subject: %s)", claims.Subject)
		return nil, "", ErrFederatedTokenInvalid
	}

	user, err := s.userRepo.GetByFederatedIdentity(ctx, s.authCfg.FederatedProvider, claims.Subject)
	if err == nil {
		token, tokenErr := auth.GenerateToken(user.ID, user.Username, s.authCfg)
		if tokenErr != nil {
			return nil, "", fmt.Errorf("生成令牌失败: %w", tokenErr)
		}
		return user, token, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, "", fmt.Errorf("查询第三方身份失败: %w", err)
	}

	// 首次第三方登录：优先绑定同邮箱的已有账号，否则创建新账号。
	user, err = s.userRepo.GetByEmail(ctx, claims.Email)
	if err != nil {
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, "", fmt.Errorf("查询用户失败: %w", err)
		}
		username := claims.Name
		if username == "" {
			username = usernameFromEmail(claims.Email)
		}
		user = &models.User{
			Username: username,
			Email:    claims.Email,
		}
		if err := s.userRepo.Create(ctx, user); err != nil {
			return nil, "", fmt.Errorf("创建第三方登录用户失败: %w", err)
		}
	}

	identity := &models.FederatedIdentity{
		UserID:         user.ID,
		Provider:       s.authCfg.FederatedProvider,
		ProviderUserID: claims.Subject,
	}
	if err := s.userRepo.CreateFederatedIdentity(ctx, identity); err != nil {
		return nil, "", fmt.Errorf("绑定第三方身份失败: %w", err)
	}

	token, err := auth.GenerateToken(user.ID, user.Username, s.authCfg)
	if err != nil {
		return nil, "", fmt.Errorf("生成令牌失败: %w", err)
	}
	log.Printf("第三方登录成功: %s (ID: %d)", user.Email, user.ID)
	return user, token, nil
}

// usernameFromEmail 取邮箱 @ 前的部分作为初始用户名。
func usernameFromEmail(email string) string {
	if idx := strings.Index(email, "@"); idx > 0 {
		return email[:idx]
	}
	return email
}
