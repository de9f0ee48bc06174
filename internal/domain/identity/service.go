package identity

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"crm-backend/internal/domain/audit"
	"crm-backend/internal/domain/systemlog"
	"crm-backend/internal/domain/visibility"
)

// Los tres primeros comparten la taxonomía del resto de los dominios; los
// otros son propios de auth y los mapea el handler.
var (
	ErrInvalidInput = audit.ErrInvalidInput
	ErrNotFound     = audit.ErrNotFound
	ErrForbidden    = audit.ErrForbidden

	ErrEmailTaken     = errors.New("email already registered")
	ErrBadCredentials = errors.New("invalid credentials")
	ErrBadToken       = errors.New("invalid refresh token")
)

// TokenIssuer emite y valida los tokens de sesión. La implementación real
// vive en adapters/auth/jwtauth.
type TokenIssuer interface {
	IssueAccess(userID, email, role, teamID string) (string, error)
	IssueRefresh(userID string) (token string, expiresAt time.Time, err error)
	VerifyRefresh(token string) (userID string, err error)
}

// Meta es el contexto del request que queda en el log de sistema.
type Meta struct {
	IPAddress string
	UserAgent string
}

type Service struct {
	repo   Repository
	tokens TokenIssuer
	trail  *systemlog.Service
	now    func() time.Time
}

func NewService(repo Repository, tokens TokenIssuer, trail *systemlog.Service) *Service {
	return &Service{
		repo:   repo,
		tokens: tokens,
		trail:  trail,
		now:    time.Now,
	}
}

type RegisterInput struct {
	Name     string
	Email    string
	Password string
	Role     string
	TeamID   string
}

func (s *Service) Register(ctx context.Context, in RegisterInput, meta Meta) (User, TokenPair, error) {
	name := strings.TrimSpace(in.Name)
	email := strings.ToLower(strings.TrimSpace(in.Email))

	if name == "" || email == "" || len(in.Password) < 6 {
		return User{}, TokenPair{}, ErrInvalidInput
	}

	role, err := parseRole(in.Role)
	if err != nil {
		return User{}, TokenPair{}, err
	}

	if _, err := s.repo.GetByEmail(ctx, email); err == nil {
		return User{}, TokenPair{}, ErrEmailTaken
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(in.Password), bcrypt.DefaultCost)
	if err != nil {
		return User{}, TokenPair{}, err
	}

	now := s.now()
	u := User{
		ID:           uuid.NewString(),
		Name:         name,
		Email:        email,
		PasswordHash: string(hash),
		Role:         role,
		TeamID:       strings.TrimSpace(in.TeamID),
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := s.repo.Create(ctx, u); err != nil {
		return User{}, TokenPair{}, err
	}

	pair, err := s.issueSession(ctx, u)
	if err != nil {
		return User{}, TokenPair{}, err
	}

	s.record(ctx, u.ID, systemlog.ActionRegister, "user", u.ID, "user registered: "+u.Email, meta)
	return u, pair, nil
}

func (s *Service) Login(ctx context.Context, email, password string, meta Meta) (User, TokenPair, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" || password == "" {
		return User{}, TokenPair{}, ErrInvalidInput
	}

	u, err := s.repo.GetByEmail(ctx, email)
	if err != nil {
		return User{}, TokenPair{}, ErrBadCredentials
	}
	if bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(password)) != nil {
		return User{}, TokenPair{}, ErrBadCredentials
	}

	pair, err := s.issueSession(ctx, u)
	if err != nil {
		return User{}, TokenPair{}, err
	}

	s.record(ctx, u.ID, systemlog.ActionLogin, "user", u.ID, "login: "+u.Email, meta)
	return u, pair, nil
}

// Refresh rota el refresh token: valida firma + existencia en el store,
// emite un par nuevo y reemplaza el token guardado.
func (s *Service) Refresh(ctx context.Context, refreshToken string) (TokenPair, error) {
	refreshToken = strings.TrimSpace(refreshToken)
	if refreshToken == "" {
		return TokenPair{}, ErrInvalidInput
	}

	stored, err := s.repo.GetRefreshToken(ctx, refreshToken)
	if err != nil {
		return TokenPair{}, ErrBadToken
	}
	if s.now().After(stored.ExpiresAt) {
		_ = s.repo.DeleteRefreshToken(ctx, refreshToken)
		return TokenPair{}, ErrBadToken
	}

	userID, err := s.tokens.VerifyRefresh(refreshToken)
	if err != nil || userID != stored.UserID {
		return TokenPair{}, ErrBadToken
	}

	u, err := s.repo.GetByID(ctx, userID)
	if err != nil {
		return TokenPair{}, ErrBadToken
	}

	access, err := s.tokens.IssueAccess(u.ID, u.Email, string(u.Role), u.TeamID)
	if err != nil {
		return TokenPair{}, err
	}
	newRefresh, expires, err := s.tokens.IssueRefresh(u.ID)
	if err != nil {
		return TokenPair{}, err
	}
	if err := s.repo.RotateRefreshToken(ctx, stored.ID, newRefresh, expires); err != nil {
		return TokenPair{}, err
	}

	return TokenPair{AccessToken: access, RefreshToken: newRefresh}, nil
}

func (s *Service) Logout(ctx context.Context, refreshToken string, meta Meta) error {
	refreshToken = strings.TrimSpace(refreshToken)
	if refreshToken == "" {
		return ErrInvalidInput
	}

	stored, err := s.repo.GetRefreshToken(ctx, refreshToken)
	if err != nil {
		return nil // idempotente: logout de un token ya inválido no es error
	}
	if err := s.repo.DeleteRefreshToken(ctx, refreshToken); err != nil {
		return err
	}

	s.record(ctx, stored.UserID, systemlog.ActionLogout, "user", stored.UserID, "logout", meta)
	return nil
}

func (s *Service) GetByID(ctx context.Context, id string) (User, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return User{}, ErrInvalidInput
	}
	return s.repo.GetByID(ctx, id)
}

// List es admin-only: el directorio completo no se expone a otros roles.
func (s *Service) List(ctx context.Context, actor visibility.Actor) ([]User, error) {
	if actor.Role != visibility.RoleAdmin {
		return nil, ErrForbidden
	}
	return s.repo.List(ctx)
}

func (s *Service) Count(ctx context.Context) (int, error) {
	return s.repo.Count(ctx)
}

// UpdateRole cambia el rol de un usuario. Solo ADMIN, y queda en el log.
func (s *Service) UpdateRole(ctx context.Context, actor visibility.Actor, userID, role string, meta Meta) (User, error) {
	if actor.Role != visibility.RoleAdmin {
		return User{}, ErrForbidden
	}

	if strings.TrimSpace(role) == "" {
		return User{}, ErrInvalidInput
	}
	newRole, err := parseRole(role)
	if err != nil {
		return User{}, err
	}

	u, err := s.repo.GetByID(ctx, userID)
	if err != nil {
		return User{}, err
	}
	if err := s.repo.UpdateRole(ctx, u.ID, newRole); err != nil {
		return User{}, err
	}
	u.Role = newRole

	s.record(ctx, actor.ID, systemlog.ActionRoleUpdate, "user", u.ID,
		"role changed to "+string(newRole)+" for "+u.Email, meta)
	return u, nil
}

// TeamOf implementa visibility.TeamDirectory.
func (s *Service) TeamOf(ctx context.Context, userID string) (string, error) {
	u, err := s.repo.GetByID(ctx, userID)
	if err != nil {
		return "", err
	}
	return u.TeamID, nil
}

// Resolve arma el actor vigente para el middleware. El rol sale del store,
// no del token: un cambio de rol aplica en el siguiente request.
func (s *Service) Resolve(ctx context.Context, userID string) (visibility.Actor, error) {
	u, err := s.repo.GetByID(ctx, userID)
	if err != nil {
		return visibility.Actor{}, err
	}
	return u.Actor(), nil
}

func (s *Service) issueSession(ctx context.Context, u User) (TokenPair, error) {
	access, err := s.tokens.IssueAccess(u.ID, u.Email, string(u.Role), u.TeamID)
	if err != nil {
		return TokenPair{}, err
	}
	refresh, expires, err := s.tokens.IssueRefresh(u.ID)
	if err != nil {
		return TokenPair{}, err
	}

	if err := s.repo.SaveRefreshToken(ctx, RefreshToken{
		ID:        uuid.NewString(),
		Token:     refresh,
		UserID:    u.ID,
		ExpiresAt: expires,
		CreatedAt: s.now(),
	}); err != nil {
		return TokenPair{}, err
	}

	return TokenPair{AccessToken: access, RefreshToken: refresh}, nil
}

func (s *Service) record(ctx context.Context, actorID, action, entityType, entityID, desc string, meta Meta) {
	if s.trail == nil {
		return
	}
	// best-effort: la auditoría gruesa no bloquea la operación
	_ = s.trail.Record(ctx, systemlog.Entry{
		ActorID:     actorID,
		Action:      action,
		EntityType:  entityType,
		EntityID:    entityID,
		Description: desc,
		IPAddress:   meta.IPAddress,
		UserAgent:   meta.UserAgent,
	})
}

func parseRole(s string) (visibility.Role, error) {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "":
		return visibility.RoleSales, nil
	case string(visibility.RoleAdmin):
		return visibility.RoleAdmin, nil
	case string(visibility.RoleManager):
		return visibility.RoleManager, nil
	case string(visibility.RoleSales):
		return visibility.RoleSales, nil
	default:
		return "", ErrInvalidInput
	}
}
