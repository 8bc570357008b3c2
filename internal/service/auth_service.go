package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"

	"github.com/sivigila/solicitudes/internal/auth"
	"github.com/sivigila/solicitudes/internal/identidad"
	"github.com/sivigila/solicitudes/internal/usuario"
	"github.com/sivigila/solicitudes/internal/util"
)

var (
	// ErrInvalidCredentials indica falla en la autenticación.
	ErrInvalidCredentials = errors.New("credenciales inválidas")
	// ErrAccountDisabled indica cuenta desactivada.
	ErrAccountDisabled = errors.New("cuenta desactivada")
	// ErrRefreshInvalid indica refresh token inválido o expirado.
	ErrRefreshInvalid = errors.New("refresh token inválido")
	// ErrEmailNoVerificado indica que la cuenta aún no verificó su correo.
	ErrEmailNoVerificado = errors.New("correo no verificado")
	// ErrVerificacionInvalida indica token de verificación desconocido o vencido.
	ErrVerificacionInvalida = errors.New("token de verificación inválido")
)

const verificacionTTL = 24 * time.Hour

type identidadRepo interface {
	FindByEmail(ctx context.Context, email string) (identidad.Identidad, error)
	FindByUID(ctx context.Context, uid string) (identidad.Identidad, error)
	Append(ctx context.Context, id identidad.Identidad) error
	Replace(ctx context.Context, old, updated identidad.Identidad) error
}

// AuthService concentra reglas de autenticación y sesiones: alta de
// identidades, login con emisión de JWT + refresh token rotado en Redis, y
// verificación de correo.
type AuthService struct {
	identidades identidadRepo
	resolver    *Resolver
	redis       redisCommander
	jwt         *auth.JWTManager
	refreshTTL  time.Duration
}

// NewAuthService crea el servicio.
func NewAuthService(identidades identidadRepo, resolver *Resolver, redisClient redisCommander, jwtMgr *auth.JWTManager, refreshTTL time.Duration) *AuthService {
	return &AuthService{
		identidades: identidades,
		resolver:    resolver,
		redis:       redisClient,
		jwt:         jwtMgr,
		refreshTTL:  refreshTTL,
	}
}

// JWT expone el gestor de JWT (útil en middlewares).
func (s *AuthService) JWT() *auth.JWTManager {
	return s.jwt
}

// LoginResult representa el retorno estándar de autenticaciones.
type LoginResult struct {
	AccessToken  string          `json:"accessToken"`
	RefreshToken string          `json:"refreshToken"`
	Subject      string          `json:"subject"`
	Roles        []string        `json:"roles"`
	Perfil       usuario.Usuario `json:"profile"`
}

// SignIn autentica la cuenta y abre la sesión: resuelve el perfil (lo que
// inicializa el caché de identidad) y emite los tokens.
func (s *AuthService) SignIn(ctx context.Context, email, password string) (*LoginResult, error) {
	id, err := s.identidades.FindByEmail(ctx, strings.ToLower(email))
	if err != nil {
		if errors.Is(err, identidad.ErrNotFound) {
			log.Warn().Msg("login: identidad no encontrada")
			return nil, ErrInvalidCredentials
		}
		return nil, err
	}

	ok, err := auth.Verify(password, id.Hash)
	if err != nil {
		log.Warn().Err(err).Msg("login: verificación de contraseña falló")
		return nil, ErrInvalidCredentials
	}
	if !ok {
		log.Warn().Msg("login: contraseña inválida")
		return nil, ErrInvalidCredentials
	}
	if !id.Verificada {
		return nil, ErrEmailNoVerificado
	}

	perfil, err := s.resolver.Resolve(ctx, id.UID)
	if err != nil {
		if errors.Is(err, usuario.ErrNotFound) {
			log.Warn().Msg("login: identidad sin perfil")
			return nil, ErrInvalidCredentials
		}
		return nil, err
	}
	if !perfil.Activo() {
		return nil, ErrAccountDisabled
	}

	return s.abrirSesion(ctx, perfil)
}

func (s *AuthService) abrirSesion(ctx context.Context, perfil usuario.Usuario) (*LoginResult, error) {
	roles := []string{string(perfil.Rol)}

	access, _, err := s.jwt.GenerateAccessToken(perfil.UID, roles)
	if err != nil {
		return nil, err
	}

	raw, hashed, err := auth.GenerateRefreshToken()
	if err != nil {
		return nil, err
	}
	if err := s.redis.Set(ctx, auth.RefreshRedisKey(hashed), perfil.UID, s.refreshTTL).Err(); err != nil {
		return nil, err
	}

	return &LoginResult{
		AccessToken:  access,
		RefreshToken: raw,
		Subject:      perfil.UID,
		Roles:        roles,
		Perfil:       perfil,
	}, nil
}

// Refresh rota el refresh token y emite un nuevo par de tokens.
func (s *AuthService) Refresh(ctx context.Context, rawRefresh string) (*LoginResult, error) {
	key := auth.RefreshRedisKey(auth.HashRefreshToken(rawRefresh))

	uid, err := s.redis.Get(ctx, key).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, ErrRefreshInvalid
		}
		return nil, err
	}

	// rotación: el token usado deja de valer aunque lo demás falle
	if err := s.redis.Del(ctx, key).Err(); err != nil {
		return nil, err
	}

	perfil, err := s.resolver.Resolve(ctx, uid)
	if err != nil {
		if errors.Is(err, usuario.ErrNotFound) {
			return nil, ErrRefreshInvalid
		}
		return nil, err
	}
	if !perfil.Activo() {
		return nil, ErrAccountDisabled
	}

	return s.abrirSesion(ctx, perfil)
}

// SignOut cierra la sesión: revoca el refresh y desmonta el caché de perfil.
func (s *AuthService) SignOut(ctx context.Context, rawRefresh, uid string) error {
	if rawRefresh != "" {
		key := auth.RefreshRedisKey(auth.HashRefreshToken(rawRefresh))
		if err := s.redis.Del(ctx, key).Err(); err != nil {
			return err
		}
	}
	s.resolver.Invalidate(ctx, uid)
	return nil
}

// SignUp crea la identidad de una cuenta nueva y deja pendiente la
// verificación de correo. El perfil de dominio se escribe aparte, en el
// segundo paso del alta de usuario.
func (s *AuthService) SignUp(ctx context.Context, email, password string) (*identidad.Identidad, error) {
	if err := util.ValidateEmail(email); err != nil {
		return nil, err
	}
	if err := util.ValidatePassword(password); err != nil {
		return nil, err
	}

	email = strings.ToLower(strings.TrimSpace(email))
	if _, err := s.identidades.FindByEmail(ctx, email); err == nil {
		return nil, identidad.ErrEmailEnUso
	} else if !errors.Is(err, identidad.ErrNotFound) {
		return nil, err
	}

	hash, err := auth.Hash(password)
	if err != nil {
		return nil, err
	}

	id := identidad.Identidad{
		UID:       util.NewID(),
		Email:     email,
		Hash:      hash,
		CreatedAt: time.Now().UTC(),
	}
	if err := s.identidades.Append(ctx, id); err != nil {
		return nil, err
	}

	if err := s.SendVerification(ctx, id); err != nil {
		log.Warn().Err(err).Msg("no se pudo emitir el token de verificación")
	}

	return &id, nil
}

// SendVerification emite un token de verificación de correo con TTL. El
// envío del correo en sí queda fuera de este servicio; el token se registra
// en el log para entornos sin mensajería.
func (s *AuthService) SendVerification(ctx context.Context, id identidad.Identidad) error {
	token := util.NewID()
	if err := s.redis.Set(ctx, auth.VerifyRedisKey(token), id.UID, verificacionTTL).Err(); err != nil {
		return err
	}
	log.Info().Str("email", id.Email).Str("token", token).Msg("token de verificación emitido")
	return nil
}

// VerifyEmail consume el token y marca la identidad como verificada.
func (s *AuthService) VerifyEmail(ctx context.Context, token string) error {
	key := auth.VerifyRedisKey(token)

	uid, err := s.redis.Get(ctx, key).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return ErrVerificacionInvalida
		}
		return err
	}

	id, err := s.identidades.FindByUID(ctx, uid)
	if err != nil {
		return ErrVerificacionInvalida
	}
	if !id.Verificada {
		verificada := id
		verificada.Verificada = true
		if err := s.identidades.Replace(ctx, id, verificada); err != nil {
			return err
		}
	}

	return s.redis.Del(ctx, key).Err()
}
