package service

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"

	"github.com/sivigila/solicitudes/internal/auth"
	"github.com/sivigila/solicitudes/internal/usuario"
)

type perfilFinder interface {
	FindByUID(ctx context.Context, uid string) (usuario.Usuario, error)
}

type redisCommander interface {
	Set(ctx context.Context, key string, value any, expiration time.Duration) *redis.StatusCmd
	Get(ctx context.Context, key string) *redis.StringCmd
	Del(ctx context.Context, keys ...string) *redis.IntCmd
}

// Resolver mapea el sujeto autenticado de la sesión a su perfil de dominio,
// recorriendo la colección de usuarios y cacheando el resultado por la vida
// de la sesión. El caché se inicializa en el login y se invalida de forma
// explícita al mutar el perfil o cerrar sesión.
type Resolver struct {
	perfiles perfilFinder
	cache    redisCommander
	ttl      time.Duration
}

// NewResolver crea el resolutor de identidad con TTL de sesión.
func NewResolver(perfiles perfilFinder, cache redisCommander, ttl time.Duration) *Resolver {
	return &Resolver{perfiles: perfiles, cache: cache, ttl: ttl}
}

// Resolve devuelve el perfil del sujeto, sirviendo desde caché cuando hay.
func (r *Resolver) Resolve(ctx context.Context, uid string) (usuario.Usuario, error) {
	key := auth.ProfileRedisKey(uid)

	if r.cache != nil {
		if raw, err := r.cache.Get(ctx, key).Result(); err == nil {
			var cached usuario.Usuario
			if err := json.Unmarshal([]byte(raw), &cached); err == nil {
				return cached, nil
			}
			// entrada corrupta, se rehace desde la colección
			r.cache.Del(ctx, key)
		} else if !errors.Is(err, redis.Nil) {
			log.Warn().Err(err).Msg("caché de perfil no disponible")
		}
	}

	perfil, err := r.perfiles.FindByUID(ctx, uid)
	if err != nil {
		return usuario.Usuario{}, err
	}

	if r.cache != nil {
		if raw, err := json.Marshal(perfil); err == nil {
			if err := r.cache.Set(ctx, key, raw, r.ttl).Err(); err != nil {
				log.Warn().Err(err).Msg("no se pudo cachear el perfil")
			}
		}
	}

	return perfil, nil
}

// Invalidate descarta el perfil cacheado del sujeto.
func (r *Resolver) Invalidate(ctx context.Context, uid string) {
	if r.cache == nil {
		return
	}
	if err := r.cache.Del(ctx, auth.ProfileRedisKey(uid)).Err(); err != nil {
		log.Warn().Err(err).Msg("no se pudo invalidar el perfil cacheado")
	}
}
