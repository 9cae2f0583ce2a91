package redissession

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/jhoicas/Empresas-api/internal/application/tenantctx"
	"github.com/jhoicas/Empresas-api/pkg/config"
)

// Asegura que Store implementa tenantctx.SessionStore.
var _ tenantctx.SessionStore = (*Store)(nil)

// Store guarda la empresa activa por usuario en Redis. La clave vive con TTL:
// si expira, el resolver simplemente vuelve a la cadena de fallback (empresa
// por defecto, primera activa), así que la pérdida de sesión nunca es un error.
type Store struct {
	rdb *redis.Client
	ttl time.Duration
}

// NewClient crea el cliente Redis y verifica conectividad con un ping.
func NewClient(ctx context.Context, cfg config.RedisConfig) (*redis.Client, error) {
	rdb := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr(),
		Password: cfg.Password,
		DB:       cfg.DB,
	})
	if err := rdb.Ping(ctx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("ping redis: %w", err)
	}
	return rdb, nil
}

// NewStore construye el store con el cliente y el TTL de sesión.
func NewStore(rdb *redis.Client, ttl time.Duration) *Store {
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	return &Store{rdb: rdb, ttl: ttl}
}

func sessionKey(userID string) string {
	return "session:" + userID + ":active_company_id"
}

// GetActiveCompany devuelve la empresa activa guardada para el usuario, o ""
// si no hay sesión (clave ausente o expirada).
func (s *Store) GetActiveCompany(ctx context.Context, userID string) (string, error) {
	val, err := s.rdb.Get(ctx, sessionKey(userID)).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return "", nil
		}
		return "", fmt.Errorf("get active company: %w", err)
	}
	return val, nil
}

// SetActiveCompany guarda la empresa activa del usuario renovando el TTL.
func (s *Store) SetActiveCompany(ctx context.Context, userID, companyID string) error {
	if err := s.rdb.Set(ctx, sessionKey(userID), companyID, s.ttl).Err(); err != nil {
		return fmt.Errorf("set active company: %w", err)
	}
	return nil
}

// Clear elimina la empresa activa guardada del usuario.
func (s *Store) Clear(ctx context.Context, userID string) error {
	if err := s.rdb.Del(ctx, sessionKey(userID)).Err(); err != nil {
		return fmt.Errorf("clear active company: %w", err)
	}
	return nil
}
