package service

import (
	"context"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"encoding/hex"
	"encoding/json"
	"errors"
	"time"

	"github.com/jellydator/ttlcache/v3"
	"github.com/redis/go-redis/v9"

	"parkent-market/internal/domain"
)

// LoginLinkService implementa la emisión de tokens en dos pasos: GenerateLink
// crea un artefacto de login de un solo uso para una cuenta y VerifyLink lo
// canjea por el par de tokens. El artefacto nunca viaja fuera del proceso
// salvo entre estos dos pasos.
type LoginLinkService struct {
	store ArtifactStore
	jwt   *JWTService
	ttl   time.Duration
}

var ErrLoginLinkInvalid = errors.New("login link invalid")

const loginLinkTTL = time.Minute

func NewLoginLinkService(store ArtifactStore, jwtSvc *JWTService) *LoginLinkService {
	if store == nil {
		store = NewMemoryArtifactStore()
	}
	return &LoginLinkService{
		store: store,
		jwt:   jwtSvc,
		ttl:   loginLinkTTL,
	}
}

// GenerateLink emite el artefacto de un solo uso para la cuenta dada.
func (s *LoginLinkService) GenerateLink(ctx context.Context, account domain.Account) (string, error) {
	if s.jwt == nil {
		return "", errors.New("login link service not configured")
	}
	raw := make([]byte, 32)
	if _, err := rand.Read(raw); err != nil {
		return "", err
	}
	artifact := base64.RawURLEncoding.EncodeToString(raw)
	if err := s.store.Put(ctx, hashArtifact(artifact), account, s.ttl); err != nil {
		return "", err
	}
	return artifact, nil
}

// VerifyLink consume el artefacto y devuelve el par de tokens de la cuenta.
// Un segundo canje del mismo artefacto falla con ErrLoginLinkInvalid.
func (s *LoginLinkService) VerifyLink(ctx context.Context, artifact string) (TokenPair, domain.Account, error) {
	if s.jwt == nil {
		return TokenPair{}, domain.Account{}, errors.New("login link service not configured")
	}
	account, ok, err := s.store.Consume(ctx, hashArtifact(artifact))
	if err != nil {
		return TokenPair{}, domain.Account{}, err
	}
	if !ok {
		return TokenPair{}, domain.Account{}, ErrLoginLinkInvalid
	}
	tokens, err := s.jwt.GeneratePair(account)
	if err != nil {
		return TokenPair{}, domain.Account{}, err
	}
	return tokens, account, nil
}

func hashArtifact(artifact string) string {
	sum := sha256.Sum256([]byte(artifact))
	return hex.EncodeToString(sum[:])
}

// ArtifactStore guarda artefactos de login hasheados con TTL y consumo único.
type ArtifactStore interface {
	Put(ctx context.Context, key string, account domain.Account, ttl time.Duration) error
	Consume(ctx context.Context, key string) (domain.Account, bool, error)
}

type memoryArtifactStore struct {
	cache *ttlcache.Cache[string, domain.Account]
}

// NewMemoryArtifactStore crea un store en memoria. La expiración se evalúa
// al consumir; sin goroutine de limpieza, los artefactos viven como máximo
// su TTL de un minuto.
func NewMemoryArtifactStore() ArtifactStore {
	cache := ttlcache.New(
		ttlcache.WithDisableTouchOnHit[string, domain.Account](),
	)
	return &memoryArtifactStore{cache: cache}
}

func (s *memoryArtifactStore) Put(_ context.Context, key string, account domain.Account, ttl time.Duration) error {
	s.cache.Set(key, account, ttl)
	return nil
}

func (s *memoryArtifactStore) Consume(_ context.Context, key string) (domain.Account, bool, error) {
	item, existed := s.cache.GetAndDelete(key)
	if !existed || item == nil || item.IsExpired() {
		return domain.Account{}, false, nil
	}
	return item.Value(), true, nil
}

type redisArtifactStore struct {
	client *redis.Client
	prefix string
}

func NewRedisArtifactStore(client *redis.Client) ArtifactStore {
	if client == nil {
		return nil
	}
	return &redisArtifactStore{
		client: client,
		prefix: "auth:link:",
	}
}

func (s *redisArtifactStore) Put(ctx context.Context, key string, account domain.Account, ttl time.Duration) error {
	payload, err := json.Marshal(account)
	if err != nil {
		return err
	}
	return s.client.Set(ctx, s.prefix+key, payload, ttl).Err()
}

func (s *redisArtifactStore) Consume(ctx context.Context, key string) (domain.Account, bool, error) {
	payload, err := s.client.GetDel(ctx, s.prefix+key).Bytes()
	if errors.Is(err, redis.Nil) {
		return domain.Account{}, false, nil
	}
	if err != nil {
		return domain.Account{}, false, err
	}
	var account domain.Account
	if err := json.Unmarshal(payload, &account); err != nil {
		return domain.Account{}, false, err
	}
	return account, true, nil
}
