package usecase

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"discord-sales-bot/internal/domain"
	"discord-sales-bot/internal/domain/model"
	"discord-sales-bot/internal/domain/ports/repository"
)

var _ AuthorizationRegistry = (*authorizationUC)(nil)

// AuthorizationRegistry answers who may run privileged commands. The cache
// only ever follows a confirmed store write.
type AuthorizationRegistry interface {
	Load(ctx context.Context) error
	IsAuthorized(principalID string) bool
	IsOwner(principalID string) bool
	Add(ctx context.Context, principalID, displayName string) error
	Remove(ctx context.Context, principalID string) error
	// List reads the store, never the cache.
	List(ctx context.Context) ([]*model.AuthorizedUser, error)
}

type authorizationUC struct {
	users   repository.AuthorizedUserRepository
	ownerID string

	// write is held across a store mutation and the cache update that
	// follows it, so concurrent Add/Remove cannot reorder the two.
	write sync.Mutex

	mu    sync.RWMutex
	cache map[string]struct{}

	log *zerolog.Logger
}

func NewAuthorizationRegistry(users repository.AuthorizedUserRepository, ownerID string, logger *zerolog.Logger) *authorizationUC {
	l := logger.With().Str("component", "authz").Logger()
	return &authorizationUC{
		users:   users,
		ownerID: ownerID,
		cache:   make(map[string]struct{}),
		log:     &l,
	}
}

func (r *authorizationUC) Load(ctx context.Context) error {
	list, err := r.users.List(ctx, repository.NoTX)
	if err != nil {
		return err
	}
	fresh := make(map[string]struct{}, len(list))
	for _, u := range list {
		if u.PrincipalID == r.ownerID {
			continue
		}
		fresh[u.PrincipalID] = struct{}{}
	}
	r.mu.Lock()
	r.cache = fresh
	r.mu.Unlock()
	r.log.Info().Int("users", len(fresh)).Msg("authorized users loaded")
	return nil
}

func (r *authorizationUC) IsOwner(principalID string) bool {
	return principalID != "" && principalID == r.ownerID
}

func (r *authorizationUC) IsAuthorized(principalID string) bool {
	if r.IsOwner(principalID) {
		return true
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.cache[principalID]
	return ok
}

func (r *authorizationUC) Add(ctx context.Context, principalID, displayName string) error {
	if r.IsOwner(principalID) {
		return domain.ErrOwnerImmutable
	}
	if principalID == "" {
		return fmt.Errorf("%w: principal id is required", domain.ErrInvalidArgument)
	}

	u := &model.AuthorizedUser{
		PrincipalID:  principalID,
		DisplayName:  displayName,
		AuthorizedAt: time.Now().UTC(),
	}

	r.write.Lock()
	defer r.write.Unlock()
	if err := r.users.Insert(ctx, repository.NoTX, u); err != nil {
		r.log.Warn().Err(err).Str("principal_id", principalID).Msg("authorize failed")
		return err
	}

	r.mu.Lock()
	r.cache[principalID] = struct{}{}
	r.mu.Unlock()
	r.log.Info().Str("principal_id", principalID).Msg("principal authorized")
	return nil
}

func (r *authorizationUC) Remove(ctx context.Context, principalID string) error {
	if r.IsOwner(principalID) {
		return domain.ErrOwnerImmutable
	}

	r.write.Lock()
	defer r.write.Unlock()
	ok, err := r.users.Delete(ctx, repository.NoTX, principalID)
	if err != nil {
		r.log.Warn().Err(err).Str("principal_id", principalID).Msg("deauthorize failed")
		return err
	}
	if !ok {
		return domain.ErrNotFound
	}

	r.mu.Lock()
	delete(r.cache, principalID)
	r.mu.Unlock()
	r.log.Info().Str("principal_id", principalID).Msg("principal deauthorized")
	return nil
}

func (r *authorizationUC) List(ctx context.Context) ([]*model.AuthorizedUser, error) {
	return r.users.List(ctx, repository.NoTX)
}
