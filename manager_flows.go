package goAuthClient

import (
	"context"

	"github.com/MrEthical07/goAuthClient/internal/flows"
	"github.com/MrEthical07/goAuthClient/jwt"
)

func (m *Manager) buildFlowDeps() flows.Deps {
	tokenKey := m.config.Storage.TokenKey
	userKey := m.config.Storage.UserKey

	login := flows.LoginDeps{
		TokenKey:   tokenKey,
		UserKey:    userKey,
		Login:      m.api.Login,
		Set:        m.store.Set,
		EncodeUser: encodeUser,
		Warn:       m.storageWarning,
		Guard:      m.guardPersist,
		Apply:      m.apply,
	}

	restore := flows.RestoreDeps{
		TokenKey:   tokenKey,
		UserKey:    userKey,
		Get:        m.store.Get,
		DecodeUser: decodeUser,
		Warn:       m.storageWarning,
	}
	if m.config.Session.DiscardExpiredTokens {
		restore.TokenExpired = m.tokenExpired
	}

	return flows.Deps{
		Restore: restore,
		Login:   login,
		Register: flows.RegisterDeps{
			Register: m.api.Register,
			Login: func(ctx context.Context, email, password string) (flows.LoginResult, error) {
				return flows.RunLogin(ctx, email, password, login)
			},
		},
		Logout: flows.LogoutDeps{
			TokenKey: tokenKey,
			UserKey:  userKey,
			Remove:   m.store.Remove,
			Warn:     m.storageWarning,
			Clear:    func() { m.clear() },
		},
	}
}

// tokenExpired reports whether token is a JWT past its exp. Opaque tokens
// and JWTs without exp never expire client-side.
func (m *Manager) tokenExpired(token string) bool {
	claims, err := jwt.Inspect(token)
	if err != nil {
		return false
	}
	return claims.Expired(m.now(), m.config.Session.ExpiryLeeway)
}

// guardPersist runs a login's store writes under persistMu. The generation
// moves before the first write, so a Restore still holding an older read
// will neither apply it nor delete the new pair.
func (m *Manager) guardPersist(persist func()) {
	m.persistMu.Lock()
	defer m.persistMu.Unlock()

	m.mu.Lock()
	m.generation++
	m.mu.Unlock()

	persist()
}

// discardExpired removes a stored pair whose token has expired, unless a
// transition happened since Restore read it.
func (m *Manager) discardExpired(ctx context.Context, startGen uint64) {
	m.persistMu.Lock()
	defer m.persistMu.Unlock()

	m.mu.RLock()
	moved := m.generation != startGen
	m.mu.RUnlock()
	if moved {
		m.logger.DebugContext(ctx, "expired session left in place, a newer transition owns the store")
		return
	}

	for _, key := range []string{m.config.Storage.TokenKey, m.config.Storage.UserKey} {
		if err := m.store.Remove(ctx, key); err != nil {
			m.storageWarning(ctx, "restore", key, err)
		}
	}
}
