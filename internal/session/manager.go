package session

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/dropDatabas3/strongjohn/internal/cache"
	"github.com/dropDatabas3/strongjohn/internal/security/tokens"
	"github.com/google/uuid"
)

const keyPrefix = "sess:"

// Config controla cookies y vida de sesión.
type Config struct {
	CookieName string
	TTL        time.Duration
	Domain     string
	Secure     bool
}

// Manager persiste States en un cache.Client y maneja la cookie de sesión.
type Manager struct {
	cache cache.Client
	cfg   Config
}

func NewManager(c cache.Client, cfg Config) *Manager {
	if cfg.CookieName == "" {
		cfg.CookieName = "sj_session"
	}
	if cfg.TTL == 0 {
		cfg.TTL = 24 * time.Hour
	}
	return &Manager{cache: c, cfg: cfg}
}

// Load obtiene el State de la cookie del request. Si no hay cookie o la
// sesión expiró, retorna un State nuevo aún no persistido.
func (m *Manager) Load(ctx context.Context, r *http.Request) (*State, error) {
	ck, err := r.Cookie(m.cfg.CookieName)
	if err != nil || ck.Value == "" {
		return m.newState(), nil
	}
	raw, err := m.cache.Get(ctx, keyPrefix+ck.Value)
	if err != nil {
		if cache.IsNotFound(err) {
			return m.newState(), nil
		}
		return nil, fmt.Errorf("session load: %w", err)
	}
	var st State
	if err := json.Unmarshal([]byte(raw), &st); err != nil {
		// estado corrupto: descartarlo y arrancar limpio
		return m.newState(), nil
	}
	return &st, nil
}

// Save persiste el State con el TTL configurado.
func (m *Manager) Save(ctx context.Context, st *State) error {
	b, err := json.Marshal(st)
	if err != nil {
		return err
	}
	return m.cache.Set(ctx, keyPrefix+st.ID, string(b), m.cfg.TTL)
}

// WriteCookie emite la cookie de sesión.
func (m *Manager) WriteCookie(w http.ResponseWriter, st *State) {
	http.SetCookie(w, &http.Cookie{
		Name:     m.cfg.CookieName,
		Value:    st.ID,
		Path:     "/",
		Domain:   m.cfg.Domain,
		MaxAge:   int(m.cfg.TTL.Seconds()),
		HttpOnly: true,
		Secure:   m.cfg.Secure,
		SameSite: http.SameSiteLaxMode,
	})
}

// Destroy borra la sesión del store y expira la cookie.
func (m *Manager) Destroy(ctx context.Context, w http.ResponseWriter, st *State) error {
	st.Clear()
	if err := m.cache.Delete(ctx, keyPrefix+st.ID); err != nil && !cache.IsNotFound(err) {
		return err
	}
	http.SetCookie(w, &http.Cookie{
		Name:     m.cfg.CookieName,
		Value:    "",
		Path:     "/",
		Domain:   m.cfg.Domain,
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   m.cfg.Secure,
		SameSite: http.SameSiteLaxMode,
	})
	return nil
}

func (m *Manager) newState() *State {
	// uuid + entropía extra: el id de sesión es bearer credential
	suffix, err := tokens.GenerateOpaqueToken(16)
	if err != nil {
		suffix = uuid.NewString()
	}
	return &State{
		ID:        uuid.NewString() + "." + suffix,
		CreatedAt: time.Now().UTC(),
	}
}
