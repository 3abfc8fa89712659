// Package admin expone el surface de administración de cuentas.
// Protegido por basic auth de operador, no por sesión de usuario.
package admin

import (
	"crypto/subtle"
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	httperrors "github.com/dropDatabas3/strongjohn/internal/http/errors"
	svc "github.com/dropDatabas3/strongjohn/internal/http/services/admin"
)

type UsersController struct {
	service *svc.UsersService
	user    string
	pass    string
}

func NewUsersController(service *svc.UsersService, basicUser, basicPass string) *UsersController {
	return &UsersController{service: service, user: basicUser, pass: basicPass}
}

type createUserRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type userView struct {
	ID                 int64  `json:"id"`
	Email              string `json:"email"`
	IsTwoFactorEnabled bool   `json:"is_two_factor_enabled"`
	CreatedAt          string `json:"created_at"`
}

func (c *UsersController) authorize(w http.ResponseWriter, r *http.Request) bool {
	if c.user == "" {
		httperrors.WriteError(w, httperrors.ErrNotFound)
		return false
	}
	u, p, ok := r.BasicAuth()
	if !ok ||
		subtle.ConstantTimeCompare([]byte(u), []byte(c.user)) != 1 ||
		subtle.ConstantTimeCompare([]byte(p), []byte(c.pass)) != 1 {
		w.Header().Set("WWW-Authenticate", `Basic realm="admin"`)
		httperrors.WriteError(w, httperrors.ErrUnauthorized)
		return false
	}
	return true
}

// Create maneja POST /v1/admin/users
func (c *UsersController) Create(w http.ResponseWriter, r *http.Request) {
	if !c.authorize(w, r) {
		return
	}

	var req createUserRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httperrors.WriteError(w, httperrors.ErrInvalidJSON)
		return
	}

	user, err := c.service.Create(r.Context(), req.Email, req.Password)
	if err != nil {
		switch err {
		case svc.ErrInvalidEmail, svc.ErrWeakPassword:
			httperrors.WriteError(w, httperrors.ErrBadRequest.WithDetail(err.Error()))
		case svc.ErrEmailTaken:
			httperrors.WriteError(w, httperrors.New(http.StatusConflict, "EMAIL_TAKEN", "El email ya está registrado."))
		default:
			httperrors.WriteError(w, httperrors.ErrInternal.WithCause(err))
		}
		return
	}

	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(http.StatusCreated)
	_ = json.NewEncoder(w).Encode(toView(user.ID, user.Email, user.IsTwoFactorEnabled, user.CreatedAt))
}

// List maneja GET /v1/admin/users
func (c *UsersController) List(w http.ResponseWriter, r *http.Request) {
	if !c.authorize(w, r) {
		return
	}

	users, err := c.service.List(r.Context())
	if err != nil {
		httperrors.WriteError(w, httperrors.ErrInternal.WithCause(err))
		return
	}

	out := make([]userView, 0, len(users))
	for _, u := range users {
		out = append(out, toView(u.ID, u.Email, u.IsTwoFactorEnabled, u.CreatedAt))
	}
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	_ = json.NewEncoder(w).Encode(map[string]any{"users": out})
}

type credentialView struct {
	CredentialID string  `json:"credential_id"`
	FriendlyName *string `json:"friendly_name,omitempty"`
	DeviceType   string  `json:"device_type,omitempty"`
	BackedUp     bool    `json:"backed_up"`
	CreatedAt    string  `json:"created_at"`
}

// Credentials maneja GET /v1/admin/users/{id}/credentials
func (c *UsersController) Credentials(w http.ResponseWriter, r *http.Request) {
	if !c.authorize(w, r) {
		return
	}

	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		httperrors.WriteError(w, httperrors.ErrBadRequest.WithDetail("id inválido"))
		return
	}

	creds, err := c.service.Credentials(r.Context(), id)
	if err != nil {
		if err == svc.ErrUserNotFound {
			httperrors.WriteError(w, httperrors.ErrNotFound)
		} else {
			httperrors.WriteError(w, httperrors.ErrInternal.WithCause(err))
		}
		return
	}

	out := make([]credentialView, 0, len(creds))
	for _, cred := range creds {
		out = append(out, credentialView{
			CredentialID: cred.CredentialID,
			FriendlyName: cred.FriendlyName,
			DeviceType:   cred.DeviceType,
			BackedUp:     cred.BackedUp,
			CreatedAt:    cred.CreatedAt.UTC().Format(time.RFC3339),
		})
	}
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	_ = json.NewEncoder(w).Encode(map[string]any{"credentials": out})
}

func toView(id int64, email string, twoFactor bool, createdAt time.Time) userView {
	return userView{
		ID:                 id,
		Email:              email,
		IsTwoFactorEnabled: twoFactor,
		CreatedAt:          createdAt.UTC().Format(time.RFC3339),
	}
}
