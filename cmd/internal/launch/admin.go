package launch

import (
	"crypto/subtle"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"ltigate/cmd/identity"
	"ltigate/cmd/internal/consumer"
)

// Generated credential lengths, inside the protocol's [20,30] bounds.
const (
	generatedKeyLen    = 24
	generatedSecretLen = 30
)

// AdminHandler serves the out-of-band registration surface for owner
// accounts and consumer credentials. It is guarded by a static bearer
// token; an empty token disables the surface entirely.
type AdminHandler struct {
	log       *slog.Logger
	token     string
	consumers consumer.Store
	users     identity.Store
	metrics   *Metrics

	maxBodyBytes int64
}

// NewAdminHandler constructs the admin surface.
func NewAdminHandler(log *slog.Logger, token string, consumers consumer.Store, users identity.Store, metrics *Metrics) *AdminHandler {
	if log == nil {
		log = slog.Default()
	}
	return &AdminHandler{
		log:          log,
		token:        token,
		consumers:    consumers,
		users:        users,
		metrics:      metrics,
		maxBodyBytes: 1 << 16,
	}
}

// Register wires the admin routes onto the provided mux.
func (h *AdminHandler) Register(mux *http.ServeMux) {
	if h == nil || mux == nil {
		return
	}
	mux.HandleFunc("/admin/consumers", h.handleCreateConsumer)
	mux.HandleFunc("/admin/owners", h.handleCreateOwner)
}

type createConsumerRequest struct {
	Key     string  `json:"key"`
	Secret  string  `json:"secret"`
	OwnerID *string `json:"owner_id"`
}

type consumerResponse struct {
	ID        string    `json:"id"`
	Key       string    `json:"key"`
	Secret    string    `json:"secret"`
	OwnerID   *string   `json:"owner_id,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

func (h *AdminHandler) handleCreateConsumer(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.Header().Set("Allow", http.MethodPost)
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	if !h.authorized(r) {
		writeAdminError(w, http.StatusUnauthorized, "unauthorized", "missing or invalid admin token")
		return
	}

	var req createConsumerRequest
	if err := decodeAdminJSON(w, r, h.maxBodyBytes, &req); err != nil {
		writeAdminError(w, http.StatusBadRequest, "invalid_json", "invalid request body")
		return
	}

	key := strings.TrimSpace(req.Key)
	secret := strings.TrimSpace(req.Secret)
	var err error
	if key == "" {
		if key, err = consumer.NewCredential(generatedKeyLen); err != nil {
			h.log.Error("admin.consumer.generate_key.fail", "err", err)
			writeAdminError(w, http.StatusInternalServerError, "internal", "credential generation failed")
			return
		}
	}
	if secret == "" {
		if secret, err = consumer.NewCredential(generatedSecretLen); err != nil {
			h.log.Error("admin.consumer.generate_secret.fail", "err", err)
			writeAdminError(w, http.StatusInternalServerError, "internal", "credential generation failed")
			return
		}
	}

	c, err := h.consumers.Create(r.Context(), consumer.CreateInput{
		Key:     key,
		Secret:  secret,
		OwnerID: req.OwnerID,
		Now:     time.Now().UTC(),
	})
	if err != nil {
		switch {
		case errors.Is(err, consumer.ErrInvalidInput):
			writeAdminError(w, http.StatusBadRequest, "invalid_credential", err.Error())
		case errors.Is(err, consumer.ErrConflict):
			writeAdminError(w, http.StatusConflict, "conflict", "key or secret already registered")
		default:
			h.log.Error("admin.consumer.create.fail", "err", err)
			writeAdminError(w, http.StatusInternalServerError, "internal", "consumer creation failed")
		}
		return
	}

	h.log.Info("admin.consumer.created", "consumer_id", c.ID, "key", c.Key)
	h.metrics.consumerRegistered()
	writeAdminJSON(w, http.StatusCreated, consumerResponse{
		ID:        c.ID,
		Key:       c.Key,
		Secret:    c.Secret,
		OwnerID:   c.OwnerID,
		CreatedAt: c.CreatedAt,
	})
}

type createOwnerRequest struct {
	Username string `json:"username"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

type ownerResponse struct {
	ID        string    `json:"id"`
	Username  string    `json:"username"`
	Email     string    `json:"email"`
	CreatedAt time.Time `json:"created_at"`
}

func (h *AdminHandler) handleCreateOwner(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.Header().Set("Allow", http.MethodPost)
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	if !h.authorized(r) {
		writeAdminError(w, http.StatusUnauthorized, "unauthorized", "missing or invalid admin token")
		return
	}

	var req createOwnerRequest
	if err := decodeAdminJSON(w, r, h.maxBodyBytes, &req); err != nil {
		writeAdminError(w, http.StatusBadRequest, "invalid_json", "invalid request body")
		return
	}

	u, err := h.users.CreateOwner(r.Context(), identity.CreateOwnerInput{
		Username: req.Username,
		Email:    req.Email,
		Password: req.Password,
		Now:      time.Now().UTC(),
	})
	if err != nil {
		switch {
		case identity.IsInvalidInput(err):
			writeAdminError(w, http.StatusBadRequest, "invalid_owner", err.Error())
		case identity.IsConflict(err):
			writeAdminError(w, http.StatusConflict, "conflict", "username already registered")
		default:
			h.log.Error("admin.owner.create.fail", "err", err)
			writeAdminError(w, http.StatusInternalServerError, "internal", "owner creation failed")
		}
		return
	}

	h.log.Info("admin.owner.created", "user_id", u.ID, "username", u.Username)
	writeAdminJSON(w, http.StatusCreated, ownerResponse{
		ID:        u.ID,
		Username:  u.Username,
		Email:     u.Email,
		CreatedAt: u.CreatedAt,
	})
}

func (h *AdminHandler) authorized(r *http.Request) bool {
	if h.token == "" {
		return false
	}
	auth := r.Header.Get("Authorization")
	const prefix = "Bearer "
	if !strings.HasPrefix(auth, prefix) {
		return false
	}
	presented := strings.TrimSpace(auth[len(prefix):])
	return subtle.ConstantTimeCompare([]byte(presented), []byte(h.token)) == 1
}

type adminError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

type adminErrorResponse struct {
	Error adminError `json:"error"`
}

func writeAdminJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.Header().Set("Cache-Control", "no-store")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeAdminError(w http.ResponseWriter, status int, code, msg string) {
	writeAdminJSON(w, status, adminErrorResponse{Error: adminError{Code: code, Message: msg}})
}

func decodeAdminJSON(w http.ResponseWriter, r *http.Request, maxBytes int64, dst any) error {
	if r.Body == nil {
		return errors.New("empty body")
	}
	defer func() { _ = r.Body.Close() }()

	body := http.MaxBytesReader(w, r.Body, maxBytes)
	dec := json.NewDecoder(body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		return err
	}
	if err := dec.Decode(&struct{}{}); err != io.EOF {
		return errors.New("extra data after JSON object")
	}
	return nil
}
