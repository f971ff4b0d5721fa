package launch

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"ltigate/cmd/internal/oauth1"
	"ltigate/cmd/internal/session"
)

// HandlerConfig carries the HTTP-level knobs for the launch surface.
type HandlerConfig struct {
	// TrustProxy enables X-Forwarded-Proto/Host when reconstructing the
	// signed URL. Only set behind a trusted reverse proxy.
	TrustProxy bool

	// MaxBodyBytes bounds the launch form body.
	MaxBodyBytes int64

	// SecureCookies marks session cookies Secure.
	SecureCookies bool
}

// Handler serves the launch flow endpoints.
type Handler struct {
	log  *slog.Logger
	cfg  Config
	hcfg HandlerConfig

	validator oauth1.Validator
	auth      *Authenticator
	resolver  *Resolver
	sessions  *session.Service
	metrics   *Metrics

	failedURL string
}

// NewHandler wires the launch orchestrator. cfg must already be
// validated.
func NewHandler(log *slog.Logger, cfg Config, hcfg HandlerConfig, validator oauth1.Validator, auth *Authenticator, resolver *Resolver, sessions *session.Service, metrics *Metrics) *Handler {
	if log == nil {
		log = slog.Default()
	}
	if hcfg.MaxBodyBytes <= 0 {
		hcfg.MaxBodyBytes = 1 << 20
	}
	return &Handler{
		log:       log,
		cfg:       cfg,
		hcfg:      hcfg,
		validator: validator,
		auth:      auth,
		resolver:  resolver,
		sessions:  sessions,
		metrics:   metrics,
		failedURL: cfg.FailedURL(),
	}
}

// Register wires the launch routes onto the provided mux.
func (h *Handler) Register(mux *http.ServeMux) {
	if h == nil || mux == nil {
		return
	}
	mux.HandleFunc("/launch", h.handleLaunch)
	mux.HandleFunc("/config.xml", h.handleConfigXML)
}

func (h *Handler) handleLaunch(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.Header().Set("Allow", http.MethodPost)
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}

	ctx := r.Context()
	now := time.Now().UTC()

	// A launch carries a new identity; any session the browser already
	// holds is terminated up front, whatever the outcome.
	h.endExistingSession(ctx, now, w, r)

	r.Body = http.MaxBytesReader(w, r.Body, h.hcfg.MaxBodyBytes)
	if err := r.ParseForm(); err != nil {
		h.metrics.launch(OutcomeBadRequest)
		http.Error(w, "malformed launch request", http.StatusBadRequest)
		return
	}

	if err := oauth1.VerifyRequest(r, h.validator, h.absoluteURL(r, r.URL.Path)); err != nil {
		h.log.Info("launch.rejected", "err", err)
		h.metrics.launch(OutcomeRejected)
		h.redirectFailed(w, r)
		return
	}

	claims := ParseClaims(r.PostForm)
	user, err := h.auth.Authenticate(ctx, now, claims)
	if err != nil {
		if !errors.Is(err, ErrDenied) {
			h.log.Error("launch.authenticate.fail", "err", err)
		}
		h.metrics.launch(OutcomeDenied)
		h.redirectFailed(w, r)
		return
	}

	dest, err := h.resolver.Resolve(claims.Custom)
	if err != nil {
		h.log.Error("launch.resolve.fail", "err", err)
		h.metrics.launch(OutcomeError)
		http.Error(w, "launch misconfigured", http.StatusInternalServerError)
		return
	}

	started, err := h.sessions.Start(ctx, now, user.ID)
	if err != nil {
		h.log.Error("launch.session.start.fail", "err", err)
		h.metrics.launch(OutcomeDenied)
		h.redirectFailed(w, r)
		return
	}

	http.SetCookie(w, &http.Cookie{
		Name:     session.CookieName,
		Value:    started.Token,
		Path:     "/",
		Expires:  started.ExpiresAt,
		HttpOnly: true,
		Secure:   h.hcfg.SecureCookies,
		SameSite: http.SameSiteLaxMode,
	})

	h.log.Info("launch.redirect", "user_id", user.ID, "dest", dest)
	h.metrics.launch(OutcomeRedirect)
	http.Redirect(w, r, dest, http.StatusFound)
}

func (h *Handler) handleConfigXML(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.Header().Set("Allow", http.MethodGet)
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}

	doc, err := Descriptor(h.cfg, h.absoluteURL(r, "/launch"))
	if err != nil {
		h.log.Error("launch.descriptor.fail", "err", err)
		http.Error(w, "descriptor unavailable", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/xml; charset=utf-8")
	_, _ = w.Write(doc)
}

// endExistingSession revokes whatever session the request carries and
// clears the cookie. Missing or stale cookies are a no-op.
func (h *Handler) endExistingSession(ctx context.Context, now time.Time, w http.ResponseWriter, r *http.Request) {
	c, err := r.Cookie(session.CookieName)
	if err != nil || c.Value == "" {
		return
	}
	if err := h.sessions.End(ctx, now, c.Value); err != nil {
		h.log.Error("launch.session.end.fail", "err", err)
	}
	http.SetCookie(w, &http.Cookie{
		Name:     session.CookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   h.hcfg.SecureCookies,
		SameSite: http.SameSiteLaxMode,
	})
}

func (h *Handler) redirectFailed(w http.ResponseWriter, r *http.Request) {
	http.Redirect(w, r, h.failedURL, http.StatusFound)
}

// absoluteURL reconstructs the externally visible URL for path, the URL
// the consumer signed against.
func (h *Handler) absoluteURL(r *http.Request, path string) string {
	scheme := "http"
	if r.TLS != nil {
		scheme = "https"
	}
	host := r.Host
	if h.hcfg.TrustProxy {
		if v := strings.TrimSpace(r.Header.Get("X-Forwarded-Proto")); v != "" {
			scheme = v
		}
		if v := strings.TrimSpace(r.Header.Get("X-Forwarded-Host")); v != "" {
			host = v
		}
	}
	return scheme + "://" + host + path
}
