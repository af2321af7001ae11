package account

import (
	"log/slog"
	"net/http"

	"github.com/google/uuid"

	"github.com/ftarena/authcore/svc/auth"
)

type handlers struct {
	issuer    *auth.TokenIssuer
	rotator   *auth.SessionRotator
	password  *auth.PasswordService
	twoFactor *auth.TwoFactorService
	oauth     *auth.OAuthService
	logger    *slog.Logger
}

func (h *handlers) fail(w http.ResponseWriter, r *http.Request, err error) {
	writeError(w, r, h.logger, err)
}

type registerRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
	Username string `json:"username"`
}

type identityResponse struct {
	ID       uuid.UUID `json:"id"`
	Email    string    `json:"email"`
	Username string    `json:"username"`
}

func (h *handlers) register(w http.ResponseWriter, r *http.Request) {
	var req registerRequest
	if err := decodeJSON(w, r, &req); err != nil {
		h.fail(w, r, err)
		return
	}

	identity, err := h.password.Register(r.Context(), req.Email, req.Password, req.Username)
	if err != nil {
		h.fail(w, r, err)
		return
	}

	writeJSON(w, http.StatusCreated, identityResponse{ID: identity.ID, Email: identity.Email, Username: identity.Username})
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type loginResponse struct {
	Type         auth.LoginType `json:"type"`
	AccessToken  string         `json:"accessToken,omitempty"`
	RefreshToken string         `json:"refreshToken,omitempty"`
	TempToken    string         `json:"tempToken,omitempty"`
}

func (h *handlers) login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := decodeJSON(w, r, &req); err != nil {
		h.fail(w, r, err)
		return
	}

	res, err := h.password.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		h.fail(w, r, err)
		return
	}

	resp := loginResponse{Type: res.Type, TempToken: res.TempToken}
	if res.Session != nil {
		resp.AccessToken = res.Session.AccessToken
		resp.RefreshToken = res.Session.RefreshToken
	}
	writeJSON(w, http.StatusOK, resp)
}

type codeRequest struct {
	Code string `json:"code"`
}

func (h *handlers) verifyTwoFactor(w http.ResponseWriter, r *http.Request) {
	var req codeRequest
	if err := decodeJSON(w, r, &req); err != nil {
		h.fail(w, r, err)
		return
	}

	session, err := h.twoFactor.VerifyStepUp(r.Context(), auth.TempTokenFromContext(r.Context()), req.Code)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, newSessionResponse(session))
}

type refreshRequest struct {
	RefreshToken string `json:"refreshToken"`
}

func (h *handlers) refresh(w http.ResponseWriter, r *http.Request) {
	var req refreshRequest
	if err := decodeJSON(w, r, &req); err != nil {
		h.fail(w, r, err)
		return
	}

	session, err := h.rotator.Rotate(r.Context(), req.RefreshToken)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, newSessionResponse(session))
}

// logout revokes the given device's refresh token, or every session when
// none is supplied.
func (h *handlers) logout(w http.ResponseWriter, r *http.Request) {
	userID, ok := callerID(r)
	if !ok {
		h.fail(w, r, auth.ErrUnauthorized)
		return
	}

	var req refreshRequest
	if err := decodeJSON(w, r, &req); err != nil {
		h.fail(w, r, err)
		return
	}

	var err error
	if req.RefreshToken != "" {
		err = h.rotator.RevokeForUser(r.Context(), userID, req.RefreshToken)
	} else {
		err = h.rotator.RevokeAll(r.Context(), userID)
	}
	if err != nil {
		h.fail(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *handlers) logoutAll(w http.ResponseWriter, r *http.Request) {
	userID, ok := callerID(r)
	if !ok {
		h.fail(w, r, auth.ErrUnauthorized)
		return
	}
	if err := h.rotator.RevokeAll(r.Context(), userID); err != nil {
		h.fail(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

type twoFactorSetupResponse struct {
	OTPAuthURL string `json:"otpauthUrl"`
	QRCode     string `json:"qrCode"`
	Secret     string `json:"secret"`
}

func (h *handlers) setupTwoFactor(w http.ResponseWriter, r *http.Request) {
	claims := auth.ClaimsFromContext(r.Context())
	userID, ok := callerID(r)
	if !ok {
		h.fail(w, r, auth.ErrUnauthorized)
		return
	}

	setup, err := h.twoFactor.Setup(r.Context(), userID, claims.Email)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, twoFactorSetupResponse{
		OTPAuthURL: setup.OTPAuthURL,
		QRCode:     setup.QRCode,
		Secret:     setup.Secret,
	})
}

func (h *handlers) confirmTwoFactor(w http.ResponseWriter, r *http.Request) {
	userID, ok := callerID(r)
	if !ok {
		h.fail(w, r, auth.ErrUnauthorized)
		return
	}

	var req codeRequest
	if err := decodeJSON(w, r, &req); err != nil {
		h.fail(w, r, err)
		return
	}
	if err := h.twoFactor.Confirm(r.Context(), userID, req.Code); err != nil {
		h.fail(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *handlers) disableTwoFactor(w http.ResponseWriter, r *http.Request) {
	userID, ok := callerID(r)
	if !ok {
		h.fail(w, r, auth.ErrUnauthorized)
		return
	}
	if err := h.twoFactor.Disable(r.Context(), userID); err != nil {
		h.fail(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

type passwordRequest struct {
	CurrentPassword string `json:"currentPassword"`
	NewPassword     string `json:"newPassword"`
}

func (h *handlers) updatePassword(w http.ResponseWriter, r *http.Request) {
	userID, ok := callerID(r)
	if !ok {
		h.fail(w, r, auth.ErrUnauthorized)
		return
	}

	var req passwordRequest
	if err := decodeJSON(w, r, &req); err != nil {
		h.fail(w, r, err)
		return
	}
	if err := h.password.UpdatePassword(r.Context(), userID, req.CurrentPassword, req.NewPassword); err != nil {
		h.fail(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *handlers) me(w http.ResponseWriter, r *http.Request) {
	claims := auth.ClaimsFromContext(r.Context())
	userID, ok := callerID(r)
	if !ok {
		h.fail(w, r, auth.ErrUnauthorized)
		return
	}
	writeJSON(w, http.StatusOK, identityResponse{ID: userID, Email: claims.Email, Username: claims.Username})
}

func (h *handlers) oauthStart(w http.ResponseWriter, r *http.Request) {
	url, err := h.oauth.AuthURL(r.Context())
	if err != nil {
		h.fail(w, r, err)
		return
	}
	http.Redirect(w, r, url, http.StatusFound)
}

type callbackResponse struct {
	AccessToken   string `json:"accessToken,omitempty"`
	RefreshToken  string `json:"refreshToken,omitempty"`
	TempToken     string `json:"tempToken,omitempty"`
	NeedsUsername bool   `json:"needsUsername,omitempty"`
}

func (h *handlers) oauthCallback(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	if q.Get("error") != "" {
		// The user declined consent or the provider refused the request.
		h.fail(w, r, auth.ErrInvalidCode)
		return
	}

	res, err := h.oauth.Callback(r.Context(), q.Get("code"), q.Get("state"))
	if err != nil {
		h.fail(w, r, err)
		return
	}

	resp := callbackResponse{TempToken: res.TempToken, NeedsUsername: res.NeedsUsername}
	if res.Session != nil {
		resp.AccessToken = res.Session.AccessToken
		resp.RefreshToken = res.Session.RefreshToken
	}
	writeJSON(w, http.StatusOK, resp)
}

type setUsernameRequest struct {
	TempToken string `json:"tempToken"`
	Username  string `json:"username"`
}

func (h *handlers) oauthSetUsername(w http.ResponseWriter, r *http.Request) {
	var req setUsernameRequest
	if err := decodeJSON(w, r, &req); err != nil {
		h.fail(w, r, err)
		return
	}

	session, err := h.oauth.CompleteSignup(r.Context(), req.TempToken, req.Username)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, newSessionResponse(session))
}

func callerID(r *http.Request) (uuid.UUID, bool) {
	claims := auth.ClaimsFromContext(r.Context())
	if claims == nil {
		return uuid.Nil, false
	}
	id, err := claims.UserID()
	return id, err == nil
}
