// Package auth drives sign-in, sign-up, sign-out and session restore. It is
// the only writer of the session store and the App container.
package auth

import (
	"context"
	stderrors "errors"
	"net/http"
	"sync"
	"time"

	"golang.org/x/oauth2"

	"github.com/felixgeelhaar/clubhub/internal/errors"
	"github.com/felixgeelhaar/clubhub/internal/log"
	"github.com/felixgeelhaar/clubhub/internal/metrics"
	"github.com/felixgeelhaar/clubhub/internal/platform"
	"github.com/felixgeelhaar/clubhub/internal/session"
	"github.com/felixgeelhaar/clubhub/internal/state"
	"github.com/felixgeelhaar/clubhub/internal/storage"
)

const defaultLogoutTimeout = 10 * time.Second

// API is the part of the club API client the flow uses.
type API interface {
	Login(ctx context.Context, creds platform.Credentials) (*platform.LoginResponse, error)
	Register(ctx context.Context, reg platform.Registration) (int, error)
	LogoutToken(ctx context.Context, tok *oauth2.Token) error
	GetCurrentUser(ctx context.Context) (*platform.User, error)
	GetUserForToken(ctx context.Context, tok *oauth2.Token) (*platform.User, error)
	SetAccessToken(access string, expiry time.Time)
	Token() *oauth2.Token
	ClearToken()
	OnUnauthorized(fn func(error))
}

// Cookies stores the access and refresh tokens.
type Cookies interface {
	Set(name, value string, expires time.Time) error
	Get(name string) (string, time.Time, bool)
	Clear() error
}

// Config wires a Flow.
type Config struct {
	API      API
	Cookies  Cookies
	Sessions *session.Store
	Stores   *state.Stores
	// Local and SessionStorage are cleared on sign-out.
	Local          storage.Local
	SessionStorage storage.Local
	Metrics        *metrics.Metrics
	Logger         *log.Logger
	// LogoutTimeout bounds the background logout call.
	LogoutTimeout time.Duration
}

// Flow is the authentication state machine:
// unauthenticated -> authenticating -> authenticated, and back to
// unauthenticated on sign-out or a rejected authenticated request.
type Flow struct {
	api            API
	cookies        Cookies
	sessions       *session.Store
	stores         *state.Stores
	local          storage.Local
	sessionStorage storage.Local
	metrics        *metrics.Metrics
	logger         *log.Logger
	logoutTimeout  time.Duration
	now            func() time.Time

	pending sync.WaitGroup
}

// New returns a Flow and registers it for Unauthorized responses on cfg.API.
func New(cfg Config) *Flow {
	f := &Flow{
		api:            cfg.API,
		cookies:        cfg.Cookies,
		sessions:       cfg.Sessions,
		stores:         cfg.Stores,
		local:          cfg.Local,
		sessionStorage: cfg.SessionStorage,
		metrics:        cfg.Metrics,
		logger:         cfg.Logger,
		logoutTimeout:  cfg.LogoutTimeout,
		now:            time.Now,
	}
	if f.logger == nil {
		f.logger = log.DefaultLogger()
	}
	f.logger = f.logger.With("component", "auth")
	if f.logoutTimeout <= 0 {
		f.logoutTimeout = defaultLogoutTimeout
	}
	f.api.OnUnauthorized(f.HandleUnauthorized)
	return f
}

// SignIn logs in, stores the tokens, loads the profile and starts a session
// with no team selected. Nothing is persisted unless every step succeeds.
func (f *Flow) SignIn(ctx context.Context, creds platform.Credentials) (*session.Session, error) {
	f.stores.App.SetAuthenticating()

	resp, err := f.api.Login(ctx, creds)
	if err != nil {
		return nil, f.fail(signInError(err))
	}

	now := f.now()
	accessExp := tokenExpiry(resp.AccessToken, resp.ExpiresAt, DefaultTokenDuration, now)
	refreshExp := tokenExpiry(resp.RefreshToken, resp.RefreshExpiresAt, DefaultRefreshDuration, now)

	// The new token is only installed once the profile loads, so a rejected
	// profile request leaves the current session alone.
	user, err := f.api.GetUserForToken(ctx, &oauth2.Token{
		AccessToken: resp.AccessToken,
		TokenType:   "Bearer",
		Expiry:      accessExp,
	})
	if err != nil {
		return nil, f.fail(errors.Wrap(errors.ErrCodeAuthProfileMissing, "failed to load user profile", err))
	}

	f.api.SetAccessToken(resp.AccessToken, accessExp)
	if err := f.cookies.Set(storage.CookieAccessToken, resp.AccessToken, accessExp); err != nil {
		f.api.ClearToken()
		return nil, f.fail(err)
	}
	if resp.RefreshToken != "" {
		if err := f.cookies.Set(storage.CookieRefreshToken, resp.RefreshToken, refreshExp); err != nil {
			f.api.ClearToken()
			_ = f.cookies.Clear()
			return nil, f.fail(err)
		}
	}

	sess, err := f.sessions.Write(session.Patch{
		UserID:        session.Ptr(user.ID),
		ParentUserID:  session.Ptr(user.ParentUserID),
		Role:          session.Ptr(user.Role),
		GroupID:       session.Ptr(user.GroupID),
		CurrentTeamID: session.Ptr(""),
	})
	if err != nil {
		f.api.ClearToken()
		_ = f.cookies.Clear()
		return nil, f.fail(err)
	}

	f.stores.App.SetUser(user)
	f.logger.Info("signed in", "user_id", user.ID, "role", user.Role)
	return sess, nil
}

func signInError(err error) error {
	var apiErr *platform.APIError
	if stderrors.As(err, &apiErr) && (apiErr.StatusCode == http.StatusBadRequest || apiErr.StatusCode == http.StatusUnauthorized) {
		return errors.Wrap(errors.ErrCodeAuthInvalid, "invalid email or password", err).
			WithSuggestion("Check your email and password").
			WithSuggestion("Run 'clubhub auth register' to create an account")
	}
	return err
}

func (f *Flow) fail(err error) error {
	f.stores.App.Fail(err)
	f.observe(err)
	return err
}

func (f *Flow) observe(err error) {
	code := errors.CodeOf(err)
	if code == "" {
		code = "UNKNOWN"
	}
	f.metrics.ObserveError(string(code), "auth")
}

// SignUp registers an account. A 204 signs the new user in with the same
// credentials; any other success status is logged and nothing else happens.
func (f *Flow) SignUp(ctx context.Context, reg platform.Registration) error {
	status, err := f.api.Register(ctx, reg)
	if err != nil {
		if errors.CodeOf(err) == "" {
			err = errors.Wrap(errors.ErrCodeAuthRegistration, "registration failed", err)
		}
		f.observe(err)
		return err
	}
	if status != http.StatusNoContent {
		f.logger.Info("registration completed without sign-in", "status", status)
		return nil
	}
	_, err = f.SignIn(ctx, platform.Credentials{Email: reg.Email, Password: reg.Password})
	return err
}

// SignOut ends the session locally and asks the server to invalidate the
// token in the background. A failing or slow server never blocks it; call
// Drain to wait for the background request.
func (f *Flow) SignOut(ctx context.Context) error {
	if tok := f.api.Token(); tok != nil {
		f.pending.Add(1)
		go func() {
			defer f.pending.Done()
			lctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), f.logoutTimeout)
			defer cancel()
			if err := f.api.LogoutToken(lctx, tok); err != nil {
				f.logger.WithError(err).Warn("remote logout failed")
			}
		}()
	}

	err := f.clearLocal()
	f.stores.ResetData()
	f.stores.App.Reset()
	if err != nil {
		err = errors.Wrap(errors.ErrCodeAuthLogoutFailed, "failed to clear local session data", err)
		f.observe(err)
		return err
	}
	f.logger.Info("signed out")
	return nil
}

// clearLocal removes every trace of the session. All steps run even if
// earlier ones fail.
func (f *Flow) clearLocal() error {
	f.api.ClearToken()
	var errs []error
	errs = append(errs, f.cookies.Clear())
	if f.local != nil {
		errs = append(errs, f.local.Clear())
	}
	if f.sessionStorage != nil {
		errs = append(errs, f.sessionStorage.Clear())
	}
	errs = append(errs, f.sessions.Clear())
	return stderrors.Join(errs...)
}

// Drain waits for background logout requests started by SignOut.
func (f *Flow) Drain(ctx context.Context) error {
	done := make(chan struct{})
	go func() {
		f.pending.Wait()
		close(done)
	}()
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Restore resumes a persisted session at startup. A rejected profile request
// ends the session; any other failure keeps the stale session so the app
// still works offline.
func (f *Flow) Restore(ctx context.Context) (*session.Session, error) {
	sess, ok := f.sessions.Read()
	if !ok {
		f.stores.App.Reset()
		return nil, nil
	}

	if access, exp, ok := f.cookies.Get(storage.CookieAccessToken); ok {
		f.api.SetAccessToken(access, exp)
	}

	f.stores.App.SetAuthenticating()
	user, err := f.api.GetCurrentUser(ctx)
	switch {
	case platform.IsUnauthorized(err):
		f.logger.Info("stored session rejected", "user_id", sess.UserID)
		if cerr := f.clearLocal(); cerr != nil {
			f.logger.WithError(cerr).Warn("failed to clear rejected session")
		}
		f.stores.App.Reset()
		return nil, nil
	case err != nil:
		f.logger.WithError(err).Warn("could not refresh profile, keeping stored session", "user_id", sess.UserID)
		f.stores.App.SetUser(&platform.User{
			ID:           sess.UserID,
			Role:         sess.Role,
			GroupID:      sess.GroupID,
			ParentUserID: sess.ParentUserID,
		})
		return sess, nil
	}

	sess, err = f.sessions.Write(session.Patch{
		UserID:       session.Ptr(user.ID),
		ParentUserID: session.Ptr(user.ParentUserID),
		Role:         session.Ptr(user.Role),
		GroupID:      session.Ptr(user.GroupID),
	})
	if err != nil {
		return nil, f.fail(err)
	}
	f.stores.App.SetUser(user)
	return sess, nil
}

// HandleUnauthorized ends the session after an authenticated request was
// rejected. It is registered on the API client by New.
func (f *Flow) HandleUnauthorized(err error) {
	f.logger.WithError(err).Info("session rejected by server")
	if cerr := f.clearLocal(); cerr != nil {
		f.logger.WithError(cerr).Warn("failed to clear rejected session")
	}
	f.stores.ResetData()
	f.stores.App.Fail(errors.NewSessionExpiredError(err))
	f.metrics.ObserveError(string(errors.ErrCodeAuthExpired), "auth")
}

// Session returns the current session, if any.
func (f *Flow) Session() (*session.Session, bool) {
	return f.sessions.Read()
}
