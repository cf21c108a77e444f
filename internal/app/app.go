// Package app assembles the process-wide services and hands them to commands
// through context.Context.
package app

import (
	"context"
	"database/sql"
	stderrors "errors"
	"net/http"
	"path/filepath"

	"github.com/prometheus/client_golang/prometheus"
	"golang.org/x/sync/errgroup"

	"github.com/felixgeelhaar/clubhub/internal/auth"
	"github.com/felixgeelhaar/clubhub/internal/authz"
	"github.com/felixgeelhaar/clubhub/internal/config"
	"github.com/felixgeelhaar/clubhub/internal/errors"
	"github.com/felixgeelhaar/clubhub/internal/hooks"
	"github.com/felixgeelhaar/clubhub/internal/log"
	"github.com/felixgeelhaar/clubhub/internal/metrics"
	"github.com/felixgeelhaar/clubhub/internal/platform"
	"github.com/felixgeelhaar/clubhub/internal/session"
	"github.com/felixgeelhaar/clubhub/internal/state"
	"github.com/felixgeelhaar/clubhub/internal/storage"
)

const secretFile = "cookie.key"

// Services is everything a command or view needs. It is built once per
// process.
type Services struct {
	Config   config.Config
	Logger   *log.Logger
	Registry *prometheus.Registry
	Metrics  *metrics.Metrics

	API            *platform.Client
	Local          storage.Local
	SessionStorage *storage.MemoryStore
	Cookies        *storage.CookieJar
	Sessions       *session.Store
	Stores         *state.Stores
	Auth           *auth.Flow
	Hooks          *hooks.Scope

	db *sql.DB
}

type options struct {
	logger     *log.Logger
	httpClient *http.Client
	local      storage.Local
	cookies    storage.Local
	secret     []byte
}

// Option customizes New.
type Option func(*options)

// WithLogger sets the logger. The default is the process default logger.
func WithLogger(l *log.Logger) Option {
	return func(o *options) { o.logger = l }
}

// WithHTTPClient sets the HTTP client used for the club API.
func WithHTTPClient(hc *http.Client) Option {
	return func(o *options) { o.httpClient = hc }
}

// WithStorage replaces the sqlite database with the given local and cookie
// stores, and the install secret with secret.
func WithStorage(local, cookies storage.Local, secret []byte) Option {
	return func(o *options) {
		o.local, o.cookies, o.secret = local, cookies, secret
	}
}

// New builds Services from cfg.
func New(cfg config.Config, opts ...Option) (*Services, error) {
	o := options{}
	for _, opt := range opts {
		opt(&o)
	}
	if o.logger == nil {
		o.logger = log.DefaultLogger()
	}

	s := &Services{
		Config:         cfg,
		Logger:         o.logger,
		SessionStorage: storage.NewMemoryStore(),
	}
	s.Registry, s.Metrics = metrics.NewRegistry()

	if err := s.openStorage(cfg, &o); err != nil {
		return nil, err
	}

	clientOpts := []platform.Option{
		platform.WithTimeout(cfg.Timeout),
		platform.WithRetries(cfg.MaxRetries, cfg.RetryDelay),
		platform.WithPageSize(cfg.PageSize),
		platform.WithMetrics(s.Metrics),
		platform.WithLogger(s.Logger),
	}
	if o.httpClient != nil {
		clientOpts = append(clientOpts, platform.WithHTTPClient(o.httpClient))
	}
	s.API = platform.NewClient(cfg.APIURL, clientOpts...)

	s.Sessions = session.NewStore(s.Local, s.Logger)
	s.Stores = state.NewStores(s.API, s.Metrics, s.Logger)
	s.Auth = auth.New(auth.Config{
		API:            s.API,
		Cookies:        s.Cookies,
		Sessions:       s.Sessions,
		Stores:         s.Stores,
		Local:          s.Local,
		SessionStorage: s.SessionStorage,
		Metrics:        s.Metrics,
		Logger:         s.Logger,
	})
	s.Hooks = hooks.NewScope(s.Stores, s.Sessions, s.Logger)
	return s, nil
}

func (s *Services) openStorage(cfg config.Config, o *options) error {
	if o.local != nil {
		s.Local = o.local
		s.Cookies = storage.NewCookieJar(o.cookies, o.secret)
		return nil
	}

	path, err := cfg.StoragePath()
	if err != nil {
		return err
	}
	db, err := storage.OpenDB(path)
	if err != nil {
		return err
	}
	secret, err := storage.LoadSecret(filepath.Join(filepath.Dir(path), secretFile))
	if err != nil {
		_ = db.Close()
		return err
	}

	s.db = db
	s.Local = storage.NewSQLiteStore(db, storage.NamespaceLocal)
	s.Cookies = storage.NewCookieJar(storage.NewSQLiteStore(db, storage.NamespaceCookies), secret)
	return nil
}

// Close waits briefly for background sign-out requests and releases storage.
func (s *Services) Close(ctx context.Context) error {
	var errs []error
	if err := s.Auth.Drain(ctx); err != nil {
		s.Logger.WithError(err).Debug("background requests still pending at exit")
	}
	if s.db != nil {
		errs = append(errs, s.db.Close())
	}
	return stderrors.Join(errs...)
}

// Session returns the signed-in session or a not-signed-in error.
func (s *Services) Session() (*session.Session, error) {
	sess, ok := s.Sessions.Read()
	if !ok || !sess.Authenticated() {
		return nil, errors.NewNotSignedInError()
	}
	return sess, nil
}

// TeamID returns override if set, else the session's current team.
func (s *Services) TeamID(override string) (string, error) {
	if override != "" {
		return override, nil
	}
	if id := s.Sessions.CurrentTeamID(); id != "" {
		return id, nil
	}
	return "", errors.NewNoTeamSelectedError()
}

// SwitchTeam makes teamID the current team and reloads the team-scoped
// containers for it in parallel.
func (s *Services) SwitchTeam(ctx context.Context, teamID string) (*session.Session, error) {
	if teamID == "" {
		return nil, errors.NewNoTeamSelectedError()
	}
	if _, err := s.Session(); err != nil {
		return nil, err
	}

	sess, err := s.Sessions.Write(session.Patch{CurrentTeamID: session.Ptr(teamID)})
	if err != nil {
		return nil, err
	}
	s.Logger.Info("switched team", "team_id", teamID)

	var g errgroup.Group
	g.Go(func() error { s.Stores.Players.GetPlayers(ctx, teamID); return nil })
	g.Go(func() error { s.Stores.Events.GetEvents(ctx, teamID); return nil })
	g.Go(func() error { s.Stores.Staff.GetStaff(ctx, teamID); return nil })
	_ = g.Wait()
	return sess, nil
}

// Capabilities resolves the session role against the loaded roles. Until
// roles are loaded every capability is false.
func (s *Services) Capabilities() authz.Capabilities {
	sess, ok := s.Sessions.Read()
	if !ok {
		return authz.Capabilities{}
	}
	return authz.Resolve(sess.Role, s.Stores.Roles.Snapshot().Roles)
}

// LoadCapabilities fetches the group's roles and resolves the session role.
func (s *Services) LoadCapabilities(ctx context.Context) (authz.Capabilities, error) {
	sess, err := s.Session()
	if err != nil {
		return authz.Capabilities{}, err
	}
	s.Stores.Roles.GetRoles(ctx, sess.GroupID)
	msg := s.Stores.Roles.Snapshot().Error
	// A rejected token ends the session while the roles are fetched.
	if _, ok := s.Sessions.Read(); !ok {
		if msg == "" {
			msg = "session cleared while loading roles"
		}
		return authz.Capabilities{}, errors.NewSessionExpiredError(stderrors.New(msg))
	}
	if msg != "" {
		s.Logger.Warn("could not load roles, denying all actions", "error", msg)
	}
	return s.Capabilities(), nil
}

// Require loads capabilities and checks that action on resource is allowed.
func (s *Services) Require(ctx context.Context, action authz.Action, resource authz.Resource) error {
	caps, err := s.LoadCapabilities(ctx)
	if err != nil {
		return err
	}
	sess, err := s.Session()
	if err != nil {
		return err
	}
	return caps.Require(sess.Role, action, resource)
}

type ctxKey struct{}

// NewContext returns a copy of ctx carrying s.
func NewContext(ctx context.Context, s *Services) context.Context {
	return context.WithValue(ctx, ctxKey{}, s)
}

// FromContext returns the Services carried by ctx.
func FromContext(ctx context.Context) (*Services, bool) {
	s, ok := ctx.Value(ctxKey{}).(*Services)
	return s, ok && s != nil
}
