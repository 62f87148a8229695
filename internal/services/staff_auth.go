package services

import (
	"errors"
	"fmt"
	"sync"

	"github.com/localnerve/authorizer-go"
	"github.com/localnerve/grants-portal/internal/config"
	"github.com/localnerve/grants-portal/internal/logger"
	"github.com/localnerve/grants-portal/internal/utils"
)

// StaffSessionCookie names the identity provider session cookie.
const StaffSessionCookie = "cookie_session"

// StaffRoles are the identity provider roles allowed on staff routes.
var StaffRoles = []string{"admin", "staff"}

// ErrInvalidStaffSession is returned when the identity provider refuses a session.
var ErrInvalidStaffSession = errors.New("session is not valid")

// StaffValidator checks a staff session cookie and returns the user id.
// origin is the scheme and host of the inbound request, used as the redirect
// url when the client is first built.
type StaffValidator interface {
	ValidateStaff(origin, cookie string) (string, error)
}

// Authorizer validates staff sessions against the Authorizer service. The
// client is built lazily on the first request.
type Authorizer struct {
	cfg   *config.Config
	log   logger.Logger
	roles []*string

	once    sync.Once
	client  *authorizer.AuthorizerClient
	initErr error
}

// NewAuthorizer creates a staff session validator for roles.
func NewAuthorizer(cfg *config.Config, log logger.Logger, roles []string) *Authorizer {
	ptrs := make([]*string, len(roles))
	for i := range roles {
		ptrs[i] = &roles[i]
	}
	return &Authorizer{cfg: cfg, log: log, roles: ptrs}
}

// Initialized reports whether the client has been built.
func (a *Authorizer) Initialized() bool {
	return a.client != nil
}

func (a *Authorizer) init(origin string) error {
	a.once.Do(func() {
		if err := utils.PingAuthorizer(a.cfg.AuthzURL); err != nil {
			a.initErr = fmt.Errorf("authorizer ping failed: %w", err)
			return
		}

		a.log.Info("Initializing Authorizer", map[string]interface{}{
			"authorizer_url": a.cfg.AuthzURL,
			"client_id":      a.cfg.AuthzClientID,
			"redirect_url":   origin,
		})

		client, err := authorizer.NewAuthorizerClient(a.cfg.AuthzClientID, a.cfg.AuthzURL, origin, nil)
		if err != nil {
			a.initErr = fmt.Errorf("failed to create authorizer client: %w", err)
			return
		}
		a.client = client
	})
	return a.initErr
}

// ValidateStaff validates cookie for the staff roles.
func (a *Authorizer) ValidateStaff(origin, cookie string) (string, error) {
	if err := a.init(origin); err != nil {
		return "", err
	}

	res, err := a.client.ValidateSession(&authorizer.ValidateSessionInput{
		Cookie: cookie,
		Roles:  a.roles,
	})
	if err != nil {
		return "", fmt.Errorf("session validation failed: %w", err)
	}
	if res == nil || !res.IsValid || res.User == nil {
		return "", ErrInvalidStaffSession
	}
	return res.User.ID, nil
}
