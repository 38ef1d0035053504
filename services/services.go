// Package services holds the business operations behind the HTTP handlers.
// Every error returned here is classified with juju/errors so the handlers
// can map it to a status code.
package services

import (
	"context"
	"strings"

	"github.com/juju/errors"
	"github.com/sirupsen/logrus"

	"movers-api/models"
	"movers-api/notify"
	"movers-api/statemachine"
	"movers-api/store"
)

// ErrNotConfigured is returned when a required server-side secret is unset.
const ErrNotConfigured = errors.ConstError("server is not configured for this operation")

// TokenIssuer signs bearer tokens for a user id.
type TokenIssuer interface {
	Issue(userID uint) (string, error)
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// dispatch hands a rendered message to n. A render failure is logged and
// nothing is sent.
func dispatch(n notify.Notifier, log logrus.FieldLogger, msg notify.Message, renderErr error) {
	if renderErr != nil {
		log.WithError(renderErr).WithField("to", msg.To).Warn("render notification")
		return
	}
	n.Dispatch(msg)
}

// actorFor resolves the policy view of user, including its client profile id.
func actorFor(ctx context.Context, st *store.Store, user *models.User) (statemachine.Actor, error) {
	var clientID uint
	if user.Role == models.RoleClient {
		profile, err := st.ClientProfileByUser(ctx, user.ID)
		switch {
		case err == nil:
			clientID = profile.ID
		case !errors.Is(err, errors.NotFound):
			return statemachine.Actor{}, err
		}
	}
	return statemachine.NewActor(user, clientID), nil
}
