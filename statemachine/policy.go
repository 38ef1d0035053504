package statemachine

import (
	"github.com/juju/errors"

	"movers-api/models"
)

// Actor is the caller as seen by the authorization policy.
type Actor struct {
	UserID   uint
	Role     models.UserRole
	Approved bool
	// ClientID is the caller's client profile id, zero when it has none.
	ClientID uint
}

// NewActor builds an Actor for user; clientID is zero for non-clients.
func NewActor(user *models.User, clientID uint) Actor {
	return Actor{
		UserID:   user.ID,
		Role:     user.Role,
		Approved: user.IsApproved,
		ClientID: clientID,
	}
}

// IsAdmin is true for approved admins and superadmins.
func (a Actor) IsAdmin() bool {
	return a.Role == models.RoleSuperadmin || (a.Role == models.RoleAdmin && a.Approved)
}

// CanClaim decides whether the actor may take ownership of unclaimed requests.
func CanClaim(a Actor) error {
	switch a.Role {
	case models.RoleSuperadmin:
		return nil
	case models.RoleAdmin:
		if !a.Approved {
			return errors.NewForbidden(nil, "admin account is pending approval")
		}
		return nil
	}
	return errors.NewForbidden(nil, "only admins can claim service requests")
}

// CanView decides whether the actor may read req.
func CanView(a Actor, req *models.ServiceRequest) error {
	switch {
	case a.IsAdmin():
		return nil
	case a.Role == models.RoleClient && a.ClientID != 0 && req.ClientID == a.ClientID:
		return nil
	case a.Role == models.RoleProvider && req.IsClaimedBy(a.UserID):
		return nil
	}
	return errors.NewForbidden(nil, "not authorized to view this request")
}

// Decide is the single authorization policy for status updates. It returns
// nil when the actor may move req to the target status.
func Decide(a Actor, req *models.ServiceRequest, to models.RequestStatus) error {
	if !to.Valid() {
		return errors.NewNotValid(nil, "unknown status "+string(to))
	}

	var class string
	switch a.Role {
	case models.RoleSuperadmin:
		class = ActorAdmin
	case models.RoleAdmin:
		if !a.Approved {
			return errors.NewForbidden(nil, "admin account is pending approval")
		}
		if !req.IsClaimedBy(a.UserID) {
			return errors.NewForbidden(nil, "only the admin who claimed this request can update it")
		}
		class = ActorAdmin
	case models.RoleClient:
		if a.ClientID == 0 || req.ClientID != a.ClientID {
			return errors.NewForbidden(nil, "not authorized to update this request")
		}
		if to != models.StatusCancelled {
			return errors.NewNotValid(nil, "clients can only cancel requests")
		}
		class = ActorClient
	default:
		return errors.NewForbidden(nil, "not authorized to update status")
	}

	if req.Status.Terminal() {
		return errors.NewNotValid(nil, "request is "+string(req.Status)+" and can no longer change")
	}
	if to == models.StatusClaimed && req.ClaimedBy == nil {
		return errors.NewNotValid(nil, "request has no claimant; claim it instead")
	}
	return CanTransition(req.Status, to, class)
}

// AllowedNext lists the states the actor could move req to.
func AllowedNext(a Actor, req *models.ServiceRequest) []models.RequestStatus {
	var out []models.RequestStatus
	for _, s := range models.AllStatuses {
		if Decide(a, req, s) == nil {
			out = append(out, s)
		}
	}
	return out
}

// DecidePayment checks that a verified payment may accept req.
func DecidePayment(req *models.ServiceRequest) error {
	if req.Status == models.StatusAccepted {
		return nil
	}
	if req.Status.Terminal() {
		return errors.NewNotValid(nil, "request is "+string(req.Status)+" and cannot be paid")
	}
	return CanTransition(req.Status, models.StatusAccepted, ActorSystem)
}
