// Package policy holds the stateless authorization predicates for
// custody operations. Predicates only inspect the acting identity and
// the entity acted on; callers translate a false result into
// model.ErrUnauthorized.
package policy

import "github.com/jvidmar/kljucar/internal/model"

// CanDirectAssign reports whether actor may assign an unheld resource to
// a holder directly. Only administrators hand out keys.
func CanDirectAssign(actor model.Actor) bool {
	return actor.IsAdmin()
}

// CanDirectUnassign reports whether actor may take a resource back
// without a counterpart approval: administrators always, holders only
// for their own resource (returning a key).
func CanDirectUnassign(actor model.Actor, resource *model.Resource) bool {
	return actor.IsAdmin() || resource.HeldBy(actor.ID)
}

// CanCreateTransfer reports whether actor may open a transfer request
// for the resource: its current holder, or an administrator acting on
// the holder's behalf.
func CanCreateTransfer(actor model.Actor, resource *model.Resource) bool {
	return actor.IsAdmin() || resource.HeldBy(actor.ID)
}

// CanApprove reports whether actor may approve the request: the proposed
// recipient, or an administrator.
func CanApprove(actor model.Actor, request *model.TransferRequest) bool {
	return actor.IsAdmin() || actor.ID == request.ToActor
}

// CanReject reports whether actor may reject the request. Same rule as
// CanApprove: the proposed recipient may decline, an administrator may
// override.
func CanReject(actor model.Actor, request *model.TransferRequest) bool {
	return CanApprove(actor, request)
}

// CanCancel reports whether actor may withdraw the request: its source
// actor, or an administrator.
func CanCancel(actor model.Actor, request *model.TransferRequest) bool {
	return actor.IsAdmin() || actor.ID == request.FromActor
}
