package quote

import "fmt"

// ActorKind discriminates the two actor identities.
type ActorKind string

const (
	ActorAuthenticated ActorKind = "user"
	ActorAnonymous     ActorKind = "session"
)

// Actor is a tagged union of the two caller identities: an authenticated
// user or an anonymous browser session. The two are mutually exclusive.
// Identity is resolved once at the HTTP boundary and the resolved value is
// passed into ledger operations; no downstream code inspects id formats.
type Actor struct {
	kind ActorKind
	id   string
}

// AuthenticatedActor returns the identity of a signed-in user.
func AuthenticatedActor(userID string) Actor {
	return Actor{kind: ActorAuthenticated, id: userID}
}

// AnonymousActor returns the identity of an anonymous session.
func AnonymousActor(sessionID string) Actor {
	return Actor{kind: ActorAnonymous, id: sessionID}
}

// Kind reports which arm of the union this actor is.
func (a Actor) Kind() ActorKind { return a.kind }

// ID returns the user id or session id, depending on Kind.
func (a Actor) ID() string { return a.id }

// IsAnonymous reports whether the actor is an anonymous session.
func (a Actor) IsAnonymous() bool { return a.kind == ActorAnonymous }

// IsZero reports whether the actor carries no identity.
func (a Actor) IsZero() bool { return a.id == "" }

// Key returns a stable storage key, used as the Creator value on quotes.
func (a Actor) Key() string { return a.id }

func (a Actor) String() string {
	return fmt.Sprintf("%s:%s", a.kind, a.id)
}
