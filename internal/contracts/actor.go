package contracts

// Capability is one granted action. The authorization collaborator
// resolves roles upstream; the engine only ever checks capabilities.
type Capability string

const (
	CapTargetWrite    Capability = "target:write"
	CapExpurgoRequest Capability = "expurgo:request"
	CapExpurgoReview  Capability = "expurgo:review"
	CapPeriodAdvance  Capability = "period:advance"
	CapPeriodClose    Capability = "period:close"
	CapComputeRun     Capability = "compute:run"
)

// Actor is the acting user as handed over by the authorization
// collaborator: an identity plus an opaque capability set.
type Actor struct {
	ID           string
	Name         string
	capabilities map[Capability]struct{}
}

// NewActor creates an actor with the given capabilities
func NewActor(id, name string, caps ...Capability) Actor {
	set := make(map[Capability]struct{}, len(caps))
	for _, c := range caps {
		set[c] = struct{}{}
	}
	return Actor{ID: id, Name: name, capabilities: set}
}

// Can reports whether the actor holds the capability
func (a Actor) Can(c Capability) bool {
	_, ok := a.capabilities[c]
	return ok
}

// Capabilities returns the granted capabilities in no particular order
func (a Actor) Capabilities() []Capability {
	caps := make([]Capability, 0, len(a.capabilities))
	for c := range a.capabilities {
		caps = append(caps, c)
	}
	return caps
}
