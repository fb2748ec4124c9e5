package handlers

import (
	"net/http"
	"strings"

	"github.com/fleetops/premia/backend/internal/contracts"
)

// actorFromRequest rebuilds the acting user from the headers the
// authorization collaborator sets after evaluating roles upstream. The
// engine never sees a role, only the resolved capability set.
func actorFromRequest(r *http.Request) contracts.Actor {
	id := r.Header.Get("X-Actor-Id")
	name := r.Header.Get("X-Actor-Name")
	if name == "" {
		name = id
	}

	caps := make([]contracts.Capability, 0)
	for _, raw := range strings.Split(r.Header.Get("X-Actor-Capabilities"), ",") {
		if c := strings.TrimSpace(raw); c != "" {
			caps = append(caps, contracts.Capability(c))
		}
	}

	return contracts.NewActor(id, name, caps...)
}
