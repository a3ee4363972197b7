// Package registry declares the collaborators the cascade platform
// consumes but never implements for production: a definition registry,
// an artifact store, and a secret store. An InMemoryRegistry reference
// implementation is provided for tests and the demo CLI; production
// deployments are expected to bring their own (a real registry is an
// external system of record, the way the teacher's core.Registry is
// backed by Redis for service discovery rather than owned in-process).
package registry

import (
	"context"
	"errors"

	"github.com/cascadefn/platform/cascade"
)

// ErrNotFound is returned when a lookup misses.
var ErrNotFound = errors.New("registry: not found")

// Page is a paginated listing result.
type Page struct {
	Definitions []*cascade.Definition
	Total       int
}

// Filter narrows a List call.
type Filter struct {
	NamePrefix string
	Limit      int
	Offset     int
}

// Registry resolves cascade definitions by ID and version, the way the
// teacher's core.Registry resolves services by name: register writes a
// new version, resolve reads the latest (or a constrained) version,
// list pages through everything registered.
type Registry interface {
	Register(ctx context.Context, def *cascade.Definition) (version string, err error)
	Resolve(ctx context.Context, id, versionConstraint string) (*cascade.Definition, error)
	List(ctx context.Context, filter Filter) (Page, error)
}

// ArtifactStore resolves the packaged code artifact backing a code-tier
// handler, keyed by function ID and version.
type ArtifactStore interface {
	GetArtifact(ctx context.Context, functionID, version string) ([]byte, error)
}

// SecretStore resolves the secrets a function's handlers are entitled
// to at invocation time.
type SecretStore interface {
	GetSecrets(ctx context.Context, functionID string) (map[string]string, error)
}
