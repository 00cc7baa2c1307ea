package apiclient

import (
	"github.com/jonwraymond/apiclient/extension"
)

// Factory builds an extension module for a Client.
type Factory = extension.Factory[*Client]

// Registry holds extension registrations made before a Client exists.
type Registry = extension.Registry[*Client]

// NewRegistry creates an empty Registry.
func NewRegistry() *Registry {
	return extension.NewRegistry[*Client]()
}

// DefaultRegistry is mounted by every Client that is not given its own
// registry with WithRegistry.
var DefaultRegistry = NewRegistry()

// Register records factory in DefaultRegistry.
func Register(name string, factory Factory) error {
	return DefaultRegistry.Register(name, factory)
}

// MustRegister is like Register but panics on error. It is meant for init
// functions.
func MustRegister(name string, factory Factory) {
	if err := Register(name, factory); err != nil {
		panic(err)
	}
}
