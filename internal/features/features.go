// Package features builds the deserializer registry with every built-in
// feature registered.
package features

import (
	"fmt"

	"trackkit/internal/animation"
	"trackkit/internal/deserialize"
	"trackkit/internal/environment"
	"trackkit/internal/parent"
)

// IDs lists the built-in deserializers in registration order.
var IDs = []string{animation.ID, parent.ID, environment.ID}

// NewRegistry registers every built-in feature and disables the ones named
// in disabled.
func NewRegistry(disabled ...string) (*deserialize.Registry, error) {
	r, err := deserialize.NewRegistry()
	if err != nil {
		return nil, err
	}
	for _, register := range []func(*deserialize.Registry) (*deserialize.Deserializer, error){
		animation.Register,
		parent.Register,
		environment.Register,
	} {
		if _, err := register(r); err != nil {
			return nil, err
		}
	}
	for _, id := range disabled {
		if _, ok := r.Get(id); !ok {
			return nil, fmt.Errorf("features: unknown deserializer %q", id)
		}
		if err := r.SetEnabled(id, false); err != nil {
			return nil, fmt.Errorf("features: %w", err)
		}
	}
	return r, nil
}
