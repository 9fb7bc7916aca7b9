package grant

import (
	"context"
	"fmt"

	"github.com/pixil98/go-tacklebox/internal/inventory"
	"github.com/pixil98/go-tacklebox/internal/item"
)

// Validator checks domain rules for a grant before the server commits it.
// A non-nil error denies the grant.
type Validator interface {
	ValidateGrant(ctx context.Context, req *GrantRequest, def *item.Definition, inv *inventory.Store) error
}

type ValidatorFunc func(ctx context.Context, req *GrantRequest, def *item.Definition, inv *inventory.Store) error

func (f ValidatorFunc) ValidateGrant(ctx context.Context, req *GrantRequest, def *item.Definition, inv *inventory.Store) error {
	return f(ctx, req, def, inv)
}

// SourceParam is the request parameter naming why an item is granted.
const SourceParam = "source"

// RequireSourceCapability only allows a grant whose source is listed in
// sources and whose definition has the capability that source demands.
// A shop purchase must name a shoppable item, a catch must name a fish.
func RequireSourceCapability(sources map[string]item.Capability) Validator {
	return ValidatorFunc(func(_ context.Context, req *GrantRequest, def *item.Definition, _ *inventory.Store) error {
		src := req.Params[SourceParam]
		c, ok := sources[src]
		if !ok {
			return fmt.Errorf("unknown grant source %q", src)
		}
		if c != "" && !def.Has(c) {
			return fmt.Errorf("%s cannot come from %s", def.Name, src)
		}
		return nil
	})
}

// LimitOwned denies grants that would leave the owner with more than max
// units of one definition.
func LimitOwned(max int) Validator {
	return ValidatorFunc(func(_ context.Context, req *GrantRequest, def *item.Definition, inv *inventory.Store) error {
		owned := 0
		for _, inst := range inv.Items() {
			if inst.DefinitionID() == def.ID {
				owned += inst.Amount()
			}
		}
		if owned+req.Amount > max {
			return fmt.Errorf("owning %d more %s would exceed %d", req.Amount, def.Name, max)
		}
		return nil
	})
}
