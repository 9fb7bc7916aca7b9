package command

import (
	"fmt"
	"slices"

	"github.com/pixil98/go-errors"

	"github.com/pixil98/go-tacklebox/internal/grant"
	"github.com/pixil98/go-tacklebox/internal/item"
)

const DefaultGrantSubject = "grants"

var knownCapabilities = []item.Capability{
	item.CapStackable,
	item.CapDurable,
	item.CapBait,
	item.CapRod,
	item.CapShop,
	item.CapSpecial,
	item.CapFish,
	item.CapShell,
}

type GrantsConfig struct {
	Subject   string `json:"subject"`
	MaxAmount int    `json:"max_amount"`
	MaxOwned  int    `json:"max_owned"`

	// Sources maps a grant source to the capability its items must have.
	// An empty capability accepts any item.
	Sources map[string]item.Capability `json:"sources"`
}

func (c *GrantsConfig) validate() error {
	el := errors.NewErrorList()

	if c.MaxAmount < 0 {
		el.Add(fmt.Errorf("grants: max_amount must not be negative"))
	}
	if c.MaxOwned < 0 {
		el.Add(fmt.Errorf("grants: max_owned must not be negative"))
	}
	for src, need := range c.Sources {
		if src == "" {
			el.Add(fmt.Errorf("grants: source name must be set"))
		}
		if need != "" && !slices.Contains(knownCapabilities, need) {
			el.Add(fmt.Errorf("grants: source %q requires unknown capability %q", src, need))
		}
	}

	return el.Err()
}

func (c *GrantsConfig) subject() string {
	if c.Subject == "" {
		return DefaultGrantSubject
	}
	return c.Subject
}

func (c *GrantsConfig) sources() map[string]item.Capability {
	if len(c.Sources) > 0 {
		return c.Sources
	}
	return map[string]item.Capability{
		"shop":  item.CapShop,
		"catch": item.CapFish,
		"beach": item.CapShell,
		"quest": "",
	}
}

func (c *GrantsConfig) serverOpts() []grant.ServerOpt {
	validators := []grant.Validator{grant.RequireSourceCapability(c.sources())}
	if c.MaxOwned > 0 {
		validators = append(validators, grant.LimitOwned(c.MaxOwned))
	}

	opts := []grant.ServerOpt{grant.WithValidators(validators...)}
	if c.MaxAmount > 0 {
		opts = append(opts, grant.WithMaxAmount(c.MaxAmount))
	}
	return opts
}
