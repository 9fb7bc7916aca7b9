package grant

import "github.com/google/uuid"

type ClientOpt func(*Client)

// WithOperationIDs replaces uuid.New as the source of operation ids.
func WithOperationIDs(f func() uuid.UUID) ClientOpt {
	return func(c *Client) {
		c.newOpID = f
	}
}
