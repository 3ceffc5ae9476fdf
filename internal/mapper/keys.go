package mapper

import (
	"github.com/google/uuid"

	"github.com/omfgitsmark/mtgsqlive/internal/mtgjson"
)

// keyNamespace scopes generated keys so they never collide with UUIDs from
// other name-based sources.
var keyNamespace = uuid.MustParse("6f0a3b2e-52d4-4c1e-9a51-6d7473716c69")

// CardKey returns the card's uuid, or a name-based UUID derived from its set
// code and collector number (its name when unnumbered) so that re-imports
// address the same row.
func CardKey(c *mtgjson.Card) string {
	if c.UUID != "" {
		return c.UUID
	}
	id := c.Name
	if c.Number != nil && *c.Number != "" {
		id = *c.Number
	}
	return uuid.NewSHA1(keyNamespace, []byte("card/"+c.SetCode+"/"+id)).String()
}

// TokenKey is CardKey for tokens.
func TokenKey(t *mtgjson.Token) string {
	if t.UUID != "" {
		return t.UUID
	}
	id := t.Name
	if t.Number != nil && *t.Number != "" {
		id = *t.Number
	}
	return uuid.NewSHA1(keyNamespace, []byte("token/"+t.SetCode+"/"+id)).String()
}
