package filters

import (
	"github.com/leadgridhq/leadgrid/pkg/models"
)

type fieldKind int

const (
	kindString fieldKind = iota
	kindEnum
	kindNumber
	kindDate
	kindBool
)

type fieldDef struct {
	name    string // stored field name
	aliases []string
	kind    fieldKind
	vocab   []string // enum fields
	maxLen  int      // string fields
	integer bool
	min     float64
	max     float64
	hasMax  bool
	lower   bool // normalize value to lower case before compare
}

// registry drives compilation in a fixed order so compiled specs and batched
// validation errors are deterministic.
var registry = []fieldDef{
	{name: "firstName", kind: kindString, maxLen: 50},
	{name: "lastName", kind: kindString, maxLen: 50},
	{name: "email", kind: kindString, maxLen: 254, lower: true},
	{name: "company", kind: kindString, maxLen: 100},
	{name: "city", kind: kindString, maxLen: 50},
	{name: "state", kind: kindString, maxLen: 50},
	{name: "status", kind: kindEnum, vocab: models.LeadStatuses},
	{name: "source", kind: kindEnum, vocab: models.LeadSources},
	{name: "score", kind: kindNumber, integer: true, min: 0, max: 100, hasMax: true},
	{name: "leadValue", aliases: []string{"lead_value"}, kind: kindNumber, min: 0},
	{name: "createdAt", kind: kindDate},
	{name: "lastActivityAt", kind: kindDate},
	{name: "isQualified", kind: kindBool},
}

// CanonicalFieldName resolves external field aliases to the stored name.
// Unknown names pass through unchanged. The write path and the sort-key
// whitelist consult this too, so aliasing lives in one place.
func CanonicalFieldName(name string) string {
	for _, f := range registry {
		for _, a := range f.aliases {
			if name == a {
				return f.name
			}
		}
	}
	return name
}
