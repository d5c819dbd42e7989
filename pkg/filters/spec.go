package filters

import (
	"regexp"
	"time"

	"go.mongodb.org/mongo-driver/v2/bson"
)

// Condition is a single compiled predicate on one field. Each operator is its
// own variant so the executor never re-parses raw parameter strings.
type Condition interface{ isCondition() }

// Equals matches the stored value exactly.
type Equals struct{ Value any }

// Contains matches a case-insensitive literal substring. The substring is
// escaped at render time so regex metacharacters never reach the engine.
type Contains struct{ Substring string }

// In matches membership in a fixed set of values.
type In struct{ Values []string }

// Gt and Lt are strict comparisons. Both on one field narrow to an open
// interval.
type Gt struct{ Value any }
type Lt struct{ Value any }

// Between is an inclusive range. When present it replaces any exact, Gt or Lt
// condition compiled for the same field.
type Between struct{ Min, Max any }

// On matches the full UTC calendar day containing Day.
type On struct{ Day time.Time }

// Before and After are strict timestamp comparisons.
type Before struct{ At time.Time }
type After struct{ At time.Time }

func (Equals) isCondition()   {}
func (Contains) isCondition() {}
func (In) isCondition()       {}
func (Gt) isCondition()       {}
func (Lt) isCondition()       {}
func (Between) isCondition()  {}
func (On) isCondition()       {}
func (Before) isCondition()   {}
func (After) isCondition()    {}

// Spec is a validated, normalized filter specification. Conditions are keyed
// by stored field name. Unless the all-records scope was granted, Scoped is
// true and every rendered filter carries the owner clause.
type Spec struct {
	Conditions map[string][]Condition
	Owner      bson.ObjectID
	Scoped     bool
}

// ToBSON renders the filter document the data store executes. Conditions on
// one field fold into a single operator document, so Gt plus Lt becomes one
// interval and Before/After tighten the bounds set by On.
func (s *Spec) ToBSON() bson.M {
	doc := bson.M{}
	if s.Scoped {
		doc["createdBy"] = s.Owner
	}
	for field, conds := range s.Conditions {
		var exact any
		hasExact := false
		ops := bson.M{}
		for _, c := range conds {
			switch c := c.(type) {
			case Equals:
				exact, hasExact = c.Value, true
			case Contains:
				ops["$regex"] = regexp.QuoteMeta(c.Substring)
				ops["$options"] = "i"
			case In:
				ops["$in"] = c.Values
			case Gt:
				ops["$gt"] = c.Value
			case Lt:
				ops["$lt"] = c.Value
			case Between:
				ops["$gte"] = c.Min
				ops["$lte"] = c.Max
			case On:
				ops["$gte"] = c.Day
				ops["$lt"] = c.Day.AddDate(0, 0, 1)
			case Before:
				ops["$lt"] = c.At
			case After:
				ops["$gt"] = c.At
			}
		}
		if len(ops) > 0 {
			doc[field] = ops
		} else if hasExact {
			doc[field] = exact
		}
	}
	return doc
}
