package filters

import (
	"fmt"
	"math"
	"net/url"
	"strconv"
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/v2/bson"

	"github.com/leadgridhq/leadgrid/pkg/domain"
)

// containsMaxLen caps every substring search, independent of the searched
// field's stored-value cap.
const containsMaxLen = 100

// Compile turns raw query parameters into a Spec, or an all-or-nothing batch
// of per-field validation errors. Unknown parameter keys and operators a
// field does not support are ignored. The owner clause is attached unless the
// caller was granted the all-records scope.
func Compile(params url.Values, owner bson.ObjectID, allRecords bool) (*Spec, error) {
	c := &compilation{
		params: params,
		spec: &Spec{
			Conditions: map[string][]Condition{},
			Owner:      owner,
			Scoped:     !allRecords,
		},
	}
	for _, f := range registry {
		switch f.kind {
		case kindString:
			c.compileString(f)
		case kindEnum:
			c.compileEnum(f)
		case kindNumber:
			c.compileNumber(f)
		case kindDate:
			c.compileDate(f)
		case kindBool:
			c.compileBool(f)
		}
	}
	if len(c.errs) > 0 {
		return nil, domain.NewValidationError(c.errs)
	}
	return c.spec, nil
}

type compilation struct {
	params url.Values
	spec   *Spec
	errs   []domain.FieldError
}

// value returns the parameter for field+suffix under the canonical name or
// any alias. Empty values count as absent, matching how browsers submit
// untouched form inputs.
func (c *compilation) value(f fieldDef, suffix string) (string, string, bool) {
	for _, name := range append([]string{f.name}, f.aliases...) {
		key := name + suffix
		if v := c.params.Get(key); v != "" {
			return v, key, true
		}
	}
	return "", "", false
}

func (c *compilation) fail(key, msg string) {
	c.errs = append(c.errs, domain.FieldError{Field: key, Message: msg})
}

func (c *compilation) add(f fieldDef, cond Condition) {
	c.spec.Conditions[f.name] = append(c.spec.Conditions[f.name], cond)
}

func (c *compilation) compileString(f fieldDef) {
	if v, key, ok := c.value(f, ""); ok {
		if len(v) > f.maxLen {
			c.fail(key, fmt.Sprintf("%s cannot exceed %d characters", f.name, f.maxLen))
		} else {
			if f.lower {
				v = strings.ToLower(v)
			}
			c.add(f, Equals{Value: v})
		}
	}
	if v, key, ok := c.value(f, "_contains"); ok {
		// substring searches share one cap regardless of the field's stored cap
		if len(v) > containsMaxLen {
			c.fail(key, fmt.Sprintf("%s cannot exceed %d characters", key, containsMaxLen))
		} else {
			c.add(f, Contains{Substring: v})
		}
	}
}

func (c *compilation) compileEnum(f fieldDef) {
	if v, key, ok := c.value(f, ""); ok {
		if !contains(f.vocab, v) {
			c.fail(key, fmt.Sprintf("%s must be one of: %s", f.name, strings.Join(f.vocab, ", ")))
		} else {
			c.add(f, Equals{Value: v})
		}
	}
	if v, key, ok := c.value(f, "_in"); ok {
		values := splitCSV(v)
		valid := len(values) > 0
		for _, item := range values {
			if !contains(f.vocab, item) {
				c.fail(key, fmt.Sprintf("%s must be one of: %s", f.name, strings.Join(f.vocab, ", ")))
				valid = false
				break
			}
		}
		if valid {
			c.add(f, In{Values: values})
		}
	}
}

func (c *compilation) compileNumber(f fieldDef) {
	// between replaces exact, gt and lt for the same field
	if v, key, ok := c.value(f, "_between"); ok {
		parts := splitCSV(v)
		if len(parts) != 2 {
			c.fail(key, fmt.Sprintf("%s must be min,max", key))
			return
		}
		lo, err1 := c.parseNumber(f, key, parts[0])
		hi, err2 := c.parseNumber(f, key, parts[1])
		if err1 || err2 {
			return
		}
		if lo > hi {
			c.fail(key, fmt.Sprintf("%s requires min <= max", key))
			return
		}
		c.add(f, Between{Min: lo, Max: hi})
		return
	}

	gt, gtKey, hasGt := c.value(f, "_gt")
	lt, ltKey, hasLt := c.value(f, "_lt")
	if hasGt {
		if n, bad := c.parseNumber(f, gtKey, gt); !bad {
			c.add(f, Gt{Value: n})
		}
	}
	if hasLt {
		if n, bad := c.parseNumber(f, ltKey, lt); !bad {
			c.add(f, Lt{Value: n})
		}
	}
	if hasGt || hasLt {
		return
	}
	if v, key, ok := c.value(f, ""); ok {
		if n, bad := c.parseNumber(f, key, v); !bad {
			c.add(f, Equals{Value: n})
		}
	}
}

// parseNumber reports bad=true after recording a validation error.
func (c *compilation) parseNumber(f fieldDef, key, raw string) (float64, bool) {
	n, err := strconv.ParseFloat(strings.TrimSpace(raw), 64)
	if err != nil {
		c.fail(key, fmt.Sprintf("%s must be a number", f.name))
		return 0, true
	}
	if f.integer && n != math.Trunc(n) {
		c.fail(key, fmt.Sprintf("%s must be an integer", f.name))
		return 0, true
	}
	if n < f.min || (f.hasMax && n > f.max) {
		if f.hasMax {
			c.fail(key, fmt.Sprintf("%s must be between %v and %v", f.name, f.min, f.max))
		} else {
			c.fail(key, fmt.Sprintf("%s must be at least %v", f.name, f.min))
		}
		return 0, true
	}
	return n, false
}

func (c *compilation) compileDate(f fieldDef) {
	if v, key, ok := c.value(f, "_between"); ok {
		parts := splitCSV(v)
		if len(parts) != 2 {
			c.fail(key, fmt.Sprintf("%s must be start,end", key))
			return
		}
		start, err1 := parseDate(parts[0])
		end, err2 := parseDate(parts[1])
		if err1 != nil || err2 != nil {
			c.fail(key, fmt.Sprintf("%s must contain valid dates", key))
			return
		}
		if start.After(end) {
			c.fail(key, fmt.Sprintf("%s requires start <= end", key))
			return
		}
		c.add(f, Between{Min: start, Max: end})
		return
	}

	if v, key, ok := c.value(f, "_on"); ok {
		t, err := parseDate(v)
		if err != nil {
			c.fail(key, fmt.Sprintf("%s must be a valid date", key))
		} else {
			c.add(f, On{Day: startOfUTCDay(t)})
		}
	}
	if v, key, ok := c.value(f, "_before"); ok {
		t, err := parseDate(v)
		if err != nil {
			c.fail(key, fmt.Sprintf("%s must be a valid date", key))
		} else {
			c.add(f, Before{At: t})
		}
	}
	if v, key, ok := c.value(f, "_after"); ok {
		t, err := parseDate(v)
		if err != nil {
			c.fail(key, fmt.Sprintf("%s must be a valid date", key))
		} else {
			c.add(f, After{At: t})
		}
	}
}

func (c *compilation) compileBool(f fieldDef) {
	if v, key, ok := c.value(f, ""); ok {
		switch v {
		case "true":
			c.add(f, Equals{Value: true})
		case "false":
			c.add(f, Equals{Value: false})
		default:
			c.fail(key, fmt.Sprintf("%s must be true or false", f.name))
		}
	}
}

// parseDate accepts a bare calendar date or an RFC 3339 timestamp.
func parseDate(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	if t, err := time.Parse("2006-01-02", s); err == nil {
		return t, nil
	}
	return time.Parse(time.RFC3339Nano, s)
}

// startOfUTCDay truncates to the UTC calendar day regardless of the
// timestamp's zone or the server's local zone.
func startOfUTCDay(t time.Time) time.Time {
	t = t.UTC()
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

func splitCSV(s string) []string {
	parts := strings.Split(s, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

func contains(list []string, v string) bool {
	for _, item := range list {
		if item == v {
			return true
		}
	}
	return false
}
