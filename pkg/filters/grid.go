package filters

import (
	"fmt"
	"net/url"
	"strconv"
	"time"
)

// GridFilter is one column entry of an AG-Grid-style filter model.
type GridFilter struct {
	FilterType string `json:"filterType"`
	Type       string `json:"type"`
	Filter     any    `json:"filter"`
	FilterTo   any    `json:"filterTo"`
	DateFrom   string `json:"dateFrom"`
	DateTo     string `json:"dateTo"`
	Values     []any  `json:"values"`
}

// GridFilterModel maps column ids to their active filter.
type GridFilterModel map[string]GridFilter

// Params translates the grid filter model into the query-parameter keys the
// compiler understands. The combined Name column reports itself as firstName
// and is fanned out to both name fields.
func (m GridFilterModel) Params() url.Values {
	params := url.Values{}
	for field, f := range m {
		switch f.FilterType {
		case "text":
			v := stringValue(f.Filter)
			if v == "" {
				continue
			}
			suffix := ""
			if f.Type == "contains" {
				suffix = "_contains"
			}
			if field == "firstName" {
				params.Set("firstName"+suffix, v)
				params.Set("lastName"+suffix, v)
			} else {
				params.Set(field+suffix, v)
			}
		case "number":
			v := numberValue(f.Filter)
			switch f.Type {
			case "equals":
				params.Set(field, v)
			case "greaterThan":
				params.Set(field+"_gt", v)
			case "lessThan":
				params.Set(field+"_lt", v)
			case "inRange":
				params.Set(field+"_between", v+","+numberValue(f.FilterTo))
			}
		case "date":
			switch f.Type {
			case "equals":
				params.Set(field+"_on", f.DateFrom)
			case "greaterThan":
				params.Set(field+"_after", f.DateFrom)
			case "lessThan":
				params.Set(field+"_before", f.DateFrom)
			case "inRange":
				params.Set(field+"_between", f.DateFrom+","+f.DateTo)
			}
		case "set":
			if len(f.Values) == 0 {
				continue
			}
			csv := ""
			for i, v := range f.Values {
				if i > 0 {
					csv += ","
				}
				csv += stringValue(v)
			}
			params.Set(field+"_in", csv)
		default:
			if v := stringValue(f.Filter); v != "" {
				params.Set(field, v)
			}
		}
	}
	return params
}

// TextFilter is a free-text entry of the dashboard filter panel.
type TextFilter struct {
	Mode  string `json:"mode"` // equals or contains
	Value string `json:"value"`
}

// NumberRange is a min/max entry; either side may be open.
type NumberRange struct {
	Min *float64 `json:"min"`
	Max *float64 `json:"max"`
}

// DateRange is a calendar-day entry; Start and End are YYYY-MM-DD.
type DateRange struct {
	Mode  string `json:"mode"` // "on" pins a single day
	Start string `json:"start"`
	End   string `json:"end"`
}

// PanelState is the dashboard filter panel's saved state.
type PanelState struct {
	Text   map[string]TextFilter  `json:"text"`
	Select map[string][]any       `json:"select"`
	Number map[string]NumberRange `json:"number"`
	Date   map[string]DateRange   `json:"date"`
}

// Params translates the panel state into compiler parameter keys. Calendar
// days are widened to UTC day boundaries so an end date includes its whole
// day.
func (p PanelState) Params() url.Values {
	params := url.Values{}
	for field, f := range p.Text {
		if f.Value == "" {
			continue
		}
		if f.Mode == "equals" {
			params.Set(field, f.Value)
		} else {
			params.Set(field+"_contains", f.Value)
		}
	}
	for field, values := range p.Select {
		if len(values) == 0 {
			continue
		}
		csv := ""
		for i, v := range values {
			if i > 0 {
				csv += ","
			}
			csv += stringValue(v)
		}
		params.Set(field+"_in", csv)
	}
	for field, r := range p.Number {
		switch {
		case r.Min != nil && r.Max != nil:
			params.Set(field+"_between", formatFloat(*r.Min)+","+formatFloat(*r.Max))
		case r.Min != nil:
			params.Set(field+"_gt", formatFloat(*r.Min))
		case r.Max != nil:
			params.Set(field+"_lt", formatFloat(*r.Max))
		}
	}
	for field, d := range p.Date {
		start, startOK := dayStart(d.Start)
		end, endOK := dayEnd(d.End)
		switch {
		case d.Mode == "on" && startOK:
			params.Set(field+"_on", start)
		case startOK && endOK:
			params.Set(field+"_between", start+","+end)
		case startOK:
			params.Set(field+"_after", start)
		case endOK:
			params.Set(field+"_before", end)
		}
	}
	return params
}

// Merge overlays override onto base, key by key. Used to combine the grid
// filter model with the panel state: panel keys win.
func Merge(base, override url.Values) url.Values {
	merged := url.Values{}
	for k, v := range base {
		merged[k] = v
	}
	for k, v := range override {
		merged[k] = v
	}
	return merged
}

func dayStart(s string) (string, bool) {
	t, err := time.Parse("2006-01-02", s)
	if err != nil {
		return "", false
	}
	return t.UTC().Format(time.RFC3339), true
}

func dayEnd(s string) (string, bool) {
	t, err := time.Parse("2006-01-02", s)
	if err != nil {
		return "", false
	}
	return t.UTC().Add(24*time.Hour - time.Millisecond).Format("2006-01-02T15:04:05.999Z07:00"), true
}

func stringValue(v any) string {
	switch v := v.(type) {
	case nil:
		return ""
	case string:
		return v
	case bool:
		return strconv.FormatBool(v)
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64)
	default:
		return fmt.Sprint(v)
	}
}

func numberValue(v any) string {
	switch v := v.(type) {
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64)
	case string:
		return v
	default:
		return fmt.Sprint(v)
	}
}

func formatFloat(f float64) string {
	return strconv.FormatFloat(f, 'f', -1, 64)
}
