package filters

import (
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/v2/bson"

	"github.com/leadgridhq/leadgrid/pkg/domain"
)

var testOwner = bson.NewObjectID()

func compileOK(t *testing.T, params url.Values) *Spec {
	t.Helper()
	spec, err := Compile(params, testOwner, false)
	require.NoError(t, err)
	return spec
}

func TestCompileAlwaysScopesToOwner(t *testing.T) {
	spec := compileOK(t, url.Values{"status": {"new"}})
	assert.True(t, spec.Scoped)

	doc := spec.ToBSON()
	assert.Equal(t, testOwner, doc["createdBy"])
}

func TestCompileAllRecordsSkipsOwnerClause(t *testing.T) {
	spec, err := Compile(url.Values{}, testOwner, true)
	require.NoError(t, err)
	assert.False(t, spec.Scoped)

	_, present := spec.ToBSON()["createdBy"]
	assert.False(t, present)
}

func TestCompileStringFilters(t *testing.T) {
	spec := compileOK(t, url.Values{
		"company":       {"Acme"},
		"city_contains": {"spring"},
	})

	assert.Equal(t, []Condition{Equals{Value: "Acme"}}, spec.Conditions["company"])
	assert.Equal(t, []Condition{Contains{Substring: "spring"}}, spec.Conditions["city"])
}

func TestContainsCapIsUniform(t *testing.T) {
	long := strings.Repeat("a", 101)

	// firstName stores at most 50 characters but its substring search
	// accepts up to 100
	spec := compileOK(t, url.Values{"firstName_contains": {strings.Repeat("a", 60)}})
	assert.Len(t, spec.Conditions["firstName"], 1)

	_, err := Compile(url.Values{"email_contains": {long}}, testOwner, false)
	require.Error(t, err)
	fields := domain.ValidationFields(err)
	require.Len(t, fields, 1)
	assert.Equal(t, "email_contains", fields[0].Field)
}

func TestCompileLowercasesEmail(t *testing.T) {
	spec := compileOK(t, url.Values{"email": {"Jane@Example.COM"}})
	assert.Equal(t, []Condition{Equals{Value: "jane@example.com"}}, spec.Conditions["email"])
}

func TestContainsIsLiteral(t *testing.T) {
	spec := compileOK(t, url.Values{"company_contains": {"a.b"}})

	doc := spec.ToBSON()
	op, ok := doc["company"].(bson.M)
	require.True(t, ok)
	assert.Equal(t, `a\.b`, op["$regex"], "dot must be escaped so a.b does not match axb")
	assert.Equal(t, "i", op["$options"])
}

func TestCompileEnumMembership(t *testing.T) {
	spec := compileOK(t, url.Values{"status_in": {"new,contacted"}})
	assert.Equal(t, []Condition{In{Values: []string{"new", "contacted"}}}, spec.Conditions["status"])
}

func TestCompileRejectsUnknownEnumValue(t *testing.T) {
	_, err := Compile(url.Values{"status": {"archived"}}, testOwner, false)
	require.Error(t, err)
	assert.True(t, domain.IsValidation(err))
}

func TestCompileRejectsUnknownValueInList(t *testing.T) {
	_, err := Compile(url.Values{"source_in": {"website,mailchimp"}}, testOwner, false)
	require.Error(t, err)

	fields := domain.ValidationFields(err)
	require.Len(t, fields, 1)
	assert.Equal(t, "source_in", fields[0].Field)
}

func TestBetweenOverridesOtherNumericFilters(t *testing.T) {
	spec := compileOK(t, url.Values{
		"score":         {"10"},
		"score_gt":      {"20"},
		"score_lt":      {"90"},
		"score_between": {"30,60"},
	})

	assert.Equal(t, []Condition{Between{Min: 30.0, Max: 60.0}}, spec.Conditions["score"])
}

func TestGtAndLtCombineToInterval(t *testing.T) {
	spec := compileOK(t, url.Values{
		"score_gt": {"20"},
		"score_lt": {"80"},
	})

	doc := spec.ToBSON()
	assert.Equal(t, bson.M{"$gt": 20.0, "$lt": 80.0}, doc["score"])
}

func TestGtOrLtDropsExactMatch(t *testing.T) {
	spec := compileOK(t, url.Values{
		"score":    {"50"},
		"score_gt": {"20"},
	})

	assert.Equal(t, []Condition{Gt{Value: 20.0}}, spec.Conditions["score"])
}

func TestCompileNumberValidation(t *testing.T) {
	tests := []struct {
		name   string
		params url.Values
		field  string
	}{
		{"non-numeric", url.Values{"score": {"high"}}, "score"},
		{"fractional score", url.Values{"score": {"41.5"}}, "score"},
		{"score above cap", url.Values{"score_gt": {"150"}}, "score_gt"},
		{"negative lead value", url.Values{"lead_value": {"-10"}}, "lead_value"},
		{"inverted range", url.Values{"score_between": {"60,30"}}, "score_between"},
		{"malformed range", url.Values{"score_between": {"60"}}, "score_between"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Compile(tt.params, testOwner, false)
			require.Error(t, err)

			fields := domain.ValidationFields(err)
			require.Len(t, fields, 1)
			assert.Equal(t, tt.field, fields[0].Field)
		})
	}
}

func TestLeadValueAliasIsInterchangeable(t *testing.T) {
	spec := compileOK(t, url.Values{"lead_value_gt": {"1000"}})
	assert.Equal(t, []Condition{Gt{Value: 1000.0}}, spec.Conditions["leadValue"])

	spec = compileOK(t, url.Values{"leadValue_gt": {"1000"}})
	assert.Equal(t, []Condition{Gt{Value: 1000.0}}, spec.Conditions["leadValue"])
}

func TestOnMatchesFullUTCDay(t *testing.T) {
	spec := compileOK(t, url.Values{"createdAt_on": {"2024-03-15"}})

	doc := spec.ToBSON()
	op, ok := doc["createdAt"].(bson.M)
	require.True(t, ok)

	start := time.Date(2024, 3, 15, 0, 0, 0, 0, time.UTC)
	assert.Equal(t, start, op["$gte"])
	assert.Equal(t, start.AddDate(0, 0, 1), op["$lt"])

	// 23:59:59Z falls inside the window, next midnight does not
	inside := time.Date(2024, 3, 15, 23, 59, 59, 0, time.UTC)
	assert.True(t, !inside.Before(op["$gte"].(time.Time)) && inside.Before(op["$lt"].(time.Time)))
	next := time.Date(2024, 3, 16, 0, 0, 0, 0, time.UTC)
	assert.False(t, next.Before(op["$lt"].(time.Time)))
}

func TestOnTruncatesTimestampToUTCDay(t *testing.T) {
	spec := compileOK(t, url.Values{"createdAt_on": {"2024-03-15T18:30:00-05:00"}})

	// 18:30 -05:00 is 23:30 UTC, still March 15 in UTC
	cond := spec.Conditions["createdAt"][0].(On)
	assert.Equal(t, time.Date(2024, 3, 15, 0, 0, 0, 0, time.UTC), cond.Day)
}

func TestDateBeforeAfterAreStrict(t *testing.T) {
	spec := compileOK(t, url.Values{
		"lastActivityAt_after":  {"2024-01-01"},
		"lastActivityAt_before": {"2024-02-01"},
	})

	doc := spec.ToBSON()
	op := doc["lastActivityAt"].(bson.M)
	assert.Equal(t, time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC), op["$gt"])
	assert.Equal(t, time.Date(2024, 2, 1, 0, 0, 0, 0, time.UTC), op["$lt"])
}

func TestDateBetweenRequiresOrder(t *testing.T) {
	_, err := Compile(url.Values{"createdAt_between": {"2024-02-01,2024-01-01"}}, testOwner, false)
	require.Error(t, err)
	assert.True(t, domain.IsValidation(err))
}

func TestDateBetweenOverridesOn(t *testing.T) {
	spec := compileOK(t, url.Values{
		"createdAt_on":      {"2024-03-15"},
		"createdAt_between": {"2024-01-01,2024-02-01"},
	})

	require.Len(t, spec.Conditions["createdAt"], 1)
	_, isBetween := spec.Conditions["createdAt"][0].(Between)
	assert.True(t, isBetween)
}

func TestCompileBoolean(t *testing.T) {
	spec := compileOK(t, url.Values{"isQualified": {"true"}})
	assert.Equal(t, []Condition{Equals{Value: true}}, spec.Conditions["isQualified"])

	_, err := Compile(url.Values{"isQualified": {"yes"}}, testOwner, false)
	require.Error(t, err)
}

func TestCompileCollectsAllErrors(t *testing.T) {
	_, err := Compile(url.Values{
		"status":       {"archived"},
		"score":        {"abc"},
		"createdAt_on": {"not-a-date"},
	}, testOwner, false)
	require.Error(t, err)

	fields := domain.ValidationFields(err)
	assert.Len(t, fields, 3, "validation is all-or-nothing and batches every failure")
}

func TestCompileIgnoresUnknownKeys(t *testing.T) {
	spec := compileOK(t, url.Values{
		"page":      {"2"},
		"limit":     {"20"},
		"scope":     {"all"},
		"nonsense":  {"x"},
		"firstName": {"Ada"},
	})

	assert.Len(t, spec.Conditions, 1)
}

func TestCanonicalFieldName(t *testing.T) {
	assert.Equal(t, "leadValue", CanonicalFieldName("lead_value"))
	assert.Equal(t, "createdAt", CanonicalFieldName("createdAt"))
}
