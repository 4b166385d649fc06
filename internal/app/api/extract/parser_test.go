package extract

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"voicepipe/internal/app/model"
)

const fullPayload = `{
	"contacts": [{"name": "Jane Doe", "company": "Acme", "email": "jane@acme.test", "confidence": 0.9}],
	"companies": ["Acme"],
	"action_items": [{"task": "Send quote", "priority": "high", "confidence": 0.8}],
	"buying_signals": [{"signal": "asked about pricing", "confidence": 0.7}],
	"overall_sentiment": "positive",
	"sentiment_score": 0.6,
	"summary": "Renewal call",
	"key_points": ["Renewal due"],
	"next_steps": "Send quote by Friday",
	"confidence_score": 0.88
}`

func TestParseFullPayload(t *testing.T) {
	for _, strict := range []bool{false, true} {
		out, err := Parse(fullPayload, strict)
		require.NoError(t, err)

		assert.Len(t, out.Contacts, 1)
		assert.Equal(t, "Jane Doe", out.Contacts[0].Name)
		assert.Equal(t, []string{"Acme"}, out.Companies)
		assert.Equal(t, model.PriorityHigh, out.ActionItems[0].Priority)
		assert.Equal(t, model.SentimentPositive, out.OverallSentiment)
		assert.Equal(t, 0.88, out.ConfidenceScore)
		assert.Equal(t, "Send quote by Friday", out.NextSteps)
	}
}

func TestParseLenientDefaults(t *testing.T) {
	out, err := Parse(`{}`, false)
	require.NoError(t, err)

	assert.NotNil(t, out.Contacts)
	assert.Empty(t, out.Contacts)
	assert.NotNil(t, out.Companies)
	assert.NotNil(t, out.ActionItems)
	assert.NotNil(t, out.BuyingSignals)
	assert.NotNil(t, out.KeyPoints)
	assert.Equal(t, model.SentimentNeutral, out.OverallSentiment)
	assert.Zero(t, out.ConfidenceScore)
}

func TestParseLenientNormalizesBadValues(t *testing.T) {
	out, err := Parse(`{
		"contacts": [{"name": "X", "confidence": 1.7}],
		"action_items": [{"task": "Y", "priority": "someday", "confidence": -0.2}],
		"overall_sentiment": "ecstatic",
		"sentiment_score": 2.5,
		"confidence_score": -1
	}`, false)
	require.NoError(t, err)

	assert.Equal(t, 1.0, out.Contacts[0].Confidence)
	assert.Equal(t, 0.0, out.ActionItems[0].Confidence)
	assert.Equal(t, model.PriorityMedium, out.ActionItems[0].Priority)
	assert.Equal(t, model.SentimentNeutral, out.OverallSentiment)
	assert.Equal(t, 1.0, out.SentimentScore)
	assert.Equal(t, 0.0, out.ConfidenceScore)
}

func TestParseStrictCollectsProblems(t *testing.T) {
	_, err := Parse(`{"overall_sentiment": "ecstatic"}`, true)
	require.Error(t, err)

	var schemaErr *SchemaError
	require.ErrorAs(t, err, &schemaErr)

	assert.Contains(t, schemaErr.Problems, `missing field "contacts"`)
	assert.Contains(t, schemaErr.Problems, `missing field "confidence_score"`)
	assert.Contains(t, schemaErr.Problems, `unknown sentiment "ecstatic"`)
}

func TestParseMalformedJSON(t *testing.T) {
	for _, strict := range []bool{false, true} {
		_, err := Parse(`{"contacts": [`, strict)
		assert.Error(t, err)
	}
}
