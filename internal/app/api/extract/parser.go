package extract

import (
	"encoding/json"
	"fmt"
	"strings"

	"voicepipe/internal/app/model"
)

// SchemaError reports a provider payload that does not match the extraction
// schema. Only strict mode returns it; lenient mode substitutes defaults.
type SchemaError struct {
	Problems []string
}

func (e *SchemaError) Error() string {
	return fmt.Sprintf("extraction schema violation: %s", strings.Join(e.Problems, "; "))
}

// Extraction is the parsed entity set, ready to be copied into an
// AnalysisResult.
type Extraction struct {
	Contacts         []model.Contact
	Companies        []string
	ActionItems      []model.ActionItem
	BuyingSignals    []model.BuyingSignal
	OverallSentiment model.Sentiment
	SentimentScore   float64
	Summary          string
	KeyPoints        []string
	NextSteps        string
	ConfidenceScore  float64
}

// payload mirrors the provider JSON. Pointer fields distinguish "absent"
// from "zero" so strict mode can tell the difference.
type payload struct {
	Contacts         []model.Contact      `json:"contacts"`
	Companies        []string             `json:"companies"`
	ActionItems      []model.ActionItem   `json:"action_items"`
	BuyingSignals    []model.BuyingSignal `json:"buying_signals"`
	OverallSentiment *string              `json:"overall_sentiment"`
	SentimentScore   *float64             `json:"sentiment_score"`
	Summary          *string              `json:"summary"`
	KeyPoints        []string             `json:"key_points"`
	NextSteps        *string              `json:"next_steps"`
	ConfidenceScore  *float64             `json:"confidence_score"`
}

// Parse turns the provider's JSON into an Extraction.
//
// Lenient mode (the default): missing arrays become empty arrays, a missing
// or unknown sentiment becomes neutral, confidences are clamped to [0,1].
// Strict mode: every absent or invalid field is collected into a
// SchemaError and nothing is defaulted silently.
func Parse(data string, strict bool) (*Extraction, error) {
	var p payload
	if err := json.Unmarshal([]byte(data), &p); err != nil {
		return nil, fmt.Errorf("malformed extraction JSON: %w", err)
	}

	var problems []string
	missing := func(field string) {
		problems = append(problems, fmt.Sprintf("missing field %q", field))
	}

	out := &Extraction{
		Contacts:      p.Contacts,
		Companies:     p.Companies,
		ActionItems:   p.ActionItems,
		BuyingSignals: p.BuyingSignals,
		KeyPoints:     p.KeyPoints,
	}

	if out.Contacts == nil {
		if strict {
			missing("contacts")
		}
		out.Contacts = []model.Contact{}
	}
	if out.Companies == nil {
		if strict {
			missing("companies")
		}
		out.Companies = []string{}
	}
	if out.ActionItems == nil {
		if strict {
			missing("action_items")
		}
		out.ActionItems = []model.ActionItem{}
	}
	if out.BuyingSignals == nil {
		if strict {
			missing("buying_signals")
		}
		out.BuyingSignals = []model.BuyingSignal{}
	}
	if out.KeyPoints == nil {
		if strict {
			missing("key_points")
		}
		out.KeyPoints = []string{}
	}

	out.OverallSentiment = model.SentimentNeutral
	if p.OverallSentiment == nil {
		if strict {
			missing("overall_sentiment")
		}
	} else if s := model.Sentiment(*p.OverallSentiment); model.ValidSentiment(s) {
		out.OverallSentiment = s
	} else if strict {
		problems = append(problems, fmt.Sprintf("unknown sentiment %q", *p.OverallSentiment))
	}

	if p.SentimentScore != nil {
		out.SentimentScore = clamp01(*p.SentimentScore)
	} else if strict {
		missing("sentiment_score")
	}
	if p.Summary != nil {
		out.Summary = *p.Summary
	} else if strict {
		missing("summary")
	}
	if p.NextSteps != nil {
		out.NextSteps = *p.NextSteps
	}
	if p.ConfidenceScore != nil {
		out.ConfidenceScore = clamp01(*p.ConfidenceScore)
	} else if strict {
		missing("confidence_score")
	}

	for i := range out.Contacts {
		out.Contacts[i].Confidence = clamp01(out.Contacts[i].Confidence)
	}
	for i := range out.ActionItems {
		out.ActionItems[i].Confidence = clamp01(out.ActionItems[i].Confidence)
		if !model.ValidPriority(out.ActionItems[i].Priority) {
			if strict {
				problems = append(problems, fmt.Sprintf("unknown priority %q", out.ActionItems[i].Priority))
			}
			out.ActionItems[i].Priority = model.PriorityMedium
		}
	}
	for i := range out.BuyingSignals {
		out.BuyingSignals[i].Confidence = clamp01(out.BuyingSignals[i].Confidence)
	}

	if strict && len(problems) > 0 {
		return nil, &SchemaError{Problems: problems}
	}
	return out, nil
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
