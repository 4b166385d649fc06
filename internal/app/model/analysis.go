package model

import "time"

// Sentiment is the overall tone of a voice note.
type Sentiment string

const (
	SentimentPositive Sentiment = "positive"
	SentimentNeutral  Sentiment = "neutral"
	SentimentNegative Sentiment = "negative"
	SentimentUrgent   Sentiment = "urgent"
)

// ValidSentiment reports whether s is a known sentiment value.
func ValidSentiment(s Sentiment) bool {
	switch s {
	case SentimentPositive, SentimentNeutral, SentimentNegative, SentimentUrgent:
		return true
	}
	return false
}

// Priority is the internal action-item priority vocabulary. CRM providers
// map it onto their own tiers.
type Priority string

const (
	PriorityLow    Priority = "low"
	PriorityMedium Priority = "medium"
	PriorityHigh   Priority = "high"
	PriorityUrgent Priority = "urgent"
)

// ValidPriority reports whether p is a known priority value.
func ValidPriority(p Priority) bool {
	switch p {
	case PriorityLow, PriorityMedium, PriorityHigh, PriorityUrgent:
		return true
	}
	return false
}

// Contact is one person extracted from a transcript.
type Contact struct {
	Name       string  `json:"name"`
	Title      string  `json:"title,omitempty"`
	Company    string  `json:"company,omitempty"`
	Email      string  `json:"email,omitempty"`
	Phone      string  `json:"phone,omitempty"`
	Confidence float64 `json:"confidence"`
}

// ActionItem is one follow-up task extracted from a transcript.
type ActionItem struct {
	Task       string   `json:"task"`
	DueDate    string   `json:"due_date,omitempty"`
	Priority   Priority `json:"priority"`
	Confidence float64  `json:"confidence"`
}

// BuyingSignal is a purchase-intent cue extracted from a transcript.
type BuyingSignal struct {
	Signal     string  `json:"signal"`
	Strength   string  `json:"strength,omitempty"`
	Confidence float64 `json:"confidence"`
}

// AnalysisResult is the structured extraction for one transcript. Created
// exactly once by the analysis stage and immutable thereafter.
type AnalysisResult struct {
	ID               string         `json:"id"`
	TranscriptID     string         `json:"transcript_id"`
	RecordingID      string         `json:"recording_id"`
	Contacts         []Contact      `json:"contacts"`
	Companies        []string       `json:"companies"`
	ActionItems      []ActionItem   `json:"action_items"`
	BuyingSignals    []BuyingSignal `json:"buying_signals"`
	OverallSentiment Sentiment      `json:"overall_sentiment"`
	SentimentScore   float64        `json:"sentiment_score"`
	Summary          string         `json:"summary"`
	KeyPoints        []string       `json:"key_points"`
	NextSteps        string         `json:"next_steps"`
	ConfidenceScore  float64        `json:"confidence_score"`
	ProcessingTimeMs int64          `json:"processing_time_ms"`
	CostEstimate     float64        `json:"cost_estimate"`
	CreatedAt        time.Time      `json:"created_at"`
}

// AutoSyncThreshold gates automatic CRM sync. Below it the extraction stays
// visible for manual review but is never written to the CRM unasked.
const AutoSyncThreshold = 0.8

// ShouldAutoSync reports whether this result is trustworthy enough to write
// into a production CRM without a human looking at it first.
func (a *AnalysisResult) ShouldAutoSync() bool {
	return a.ConfidenceScore >= AutoSyncThreshold && len(a.Contacts) > 0
}
