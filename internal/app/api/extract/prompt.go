package extract

import "fmt"

const systemPrompt = `You are a CRM data extraction engine for sales voice notes.
Return ONLY a JSON object with exactly these keys:
{
  "contacts": [{"name": "", "title": "", "company": "", "email": "", "phone": "", "confidence": 0.0}],
  "companies": [""],
  "action_items": [{"task": "", "due_date": "", "priority": "low|medium|high|urgent", "confidence": 0.0}],
  "buying_signals": [{"signal": "", "strength": "", "confidence": 0.0}],
  "overall_sentiment": "positive|neutral|negative|urgent",
  "sentiment_score": 0.0,
  "summary": "",
  "key_points": [""],
  "next_steps": "",
  "confidence_score": 0.0
}
Use empty arrays when nothing was mentioned. Confidence values are between 0 and 1.
Never invent contact details that were not spoken.`

func userPrompt(transcript string) string {
	return fmt.Sprintf("Extract CRM data from this voice note transcript:\n\n%s", transcript)
}
