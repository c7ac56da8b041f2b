package insights

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

const sampleAnalysis = `{"summary": "Good call.", "sentiment": "positive",
"key_topics": ["Pricing"], "satisfaction_score": 80, "improvement_areas": ["Discovery"],
"action_items": ["Send quote"], "overall_score": 75, "talk_time_ratio": 0.5,
"question_effectiveness": 70, "objection_handling": 60, "closing_attempts": 2,
"engagement_score": 85, "commitment_level": "High", "conversation_pace": "Fast",
"interruption_count": 1, "silence_periods": 0,
"bant_qualification": {"budget": 70, "authority": 60, "need": 80, "timeline": 65},
"value_proposition_score": 75, "trust_building_moments": ["Rapport"],
"interest_indicators": ["Asked about price"], "concern_indicators": [],
"deal_probability": 70, "follow_up_urgency": "High", "upsell_opportunities": []}`

func TestParse(t *testing.T) {
	r, err := parseAnalysis(sampleAnalysis)
	assert.Nil(t, err)
	assert.Equal(t, "Good call.", r.Summary)
	assert.Equal(t, SentimentPositive, r.Sentiment)
	assert.Equal(t, 80, r.SatisfactionScore)
	assert.Equal(t, 2, r.ClosingAttempts)
	assert.Equal(t, BANT{Budget: 70, Authority: 60, Need: 80, Timeline: 65}, r.BANT)
}

func TestParse_StripsFence(t *testing.T) {
	r, err := parseAnalysis("```json\n" + sampleAnalysis + "\n```")
	assert.Nil(t, err)
	assert.Equal(t, SentimentPositive, r.Sentiment)
}

func TestParse_ExtractsObject(t *testing.T) {
	r, err := parseAnalysis("Here is the analysis:\n" + sampleAnalysis + "\nHope it helps")
	assert.Nil(t, err)
	assert.Equal(t, 75, r.OverallScore)
}

func TestParse_FailsNotJSON(t *testing.T) {
	_, err := parseAnalysis("olia")
	assert.NotNil(t, err)
}

func TestParse_ClampsScores(t *testing.T) {
	r, err := parseAnalysis(`{"sentiment": "positive", "satisfaction_score": 100,
"overall_score": 0, "talk_time_ratio": 1.5, "question_effectiveness": 5,
"engagement_score": 200, "deal_probability": -10,
"bant_qualification": {"budget": 150, "authority": -5, "need": 50, "timeline": 50}}`)
	assert.Nil(t, err)
	assert.Equal(t, 95, r.SatisfactionScore)
	assert.Equal(t, 10, r.OverallScore)
	assert.Equal(t, 0.9, r.TalkTimeRatio)
	assert.Equal(t, 30, r.QuestionEffectiveness)
	assert.Equal(t, 95, r.EngagementScore)
	assert.Equal(t, 10, r.DealProbability)
	assert.Equal(t, 100, r.BANT.Budget)
	assert.Equal(t, 0, r.BANT.Authority)
}

func TestParse_Defaults(t *testing.T) {
	r, err := parseAnalysis(`{"sentiment": "happy"}`)
	assert.Nil(t, err)
	assert.Equal(t, SentimentNeutral, r.Sentiment)
	assert.Equal(t, "Call analysis completed", r.Summary)
	assert.Equal(t, []string{"General Discussion"}, r.KeyTopics)
	assert.Equal(t, 50, r.SatisfactionScore)
	assert.Equal(t, "Medium", r.CommitmentLevel)
	assert.Equal(t, BANT{Budget: 50, Authority: 50, Need: 50, Timeline: 50}, r.BANT)
}
