package insights

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func checkBounds(t *testing.T, r *Record) {
	t.Helper()
	assert.Contains(t, []string{SentimentPositive, SentimentNegative, SentimentNeutral}, r.Sentiment)
	assert.True(t, r.SatisfactionScore >= 15 && r.SatisfactionScore <= 95)
	assert.True(t, r.OverallScore >= 15 && r.OverallScore <= 95)
	assert.True(t, r.TalkTimeRatio >= 0.1 && r.TalkTimeRatio <= 0.9)
	assert.True(t, r.QuestionEffectiveness >= 35 && r.QuestionEffectiveness <= 90)
	assert.True(t, r.EngagementScore <= 95)
	assert.True(t, r.DealProbability >= 10 && r.DealProbability <= 95)
	assert.True(t, r.BANT.Budget >= 0 && r.BANT.Budget <= 100)
	assert.True(t, r.BANT.Authority >= 0 && r.BANT.Authority <= 100)
	assert.True(t, r.BANT.Need >= 0 && r.BANT.Need <= 100)
	assert.True(t, r.BANT.Timeline >= 0 && r.BANT.Timeline <= 100)
	assert.NotEmpty(t, r.Summary)
	assert.NotEmpty(t, r.KeyTopics)
	assert.NotEmpty(t, r.ImprovementAreas)
	assert.NotEmpty(t, r.ActionItems)
}

func TestFallback_Empty(t *testing.T) {
	checkBounds(t, Fallback(""))
}

func TestFallback_OneChar(t *testing.T) {
	checkBounds(t, Fallback("a"))
}

func TestFallback_Huge(t *testing.T) {
	checkBounds(t, Fallback(strings.Repeat("We discussed the project scope. ", 1600)))
}

func TestFallback_Positive(t *testing.T) {
	r := Fallback("This sounds great, we are definitely interested. Perfect, sounds good to everyone here. Excellent presentation!")
	assert.Equal(t, SentimentPositive, r.Sentiment)
	assert.True(t, r.SatisfactionScore > 60)
	checkBounds(t, r)
}

func TestFallback_Negative(t *testing.T) {
	r := Fallback("No, we are not interested. It is too expensive for us and not a good fit at all. We can't afford it now.")
	assert.Equal(t, SentimentNegative, r.Sentiment)
	assert.True(t, r.SatisfactionScore <= 45)
	checkBounds(t, r)
}

func TestFallback_Neutral(t *testing.T) {
	r := Fallback("We talked about the weather and the office move for a while during the meeting.")
	assert.Equal(t, SentimentNeutral, r.Sentiment)
	checkBounds(t, r)
}

func TestFallback_Topics(t *testing.T) {
	r := Fallback("What is the price and the cost of the demo setup? We need the api to integrate soon.")
	assert.Contains(t, r.KeyTopics, "Pricing & Budget")
	assert.Contains(t, r.KeyTopics, "Demo & Trial")
	assert.Contains(t, r.KeyTopics, "Integration & Compatibility")
}

func TestFallback_TopicsDefault(t *testing.T) {
	r := Fallback("nothing relevant here at all")
	assert.Equal(t, []string{"General Discussion"}, r.KeyTopics)
}

func TestFallback_BANT(t *testing.T) {
	r := Fallback("Our budget is approved and allocated. I decide on this, it is my decision. The problem is urgent, we need it asap.")
	assert.Equal(t, 85, r.BANT.Budget)
	assert.Equal(t, 85, r.BANT.Authority)
	assert.Equal(t, 90, r.BANT.Need)
	assert.Equal(t, 85, r.BANT.Timeline)
}

func TestFallback_DealProbability(t *testing.T) {
	r := Fallback("Great, we are definitely interested and excited. Let's schedule a demo as the next step. " +
		"Our budget is approved, I decide here, the need is urgent and critical.")
	assert.Equal(t, 95, r.DealProbability)
	assert.Equal(t, "High", r.CommitmentLevel)
	assert.Equal(t, "High", r.FollowUpUrgency)
}

func TestFallback_TalkTimeFromSpeakers(t *testing.T) {
	text := "Speaker 1: " + strings.Repeat("I will explain our offering in detail now. ", 10) +
		"\n\nSpeaker 2: Sounds interesting."
	r := Fallback(text)
	assert.True(t, r.TalkTimeRatio > 0.7, "got %v", r.TalkTimeRatio)
}

func TestFallback_Deterministic(t *testing.T) {
	text := "What is your budget? We have around fifty thousand allocated. Great, let's schedule a demo."
	first := Fallback(text)
	for i := 0; i < 5; i++ {
		assert.Equal(t, first, Fallback(text))
	}
}
