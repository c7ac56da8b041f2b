package insights

import (
	"strconv"
	"strings"
)

//Emergency builds a minimal analysis when everything else failed.
//It uses fixed defaults and never depends on external services
func Emergency(fileName, text string) *Record {
	lower := strings.ToLower(text)

	sentiment := SentimentNeutral
	base := 50
	if containsAny(lower, []string{"yes", "good", "great", "interested", "sounds good"}) {
		sentiment = SentimentPositive
		base = 65
	} else if containsAny(lower, []string{"no", "not interested", "expensive", "busy"}) {
		sentiment = SentimentNegative
		base = 35
	}

	var summary string
	if len(text) < 100 {
		summary = "Call analysis completed for " + fileName + ". Limited transcript available for detailed analysis."
	} else {
		summary = "Call analysis completed for " + fileName + ". Transcript contains " +
			strconv.Itoa(len(text)) + " characters of conversation data."
	}

	topics := []string{"General Discussion"}
	if strings.Contains(lower, "price") || strings.Contains(lower, "cost") {
		topics = append(topics, "Pricing")
	}
	if strings.Contains(lower, "demo") || strings.Contains(lower, "trial") {
		topics = append(topics, "Demo/Trial")
	}
	if strings.Contains(lower, "timeline") || strings.Contains(lower, "when") {
		topics = append(topics, "Timeline")
	}

	improvements := []string{"Follow-up Communication"}
	if len(text) < 500 {
		improvements = append(improvements, "Call Duration")
	}
	if strings.Count(text, "?") < 3 {
		improvements = append(improvements, "Discovery Questions")
	}

	actions := []string{"Schedule follow-up call"}
	if strings.Contains(lower, "demo") {
		actions = append(actions, "Schedule product demonstration")
	}
	if strings.Contains(lower, "price") {
		actions = append(actions, "Send pricing information")
	}

	var interest, concerns []string
	if sentiment == SentimentPositive {
		interest = append(interest, "Engaged in discussion")
	}
	if sentiment == SentimentNegative {
		concerns = append(concerns, "General concerns")
	}

	return &Record{
		Summary:               summary,
		Sentiment:             sentiment,
		KeyTopics:             topics,
		SatisfactionScore:     clamp(base, 20, 90),
		ImprovementAreas:      improvements,
		ActionItems:           actions,
		OverallScore:          clamp(base, 20, 90),
		TalkTimeRatio:         0.6,
		QuestionEffectiveness: 50,
		EngagementScore:       60,
		CommitmentLevel:       "Medium",
		ConversationPace:      "Moderate",
		BANT:                  BANT{Budget: 50, Authority: 50, Need: 50, Timeline: 50},
		ValuePropositionScore: 50,
		TrustBuildingMoments:  []string{"Initial conversation"},
		InterestIndicators:    interest,
		ConcernIndicators:     concerns,
		DealProbability:       clamp(base+10, 20, 80),
		FollowUpUrgency:       "Medium",
	}
}
