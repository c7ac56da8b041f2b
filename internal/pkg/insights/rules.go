package insights

import "strings"

var positiveIndicators = []string{
	"yes", "great", "excellent", "perfect", "interested", "sounds good", "definitely", "sure",
	"love", "amazing", "fantastic", "wonderful", "impressed", "excited", "looking forward",
	"definitely interested", "sounds perfect", "exactly what we need", "this is great",
	"absolutely", "sounds amazing", "very interested", "excited about", "perfect for us",
	"exactly what we're looking for", "this looks great", "impressive"}

var negativeIndicators = []string{
	"no", "not interested", "expensive", "too much", "busy", "not now", "maybe later",
	"not sure", "don't think", "not right", "too expensive", "not for us", "not ready",
	"not a good fit", "not what we need", "too complicated",
	"can't afford", "budget constraints", "not the right time", "not suitable",
	"doesn't work for us", "not what we're looking for"}

var topicKeywords = []struct {
	topic    string
	keywords []string
}{
	{"Pricing & Budget", []string{"price", "cost", "budget", "expensive", "afford", "pricing", "quote", "fee", "investment", "value"}},
	{"Demo & Trial", []string{"demo", "trial", "test", "try", "sample", "preview", "show", "demonstration"}},
	{"Timeline & Urgency", []string{"timeline", "when", "schedule", "deadline", "timeframe", "start", "launch", "urgent", "asap"}},
	{"Features & Functionality", []string{"feature", "capability", "function", "tool", "option", "setting", "functionality"}},
	{"Implementation & Setup", []string{"implement", "setup", "install", "deploy", "onboard", "training", "configuration"}},
	{"Support & Service", []string{"support", "help", "assistance", "service", "maintenance", "customer service"}},
	{"Integration & Compatibility", []string{"integrate", "connect", "api", "system", "platform", "compatible"}},
	{"Security & Compliance", []string{"security", "secure", "safe", "protect", "privacy", "compliance", "gdpr"}},
	{"Competition & Comparison", []string{"competitor", "alternative", "compare", "better than", "vs", "versus"}},
	{"ROI & Business Impact", []string{"roi", "return", "benefit", "impact", "improve", "efficiency", "productivity"}},
}

//Fallback builds the analysis from transcript content alone.
//It works on any input, including an empty transcript
func Fallback(text string) *Record {
	lower := strings.ToLower(text)
	speakers := analyzeSpeakers(text)

	positive := countIndicators(lower, positiveIndicators, 2)
	negative := countIndicators(lower, negativeIndicators, 2)

	var sentiment string
	var satisfaction, overall int
	switch {
	case positive > negative && positive > 0:
		sentiment = SentimentPositive
		satisfaction = min(90, 65+positive*4)
		overall = min(85, 60+positive*3)
	case negative > positive && negative > 0:
		sentiment = SentimentNegative
		satisfaction = max(20, 45-negative*6)
		overall = max(25, 40-negative*4)
	default:
		sentiment = SentimentNeutral
		satisfaction = 55 + positive*2 - negative*2
		overall = 50 + positive - negative
	}

	topics := extractTopics(lower)
	sentences := strings.Split(text, ".")
	questions := strings.Count(text, "?")
	exclamations := strings.Count(text, "!")

	talkTime := speakers.talkTimeRatio
	if !speakers.labeled {
		switch {
		case float64(questions) > float64(len(sentences))*0.4:
			talkTime = 0.75
		case float64(questions) < float64(len(sentences))*0.1:
			talkTime = 0.45
		default:
			talkTime = 0.6
		}
	}

	engagement := min(90, max(40, len(text)/12))
	if questions > 0 {
		engagement += min(25, questions*3)
	}
	if exclamations > 0 {
		engagement += min(15, exclamations*2)
	}
	if positive > 0 {
		engagement += min(20, positive*2)
	}
	engagement = min(95, engagement)

	bant := scoreBANT(lower)
	improvements := improvementAreas(lower, questions, len(text), positive, negative, bant, speakers, talkTime)
	actions := actionItems(lower, bant)
	deal := dealProbability(lower, sentiment, bant)

	return &Record{
		Summary:               buildSummary(text, sentences, topics),
		Sentiment:             sentiment,
		KeyTopics:             topics,
		SatisfactionScore:     clamp(satisfaction, 15, 95),
		ImprovementAreas:      improvements,
		ActionItems:           actions,
		OverallScore:          clamp(overall, 15, 95),
		TalkTimeRatio:         talkTime,
		QuestionEffectiveness: clamp(50+questions*4, 35, 90),
		EngagementScore:       engagement,
		CommitmentLevel:       levelFor(deal),
		ConversationPace:      paceFor(len(sentences)),
		BANT:                  bant,
		ValuePropositionScore: clamp(55+positive*4-negative*2, 35, 90),
		TrustBuildingMoments:  trustMoments(lower, len(text)),
		InterestIndicators:    interestIndicators(lower, sentiment, questions),
		ConcernIndicators:     concernIndicators(lower, negative, bant),
		DealProbability:       deal,
		FollowUpUrgency:       levelFor(deal),
		UpsellOpportunities:   upsellOpportunities(lower),
	}
}

func countIndicators(lower string, indicators []string, weight int) int {
	res := 0
	for _, phrase := range indicators {
		if strings.Contains(lower, phrase) {
			res += weight
		}
	}
	return res
}

func extractTopics(lower string) []string {
	var res []string
	for _, tk := range topicKeywords {
		if containsAny(lower, tk.keywords) {
			res = append(res, tk.topic)
		}
	}
	if len(res) == 0 {
		res = append(res, "General Discussion")
	}
	return res
}

func buildSummary(text string, sentences, topics []string) string {
	if len(text) < 100 {
		return "Short call with limited content available for detailed analysis. Basic insights generated based on available information."
	}
	topicList := strings.Join(topics[:min(3, len(topics))], ", ")
	var res string
	if len(sentences) > 4 {
		parts := sentences[:3]
		if len(sentences) > 8 {
			parts = append(parts, sentences[len(sentences)/2:len(sentences)/2+2]...)
		}
		res = "Call discussion covered " + topicList + ". Key highlights: " +
			strings.TrimSpace(strings.Join(parts[:min(5, len(parts))], ".")) + "..."
	} else {
		res = "Call discussion covered " + topicList + ". " + text[:min(400, len(text))] + "..."
	}
	if len(res) > 600 {
		res = res[:600]
	}
	return res
}

func scoreBANT(lower string) BANT {
	res := BANT{Budget: 30, Authority: 30, Need: 50, Timeline: 30}
	if containsAny(lower, []string{"budget", "price", "cost", "expensive", "afford", "pricing", "investment", "value", "money", "financial"}) {
		res.Budget = 65
		if containsAny(lower, []string{"budget approved", "have budget", "allocated", "funding"}) {
			res.Budget = 85
		}
	}
	if containsAny(lower, []string{"decision", "approve", "manager", "director", "ceo", "boss", "team", "responsible", "authority", "sign off"}) {
		res.Authority = 65
		if containsAny(lower, []string{"i decide", "i approve", "my decision", "final say"}) {
			res.Authority = 85
		}
	}
	if containsAny(lower, []string{"problem", "challenge", "issue", "need", "want", "looking for", "requirement", "pain", "struggle", "difficult"}) {
		res.Need = 75
		if containsAny(lower, []string{"urgent", "critical", "must have", "essential", "desperate"}) {
			res.Need = 90
		}
	}
	if containsAny(lower, []string{"when", "timeline", "deadline", "urgent", "soon", "quickly", "asap", "immediate", "timeframe", "schedule"}) {
		res.Timeline = 65
		if containsAny(lower, []string{"asap", "immediate", "urgent", "this month", "next week"}) {
			res.Timeline = 85
		}
	}
	return res
}

func improvementAreas(lower string, questions, textLen, positive, negative int, bant BANT, speakers speakerStats, talkTime float64) []string {
	var res []string
	if strings.Contains(lower, "price") && (strings.Contains(lower, "expensive") || strings.Contains(lower, "too much")) {
		res = append(res, "Value Proposition Communication")
	}
	if questions < 3 {
		res = append(res, "Discovery Questions")
	}
	if textLen < 500 {
		res = append(res, "Call Duration and Depth")
	}
	if negative > positive {
		res = append(res, "Objection Handling")
	}
	if bant.Budget < 50 {
		res = append(res, "Budget Qualification")
	}
	if bant.Authority < 50 {
		res = append(res, "Decision Maker Identification")
	}
	if speakers.labeled {
		if speakers.turns < 5 {
			res = append(res, "Encourage more conversation flow")
		}
		if speakers.mostActive == "Speaker 1" && talkTime > 0.7 {
			res = append(res, "Balance conversation - allow more customer input")
		}
		if speakers.count < 2 {
			res = append(res, "Improve speaker identification and separation")
		}
	}
	if len(res) == 0 {
		res = append(res, "Follow-up Communication")
	}
	return res
}

func actionItems(lower string, bant BANT) []string {
	var res []string
	if strings.Contains(lower, "demo") || strings.Contains(lower, "trial") {
		res = append(res, "Schedule product demonstration")
	}
	if strings.Contains(lower, "price") || strings.Contains(lower, "cost") {
		res = append(res, "Send pricing information")
	}
	if strings.Contains(lower, "timeline") || strings.Contains(lower, "when") {
		res = append(res, "Follow up on timeline discussion")
	}
	if bant.Authority < 50 {
		res = append(res, "Identify decision maker")
	}
	if bant.Budget < 50 {
		res = append(res, "Qualify budget requirements")
	}
	if len(res) == 0 {
		res = append(res, "Schedule follow-up call")
	}
	return res
}

func dealProbability(lower, sentiment string, bant BANT) int {
	res := 25
	if sentiment == SentimentPositive {
		res += 30
	}
	if containsAny(lower, []string{"next step", "follow up", "schedule", "meeting", "demo", "trial"}) {
		res += 25
	}
	if bant.Need > 60 {
		res += 20
	}
	if bant.Authority > 50 {
		res += 15
	}
	if bant.Budget > 50 {
		res += 10
	}
	return min(95, res)
}

func trustMoments(lower string, textLen int) []string {
	var res []string
	if textLen > 300 {
		res = append(res, "Initial rapport building")
	}
	if strings.Contains(lower, "understand") || strings.Contains(lower, "see") {
		res = append(res, "Active listening demonstrated")
	}
	if strings.Contains(lower, "experience") || strings.Contains(lower, "similar") {
		res = append(res, "Shared relevant experience")
	}
	return res
}

func interestIndicators(lower, sentiment string, questions int) []string {
	var res []string
	if sentiment == SentimentPositive {
		res = append(res, "Positive engagement throughout call")
	}
	if questions > 5 {
		res = append(res, "High level of questions asked")
	}
	if strings.Contains(lower, "demo") || strings.Contains(lower, "trial") {
		res = append(res, "Requested product demonstration")
	}
	if strings.Contains(lower, "timeline") || strings.Contains(lower, "when") {
		res = append(res, "Discussed implementation timeline")
	}
	return res
}

func concernIndicators(lower string, negative int, bant BANT) []string {
	var res []string
	if strings.Contains(lower, "price") && strings.Contains(lower, "expensive") {
		res = append(res, "Price sensitivity expressed")
	}
	if negative > 0 {
		res = append(res, "Some reservations expressed")
	}
	if bant.Budget < 40 {
		res = append(res, "Budget constraints mentioned")
	}
	return res
}

func upsellOpportunities(lower string) []string {
	var res []string
	if strings.Contains(lower, "basic") || strings.Contains(lower, "standard") {
		res = append(res, "Premium features discussion")
	}
	if strings.Contains(lower, "support") {
		res = append(res, "Enhanced support options")
	}
	if strings.Contains(lower, "integration") {
		res = append(res, "Additional integration services")
	}
	return res
}

func levelFor(deal int) string {
	if deal > 75 {
		return "High"
	}
	if deal > 45 {
		return "Medium"
	}
	return "Low"
}

func paceFor(sentences int) string {
	if sentences > 25 {
		return "Fast"
	}
	if sentences < 8 {
		return "Slow"
	}
	return "Moderate"
}

func containsAny(lower string, keywords []string) bool {
	for _, k := range keywords {
		if strings.Contains(lower, k) {
			return true
		}
	}
	return false
}

func min(a, b int) int {
	if a < b {
		return a
	}
	return b
}

func max(a, b int) int {
	if a > b {
		return a
	}
	return b
}
