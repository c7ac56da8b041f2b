package insights

import (
	"encoding/json"
	"regexp"
	"strings"

	"bitbucket.org/airenas/callsight/internal/pkg/cmdapp"
	"bitbucket.org/airenas/callsight/internal/pkg/utils"
	"github.com/hashicorp/go-retryablehttp"
	"github.com/pkg/errors"
)

const maxPromptTranscript = 10000

//LLMClient asks a chat completion service to analyze a transcript
type LLMClient struct {
	httpclient *retryablehttp.Client
	url        string
	key        string
	model      string
}

//NewLLMClient creates the analysis client
func NewLLMClient() (*LLMClient, error) {
	res := LLMClient{}
	var err error
	res.url, err = utils.GetURLFromConfig("insights.url")
	if err != nil {
		return nil, err
	}
	res.key = cmdapp.Config.GetString("insights.key")
	res.model = cmdapp.Config.GetString("insights.model")
	if res.model == "" {
		res.model = "gpt-4o"
	}
	res.httpclient = retryablehttp.NewClient()
	res.httpclient.RetryMax = 2
	res.httpclient.Logger = nil
	return &res, nil
}

type chatRequest struct {
	Model          string        `json:"model"`
	Messages       []chatMessage `json:"messages"`
	MaxTokens      int           `json:"max_tokens"`
	Temperature    float64       `json:"temperature"`
	ResponseFormat *respFormat   `json:"response_format,omitempty"`
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type respFormat struct {
	Type string `json:"type"`
}

type chatResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
}

//Generate analyzes the transcript with the chat service and returns a bounded record
func (lc *LLMClient) Generate(text string, language string) (*Record, error) {
	if lc.key == "" {
		return nil, errors.New("No insights API key configured")
	}
	if len(text) > maxPromptTranscript {
		text = text[:maxPromptTranscript]
	}
	reqData := chatRequest{Model: lc.model,
		Messages: []chatMessage{
			{Role: "system", Content: "You are an expert sales call analyst. Always respond with valid JSON only, no markdown, no code blocks, no explanations."},
			{Role: "user", Content: buildPrompt(text)}},
		MaxTokens: 4000, Temperature: 0.2,
		ResponseFormat: &respFormat{Type: "json_object"}}
	body, err := json.Marshal(&reqData)
	if err != nil {
		return nil, errors.Wrap(err, "Can't prepare request")
	}
	req, err := retryablehttp.NewRequest("POST", lc.url, body)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+lc.key)

	cmdapp.Log.Infof("Asking analysis from: %s", utils.URLToLog(lc.url))
	resp, err := lc.httpclient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	err = utils.ValidateResponse(resp)
	if err != nil {
		return nil, errors.Wrap(err, "Can't get analysis")
	}
	var respData chatResponse
	err = json.NewDecoder(resp.Body).Decode(&respData)
	if err != nil {
		return nil, errors.Wrap(err, "Can't decode response")
	}
	if len(respData.Choices) == 0 || respData.Choices[0].Message.Content == "" {
		return nil, errors.New("Empty analysis response")
	}
	return parseAnalysis(respData.Choices[0].Message.Content)
}

func buildPrompt(text string) string {
	sb := strings.Builder{}
	sb.WriteString("Analyze this sales call transcript and score the conversation.\n\nTRANSCRIPT:\n")
	sb.WriteString(text)
	sb.WriteString(`

Return ONLY valid JSON with this exact structure:
{
 "summary": "3-4 sentence summary of outcome, highlights and next action",
 "sentiment": "positive/negative/neutral",
 "key_topics": ["topic"],
 "satisfaction_score": <0-100>,
 "improvement_areas": ["specific improvement"],
 "action_items": ["next step"],
 "overall_score": <0-100>,
 "talk_time_ratio": <0.0-1.0 rep talk share>,
 "question_effectiveness": <0-100>,
 "objection_handling": <0-100>,
 "closing_attempts": <count>,
 "engagement_score": <0-100>,
 "commitment_level": "High/Medium/Low",
 "conversation_pace": "Fast/Moderate/Slow",
 "interruption_count": <count>,
 "silence_periods": <count>,
 "bant_qualification": {"budget": <0-100>, "authority": <0-100>, "need": <0-100>, "timeline": <0-100>},
 "value_proposition_score": <0-100>,
 "trust_building_moments": ["moment from transcript"],
 "interest_indicators": ["indicator from transcript"],
 "concern_indicators": ["concern from transcript"],
 "deal_probability": <0-100>,
 "follow_up_urgency": "High/Medium/Low",
 "upsell_opportunities": ["opportunity"]
}
Base all scores only on the transcript content. Return the JSON object, nothing else.`)
	return sb.String()
}

type analysisPayload struct {
	Summary               string   `json:"summary"`
	Sentiment             string   `json:"sentiment"`
	KeyTopics             []string `json:"key_topics"`
	SatisfactionScore     *int     `json:"satisfaction_score"`
	ImprovementAreas      []string `json:"improvement_areas"`
	ActionItems           []string `json:"action_items"`
	OverallScore          *int     `json:"overall_score"`
	TalkTimeRatio         *float64 `json:"talk_time_ratio"`
	QuestionEffectiveness *int     `json:"question_effectiveness"`
	ObjectionHandling     *int     `json:"objection_handling"`
	ClosingAttempts       int      `json:"closing_attempts"`
	EngagementScore       *int     `json:"engagement_score"`
	CommitmentLevel       string   `json:"commitment_level"`
	ConversationPace      string   `json:"conversation_pace"`
	InterruptionCount     int      `json:"interruption_count"`
	SilencePeriods        int      `json:"silence_periods"`
	BANT                  *BANT    `json:"bant_qualification"`
	ValuePropositionScore *int     `json:"value_proposition_score"`
	TrustBuildingMoments  []string `json:"trust_building_moments"`
	InterestIndicators    []string `json:"interest_indicators"`
	ConcernIndicators     []string `json:"concern_indicators"`
	DealProbability       *int     `json:"deal_probability"`
	FollowUpUrgency       string   `json:"follow_up_urgency"`
	UpsellOpportunities   []string `json:"upsell_opportunities"`
}

var jsonObjectRegexp = regexp.MustCompile(`(?s)\{.*\}`)

func parseAnalysis(content string) (*Record, error) {
	content = strings.TrimSpace(content)
	content = strings.TrimPrefix(content, "```json")
	content = strings.TrimPrefix(content, "```")
	content = strings.TrimSuffix(content, "```")
	if m := jsonObjectRegexp.FindString(content); m != "" {
		content = m
	}
	var data analysisPayload
	err := json.Unmarshal([]byte(content), &data)
	if err != nil {
		return nil, errors.Wrap(err, "Can't parse analysis JSON")
	}
	return boundedRecord(&data), nil
}

func boundedRecord(data *analysisPayload) *Record {
	res := &Record{Summary: orDefault(data.Summary, "Call analysis completed"),
		Sentiment:             normalizeSentiment(data.Sentiment),
		KeyTopics:             orDefaultList(data.KeyTopics, "General Discussion"),
		SatisfactionScore:     clamp(orDefaultInt(data.SatisfactionScore, 50), 10, 95),
		ImprovementAreas:      orDefaultList(data.ImprovementAreas, "Follow-up Communication"),
		ActionItems:           orDefaultList(data.ActionItems, "Schedule follow-up call"),
		OverallScore:          clamp(orDefaultInt(data.OverallScore, 50), 10, 95),
		TalkTimeRatio:         clampF(orDefaultFloat(data.TalkTimeRatio, 0.6), 0.1, 0.9),
		QuestionEffectiveness: clamp(orDefaultInt(data.QuestionEffectiveness, 50), 30, 90),
		ObjectionHandling:     clamp(orDefaultInt(data.ObjectionHandling, 50), 0, 100),
		ClosingAttempts:       data.ClosingAttempts,
		EngagementScore:       clamp(orDefaultInt(data.EngagementScore, 60), 30, 95),
		CommitmentLevel:       orDefault(data.CommitmentLevel, "Medium"),
		ConversationPace:      orDefault(data.ConversationPace, "Moderate"),
		InterruptionCount:     data.InterruptionCount,
		SilencePeriods:        data.SilencePeriods,
		ValuePropositionScore: clamp(orDefaultInt(data.ValuePropositionScore, 50), 30, 90),
		TrustBuildingMoments:  data.TrustBuildingMoments,
		InterestIndicators:    data.InterestIndicators,
		ConcernIndicators:     data.ConcernIndicators,
		DealProbability:       clamp(orDefaultInt(data.DealProbability, 50), 10, 95),
		FollowUpUrgency:       orDefault(data.FollowUpUrgency, "Medium"),
		UpsellOpportunities:   data.UpsellOpportunities}
	res.BANT = BANT{Budget: 50, Authority: 50, Need: 50, Timeline: 50}
	if data.BANT != nil {
		res.BANT = BANT{Budget: clamp(data.BANT.Budget, 0, 100),
			Authority: clamp(data.BANT.Authority, 0, 100),
			Need:      clamp(data.BANT.Need, 0, 100),
			Timeline:  clamp(data.BANT.Timeline, 0, 100)}
	}
	return res
}

func normalizeSentiment(s string) string {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case SentimentPositive:
		return SentimentPositive
	case SentimentNegative:
		return SentimentNegative
	}
	return SentimentNeutral
}

func orDefault(v, def string) string {
	if strings.TrimSpace(v) == "" {
		return def
	}
	return v
}

func orDefaultList(v []string, def string) []string {
	if len(v) == 0 {
		return []string{def}
	}
	return v
}

func orDefaultInt(v *int, def int) int {
	if v == nil {
		return def
	}
	return *v
}

func orDefaultFloat(v *float64, def float64) float64 {
	if v == nil {
		return def
	}
	return *v
}
