package insights

import (
	"encoding/json"
	"time"

	"bitbucket.org/airenas/callsight/internal/pkg/persistence"
	"github.com/pkg/errors"
)

//Sentiment values
const (
	SentimentPositive = "positive"
	SentimentNegative = "negative"
	SentimentNeutral  = "neutral"
)

//BANT holds the four qualification scores, each 0-100
type BANT struct {
	Budget    int `json:"budget"`
	Authority int `json:"authority"`
	Need      int `json:"need"`
	Timeline  int `json:"timeline"`
}

//Record is the full analysis of one call
type Record struct {
	Summary               string
	Sentiment             string
	KeyTopics             []string
	SatisfactionScore     int
	ImprovementAreas      []string
	ActionItems           []string
	OverallScore          int
	TalkTimeRatio         float64
	QuestionEffectiveness int
	ObjectionHandling     int
	ClosingAttempts       int
	EngagementScore       int
	CommitmentLevel       string
	ConversationPace      string
	InterruptionCount     int
	SilencePeriods        int
	BANT                  BANT
	ValuePropositionScore int
	TrustBuildingMoments  []string
	InterestIndicators    []string
	ConcernIndicators     []string
	DealProbability       int
	FollowUpUrgency       string
	UpsellOpportunities   []string
}

//ToPersistence prepares the record for the insights collection.
//List and map fields are stored as JSON strings
func (r *Record) ToPersistence(callID, tenantID int64) (*persistence.Insights, error) {
	res := &persistence.Insights{CallID: callID, TenantID: tenantID,
		Summary: r.Summary, Sentiment: r.Sentiment,
		SatisfactionScore: r.SatisfactionScore, OverallScore: r.OverallScore,
		TalkTimeRatio:         r.TalkTimeRatio,
		QuestionEffectiveness: r.QuestionEffectiveness,
		ObjectionHandling:     r.ObjectionHandling,
		ClosingAttempts:       r.ClosingAttempts,
		EngagementScore:       r.EngagementScore,
		CommitmentLevel:       r.CommitmentLevel,
		ConversationPace:      r.ConversationPace,
		InterruptionCount:     r.InterruptionCount,
		SilencePeriods:        r.SilencePeriods,
		ValuePropositionScore: r.ValuePropositionScore,
		DealProbability:       r.DealProbability,
		FollowUpUrgency:       r.FollowUpUrgency,
		Created:               time.Now()}
	var err error
	if res.KeyTopics, err = encodeList(r.KeyTopics); err != nil {
		return nil, err
	}
	if res.ImprovementAreas, err = encodeList(r.ImprovementAreas); err != nil {
		return nil, err
	}
	if res.ActionItems, err = encodeList(r.ActionItems); err != nil {
		return nil, err
	}
	if res.TrustBuildingMoments, err = encodeList(r.TrustBuildingMoments); err != nil {
		return nil, err
	}
	if res.InterestIndicators, err = encodeList(r.InterestIndicators); err != nil {
		return nil, err
	}
	if res.ConcernIndicators, err = encodeList(r.ConcernIndicators); err != nil {
		return nil, err
	}
	if res.UpsellOpportunities, err = encodeList(r.UpsellOpportunities); err != nil {
		return nil, err
	}
	bant, err := json.Marshal(r.BANT)
	if err != nil {
		return nil, errors.Wrap(err, "Can't encode BANT scores")
	}
	res.BANTQualification = string(bant)
	return res, nil
}

func encodeList(list []string) (string, error) {
	if list == nil {
		list = []string{}
	}
	res, err := json.Marshal(list)
	if err != nil {
		return "", errors.Wrap(err, "Can't encode list")
	}
	return string(res), nil
}

func clamp(v, min, max int) int {
	if v < min {
		return min
	}
	if v > max {
		return max
	}
	return v
}

func clampF(v, min, max float64) float64 {
	if v < min {
		return min
	}
	if v > max {
		return max
	}
	return v
}
