package persistence

import (
	"encoding/json"
	"time"
)

const (
	//UploadManual marks calls registered by the upload endpoint
	UploadManual = "manual"
	//UploadAutomatic marks calls registered by the bucket scan service
	UploadAutomatic = "automatic"
)

type (
	//Tenant is an isolated customer organization. All call data is scoped by its ID
	Tenant struct {
		ID        int64     `bson:"ID"`
		Name      string    `bson:"name"`
		Bucket    string    `bson:"bucket"`
		Region    string    `bson:"region,omitempty"`
		AccessKey string    `bson:"accessKey,omitempty"`
		SecretKey string    `bson:"secretKey,omitempty"`
		Prefix    string    `bson:"prefix,omitempty"`
		Status    string    `bson:"status,omitempty"`
		Created   time.Time `bson:"created,omitempty"`
	}

	//Call is one audio submission
	Call struct {
		ID         int64      `bson:"ID"`
		UserID     int64      `bson:"userID,omitempty"`
		TenantID   int64      `bson:"tenantID,omitempty"`
		FileName   string     `bson:"fileName"`
		BlobKey    string     `bson:"blobKey"`
		Status     string     `bson:"status"`
		Language   string     `bson:"language,omitempty"` // empty = auto-detect
		Translate  bool       `bson:"translate,omitempty"`
		Uploaded   time.Time  `bson:"uploaded,omitempty"`
		UploadedBy string     `bson:"uploadedBy,omitempty"` // manual, automatic
		Duration   *int       `bson:"duration,omitempty"`   // seconds, display only
		Score      *int       `bson:"score,omitempty"`      // equals insights overallScore
	}

	//Transcript is the 1:1 text result for a call.
	//On failure Text is overwritten with a readable error explanation
	Transcript struct {
		CallID   int64     `bson:"callID"`
		TenantID int64     `bson:"tenantID,omitempty"`
		Text     string    `bson:"text"`
		Language string    `bson:"language,omitempty"`
		Method   string    `bson:"method,omitempty"` // diarization method, empty for plain text
		Created  time.Time `bson:"created,omitempty"`
	}

	//Insights is the flat per-call analysis record.
	//List and map valued fields are stored as JSON encoded strings
	Insights struct {
		CallID                int64    `bson:"callID"`
		TenantID              int64    `bson:"tenantID,omitempty"`
		Summary               string   `bson:"summary,omitempty"`
		Sentiment             string   `bson:"sentiment,omitempty"`
		KeyTopics             string   `bson:"keyTopics,omitempty"`
		SatisfactionScore     int      `bson:"satisfactionScore"`
		ImprovementAreas      string   `bson:"improvementAreas,omitempty"`
		ActionItems           string   `bson:"actionItems,omitempty"`
		OverallScore          int      `bson:"overallScore"`
		TalkTimeRatio         float64  `bson:"talkTimeRatio"`
		QuestionEffectiveness int      `bson:"questionEffectiveness"`
		ObjectionHandling     int      `bson:"objectionHandling"`
		ClosingAttempts       int      `bson:"closingAttempts"`
		EngagementScore       int      `bson:"engagementScore"`
		CommitmentLevel       string   `bson:"commitmentLevel,omitempty"`
		ConversationPace      string   `bson:"conversationPace,omitempty"`
		InterruptionCount     int      `bson:"interruptionCount"`
		SilencePeriods        int      `bson:"silencePeriods"`
		BANTQualification     string   `bson:"bantQualification,omitempty"`
		ValuePropositionScore int      `bson:"valuePropositionScore"`
		TrustBuildingMoments  string   `bson:"trustBuildingMoments,omitempty"`
		InterestIndicators    string   `bson:"interestIndicators,omitempty"`
		ConcernIndicators     string   `bson:"concernIndicators,omitempty"`
		DealProbability       int      `bson:"dealProbability"`
		FollowUpUrgency       string   `bson:"followUpUrgency,omitempty"`
		UpsellOpportunities   string   `bson:"upsellOpportunities,omitempty"`
		Created               time.Time `bson:"created,omitempty"`
	}
)

//DecodeList restores a JSON encoded list field, a broken or empty value gives an empty list
func DecodeList(s string) []string {
	if s == "" {
		return []string{}
	}
	var res []string
	if err := json.Unmarshal([]byte(s), &res); err != nil || res == nil {
		return []string{}
	}
	return res
}
