package insights

import (
	"encoding/json"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
)

type testAnalyzer struct {
	res *Record
	err error
}

func (a *testAnalyzer) Generate(text string, language string) (*Record, error) {
	return a.res, a.err
}

func TestGenerate_UsesAnalyzer(t *testing.T) {
	want := &Record{Summary: "olia"}
	g := NewGenerator(&testAnalyzer{res: want})
	assert.Equal(t, want, g.Generate("text", ""))
}

func TestGenerate_FallsBackOnError(t *testing.T) {
	g := NewGenerator(&testAnalyzer{err: errors.New("olia")})
	r := g.Generate("Great, we are definitely interested.", "")
	assert.NotNil(t, r)
	assert.Equal(t, SentimentPositive, r.Sentiment)
}

func TestGenerate_NoAnalyzer(t *testing.T) {
	g := NewGenerator(nil)
	assert.NotNil(t, g.Generate("", ""))
}

func TestEmergency(t *testing.T) {
	r := Emergency("f.mp3", "Yes, that sounds good to me.")
	assert.Equal(t, SentimentPositive, r.Sentiment)
	assert.Equal(t, 65, r.SatisfactionScore)
	assert.Equal(t, 75, r.DealProbability)
	assert.Contains(t, r.Summary, "f.mp3")
	assert.Equal(t, BANT{Budget: 50, Authority: 50, Need: 50, Timeline: 50}, r.BANT)
}

func TestEmergency_Empty(t *testing.T) {
	r := Emergency("f.mp3", "")
	assert.Equal(t, SentimentNeutral, r.Sentiment)
	assert.Equal(t, 50, r.SatisfactionScore)
	assert.Equal(t, 60, r.DealProbability)
}

func TestToPersistence(t *testing.T) {
	r := Fallback("Great, we are definitely interested in the demo.")
	ins, err := r.ToPersistence(10, 2)
	assert.Nil(t, err)
	assert.Equal(t, int64(10), ins.CallID)
	assert.Equal(t, int64(2), ins.TenantID)
	assert.Equal(t, r.Sentiment, ins.Sentiment)
	var topics []string
	assert.Nil(t, json.Unmarshal([]byte(ins.KeyTopics), &topics))
	assert.Equal(t, r.KeyTopics, topics)
	var bant BANT
	assert.Nil(t, json.Unmarshal([]byte(ins.BANTQualification), &bant))
	assert.Equal(t, r.BANT, bant)
}

func TestToPersistence_EmptyLists(t *testing.T) {
	r := &Record{}
	ins, err := r.ToPersistence(1, 1)
	assert.Nil(t, err)
	assert.Equal(t, "[]", ins.ConcernIndicators)
	assert.Equal(t, "[]", ins.UpsellOpportunities)
}
