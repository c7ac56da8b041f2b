package insights

import "bitbucket.org/airenas/callsight/internal/pkg/cmdapp"

//Analyzer asks an external service to analyze a transcript
type Analyzer interface {
	Generate(text string, language string) (*Record, error)
}

//Generator produces the analysis for a transcript.
//The external analyzer is tried first, transcript heuristics after that.
//Generate always returns a record
type Generator struct {
	analyzer Analyzer
}

//NewGenerator creates the insight generator.
//A nil analyzer means heuristics only
func NewGenerator(analyzer Analyzer) *Generator {
	return &Generator{analyzer: analyzer}
}

//NewGeneratorFromConfig prepares the generator from the insights config section.
//Without a configured service the heuristic tiers still work
func NewGeneratorFromConfig() *Generator {
	if cmdapp.Config.GetString("insights.url") == "" {
		cmdapp.Log.Warn("No insights service configured, using transcript heuristics")
		return NewGenerator(nil)
	}
	analyzer, err := NewLLMClient()
	if err != nil {
		cmdapp.Log.Warnf("Can't init insights client, using transcript heuristics: %v", err)
		return NewGenerator(nil)
	}
	return NewGenerator(analyzer)
}

//Generate returns the analysis for the transcript
func (g *Generator) Generate(text string, language string) *Record {
	if g.analyzer != nil {
		res, err := g.analyzer.Generate(text, language)
		if err == nil && res != nil {
			return res
		}
		cmdapp.Log.Warnf("External analysis failed, using transcript heuristics: %v", err)
	}
	return Fallback(text)
}
