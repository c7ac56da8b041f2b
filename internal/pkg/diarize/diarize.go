package diarize

import (
	"strconv"
	"strings"
)

//Method names the segmentation used when a transcript carries speaker labels
const Method = "heuristic-turns"

const (
	turnGap      = 2.0
	responseGap  = 0.5
	shortLen     = 20
	minlen       = 3
	speakerCount = 2
)

//Segment is a timed piece of recognized speech
type Segment struct {
	Start float64
	End   float64
	Text  string
}

var openers = []string{"hello", "hi ", "hi,", "hi.", "hey", "good morning",
	"good afternoon", "good evening", "thank you", "thanks", "yes", "yeah",
	"no ", "no,", "no.", "okay", "ok ", "ok,", "sure", "right", "exactly",
	"absolutely", "of course"}

var interrogatives = []string{"what ", "why ", "how ", "when ", "where ",
	"who ", "which ", "can you", "could you", "would you", "do you",
	"did you", "are you", "is there", "is it"}

//Speakers turns timed segments into a two speaker dialogue.
//Turn changes are guessed from pauses, questions and short responses.
//The result is one "Speaker N: text" block per turn separated by blank lines
func Speakers(segments []Segment) string {
	var turns []string
	speaker := 1
	prevEnd := 0.0
	prevText := ""
	current := strings.Builder{}
	flush := func() {
		if current.Len() > 0 {
			turns = append(turns, current.String())
			current.Reset()
		}
	}
	first := true
	for _, seg := range segments {
		text := strings.TrimSpace(seg.Text)
		if len(text) < minlen {
			continue
		}
		if !first && turnChange(text, prevText, seg.Start-prevEnd) {
			flush()
			speaker = speaker%speakerCount + 1
		}
		if current.Len() == 0 {
			current.WriteString("Speaker " + strconv.Itoa(speaker) + ": " + text)
		} else {
			current.WriteString(" " + text)
		}
		prevEnd = seg.End
		prevText = text
		first = false
	}
	flush()
	return strings.Join(turns, "\n\n")
}

func turnChange(text, prevText string, gap float64) bool {
	if gap > turnGap {
		return true
	}
	if question(prevText) || question(text) {
		return true
	}
	lower := strings.ToLower(text)
	for _, op := range openers {
		if strings.HasPrefix(lower, op) {
			return true
		}
	}
	return len(text) < shortLen && gap > responseGap
}

//question matches a question mark anywhere or an interrogative opening
func question(text string) bool {
	if strings.Contains(text, "?") {
		return true
	}
	lower := strings.ToLower(text)
	for _, w := range interrogatives {
		if strings.HasPrefix(lower, w) {
			return true
		}
	}
	return false
}
