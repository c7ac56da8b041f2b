package insights

import "strings"

type speakerStats struct {
	labeled       bool
	count         int
	turns         int
	mostActive    string
	talkTimeRatio float64
}

//analyzeSpeakers reads "Speaker N:" labels produced by diarization.
//The first speaker is assumed to be the sales rep
func analyzeSpeakers(text string) speakerStats {
	res := speakerStats{talkTimeRatio: 0.5}
	if !strings.Contains(text, "Speaker 1:") && !strings.Contains(text, "Speaker 2:") {
		return res
	}
	res.labeled = true

	lengths := map[string]int{}
	current := ""
	currentLen := 0
	flush := func() {
		if current != "" {
			lengths[current] += currentLen
			res.turns++
		}
		currentLen = 0
	}
	for _, line := range strings.Split(text, "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		if strings.HasPrefix(line, "Speaker 1:") || strings.HasPrefix(line, "Speaker 2:") {
			flush()
			parts := strings.SplitN(line, ":", 2)
			current = parts[0]
			currentLen = len(strings.TrimSpace(parts[1]))
		} else if current != "" {
			currentLen += len(line)
		}
	}
	flush()

	res.count = len(lengths)
	maxLen := -1
	for _, speaker := range []string{"Speaker 1", "Speaker 2"} {
		if l, ok := lengths[speaker]; ok && l > maxLen {
			maxLen = l
			res.mostActive = speaker
		}
	}
	total := lengths["Speaker 1"] + lengths["Speaker 2"]
	if lengths["Speaker 1"] > 0 && lengths["Speaker 2"] > 0 && total > 0 {
		res.talkTimeRatio = float64(lengths["Speaker 1"]) / float64(total)
	}
	return res
}
