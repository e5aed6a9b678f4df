package extract

import "strings"

// Score is an Eisenhower urgency/importance pair, each in [1,5].
type Score struct {
	Urgency    int `json:"urgency"`
	Importance int `json:"importance"`
}

// priorityKeywords maps trigger words to scores; earlier rows win.
var priorityKeywords = []struct {
	words []string
	score Score
}{
	{[]string{"critical", "both"}, Score{5, 5}},
	{[]string{"urgent", "asap", "soon"}, Score{5, 3}},
	{[]string{"important", "strategic"}, Score{3, 5}},
	{[]string{"low", "minor"}, Score{2, 2}},
	{[]string{"medium"}, Score{3, 3}},
}

// Priority classifies free text into an urgency/importance pair. When no
// keyword matches, a neutral (3,3) is returned with ok=false so callers can
// decide whether to ask.
func Priority(text string) (Score, bool) {
	text = strings.ToLower(text)
	for _, row := range priorityKeywords {
		for _, w := range row.words {
			if strings.Contains(text, w) {
				return row.score, true
			}
		}
	}
	return Score{3, 3}, false
}
