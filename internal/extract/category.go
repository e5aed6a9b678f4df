package extract

import "strings"

// categoryKeywords follows the keyword-table shape of the simple content
// classifier: first category with a hit wins, in a fixed order.
var categoryOrder = []string{"learning", "health", "business", "personal"}

var categoryKeywords = map[string][]string{
	"business": {"work", "client", "project", "report", "invoice", "business", "presentation"},
	"personal": {"family", "friend", "home", "birthday", "holiday", "grocery", "groceries"},
	"learning": {"learn", "study", "course", "mooc", "class", "tutorial", "book", "read"},
	"health":   {"gym", "workout", "exercise", "doctor", "run", "yoga", "health", "diet"},
}

// Category classifies text into business/personal/learning/health.
func Category(text string) (string, bool) {
	text = strings.ToLower(text)
	for _, category := range categoryOrder {
		for _, kw := range categoryKeywords[category] {
			if strings.Contains(text, kw) {
				return category, true
			}
		}
	}
	return "", false
}
