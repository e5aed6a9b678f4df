package email

import (
	"strings"
	"time"

	"github.com/xaenox/dayflow/internal/models"
)

var workDomainSuffixes = []string{".edu", ".gov", ".mil"}

var urgentSubjectWords = []string{"urgent", "asap", "deadline", "important", "critical", "action required"}

var actionWords = []string{"review", "approve", "sign", "respond", "confirm", "verify"}

// Score computes the triage score and priority band for a parsed email.
// The rules are additive: work-looking sender +20, urgent subject word +30,
// action word in subject or the first 500 body chars +20, freshness +10/<24h
// or +5/<72h.
func Score(email *models.Email, now time.Time) (int, models.EmailPriority) {
	score := 0

	domain := senderDomain(email.From)
	for _, suffix := range workDomainSuffixes {
		if strings.HasSuffix(domain, suffix) {
			score += 20
			break
		}
	}

	subject := strings.ToLower(email.Subject)
	for _, word := range urgentSubjectWords {
		if strings.Contains(subject, word) {
			score += 30
			break
		}
	}

	bodyHead := strings.ToLower(truncate(email.BodyText, 500))
	for _, word := range actionWords {
		if strings.Contains(subject, word) || strings.Contains(bodyHead, word) {
			score += 20
			break
		}
	}

	if !email.Date.IsZero() {
		age := now.Sub(email.Date)
		switch {
		case age < 24*time.Hour:
			score += 10
		case age < 72*time.Hour:
			score += 5
		}
	}

	switch {
	case score >= 50:
		return score, models.EmailPriorityHigh
	case score >= 25:
		return score, models.EmailPriorityMedium
	default:
		return score, models.EmailPriorityLow
	}
}

// senderDomain pulls the lowercase domain out of a From header, tolerating
// both "Name <addr@host>" and bare "addr@host" forms.
func senderDomain(from string) string {
	from = strings.ToLower(strings.TrimSpace(from))
	if start := strings.LastIndex(from, "<"); start >= 0 {
		from = strings.TrimSuffix(from[start+1:], ">")
	}
	if at := strings.LastIndex(from, "@"); at >= 0 {
		return from[at+1:]
	}
	return from
}
