package chat

import "strings"

// jobPhrases are the literal triggers that route a message to the job
// retrieval path instead of the conversational assistant.
var jobPhrases = []string{
	"job offers",
	"job listings",
	"find jobs",
	"search jobs",
	"internship offers",
	"intern offers",
	"job opportunities",
	"show me jobs",
	"find internships",
}

// IsJobQuery reports whether the message asks for job listings.
func IsJobQuery(content string) bool {
	lower := strings.ToLower(content)
	for _, phrase := range jobPhrases {
		if strings.Contains(lower, phrase) {
			return true
		}
	}
	return false
}
