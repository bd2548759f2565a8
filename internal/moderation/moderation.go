// Package moderation rejects keywords that name disallowed subject matter.
package moderation

import (
	"strings"

	"github.com/snappy-loop/blogs/internal/apperr"
)

// bannedPhrases are matched case-insensitively as substrings.
var bannedPhrases = []string{
	"hate", "violence", "pornography", "gore", "torture", "racism", "sexism", "homophobia",
	"transphobia", "bigotry", "nazism", "fascism", "white supremacy", "hate speech",
	"discrimination", "harassment", "cyberbullying", "doxing", "threats", "stalking",
	"intimidation", "bullying", "abuse", "assault", "murder", "rape", "sexual assault",
	"domestic violence", "child abuse", "animal abuse", "terrorist attacks", "war crimes",
	"genocide", "torture porn", "snuff films", "child pornography", "bestiality", "incest",
	"pedophilia", "nonconsensual", "illegal", "inappropriate", "prostitution", "slavery",
	"human trafficking", "drugs", "narcotics", "illicit substances", "illegal activity",
	"weapon", "firearm", "explosive", "toxic", "poison", "vandalism", "theft", "fraud",
	"embezzlement", "bribery", "corruption", "money laundering", "racketeering",
	"counterfeit", "forgery", "hacking", "phishing", "spam", "scam", "malware",
	"ransomware", "virus", "spyware", "adware", "worms", "trojans", "backdoor", "rootkit",
	"drive-by download", "skimmer", "keylogger", "DoS attack", "DDoS attack",
	"SQL injection", "cross-site scripting", "identity theft", "impersonation",
	"personal information", "credit card", "bank account", "social security",
	"driver's license", "passport", "IP address", "mac address",
}

// Check returns a ValidationError when keyword contains a banned phrase.
func Check(keyword string) error {
	if phrase, ok := Match(keyword); ok {
		return apperr.Validation("keyword", "contains disallowed content (%q)", phrase)
	}
	return nil
}

// Match reports the first banned phrase found in s.
func Match(s string) (string, bool) {
	lower := strings.ToLower(s)
	for _, p := range bannedPhrases {
		if strings.Contains(lower, strings.ToLower(p)) {
			return p, true
		}
	}
	return "", false
}
