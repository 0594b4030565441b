// Package botserve classifies crawler traffic and serves prerendered
// snapshots to it, deferring everything else to the live SPA.
package botserve

import "strings"

// DefaultBotTokens is the central list of known crawler User-Agent
// substrings. The middleware and its tests share this one definition.
var DefaultBotTokens = []string{
	"googlebot",
	"bingbot",
	"slurp",
	"duckduckbot",
	"baiduspider",
	"yandex",
	"sogou",
	"exabot",
	"applebot",
	"petalbot",
	"facebookexternalhit",
	"facebot",
	"twitterbot",
	"linkedinbot",
	"pinterestbot",
	"slackbot",
	"whatsapp",
	"telegrambot",
	"discordbot",
	"ahrefsbot",
	"semrushbot",
	"mj12bot",
	"screaming frog",
	"gptbot",
	"chatgpt-user",
	"perplexitybot",
	"claudebot",
	"google-inspectiontool",
}

// Classifier decides whether a User-Agent belongs to a known crawler.
type Classifier struct {
	tokens []string
}

// NewClassifier builds a classifier over the given token list; an empty list
// falls back to DefaultBotTokens.
func NewClassifier(tokens []string) *Classifier {
	if len(tokens) == 0 {
		tokens = DefaultBotTokens
	}
	lowered := make([]string, len(tokens))
	for i, t := range tokens {
		lowered[i] = strings.ToLower(t)
	}
	return &Classifier{tokens: lowered}
}

// IsBot reports whether the User-Agent matches any known crawler token,
// case-insensitively.
func (c *Classifier) IsBot(userAgent string) bool {
	if userAgent == "" {
		return false
	}
	ua := strings.ToLower(userAgent)
	for _, token := range c.tokens {
		if strings.Contains(ua, token) {
			return true
		}
	}
	return false
}
