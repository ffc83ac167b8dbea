package stats

import (
	"strings"

	"golang.org/x/text/cases"
)

// KeywordSet is a named, versioned list of status fragments. Bump Version
// whenever Keywords changes so exported reports can be traced to the rule.
type KeywordSet struct {
	Name     string
	Version  string
	Keywords []string
}

// TerminalStatusKeywords marks a case as judged when its latest status
// contains any of these fragments.
var TerminalStatusKeywords = KeywordSet{
	Name:    "terminal-status",
	Version: "1",
	Keywords: []string{
		"definitivo",
		"baixa definitiva",
		"baixa",
		"improcedência",
		"procedência",
		"procedência em parte",
		"incompetência",
		"extinção da execução ou do cumprimento da sentença",
		"prescrição intercorrente",
		"ausência de pressupostos processuais",
		"ausência das condições da ação",
		"desistência",
		"abandono da causa",
	},
}

// Matches reports whether status contains any keyword, ignoring case.
// An empty status never matches.
func (k KeywordSet) Matches(status string) bool {
	if strings.TrimSpace(status) == "" {
		return false
	}
	folder := cases.Fold()
	folded := folder.String(status)
	for _, kw := range k.Keywords {
		if strings.Contains(folded, folder.String(kw)) {
			return true
		}
	}
	return false
}

// IsJudged classifies a status with TerminalStatusKeywords.
func IsJudged(status string) bool {
	return TerminalStatusKeywords.Matches(status)
}
