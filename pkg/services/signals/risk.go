package signals

import (
	"strings"

	"github.com/de-tools/compliance-signals/pkg/models/domain"
	"github.com/de-tools/compliance-signals/pkg/services/config"
)

type riskRule struct {
	risk     domain.Risk
	keywords []string
}

// Classifier buckets a free-text action type by substring rules.
// Rules are evaluated in order and the first match wins; anything else is LOW.
type Classifier struct {
	rules []riskRule
}

func NewClassifier(rules []config.RiskRule) *Classifier {
	c := &Classifier{rules: make([]riskRule, 0, len(rules))}
	for _, r := range rules {
		words := make([]string, 0, len(r.Keywords))
		for _, w := range r.Keywords {
			if s := strings.ToLower(strings.TrimSpace(w)); s != "" {
				words = append(words, s)
			}
		}
		if len(words) == 0 {
			continue
		}
		c.rules = append(c.rules, riskRule{risk: r.Risk, keywords: words})
	}
	return c
}

// DefaultClassifier uses the built-in keyword lists.
func DefaultClassifier() *Classifier {
	return NewClassifier(config.DefaultRiskRules())
}

func (c *Classifier) Classify(actionType string) domain.Risk {
	t := strings.ToLower(actionType)
	for _, r := range c.rules {
		for _, w := range r.keywords {
			if strings.Contains(t, w) {
				return r.risk
			}
		}
	}
	return domain.RiskLow
}
