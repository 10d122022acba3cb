package application

import (
	"strings"

	"github.com/revtriage/revtriage/internal/domain/model"
)

// ReclassifyOutcome is the fate of an additional-section finding.
type ReclassifyOutcome string

const (
	// ReclassifyActionable promotes the finding to the actionable bucket.
	ReclassifyActionable ReclassifyOutcome = "actionable"
	// ReclassifyDropResolved drops the finding as already closed.
	ReclassifyDropResolved ReclassifyOutcome = "drop_resolved"
	// ReclassifyDropMinor drops the finding as a negligible stylistic remark.
	ReclassifyDropMinor ReclassifyOutcome = "drop_minor"
	// ReclassifyNitpick is the default bucket for unclassifiable remarks.
	ReclassifyNitpick ReclassifyOutcome = "nitpick"
)

// KeywordRule maps a set of keywords to a classification outcome. Matching is
// a case-insensitive substring test; the first rule with any matching keyword
// wins, so rule order is the policy's precedence order.
type KeywordRule struct {
	ID       string
	Keywords []string
	Outcome  ReclassifyOutcome
}

// additionalSectionRules decide what becomes of findings from the catch-all
// "Additional comments" section, which carries no explicit kind marker.
// The bot's own actionable badges take precedence over everything else, so a
// badged finding stays actionable even when the same text claims resolution.
var additionalSectionRules = []KeywordRule{
	{
		ID: "actionable-badge",
		Keywords: []string{
			"⚠️ potential issue",
			"🛠️ refactor suggestion",
			"potential issue",
			"refactor suggestion",
			"🔒 security concern",
		},
		Outcome: ReclassifyActionable,
	},
	{
		ID: "strong-resolved",
		Keywords: []string{
			"✅ addressed",
			"resolved",
			"fixed",
			"addressed",
			"completed",
			"対応済み",
			"解決済み",
			"修正済み",
		},
		Outcome: ReclassifyDropResolved,
	},
	{
		ID: "minor",
		Keywords: []string{
			"minor",
			"cosmetic",
			"formatting",
			"typo",
			"whitespace",
			"naming style",
			"軽微",
			"スタイルのみ",
		},
		Outcome: ReclassifyDropMinor,
	},
	{
		ID: "critical-actionable",
		Keywords: []string{
			// Security and correctness.
			"security",
			"vulnerability",
			"vulnerable",
			"injection",
			"credential",
			"secret",
			"unsafe",
			"race condition",
			"deadlock",
			"data loss",
			"corruption",
			"leak",
			"overflow",
			"null pointer",
			"nil pointer",
			"missing validation",
			"missing check",
			"incorrect",
			"wrong",
			"broken",
			"fails",
			"failure",
			"crash",
			"panic",
			"exception",
			"regression",
			"error handling",
			// Process language the bot uses for must-fix items.
			"must fix",
			"should fix",
			"required",
			"blocking",
			"breaking change",
			// Japanese equivalents.
			"脆弱性",
			"セキュリティ",
			"修正が必要",
			"必須",
			"不具合",
			"バグ",
			"誤り",
			"競合状態",
			"クラッシュ",
			"データ損失",
		},
		Outcome: ReclassifyActionable,
	},
}

// ReclassifyAdditional applies the additional-section policy to the combined
// title and content text of a finding. Rules are evaluated in order; the
// default outcome is the nitpick bucket.
func ReclassifyAdditional(text string) ReclassifyOutcome {
	lower := strings.ToLower(text)
	for _, rule := range additionalSectionRules {
		for _, kw := range rule.Keywords {
			if strings.Contains(lower, kw) {
				return rule.Outcome
			}
		}
	}
	return ReclassifyNitpick
}

// PriorityRule maps keywords to a priority tier. First matching tier wins;
// there is no scoring or weighting.
type PriorityRule struct {
	Priority model.Priority
	Keywords []string
}

// priorityRules rank actionable descriptions. Critical terms are checked
// before high ones; anything else defaults to medium.
var priorityRules = []PriorityRule{
	{
		Priority: model.PriorityCritical,
		Keywords: []string{
			"security",
			"vulnerability",
			"vulnerable",
			"credential",
			"secret",
			"injection",
			"xss",
			"csrf",
			"rce",
			"unsafe",
			"exploit",
			"脆弱性",
			"セキュリティ",
			"認証情報",
		},
	},
	{
		Priority: model.PriorityHigh,
		Keywords: []string{
			"error",
			"crash",
			"panic",
			"bug",
			"broken",
			"data loss",
			"race",
			"deadlock",
			"leak",
			"license",
			"missing permission",
			"nil pointer",
			"null pointer",
			"エラー",
			"クラッシュ",
			"バグ",
			"不具合",
			"ライセンス",
		},
	},
}

// PriorityFor computes the priority of an actionable description by keyword
// membership, critical terms taking precedence over high, defaulting to medium.
func PriorityFor(description string) model.Priority {
	lower := strings.ToLower(description)
	for _, rule := range priorityRules {
		for _, kw := range rule.Keywords {
			if strings.Contains(lower, kw) {
				return rule.Priority
			}
		}
	}
	return model.PriorityMedium
}
