package recall

import "fmt"

// Tier is the escalation level of a recall letter.
type Tier int

const (
	TierNone Tier = iota
	Tier1
	Tier2
	Tier3
)

func (t Tier) String() string {
	switch t {
	case TierNone:
		return "none"
	case Tier1:
		return "tier1"
	case Tier2:
		return "tier2"
	case Tier3:
		return "tier3"
	default:
		return fmt.Sprintf("tier(%d)", int(t))
	}
}

// Kind distinguishes local loans from inter-library loans, which use their own letters.
type Kind string

const (
	KindLoan Kind = "loan"
	KindILL  Kind = "ill"
)

// TemplateKey returns the name of the letter template for this tier, or "" for TierNone.
func (t Tier) TemplateKey(kind Kind) string {
	if t < Tier1 || t > Tier3 {
		return ""
	}
	prefix := "RECALL"
	if kind == KindILL {
		prefix = "ILL_RECALL"
	}
	return fmt.Sprintf("%s%d", prefix, int(t))
}

// State is the recall state of one loan or ILL request as read from storage.
type State struct {
	Count          int    // overdue letters already sent
	LastLetterDate string // persisted date of the last letter, YYYY-MM-DD; may be empty
	Expired        bool
}
