package form

import "fmt"

const (
	StatusNew     = "new"
	StatusCurrent = "current"
	StatusPast    = "past"

	LevelBasic   = "basic"
	LevelPlus    = "plus"
	LevelPremium = "premium"
)

var levelPriceCents = map[string]int64{
	LevelBasic:   7500,
	LevelPlus:    17500,
	LevelPremium: 22500,
}

// PriceCents returns the one-time fee for level, or 0 when unset or unknown.
func PriceCents(level string) int64 {
	return levelPriceCents[level]
}

// DollarsFromCents converts a cent amount into the dollar figure sent to the
// payment endpoint and stored with the submission.
func DollarsFromCents(cents int64) float64 {
	return float64(cents) / 100
}

// LevelOption is one selectable membership level.
type LevelOption struct {
	Value      string `json:"value"`
	Title      string `json:"title"`
	Label      string `json:"label"`
	PriceCents int64  `json:"priceCents"`
}

// LevelsFor returns the levels offered for a membership status. Basic is
// only offered to new members; current members see Renew and Upgrade
// labels in place of the dollar amount. The charged price never changes.
func LevelsFor(status string) []LevelOption {
	switch status {
	case StatusNew, StatusCurrent, StatusPast:
	default:
		return nil
	}

	var out []LevelOption
	if status == StatusNew {
		out = append(out, LevelOption{Value: LevelBasic, Title: "Basic", Label: dollars(LevelBasic), PriceCents: PriceCents(LevelBasic)})
	}

	plusLabel, premiumLabel := dollars(LevelPlus), dollars(LevelPremium)
	if status == StatusCurrent {
		plusLabel, premiumLabel = "Renew", "Upgrade"
	}
	out = append(out,
		LevelOption{Value: LevelPlus, Title: "Plus", Label: plusLabel, PriceCents: PriceCents(LevelPlus)},
		LevelOption{Value: LevelPremium, Title: "Premium", Label: premiumLabel, PriceCents: PriceCents(LevelPremium)},
	)
	return out
}

// LevelOffered reports whether level is selectable under status.
func LevelOffered(status, level string) bool {
	for _, opt := range LevelsFor(status) {
		if opt.Value == level {
			return true
		}
	}
	return false
}

func dollars(level string) string {
	return fmt.Sprintf("$%d", PriceCents(level)/100)
}
