package game

import "math"

// Итог попытки побега
type EscapeOutcome struct {
	Escaped       bool       `json:"escaped"`
	PointsAwarded int        `json:"points_awarded"`
	ChosenID      string     `json:"chosen"`
	PredictedID   string     `json:"predicted"`
	ChoiceType    OptionType `json:"choice_type"`
}

// ResolveEscape решает побег: игрок уходит, если выбрал не то, что предсказал искатель.
// keepBonus добавляется к доле сохраняемых очков варианта, итог не больше 1.0.
func ResolveEscape(chosen EscapeOption, predictedID string, points int, keepBonus float64) EscapeOutcome {
	out := EscapeOutcome{
		Escaped:     chosen.ID != predictedID,
		ChosenID:    chosen.ID,
		PredictedID: predictedID,
		ChoiceType:  chosen.Type,
	}
	if !out.Escaped {
		return out
	}

	keep := math.Min(1.0, chosen.Keep()+keepBonus)
	out.PointsAwarded = int(math.Floor(float64(points) * keep))
	return out
}

// FindOption ищет вариант по id
func FindOption(options []EscapeOption, id string) (EscapeOption, bool) {
	for _, opt := range options {
		if opt.ID == id {
			return opt, true
		}
	}
	return EscapeOption{}, false
}
