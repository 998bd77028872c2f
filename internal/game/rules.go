// internal/game/rules.go
package game

import (
	"fmt"

	"github.com/jason-s-yu/spotdiff/internal/models"
)

// MaxConstantSec bounds every admin-set constant.
const MaxConstantSec = 120

// ApplyConstants returns current with the fields present in updates
// overwritten. Absent keys keep their old value. JSON numbers arrive as
// float64, plain ints are accepted too.
func ApplyConstants(current models.Constants, updates map[string]interface{}) (models.Constants, error) {
	out := current

	assignInt := func(field *int, key string, minVal int) error {
		val, exists := updates[key]
		if !exists || val == nil {
			return nil
		}
		switch v := val.(type) {
		case float64:
			if v != float64(int(v)) {
				return fmt.Errorf("%s must be a whole number of seconds", key)
			}
			*field = int(v)
		case int:
			*field = v
		default:
			return fmt.Errorf("invalid type for %s", key)
		}
		if *field < minVal || *field > MaxConstantSec {
			return fmt.Errorf("%s must be between %d and %d", key, minVal, MaxConstantSec)
		}
		return nil
	}

	if err := assignInt(&out.InitialTime, "initialTime", 1); err != nil {
		return current, err
	}
	if err := assignInt(&out.PenaltyTime, "penaltyTime", 0); err != nil {
		return current, err
	}
	if err := assignInt(&out.BonusTime, "bonusTime", 0); err != nil {
		return current, err
	}
	return out, nil
}
