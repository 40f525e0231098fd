package domain

import (
	"errors"
	"fmt"
	"strings"
)

// ErrInvalidSnapshot is wrapped by every validation failure.
var ErrInvalidSnapshot = errors.New("invalid snapshot")

// ValidationError lists every problem found in a snapshot.
type ValidationError struct {
	Problems []string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", ErrInvalidSnapshot, strings.Join(e.Problems, "; "))
}

func (e *ValidationError) Unwrap() error {
	return ErrInvalidSnapshot
}

// ValidateSnapshot checks the records handed to the engine. Sale records that
// reference unknown item IDs are allowed; the engine ignores them.
func ValidateSnapshot(s Snapshot) error {
	var problems []string
	seen := make(map[string]struct{}, len(s.Inventory))

	for i, item := range s.Inventory {
		label := fmt.Sprintf("inventory[%d]", i)
		if strings.TrimSpace(item.ID) == "" {
			problems = append(problems, label+": missing id")
		} else {
			label = fmt.Sprintf("inventory[%d] (%s)", i, item.ID)
			if _, dup := seen[item.ID]; dup {
				problems = append(problems, label+": duplicate id")
			}
			seen[item.ID] = struct{}{}
		}
		if strings.TrimSpace(item.SKU) == "" {
			problems = append(problems, label+": missing sku")
		}
		if item.CurrentStock < 0 {
			problems = append(problems, label+": negative currentStock")
		}
		if item.ReorderPoint < 0 {
			problems = append(problems, label+": negative reorderPoint")
		}
		if item.MaxStock < 0 {
			problems = append(problems, label+": negative maxStock")
		}
		if item.CostPerUnit < 0 || item.PricePerUnit < 0 {
			problems = append(problems, label+": negative unit cost or price")
		}
	}

	for i, sale := range s.Sales {
		label := fmt.Sprintf("sales[%d]", i)
		if strings.TrimSpace(sale.ItemID) == "" {
			problems = append(problems, label+": missing itemId")
		}
		if sale.Quantity <= 0 {
			problems = append(problems, label+": quantity must be positive")
		}
		if sale.Date.IsZero() {
			problems = append(problems, label+": missing date")
		}
	}

	if len(problems) > 0 {
		return &ValidationError{Problems: problems}
	}
	return nil
}
