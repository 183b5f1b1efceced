// Package attribute checks a caller's attribute selection against the attribute
// sets a product defines.
package attribute

import (
	"fmt"

	"storefront/internal/domain"
)

// Selection is one chosen value for an attribute set, as supplied on an order line.
type Selection struct {
	ID    string `json:"id" validate:"required"`
	Value string `json:"value"`
}

// Validate reports whether selection is a complete and legal choice for sets.
// It has no state and only reads its arguments.
func Validate(productID string, sets []domain.AttributeSet, selection []Selection) error {
	_, err := Resolve(productID, sets, selection)
	return err
}

// Resolve validates selection and returns it enriched with each set's display name,
// in selection order.
//
// Every missing set is reported at once, in catalog order. Unknown ids, repeated ids
// and values outside a set fail on the first offending entry.
func Resolve(productID string, sets []domain.AttributeSet, selection []Selection) ([]domain.SelectedAttribute, error) {
	if len(sets) == 0 {
		if len(selection) > 0 {
			return nil, domain.NewInvalidAttribute(productID,
				fmt.Sprintf("Attributes are not allowed for simple product %s", productID))
		}
		return []domain.SelectedAttribute{}, nil
	}

	provided := make(map[string]struct{}, len(selection))
	for _, sel := range selection {
		provided[sel.ID] = struct{}{}
	}

	var missing []string
	byID := make(map[string]domain.AttributeSet, len(sets))
	for _, set := range sets {
		byID[set.ID] = set
		if _, ok := provided[set.ID]; !ok {
			missing = append(missing, set.Name)
		}
	}
	if len(missing) > 0 {
		return nil, domain.NewMissingAttributes(productID, missing)
	}

	seen := make(map[string]struct{}, len(selection))
	resolved := make([]domain.SelectedAttribute, 0, len(selection))
	for _, sel := range selection {
		set, ok := byID[sel.ID]
		if !ok {
			return nil, domain.NewInvalidAttribute(productID, "Invalid attribute ID: "+sel.ID)
		}
		if _, dup := seen[sel.ID]; dup {
			return nil, domain.NewInvalidAttribute(productID, "Duplicate attribute ID: "+sel.ID)
		}
		seen[sel.ID] = struct{}{}

		if !set.HasValue(sel.Value) {
			return nil, domain.NewInvalidAttribute(productID, "Invalid value for attribute "+set.Name)
		}
		resolved = append(resolved, domain.SelectedAttribute{ID: set.ID, Name: set.Name, Value: sel.Value})
	}
	return resolved, nil
}
