package payroll

import (
	"encoding/json"
	"fmt"

	"github.com/warp/payroll-engine/generic"
)

type itemJSON struct {
	Kind        ItemKind `json:"kind"`
	EntryID     string   `json:"entry_id,omitempty"`
	Description string   `json:"description"`
	Amount      string   `json:"amount"`
	Currency    string   `json:"currency"`
}

// MarshalItems encodes line items for the items_json column.
func MarshalItems(items []LineItem) (string, error) {
	out := make([]itemJSON, len(items))
	for i, it := range items {
		out[i] = itemJSON{
			Kind:        it.Kind,
			EntryID:     it.EntryID,
			Description: it.Description,
			Amount:      it.Amount.Value.String(),
			Currency:    string(it.Amount.Currency),
		}
	}
	data, err := json.Marshal(out)
	if err != nil {
		return "", err
	}
	return string(data), nil
}

// UnmarshalItems decodes the items_json column. Empty input yields nil.
func UnmarshalItems(data string) ([]LineItem, error) {
	if data == "" {
		return nil, nil
	}
	var raw []itemJSON
	if err := json.Unmarshal([]byte(data), &raw); err != nil {
		return nil, fmt.Errorf("decode line items: %w", err)
	}
	items := make([]LineItem, len(raw))
	for i, r := range raw {
		amount, err := generic.ParseAmount(r.Amount, generic.Currency(r.Currency))
		if err != nil {
			return nil, fmt.Errorf("decode line item %d: %w", i, err)
		}
		items[i] = LineItem{Kind: r.Kind, EntryID: r.EntryID, Description: r.Description, Amount: amount}
	}
	return items, nil
}
