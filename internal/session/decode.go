package session

import (
	"encoding/json"
	"fmt"

	"homes-service/internal/store"
)

// DecodeAction turns a JSON action record into its typed variant. A
// missing or unknown "type" yields store.Unrecognized.
func DecodeAction(data []byte) (store.Action, error) {
	var envelope struct {
		Type string `json:"type"`
	}
	if err := json.Unmarshal(data, &envelope); err != nil {
		return nil, fmt.Errorf("session.DecodeAction: %w", err)
	}

	switch envelope.Type {
	case KindUpdateUser:
		var a UpdateUser
		if err := json.Unmarshal(data, &a); err != nil {
			return nil, fmt.Errorf("session.DecodeAction: %s: %w", envelope.Type, err)
		}
		return a, nil
	case KindUpdateData:
		var a UpdateData
		if err := json.Unmarshal(data, &a); err != nil {
			return nil, fmt.Errorf("session.DecodeAction: %s: %w", envelope.Type, err)
		}
		return a, nil
	default:
		return store.Unrecognized{Type: envelope.Type}, nil
	}
}
