package v16

import (
	"encoding/json"
	"fmt"

	"csms/ocpp/core"
)

// CommandEncoder implements ocpp/adapter.CommandEncoder for OCPP 1.6J.
// Every core.Command payload already carries `json` tags matching the 1.6
// wire shape (see ocpp/core/commands.go), so encoding is a direct marshal;
// only the CallResult decode needs an action-specific shape.
type CommandEncoder struct{}

func (CommandEncoder) EncodeCommand(_ string, payload interface{}) (json.RawMessage, error) {
	return json.Marshal(payload)
}

// WireAction is the identity for 1.6: every core.Action* constant is
// already spelled the way 1.6J spells it on the wire.
func (CommandEncoder) WireAction(coreAction string) string { return coreAction }

func (CommandEncoder) DecodeResult(action string, raw json.RawMessage) (interface{}, error) {
	switch action {
	case core.ActionRemoteStartTransaction, core.ActionRemoteStopTransaction:
		var v struct {
			Status string `json:"status"`
		}
		if err := json.Unmarshal(raw, &v); err != nil {
			return nil, fmt.Errorf("decode %s result: %w", action, err)
		}
		return v.Status, nil
	case core.ActionGetConfiguration:
		var v struct {
			ConfigurationKey []struct {
				Key      string `json:"key"`
				Readonly bool   `json:"readonly"`
				Value    string `json:"value,omitempty"`
			} `json:"configurationKey"`
			UnknownKey []string `json:"unknownKey,omitempty"`
		}
		if err := json.Unmarshal(raw, &v); err != nil {
			return nil, fmt.Errorf("decode %s result: %w", action, err)
		}
		return v, nil
	default:
		var v map[string]interface{}
		if err := json.Unmarshal(raw, &v); err != nil {
			return nil, fmt.Errorf("decode %s result: %w", action, err)
		}
		return v, nil
	}
}
