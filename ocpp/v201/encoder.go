package v201

import (
	"encoding/json"
	"fmt"

	"csms/ocpp/core"
)

// CommandEncoder implements ocpp/adapter.CommandEncoder for OCPP 2.0.1.
// The 2.0.1 action names differ from 1.6's for the transaction commands
// (RequestStartTransaction/RequestStopTransaction), so those two get a
// reshaping step; everything else already matches the core.Command shape.
type CommandEncoder struct{}

type requestStartTransactionPayload struct {
	IdToken     IdTokenType `json:"idToken"`
	RemoteStartId int       `json:"remoteStartId"`
	EVSEId      *int        `json:"evseId,omitempty"`
}

type requestStopTransactionPayload struct {
	TransactionId string `json:"transactionId"`
}

func (CommandEncoder) EncodeCommand(action string, payload interface{}) (json.RawMessage, error) {
	switch action {
	case core.ActionRemoteStartTransaction:
		p, ok := payload.(core.RemoteStartTransactionPayload)
		if !ok {
			return nil, fmt.Errorf("unexpected payload type for %s", action)
		}
		return json.Marshal(requestStartTransactionPayload{
			IdToken:       IdTokenType{IdToken: p.IdTag, Type: "Central"},
			RemoteStartId: 1,
			EVSEId:        p.ConnectorId,
		})
	case core.ActionRemoteStopTransaction:
		p, ok := payload.(core.RemoteStopTransactionPayload)
		if !ok {
			return nil, fmt.Errorf("unexpected payload type for %s", action)
		}
		return json.Marshal(requestStopTransactionPayload{TransactionId: fmt.Sprintf("%d", p.TransactionId)})
	default:
		return json.Marshal(payload)
	}
}

// WireAction translates a core.Command action name into the 2.0.1 wire
// action name, since RemoteStartTransaction/RemoteStopTransaction became
// RequestStartTransaction/RequestStopTransaction in this version.
func (CommandEncoder) WireAction(coreAction string) string {
	switch coreAction {
	case core.ActionRemoteStartTransaction:
		return "RequestStartTransaction"
	case core.ActionRemoteStopTransaction:
		return "RequestStopTransaction"
	default:
		return coreAction
	}
}

func (CommandEncoder) DecodeResult(action string, raw json.RawMessage) (interface{}, error) {
	var v map[string]interface{}
	if err := json.Unmarshal(raw, &v); err != nil {
		return nil, fmt.Errorf("decode %s result: %w", action, err)
	}
	return v, nil
}
