// internal/models/intent.go
package models

import (
	"encoding/json"
	"fmt"
)

const (
	ActionTransfer     = "transfer"
	ActionQueryBalance = "query_balance"
	ActionSwap         = "swap"
	ActionError        = "error"
)

// Intent is the interpreter's output. The set of implementations is closed;
// consumers switch on the concrete type.
type Intent interface {
	Action() string
	intent()
}

type TransferIntent struct {
	Asset     Asset  `json:"asset"`
	Amount    string `json:"amount"`
	Recipient string `json:"recipient"`
	Reply     string `json:"reply"`
}

type BalanceQueryIntent struct{}

type SwapIntent struct {
	FromAsset Asset  `json:"fromAsset"`
	ToAsset   Asset  `json:"toAsset"`
	Amount    string `json:"amount"`
	Reply     string `json:"reply"`
}

// ErrorIntent is a validation outcome, not a failure. Message is in the
// user's language.
type ErrorIntent struct {
	Message string `json:"message"`
}

func (TransferIntent) Action() string     { return ActionTransfer }
func (BalanceQueryIntent) Action() string { return ActionQueryBalance }
func (SwapIntent) Action() string         { return ActionSwap }
func (ErrorIntent) Action() string        { return ActionError }

func (TransferIntent) intent()     {}
func (BalanceQueryIntent) intent() {}
func (SwapIntent) intent()         {}
func (ErrorIntent) intent()        {}

func (i TransferIntent) MarshalJSON() ([]byte, error) {
	type plain TransferIntent
	return json.Marshal(struct {
		Action string `json:"action"`
		plain
	}{ActionTransfer, plain(i)})
}

func (i BalanceQueryIntent) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		Action string `json:"action"`
	}{ActionQueryBalance})
}

func (i SwapIntent) MarshalJSON() ([]byte, error) {
	type plain SwapIntent
	return json.Marshal(struct {
		Action string `json:"action"`
		plain
	}{ActionSwap, plain(i)})
}

func (i ErrorIntent) MarshalJSON() ([]byte, error) {
	type plain ErrorIntent
	return json.Marshal(struct {
		Action string `json:"action"`
		plain
	}{ActionError, plain(i)})
}

// DecodeIntent restores an Intent from its JSON form. It does not validate
// field contents; that is the interpreter's job.
func DecodeIntent(data []byte) (Intent, error) {
	var head struct {
		Action string `json:"action"`
	}
	if err := json.Unmarshal(data, &head); err != nil {
		return nil, fmt.Errorf("decode intent: %w", err)
	}

	switch head.Action {
	case ActionTransfer:
		var i TransferIntent
		err := json.Unmarshal(data, &i)
		return i, err
	case ActionQueryBalance:
		return BalanceQueryIntent{}, nil
	case ActionSwap:
		var i SwapIntent
		err := json.Unmarshal(data, &i)
		return i, err
	case ActionError:
		var i ErrorIntent
		err := json.Unmarshal(data, &i)
		return i, err
	default:
		return nil, fmt.Errorf("decode intent: unknown action %q", head.Action)
	}
}

// IntentEnvelope lets an Intent travel inside larger JSON documents such as
// job variables.
type IntentEnvelope struct {
	Intent Intent
}

func (e IntentEnvelope) MarshalJSON() ([]byte, error) {
	if e.Intent == nil {
		return []byte("null"), nil
	}
	return json.Marshal(e.Intent)
}

func (e *IntentEnvelope) UnmarshalJSON(data []byte) error {
	if string(data) == "null" {
		e.Intent = nil
		return nil
	}
	i, err := DecodeIntent(data)
	if err != nil {
		return err
	}
	e.Intent = i
	return nil
}
