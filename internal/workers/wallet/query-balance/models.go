// internal/workers/wallet/query-balance/models.go
package querybalance

import "milo-interpreter/internal/models"

type Input struct {
	Address string       `json:"address"`
	Asset   models.Asset `json:"asset,omitempty"`
	// Language picks the reply language; empty means English.
	Language string `json:"language,omitempty"`
}

type Output struct {
	Address   string       `json:"address"`
	Asset     models.Asset `json:"asset"`
	Supported bool         `json:"supported"`
	Balance   *float64     `json:"balance,omitempty"`
	Message   string       `json:"message"`
}
