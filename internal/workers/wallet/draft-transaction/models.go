// internal/workers/wallet/draft-transaction/models.go
package drafttransaction

import "milo-interpreter/internal/models"

type Input struct {
	Intent models.IntentEnvelope `json:"intent"`
	// Owner selects the stored address book when Contacts is empty.
	Owner    string           `json:"owner,omitempty"`
	Contacts []models.Contact `json:"contacts,omitempty"`
}

type Output struct {
	Transaction *TransactionHandle    `json:"transaction"`
	Intent      models.IntentEnvelope `json:"intent"`
}

// TransactionHandle is the builder's reference to an unsigned transaction.
type TransactionHandle struct {
	ID      string `json:"id"`
	TxBytes string `json:"txBytes,omitempty"`
	Digest  string `json:"digest,omitempty"`
}
