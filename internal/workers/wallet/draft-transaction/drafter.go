package drafttransaction

import (
	"context"
	stderrors "errors"
	"fmt"

	"milo-interpreter/internal/common/errors"
	"milo-interpreter/internal/common/validation"
	"milo-interpreter/internal/contacts"
	"milo-interpreter/internal/lexicon"
	"milo-interpreter/internal/models"
)

var errEmptyHandle = stderrors.New("builder returned an empty transaction handle")

type Drafter struct {
	builder Builder
	logger  Logger
}

func NewDrafter(builder Builder, log Logger) *Drafter {
	return &Drafter{builder: builder, logger: log}
}

// Draft builds an unsigned transaction for a transfer or swap and returns
// it with the intent actually sent to the builder. A transfer's recipient is
// resolved again; if that fails but the interpreter already produced a
// literal address, the address is kept.
func (d *Drafter) Draft(ctx context.Context, intent models.Intent, resolver contacts.Resolver) (*TransactionHandle, models.Intent, error) {
	switch in := intent.(type) {
	case models.TransferIntent:
		amount, err := checkAmount(in.Asset, in.Amount)
		if err != nil {
			return nil, nil, err
		}
		in.Amount = amount
		recipient, err := d.resolveRecipient(ctx, in.Recipient, resolver)
		if err != nil {
			return nil, nil, err
		}
		in.Recipient = recipient
		intent = in

	case models.SwapIntent:
		amount, err := checkAmount(in.FromAsset, in.Amount)
		if err != nil {
			return nil, nil, err
		}
		in.Amount = amount
		if !models.IsWhitelisted(string(in.ToAsset)) || in.FromAsset == in.ToAsset {
			return nil, nil, errors.NewInvalidRequestError(fmt.Sprintf("cannot swap %s to %s", in.FromAsset, in.ToAsset))
		}
		intent = in

	case nil:
		return nil, nil, errors.NewInvalidRequestError("intent is required")

	default:
		return nil, nil, errors.NewInvalidRequestError(fmt.Sprintf("%s intents do not produce a transaction", intent.Action()))
	}

	handle, err := d.builder.Build(ctx, intent)
	if err != nil {
		return nil, nil, err
	}

	d.logger.Info("transaction drafted", map[string]interface{}{
		"action":        intent.Action(),
		"transactionId": handle.ID,
	})
	return handle, intent, nil
}

func (d *Drafter) resolveRecipient(ctx context.Context, recipient string, resolver contacts.Resolver) (string, error) {
	if resolver == nil {
		resolver = contacts.NewSnapshotResolver(nil)
	}

	resolved, err := resolver.Resolve(ctx, recipient)
	if err == nil {
		return resolved, nil
	}
	if validation.LooksLikeAddress(recipient) {
		d.logger.Warn("recipient re-resolution failed, keeping interpreted address", map[string]interface{}{
			"recipient": recipient,
			"error":     err.Error(),
		})
		return recipient, nil
	}
	if errors.CodeOf(err) == errors.ErrCodeContactResolutionFailed {
		return "", err
	}
	return "", errors.NewContactResolutionFailedError(recipient)
}

// checkAmount validates the asset and returns the canonical amount.
func checkAmount(asset models.Asset, amount string) (string, error) {
	if !models.IsWhitelisted(string(asset)) {
		return "", errors.NewInvalidRequestError(fmt.Sprintf("asset %q is not supported", asset))
	}
	canonical, ok := lexicon.CanonicalAmount(amount)
	if !ok {
		return "", errors.NewInvalidRequestError(fmt.Sprintf("amount %q is not a positive decimal", amount))
	}
	return canonical, nil
}
