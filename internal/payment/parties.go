package payment

import "fmt"

// ExtractFirstTransferParties returns the sender and receiver of a simple
// transfer, taken positionally as account keys 0 and 1. This matches the
// layout of a single-instruction system transfer built by a wallet and is
// not a general instruction decoder.
func ExtractFirstTransferParties(tx *Transaction) (sender, receiver string, err error) {
	if tx == nil {
		return "", "", fmt.Errorf("%w: nil transaction", ErrUnexpected)
	}
	keys := tx.Message.AccountKeys
	if len(keys) < 2 {
		return "", "", fmt.Errorf("%w: transaction has %d account keys", ErrUnexpected, len(keys))
	}
	return keys[0], keys[1], nil
}

// senderDelta returns how much account 0 paid in SOL, fee included.
func senderDelta(meta *Meta) (float64, error) {
	if len(meta.PreBalances) == 0 || len(meta.PostBalances) == 0 {
		return 0, fmt.Errorf("%w: balances missing", ErrMetadataMissing)
	}
	lamports := int64(meta.PreBalances[0]) - int64(meta.PostBalances[0])
	return float64(lamports) / LamportsPerSOL, nil
}
