package solanarpc

import (
	"fmt"

	"github.com/gagliardetto/solana-go"
	"github.com/gagliardetto/solana-go/rpc"

	"github.com/smithos/smithos-backend/internal/payment"
)

func convertStatus(s *rpc.SignatureStatusesResult) payment.SignatureStatus {
	if s == nil {
		return payment.SignatureStatus{}
	}
	return payment.SignatureStatus{
		Found:        true,
		Confirmation: payment.Commitment(s.ConfirmationStatus),
		Err:          errString(s.Err),
	}
}

func convertTransaction(sig string, tx *solana.Transaction, meta *rpc.TransactionMeta, blockTime *solana.UnixTimeSeconds) *payment.Transaction {
	out := &payment.Transaction{Signature: sig}

	if blockTime != nil {
		t := blockTime.Time().UTC()
		out.BlockTime = &t
	}

	if tx != nil {
		keys := tx.Message.AccountKeys
		out.Message.AccountKeys = make([]string, len(keys))
		for i, k := range keys {
			out.Message.AccountKeys[i] = k.String()
		}

		out.Message.Instructions = make([]payment.Instruction, len(tx.Message.Instructions))
		for i, ix := range tx.Message.Instructions {
			conv := payment.Instruction{Accounts: make([]int, len(ix.Accounts))}
			if int(ix.ProgramIDIndex) < len(keys) {
				conv.ProgramID = keys[ix.ProgramIDIndex].String()
			}
			for j, a := range ix.Accounts {
				conv.Accounts[j] = int(a)
			}
			out.Message.Instructions[i] = conv
		}
	}

	if meta != nil {
		out.Meta = &payment.Meta{
			PreBalances:  meta.PreBalances,
			PostBalances: meta.PostBalances,
			Err:          errString(meta.Err),
		}
	}
	return out
}

func errString(v interface{}) string {
	if v == nil {
		return ""
	}
	return fmt.Sprint(v)
}
