package solana

import (
	"bytes"
	"encoding/base64"
	"fmt"

	"github.com/mr-tron/base58"
)

// MaxTransactionSize is the Solana packet limit for a serialized transaction.
const MaxTransactionSize = 1232

// AccountMeta describes one account referenced by an instruction.
type AccountMeta struct {
	Pubkey     string
	IsSigner   bool
	IsWritable bool
}

// Instruction is a single program invocation inside a transaction.
type Instruction struct {
	ProgramID string
	Accounts  []AccountMeta
	Data      []byte
}

// Transaction is a signed legacy Solana transaction.
type Transaction struct {
	Signatures [][]byte
	message    []byte
}

// NewTransaction compiles instructions into a legacy message, signs it with
// payer (the fee payer and sole signer this bot ever needs), and returns the
// assembled transaction.
func NewTransaction(payer *Keypair, recentBlockhash string, instructions []Instruction) (*Transaction, error) {
	msg, err := compileMessage(payer.Pubkey(), recentBlockhash, instructions)
	if err != nil {
		return nil, err
	}
	sig := payer.Sign(msg)
	return &Transaction{
		Signatures: [][]byte{sig},
		message:    msg,
	}, nil
}

// Serialize returns the wire-format transaction bytes.
func (t *Transaction) Serialize() []byte {
	var buf bytes.Buffer
	writeCompactU16(&buf, len(t.Signatures))
	for _, sig := range t.Signatures {
		buf.Write(sig)
	}
	buf.Write(t.message)
	return buf.Bytes()
}

// Base64 returns the base64-encoded wire format used by sendTransaction.
func (t *Transaction) Base64() string {
	return base64.StdEncoding.EncodeToString(t.Serialize())
}

// Size returns the serialized transaction size in bytes.
func (t *Transaction) Size() int {
	return len(t.Serialize())
}

// Signature returns the base58 transaction signature (the payer's).
func (t *Transaction) Signature() string {
	if len(t.Signatures) == 0 {
		return ""
	}
	return base58.Encode(t.Signatures[0])
}

// TransactionSize computes the serialized size of instructions signed by a
// single payer, without requiring a real blockhash or key. Used for the
// packet-limit check before submission.
func TransactionSize(payer string, instructions []Instruction) (int, error) {
	msg, err := compileMessage(payer, ZeroAddress, instructions)
	if err != nil {
		return 0, err
	}
	// 1 byte signature count + one 64-byte signature + message.
	return 1 + 64 + len(msg), nil
}

// compiledAccount tracks the role of one account across all instructions.
type compiledAccount struct {
	pubkey   string
	signer   bool
	writable bool
}

// compileMessage builds the legacy message: header, account keys ordered by
// privilege (signer-writable, signer-readonly, nonsigner-writable,
// nonsigner-readonly), blockhash, then compiled instructions.
func compileMessage(payer, recentBlockhash string, instructions []Instruction) ([]byte, error) {
	if len(instructions) == 0 {
		return nil, fmt.Errorf("no instructions to compile")
	}

	order := []string{payer}
	accounts := map[string]*compiledAccount{
		payer: {pubkey: payer, signer: true, writable: true},
	}
	upsert := func(pubkey string, signer, writable bool) {
		if acc, ok := accounts[pubkey]; ok {
			acc.signer = acc.signer || signer
			acc.writable = acc.writable || writable
			return
		}
		accounts[pubkey] = &compiledAccount{pubkey: pubkey, signer: signer, writable: writable}
		order = append(order, pubkey)
	}

	for _, ix := range instructions {
		for _, meta := range ix.Accounts {
			upsert(meta.Pubkey, meta.IsSigner, meta.IsWritable)
		}
		upsert(ix.ProgramID, false, false)
	}

	var signerWritable, signerReadonly, writable, readonly []*compiledAccount
	for _, pubkey := range order {
		acc := accounts[pubkey]
		switch {
		case acc.signer && acc.writable:
			signerWritable = append(signerWritable, acc)
		case acc.signer:
			signerReadonly = append(signerReadonly, acc)
		case acc.writable:
			writable = append(writable, acc)
		default:
			readonly = append(readonly, acc)
		}
	}

	keys := make([]string, 0, len(order))
	index := make(map[string]int, len(order))
	for _, group := range [][]*compiledAccount{signerWritable, signerReadonly, writable, readonly} {
		for _, acc := range group {
			index[acc.pubkey] = len(keys)
			keys = append(keys, acc.pubkey)
		}
	}

	blockhash, err := DecodePubkey(recentBlockhash)
	if err != nil {
		return nil, fmt.Errorf("decode blockhash: %w", err)
	}

	var buf bytes.Buffer
	// Header: required signatures, readonly signed, readonly unsigned.
	buf.WriteByte(byte(len(signerWritable) + len(signerReadonly)))
	buf.WriteByte(byte(len(signerReadonly)))
	buf.WriteByte(byte(len(readonly)))

	writeCompactU16(&buf, len(keys))
	for _, key := range keys {
		raw, err := DecodePubkey(key)
		if err != nil {
			return nil, err
		}
		buf.Write(raw)
	}

	buf.Write(blockhash)

	writeCompactU16(&buf, len(instructions))
	for _, ix := range instructions {
		buf.WriteByte(byte(index[ix.ProgramID]))
		writeCompactU16(&buf, len(ix.Accounts))
		for _, meta := range ix.Accounts {
			buf.WriteByte(byte(index[meta.Pubkey]))
		}
		writeCompactU16(&buf, len(ix.Data))
		buf.Write(ix.Data)
	}

	return buf.Bytes(), nil
}

// writeCompactU16 writes n in the compact-u16 (shortvec) encoding.
func writeCompactU16(buf *bytes.Buffer, n int) {
	v := uint16(n)
	for {
		b := byte(v & 0x7f)
		v >>= 7
		if v == 0 {
			buf.WriteByte(b)
			return
		}
		buf.WriteByte(b | 0x80)
	}
}
