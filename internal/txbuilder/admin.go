package txbuilder

import (
	"encoding/binary"

	"github.com/ailover379/solana-flash-loan-bot/internal/flashloan"
	"github.com/ailover379/solana-flash-loan-bot/internal/solana"
)

// AdminBuilder encodes the authority-gated pool operations.
type AdminBuilder struct {
	programID string
	authority string
}

// NewAdminBuilder creates an AdminBuilder signing as authority.
func NewAdminBuilder(programID, authority string) *AdminBuilder {
	return &AdminBuilder{programID: programID, authority: authority}
}

func (a *AdminBuilder) poolAccounts(asset string) (pool, reserve string, err error) {
	pool, err = flashloan.DerivePoolAddress(flashloan.PoolSeed, asset, a.programID)
	if err != nil {
		return "", "", err
	}
	reserve, err = flashloan.DerivePoolAddress(flashloan.VaultSeed, asset, a.programID)
	if err != nil {
		return "", "", err
	}
	return pool, reserve, nil
}

// InitializePool encodes pool creation for asset.
func (a *AdminBuilder) InitializePool(asset, beneficiary string, feeBps uint64) (*solana.Instruction, error) {
	pool, reserve, err := a.poolAccounts(asset)
	if err != nil {
		return nil, err
	}
	beneficiaryRaw, err := solana.DecodePubkey(beneficiary)
	if err != nil {
		return nil, err
	}

	data := make([]byte, 8, 48)
	copy(data, anchorDiscriminator("initialize"))
	data = append(data, beneficiaryRaw...)
	data = binary.LittleEndian.AppendUint64(data, feeBps)

	return &solana.Instruction{
		ProgramID: a.programID,
		Accounts: []solana.AccountMeta{
			{Pubkey: pool, IsWritable: true},
			{Pubkey: reserve, IsWritable: true},
			{Pubkey: asset},
			{Pubkey: a.authority, IsSigner: true, IsWritable: true},
			{Pubkey: SystemProgramID},
			{Pubkey: TokenProgramID},
		},
		Data: data,
	}, nil
}

// UpdateBeneficiary encodes a beneficiary change.
func (a *AdminBuilder) UpdateBeneficiary(asset, newBeneficiary string) (*solana.Instruction, error) {
	pool, _, err := a.poolAccounts(asset)
	if err != nil {
		return nil, err
	}
	beneficiaryRaw, err := solana.DecodePubkey(newBeneficiary)
	if err != nil {
		return nil, err
	}

	data := make([]byte, 8, 40)
	copy(data, anchorDiscriminator("update_beneficiary"))
	data = append(data, beneficiaryRaw...)

	return &solana.Instruction{
		ProgramID: a.programID,
		Accounts: []solana.AccountMeta{
			{Pubkey: pool, IsWritable: true},
			{Pubkey: a.authority, IsSigner: true},
		},
		Data: data,
	}, nil
}

// WithdrawFees encodes a fee withdrawal to recipient.
func (a *AdminBuilder) WithdrawFees(asset, recipient string, amount uint64) (*solana.Instruction, error) {
	pool, reserve, err := a.poolAccounts(asset)
	if err != nil {
		return nil, err
	}

	data := make([]byte, 8, 16)
	copy(data, anchorDiscriminator("withdraw_fees"))
	data = binary.LittleEndian.AppendUint64(data, amount)

	return &solana.Instruction{
		ProgramID: a.programID,
		Accounts: []solana.AccountMeta{
			{Pubkey: pool, IsWritable: true},
			{Pubkey: reserve, IsWritable: true},
			{Pubkey: recipient, IsWritable: true},
			{Pubkey: a.authority, IsSigner: true},
			{Pubkey: TokenProgramID},
		},
		Data: data,
	}, nil
}

// SetPauseState encodes the pause toggle.
func (a *AdminBuilder) SetPauseState(asset string, paused bool) (*solana.Instruction, error) {
	pool, _, err := a.poolAccounts(asset)
	if err != nil {
		return nil, err
	}

	data := make([]byte, 8, 9)
	copy(data, anchorDiscriminator("set_pause_state"))
	if paused {
		data = append(data, 1)
	} else {
		data = append(data, 0)
	}

	return &solana.Instruction{
		ProgramID: a.programID,
		Accounts: []solana.AccountMeta{
			{Pubkey: pool, IsWritable: true},
			{Pubkey: a.authority, IsSigner: true},
		},
		Data: data,
	}, nil
}
