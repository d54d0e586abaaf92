package filters

import (
	"context"
	"fmt"

	"github.com/aman-zulfiqar/raydium-sniper/internal/raydium"
	"github.com/gagliardetto/solana-go"
	"github.com/near/borsh-go"
)

// Metadata is the leading part of a Metaplex token metadata account. Fields
// after IsMutable are not needed.
type Metadata struct {
	Key                 uint8
	UpdateAuthority     solana.PublicKey
	Mint                solana.PublicKey
	Data                MetadataData
	PrimarySaleHappened bool
	IsMutable           bool
}

type MetadataData struct {
	Name                 string
	Symbol               string
	Uri                  string
	SellerFeeBasisPoints uint16
	Creators             *[]Creator
}

type Creator struct {
	Address  solana.PublicKey
	Verified bool
	Share    uint8
}

func DecodeMetadata(data []byte) (Metadata, error) {
	var md Metadata
	if err := borsh.Deserialize(&md, data); err != nil {
		return md, fmt.Errorf("decode metadata: %w", err)
	}
	return md, nil
}

// MutableFilter rejects tokens whose metadata can still be changed.
type MutableFilter struct {
	accounts *accounts
	verdicts *verdictCache
}

func (f *MutableFilter) Name() string { return "mutable" }

func (f *MutableFilter) Execute(ctx context.Context, keys *raydium.PoolKeys) (Result, error) {
	cacheKey := "immutable:" + keys.BaseMint.String()
	if f.verdicts.known(ctx, cacheKey) {
		return Result{Ok: true}, nil
	}

	addr, _, err := solana.FindTokenMetadataAddress(keys.BaseMint)
	if err != nil {
		return Result{}, fmt.Errorf("derive metadata address: %w", err)
	}

	data, err := f.accounts.data(ctx, addr)
	if err != nil {
		return Result{}, err
	}
	md, err := DecodeMetadata(data)
	if err != nil {
		return Result{}, err
	}

	if md.IsMutable {
		return Result{Reason: "metadata is mutable"}, nil
	}
	f.verdicts.remember(ctx, cacheKey)
	return Result{Ok: true}, nil
}
