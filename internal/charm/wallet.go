package charm

import "charmstudio/internal/hashutil"

const (
	// StudioVK is the verification key every studio-proven charm carries.
	StudioVK = "8e877d70518a5b28f5221e70bd7ff7692a603f3a26d7076a5253e21c304a354f"

	// MockUTXO seeds the studio app identity.
	MockUTXO = "d8fa4cdade7ac3dff64047dc73b58591ebe638579881b200d4fea68fc84521f0:0"

	// OwnerAddress is the default change address of the studio wallet.
	OwnerAddress = "tb1p3w06fgh64axkj3uphn4t258ehweccm367vkdhkvz8qzdagjctm8qaw2xyv"

	// CommitTxPrefix and SpellTxPrefix open the fabricated transaction hex.
	CommitTxPrefix = "02000000000101"
	SpellTxPrefix  = "02000000000102"
)

// AppID is the app identity derived from MockUTXO.
func AppID() string {
	return hashutil.SHA256Hex(MockUTXO)
}

// Wallet is the funding wallet shown in the sidebar and used as charm owner.
type Wallet struct {
	FundingUTXO   string `yaml:"funding_utxo" json:"fundingUtxo"`
	FundingValue  string `yaml:"funding_value" json:"fundingValue"`
	ChangeAddress string `yaml:"change_address" json:"changeAddress"`
}

// DefaultWallet returns the studio's demo wallet.
func DefaultWallet() Wallet {
	return Wallet{
		FundingUTXO:   "2d6d1603f0738085f2035d496baf2b91a639d204b414ea180beb417a3e09f84e:1",
		FundingValue:  "50000",
		ChangeAddress: OwnerAddress,
	}
}
