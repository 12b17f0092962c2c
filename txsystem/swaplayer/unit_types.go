package swaplayer

import (
	"crypto/sha256"
	"fmt"

	"github.com/wormholelabs-xyz/swap-layer/state"
	"github.com/wormholelabs-xyz/swap-layer/types"
	"github.com/wormholelabs-xyz/swap-layer/util"
)

const (
	UnitIDLength   = UnitPartLength + TypePartLength
	UnitPartLength = 32
	TypePartLength = 1
)

var (
	TokenAccountUnitType      = []byte{0x01}
	PreparedFillUnitType      = []byte{0x02}
	StagedOutboundUnitType    = []byte{0x03}
	StagedInboundUnitType     = []byte{0x04}
	TransferAuthorityUnitType = []byte{0x05}
	PeerUnitType              = []byte{0x06}
	CustodianUnitType         = []byte{0x07}
)

// Escrow and record addressing is deterministic: the unit part is a hash of
// a fixed seed tag and the owning entity's identity, so writer and reader
// recompute the same address independently.
const (
	seedTokenAccount   = "swap-layer/token-account"
	seedPreparedFill   = "swap-layer/prepared-fill"
	seedFillCustody    = "swap-layer/fill-custody"
	seedStagedOutbound = "swap-layer/staged-outbound"
	seedStagedCustody  = "swap-layer/staged-custody"
	seedStagedInbound  = "swap-layer/staged-inbound"
	seedSwapAuthority  = "swap-layer/swap-authority"
	seedSwapCustody    = "swap-layer/swap-custody"
	seedTransferAuth   = "swap-layer/transfer-authority"
	seedPeer           = "swap-layer/peer"
	seedCustodian      = "swap-layer/custodian"
	seedAsset          = "swap-layer/asset"
)

var (
	// AssetUsdc is the settlement asset all fills arrive in.
	AssetUsdc = assetID("usdc")
	// AssetGas represents the destination chain's native currency.
	AssetGas = assetID("gas")
)

// CustodianID is the singleton custodian unit.
var CustodianID = newUnitID(CustodianUnitType, []byte(seedCustodian))

// NewTokenAccountID derives the account of owner for the given asset.
func NewTokenAccountID(owner types.Address, asset types.Address) types.UnitID {
	return newUnitID(TokenAccountUnitType, []byte(seedTokenAccount), owner[:], asset[:])
}

// NewPreparedFillID derives a fill unit from the bridging layer's fill seed
// (e.g. the hash of the source-chain message).
func NewPreparedFillID(fillSeed []byte) types.UnitID {
	return newUnitID(PreparedFillUnitType, []byte(seedPreparedFill), fillSeed)
}

// NewFillCustodyTokenID derives the custody account holding a prepared
// fill's tokens until the fill is consumed.
func NewFillCustodyTokenID(preparedFill types.UnitID) types.UnitID {
	return newUnitID(TokenAccountUnitType, []byte(seedFillCustody), preparedFill)
}

// NewStagedOutboundID derives a staged outbound record from the hash of the
// exact staging request.
func NewStagedOutboundID(requestHash []byte) types.UnitID {
	return newUnitID(StagedOutboundUnitType, []byte(seedStagedOutbound), requestHash)
}

// NewStagedCustodyTokenID derives the custody account bound 1:1 to a staged
// outbound or staged inbound record.
func NewStagedCustodyTokenID(staged types.UnitID) types.UnitID {
	return newUnitID(TokenAccountUnitType, []byte(seedStagedCustody), staged)
}

// NewStagedInboundID derives the staged inbound record of a payload-mode
// fill. Keying by the prepared fill makes the init operation idempotent.
func NewStagedInboundID(preparedFill types.UnitID) types.UnitID {
	return newUnitID(StagedInboundUnitType, []byte(seedStagedInbound), preparedFill)
}

// NewSwapAuthorityID derives the transient per-fill swap authority.
func NewSwapAuthorityID(preparedFill types.UnitID) types.UnitID {
	return newUnitID(TransferAuthorityUnitType, []byte(seedSwapAuthority), preparedFill)
}

// NewSwapCustodyTokenID derives the custody account the swap venue debits or
// credits on behalf of a per-fill swap authority.
func NewSwapCustodyTokenID(swapAuthority types.UnitID, asset types.Address) types.UnitID {
	return newUnitID(TokenAccountUnitType, []byte(seedSwapCustody), swapAuthority, asset[:])
}

// NewTransferAuthorityID derives the single-use delegated transfer authority
// bound to the hash of an exact staging request.
func NewTransferAuthorityID(requestHash []byte) types.UnitID {
	return newUnitID(TransferAuthorityUnitType, []byte(seedTransferAuth), requestHash)
}

// NewPeerID derives the registered peer unit of a destination chain.
func NewPeerID(chain types.ChainID) types.UnitID {
	return newUnitID(PeerUnitType, []byte(seedPeer), util.Uint16ToBytes(uint16(chain)))
}

// NewUnitData constructs an empty UnitData of the type encoded in the unit
// ID, used when recovering a serialized state.
func NewUnitData(unitID types.UnitID) (state.UnitData, error) {
	switch {
	case unitID.HasType(TokenAccountUnitType):
		return &TokenAccountData{}, nil
	case unitID.HasType(PreparedFillUnitType):
		return &PreparedFillData{}, nil
	case unitID.HasType(StagedOutboundUnitType):
		return &StagedOutboundData{}, nil
	case unitID.HasType(StagedInboundUnitType):
		return &StagedInboundData{}, nil
	case unitID.HasType(TransferAuthorityUnitType):
		return &TransferAuthorityData{}, nil
	case unitID.HasType(PeerUnitType):
		return &PeerData{}, nil
	case unitID.HasType(CustodianUnitType):
		return &CustodianData{}, nil
	default:
		return nil, fmt.Errorf("unknown unit type in UnitID %s", unitID)
	}
}

func newUnitID(typePart []byte, seedParts ...[]byte) types.UnitID {
	hasher := sha256.New()
	for _, part := range seedParts {
		hasher.Write(part)
	}
	return types.NewUnitID(UnitIDLength, hasher.Sum(nil), typePart)
}

func assetID(name string) types.Address {
	a := sha256.Sum256([]byte(seedAsset + "/" + name))
	return a
}
