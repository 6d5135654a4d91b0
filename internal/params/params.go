// Package params defines the network-wide constants a wallet core needs:
// consensus branch upgrade schedule and payment-address HRPs, grounded on
// zcash_wallet/src/constants.rs.
package params

// Upgrade is one entry in a network's consensus-branch upgrade schedule:
// the branch id active from the given activation height onward.
type Upgrade struct {
	BranchID       uint32
	ActivationHeight uint32
}

// UpgradesMain is the mainnet upgrade schedule, oldest first.
var UpgradesMain = []Upgrade{
	{BranchID: 0, ActivationHeight: 0},          // Sprout
	{BranchID: 0x5ba81b19, ActivationHeight: 347500}, // Overwinter
	{BranchID: 0x76b809bb, ActivationHeight: 419200}, // Sapling
}

// UpgradesTest is the testnet upgrade schedule.
var UpgradesTest = []Upgrade{
	{BranchID: 0, ActivationHeight: 0},
	{BranchID: 0x5ba81b19, ActivationHeight: 207500},
	{BranchID: 0x76b809bb, ActivationHeight: 280000},
}

// HRP values for bech32-encoded Sapling payment addresses.
const (
	HRPSaplingMain = "zs"
	HRPSaplingTest = "ztestsapling"
)

// Coin types for ZIP-32-analog HD derivation paths.
const (
	CoinTypeMain = 133
	CoinTypeTest = 1
)

// ConsensusBranchID returns the branch id active at height, mirroring
// ChainManager::consensus_branch_id: the last upgrade in the schedule whose
// activation height is at most height.
func ConsensusBranchID(schedule []Upgrade, height uint32) uint32 {
	branch := schedule[0].BranchID
	for _, u := range schedule {
		if u.ActivationHeight > height {
			break
		}
		branch = u.BranchID
	}
	return branch
}
