package domain

import "time"

// GMVTier buckets vendors by 90-day gross merchandise value.
type GMVTier string

const (
	GMVTierS        GMVTier = "S"
	GMVTierBronze   GMVTier = "Bronze"
	GMVTierM        GMVTier = "M"
	GMVTierSilver   GMVTier = "Silver"
	GMVTierL        GMVTier = "L"
	GMVTierXL       GMVTier = "XL"
	GMVTierGold     GMVTier = "Gold"
	GMVTierPlatinum GMVTier = "Platinum"
)

// GMVTiers is ordered by ascending threshold.
var GMVTiers = []GMVTier{
	GMVTierS, GMVTierBronze, GMVTierM, GMVTierSilver,
	GMVTierL, GMVTierXL, GMVTierGold, GMVTierPlatinum,
}

// Rank returns the position of the tier in GMVTiers, or -1 when unknown.
func (t GMVTier) Rank() int {
	for i, tier := range GMVTiers {
		if tier == t {
			return i
		}
	}
	return -1
}

// Vendor is a seller account. Handle is the immutable identity; the other
// attributes are refreshed by the external reference-data sync.
type Vendor struct {
	Handle    string
	Name      string
	GMV90Day  float64
	GMVTier   GMVTier
	Region    string
	Zone      string
	Country   string
	KAMEmail  string
	UpdatedAt time.Time
}

// VendorTicketHistory summarizes a vendor's recent tickets. The caller
// computes it over its own window (90 days by default).
type VendorTicketHistory struct {
	TicketCount       int
	SameCategoryCount int
	WindowDays        int
}
