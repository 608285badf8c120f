package priority

import "github.com/sellerdesk/support-portal/internal/domain"

// GMVThreshold is the minimum 90-day GMV for a tier.
type GMVThreshold struct {
	Tier domain.GMVTier
	Min  float64
}

// DeriveGMVTier maps a GMV figure onto the highest tier whose threshold it
// reaches. Figures below every threshold land in the lowest tier.
func DeriveGMVTier(gmv90 float64, thresholds []GMVThreshold) domain.GMVTier {
	tier := domain.GMVTiers[0]
	best := -1.0
	for _, th := range thresholds {
		if gmv90 >= th.Min && th.Min >= best {
			tier = th.Tier
			best = th.Min
		}
	}
	return tier
}
