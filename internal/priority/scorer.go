// Package priority scores tickets into Critical/High/Medium/Low tiers.
package priority

import (
	"slices"

	"github.com/sellerdesk/support-portal/internal/domain"
)

// Breakdown keys.
const (
	FactorGMVTier  = "gmvTier"
	FactorCategory = "category"
	FactorVolume   = "ticketVolume"
	FactorRepeat   = "repeatHistory"
)

// Bucket awards Points once a count reaches Min.
type Bucket struct {
	Min    int
	Points int
}

// Thresholds are the minimum scores for the top three tiers.
type Thresholds struct {
	Critical int
	High     int
	Medium   int
}

// Tables holds the point tables. Values come from the policy file.
type Tables struct {
	GMVTierPoints   map[domain.GMVTier]int
	IssueTypePoints map[domain.IssueType]int
	VolumeBuckets   []Bucket
	RepeatBuckets   []Bucket
	Thresholds      Thresholds
}

// Result is the scorer output.
type Result struct {
	Score     int
	Tier      domain.PriorityTier
	Badge     domain.PriorityBadge
	Breakdown map[string]int
}

// Snapshot converts the result into its frozen form.
func (r Result) Snapshot() *domain.PrioritySnapshot {
	breakdown := make(map[string]int, len(r.Breakdown))
	for k, v := range r.Breakdown {
		breakdown[k] = v
	}
	return &domain.PrioritySnapshot{Score: r.Score, Tier: r.Tier, Badge: r.Badge, Breakdown: breakdown}
}

// Scorer computes priority from immutable tables. Safe for concurrent use.
type Scorer struct {
	gmv        map[domain.GMVTier]int
	issue      map[domain.IssueType]int
	volume     []Bucket
	repeat     []Bucket
	thresholds Thresholds
}

// NewScorer copies tables and sorts the buckets by ascending Min.
func NewScorer(tables Tables) *Scorer {
	s := &Scorer{
		gmv:        make(map[domain.GMVTier]int, len(tables.GMVTierPoints)),
		issue:      make(map[domain.IssueType]int, len(tables.IssueTypePoints)),
		volume:     sortedBuckets(tables.VolumeBuckets),
		repeat:     sortedBuckets(tables.RepeatBuckets),
		thresholds: tables.Thresholds,
	}
	for k, v := range tables.GMVTierPoints {
		s.gmv[k] = nonNegative(v)
	}
	for k, v := range tables.IssueTypePoints {
		s.issue[k] = nonNegative(v)
	}
	return s
}

// Score sums the independent factors and thresholds the total into a tier.
// Missing inputs contribute zero. history is computed by the caller over
// its own time window.
func (s *Scorer) Score(ticket *domain.Ticket, vendor *domain.Vendor, category *domain.Category, history *domain.VendorTicketHistory) Result {
	breakdown := map[string]int{
		FactorGMVTier:  0,
		FactorCategory: 0,
		FactorVolume:   0,
		FactorRepeat:   0,
	}
	if vendor != nil && (ticket == nil || ticket.Kind() == domain.TicketKindSeller) {
		breakdown[FactorGMVTier] = s.gmv[vendor.GMVTier]
	}
	if category != nil {
		breakdown[FactorCategory] = s.issue[category.IssueType]
	}
	if history != nil {
		breakdown[FactorVolume] = bucketPoints(s.volume, history.TicketCount)
		breakdown[FactorRepeat] = bucketPoints(s.repeat, history.SameCategoryCount)
	}

	total := 0
	for _, v := range breakdown {
		total += v
	}
	tier := s.tierFor(total)
	return Result{Score: total, Tier: tier, Badge: tier.Badge(), Breakdown: breakdown}
}

func (s *Scorer) tierFor(score int) domain.PriorityTier {
	switch {
	case score >= s.thresholds.Critical:
		return domain.PriorityTierCritical
	case score >= s.thresholds.High:
		return domain.PriorityTierHigh
	case score >= s.thresholds.Medium:
		return domain.PriorityTierMedium
	default:
		return domain.PriorityTierLow
	}
}

func bucketPoints(buckets []Bucket, count int) int {
	points := 0
	for _, b := range buckets {
		if count >= b.Min {
			points = b.Points
		}
	}
	return points
}

func sortedBuckets(in []Bucket) []Bucket {
	out := make([]Bucket, 0, len(in))
	for _, b := range in {
		out = append(out, Bucket{Min: b.Min, Points: nonNegative(b.Points)})
	}
	slices.SortStableFunc(out, func(a, b Bucket) int { return a.Min - b.Min })
	return out
}

func nonNegative(v int) int {
	if v < 0 {
		return 0
	}
	return v
}

// IssuePoints returns the configured weight for an issue type.
func (s *Scorer) IssuePoints(issueType domain.IssueType) int {
	return s.issue[issueType]
}
