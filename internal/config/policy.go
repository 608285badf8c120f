package config

import (
	_ "embed"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/sellerdesk/support-portal/internal/domain"
	"github.com/sellerdesk/support-portal/internal/priority"
)

//go:embed policy.yaml
var defaultPolicy []byte

// Policy is the role permission table and the priority point tables.
type Policy struct {
	Roles    map[domain.Role][]string   `yaml:"roles"`
	Priority PriorityPolicy             `yaml:"priority"`
	GMVTiers map[domain.GMVTier]float64 `yaml:"gmv_tiers"`
}

// PriorityPolicy mirrors priority.Tables in YAML form.
type PriorityPolicy struct {
	GMVTierPoints   map[domain.GMVTier]int   `yaml:"gmv_tier_points"`
	IssueTypePoints map[domain.IssueType]int `yaml:"issue_type_points"`
	TicketVolume    []BucketPolicy           `yaml:"ticket_volume"`
	RepeatHistory   []BucketPolicy           `yaml:"repeat_history"`
	Thresholds      ThresholdPolicy          `yaml:"thresholds"`
}

// BucketPolicy is one count bucket.
type BucketPolicy struct {
	Min    int `yaml:"min"`
	Points int `yaml:"points"`
}

// ThresholdPolicy holds the tier cut-offs.
type ThresholdPolicy struct {
	Critical int `yaml:"critical"`
	High     int `yaml:"high"`
	Medium   int `yaml:"medium"`
}

// LoadPolicy reads path, or the embedded default when path is empty.
func LoadPolicy(path string) (*Policy, error) {
	raw := defaultPolicy
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read policy file: %w", err)
		}
		raw = data
	}
	return ParsePolicy(raw)
}

// ParsePolicy decodes and validates a policy document.
func ParsePolicy(raw []byte) (*Policy, error) {
	var p Policy
	if err := yaml.Unmarshal(raw, &p); err != nil {
		return nil, fmt.Errorf("decode policy: %w", err)
	}
	if err := p.validate(); err != nil {
		return nil, err
	}
	return &p, nil
}

func (p *Policy) validate() error {
	for role := range p.Roles {
		if !role.Valid() {
			return fmt.Errorf("policy: unknown role %q", role)
		}
	}
	for tier, points := range p.Priority.GMVTierPoints {
		if tier.Rank() < 0 {
			return fmt.Errorf("policy: unknown gmv tier %q", tier)
		}
		if points < 0 {
			return fmt.Errorf("policy: negative points for gmv tier %q", tier)
		}
	}
	prev := -1
	for _, tier := range domain.GMVTiers {
		points, ok := p.Priority.GMVTierPoints[tier]
		if !ok {
			continue
		}
		if points < prev {
			return fmt.Errorf("policy: gmv tier points must not decrease with tier rank (%s)", tier)
		}
		prev = points
	}
	t := p.Priority.Thresholds
	if !(t.Critical >= t.High && t.High >= t.Medium && t.Medium >= 0) {
		return fmt.Errorf("policy: thresholds must satisfy critical >= high >= medium >= 0")
	}
	return nil
}

// PriorityTables converts the policy into scorer tables.
func (p *Policy) PriorityTables() priority.Tables {
	convert := func(in []BucketPolicy) []priority.Bucket {
		out := make([]priority.Bucket, 0, len(in))
		for _, b := range in {
			out = append(out, priority.Bucket{Min: b.Min, Points: b.Points})
		}
		return out
	}
	return priority.Tables{
		GMVTierPoints:   p.gmvTierPoints(),
		IssueTypePoints: p.Priority.IssueTypePoints,
		VolumeBuckets:   convert(p.Priority.TicketVolume),
		RepeatBuckets:   convert(p.Priority.RepeatHistory),
		Thresholds: priority.Thresholds{
			Critical: p.Priority.Thresholds.Critical,
			High:     p.Priority.Thresholds.High,
			Medium:   p.Priority.Thresholds.Medium,
		},
	}
}

// gmvTierPoints fills every tier. A tier missing from the policy scores the
// same as the next lower tier, so points stay monotonic with tier rank.
func (p *Policy) gmvTierPoints() map[domain.GMVTier]int {
	out := make(map[domain.GMVTier]int, len(domain.GMVTiers))
	carry := 0
	for _, tier := range domain.GMVTiers {
		if points, ok := p.Priority.GMVTierPoints[tier]; ok {
			carry = points
		}
		out[tier] = carry
	}
	return out
}

// GMVThresholds returns the tier thresholds for DeriveGMVTier.
func (p *Policy) GMVThresholds() []priority.GMVThreshold {
	out := make([]priority.GMVThreshold, 0, len(p.GMVTiers))
	for _, tier := range domain.GMVTiers {
		if floor, ok := p.GMVTiers[tier]; ok {
			out = append(out, priority.GMVThreshold{Tier: tier, Min: floor})
		}
	}
	return out
}
