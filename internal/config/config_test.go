package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sellerdesk/support-portal/internal/domain"
	"github.com/sellerdesk/support-portal/internal/sla"
)

func TestChannelTable(t *testing.T) {
	table := ChannelTable([]string{
		"SLACK_CHANNEL_URGENT=C-URGENT",
		"SLACK_CHANNEL_ESCALATION=C-ESC",
		"SLACK_CHANNEL_SLA_BREACH=C-SLA",
		"SLACK_CHANNEL_DEFAULT=C-DEFAULT",
		"SLACK_CHANNEL_DEPT_OPERATIONS=C-OPS",
		"SLACK_CHANNEL_DEPT_SELLER_OPS=C-SELLER",
		"SLACK_CHANNEL_DEPT_EMPTY=",
		"SLACK_CHANNEL_CX_RETURNS=C-CX-RET",
		"SLACK_CHANNEL_DEPT_=ignored",
		"PATH=/usr/bin",
	})

	assert.Equal(t, "C-URGENT", table.Urgent)
	assert.Equal(t, "C-ESC", table.Escalation)
	assert.Equal(t, "C-SLA", table.SLABreach)
	assert.Equal(t, "C-DEFAULT", table.Fallback)
	assert.Equal(t, map[string]string{"OPERATIONS": "C-OPS", "SELLER_OPS": "C-SELLER"}, table.Departments)
	assert.Equal(t, map[string]string{"RETURNS": "C-CX-RET"}, table.CXSubteams)
}

func TestParseHolidaysAndWorkdays(t *testing.T) {
	hols, err := parseHolidays("01-01, 12-25")
	require.NoError(t, err)
	assert.Equal(t, []sla.Holiday{
		{Name: "01-01", Month: time.January, Day: 1},
		{Name: "12-25", Month: time.December, Day: 25},
	}, hols)

	_, err = parseHolidays("13-40")
	assert.Error(t, err)

	days, err := parseWorkdays("sun,mon")
	require.NoError(t, err)
	assert.Equal(t, []time.Weekday{time.Sunday, time.Monday}, days)

	_, err = parseWorkdays("funday")
	assert.Error(t, err)

	for _, raw := range []string{",", " ", " , "} {
		_, err = parseWorkdays(raw)
		assert.ErrorContains(t, err, "at least one day", raw)
	}
}

func TestLoadRejectsEmptyWorkdays(t *testing.T) {
	t.Setenv("SLA_WORKDAYS", ",")

	_, err := Load()
	assert.ErrorContains(t, err, "SLA_WORKDAYS")

	_, err = SLAConfig{Timezone: "UTC"}.CalendarOptions()
	assert.ErrorContains(t, err, "no workdays")
}

func TestLoadDefaults(t *testing.T) {
	t.Setenv("SLA_TIMEZONE", "UTC")
	t.Setenv("SLACK_CHANNEL_DEFAULT", "C-DEF")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "@every 5m", cfg.SLA.MonitorSchedule)
	assert.Equal(t, "C-DEF", cfg.Slack.Channels.Fallback)

	opts, err := cfg.SLA.CalendarOptions()
	require.NoError(t, err)
	assert.Equal(t, time.UTC.String(), opts.Location.String())
	assert.Equal(t, 9*time.Hour, opts.DayStart)
	assert.Equal(t, 2*time.Hour, opts.AtRiskFor)
}

func TestDefaultPolicy(t *testing.T) {
	p, err := LoadPolicy("")
	require.NoError(t, err)

	assert.Contains(t, p.Roles[domain.RoleOwner], "edit:tickets")
	assert.Equal(t, []string{"view:tickets"}, p.Roles[domain.RoleViewer])

	tables := p.PriorityTables()
	assert.Equal(t, 40, tables.GMVTierPoints[domain.GMVTierPlatinum])
	assert.Equal(t, 30, tables.IssueTypePoints[domain.IssueTypeComplaint])
	assert.Equal(t, 80, tables.Thresholds.Critical)
	assert.Len(t, tables.VolumeBuckets, 3)

	assert.Len(t, p.GMVThresholds(), len(domain.GMVTiers))
}

func TestPolicyOverrideFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "policy.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
roles:
  Agent: [view:tickets]
priority:
  thresholds: {critical: 10, high: 5, medium: 1}
`), 0o600))

	p, err := LoadPolicy(path)
	require.NoError(t, err)
	assert.Equal(t, []string{"view:tickets"}, p.Roles[domain.RoleAgent])
	assert.Equal(t, 10, p.Priority.Thresholds.Critical)
}

func TestPolicyValidation(t *testing.T) {
	_, err := ParsePolicy([]byte("roles:\n  Superuser: [view:tickets]\n"))
	assert.ErrorContains(t, err, "unknown role")

	_, err = ParsePolicy([]byte("priority:\n  gmv_tier_points: {S: 10, Bronze: 5}\n"))
	assert.ErrorContains(t, err, "must not decrease")

	_, err = ParsePolicy([]byte("priority:\n  thresholds: {critical: 10, high: 50, medium: 1}\n"))
	assert.ErrorContains(t, err, "thresholds")
}

func TestPolicyMissingGMVTierInheritsLowerTier(t *testing.T) {
	p, err := ParsePolicy([]byte("priority:\n  gmv_tier_points: {Bronze: 10, Gold: 35}\n"))
	require.NoError(t, err)

	points := p.PriorityTables().GMVTierPoints
	assert.Equal(t, 0, points[domain.GMVTierS])
	assert.Equal(t, 10, points[domain.GMVTierBronze])
	assert.Equal(t, 10, points[domain.GMVTierSilver])
	assert.Equal(t, 10, points[domain.GMVTierXL])
	assert.Equal(t, 35, points[domain.GMVTierGold])
	assert.Equal(t, 35, points[domain.GMVTierPlatinum])

	prev := -1
	for _, tier := range domain.GMVTiers {
		assert.GreaterOrEqual(t, points[tier], prev, tier)
		prev = points[tier]
	}
}
