package routing

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/sellerdesk/support-portal/internal/domain"
)

func testRouter() *Router {
	return NewRouter(Table{
		Departments: map[string]string{
			"Operations": "C-OPS",
			"CX":         "C-CX",
			"Seller Ops": "C-SELLER-OPS",
		},
		CXSubteams: map[string]string{
			"returns": "C-CX-RETURNS",
		},
		Urgent:     "C-URGENT",
		Escalation: "C-ESCALATION",
		SLABreach:  "C-SLA",
		Fallback:   "C-DEFAULT",
	})
}

func TestChannelsForAllRulesInOrder(t *testing.T) {
	r := testRouter()
	ctx := Context{Department: "Operations", PriorityTier: "urgent", Status: "Escalated", SLAStatus: "breached"}

	got := r.ChannelsFor(ctx)
	assert.Equal(t, []string{"C-OPS", "C-URGENT", "C-ESCALATION", "C-SLA"}, got)
	assert.Equal(t, got, r.ChannelsFor(ctx))
}

func TestChannelsForDeduplicatesSharedIDs(t *testing.T) {
	r := NewRouter(Table{
		Departments: map[string]string{"Operations": "C-SHARED"},
		Urgent:      "C-SHARED",
		Escalation:  "C-ESC",
		SLABreach:   "C-SHARED",
		Fallback:    "C-DEFAULT",
	})

	got := r.ChannelsFor(Context{Department: "Operations", PriorityTier: "Critical", IsEscalated: true, SLAStatus: "breached"})
	assert.Equal(t, []string{"C-SHARED", "C-ESC"}, got)
}

func TestChannelsForFallback(t *testing.T) {
	r := testRouter()
	assert.Equal(t, []string{"C-DEFAULT"}, r.ChannelsFor(Context{Department: "UnknownDept"}))
	assert.Equal(t, []string{"C-DEFAULT"}, r.ChannelsFor(Context{Department: "UnknownDept", PriorityTier: "High", SLAStatus: "at_risk"}))
}

func TestChannelsForNoFallbackConfigured(t *testing.T) {
	r := NewRouter(Table{})
	assert.Empty(t, r.ChannelsFor(Context{Department: "Operations", PriorityTier: "critical"}))
}

func TestChannelsForCXSubteam(t *testing.T) {
	r := testRouter()

	assert.Equal(t, []string{"C-CX-RETURNS"}, r.ChannelsFor(Context{Department: "CX", OwnerTeam: "Returns"}))
	assert.Equal(t, []string{"C-CX"}, r.ChannelsFor(Context{Department: "CX", OwnerTeam: "Billing"}))
	assert.Equal(t, []string{"C-CX"}, r.ChannelsFor(Context{Department: "CX"}))
	// Sub-team channels only apply to CX.
	assert.Equal(t, []string{"C-OPS"}, r.ChannelsFor(Context{Department: "Operations", OwnerTeam: "Returns"}))
}

func TestChannelsForTicket(t *testing.T) {
	r := testRouter()
	ticket := &domain.Ticket{
		Department:   "Seller Ops",
		PriorityTier: domain.PriorityTierCritical,
		Status:       domain.TicketStatusOpen,
		SLAStatus:    domain.SLAStatusOnTrack,
	}
	assert.Equal(t, []string{"C-SELLER-OPS", "C-URGENT"}, r.ChannelsFor(ContextFor(ticket)))
}

func TestKey(t *testing.T) {
	assert.Equal(t, "SELLER_OPS", Key("Seller Ops"))
	assert.Equal(t, "CX", Key(" cx "))
	assert.Equal(t, "FRAUD_RISK", Key("Fraud & Risk"))
	assert.Equal(t, "OPS_2", Key("ops-2"))
}

func TestInAppTypes(t *testing.T) {
	assert.Equal(t, []domain.NotificationType{domain.NotificationCaseCreated}, InAppTypes(EventCaseCreated))
	assert.Equal(t, []domain.NotificationType{domain.NotificationCommentMention}, InAppTypes(EventCommentMention))
	assert.Nil(t, InAppTypes(EventSLABreached))
	assert.Nil(t, InAppTypes("unknown"))
}
