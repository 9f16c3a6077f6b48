package plans_test

import (
	"testing"

	"github.com/boddenberg/linkbio-api-go/internal/domain"
	"github.com/boddenberg/linkbio-api-go/internal/plans"
)

func TestGetPlanLimits_Table(t *testing.T) {
	cases := []struct {
		plan domain.PlanType
		want plans.Limits
	}{
		{domain.PlanStarter, plans.Limits{MaxProfiles: 1, CommunityHighlights: 0, MaxShowcaseItems: 0, HasWhiteLabel: false}},
		{domain.PlanPro, plans.Limits{MaxProfiles: 3, CommunityHighlights: 1, MaxShowcaseItems: 0, HasWhiteLabel: false}},
		{domain.PlanBusiness, plans.Limits{MaxProfiles: 10, CommunityHighlights: 3, MaxShowcaseItems: 10, HasWhiteLabel: true}},
		{domain.PlanEnterprise, plans.Limits{MaxProfiles: 50, CommunityHighlights: 10, MaxShowcaseItems: plans.UnlimitedItems, HasWhiteLabel: true}},
	}
	for _, tc := range cases {
		if got := plans.GetPlanLimits(tc.plan); got != tc.want {
			t.Errorf("%s: expected %+v, got %+v", tc.plan, tc.want, got)
		}
	}
}

func TestGetPlanLimits_UndefinedPlanIsMostRestrictive(t *testing.T) {
	got := plans.GetPlanLimits("")
	if got != plans.GetPlanLimits(domain.PlanStarter) {
		t.Errorf("expected starter limits for empty plan, got %+v", got)
	}
	if plans.GetPlanLimits("platinum") != plans.GetPlanLimits(domain.PlanStarter) {
		t.Error("expected starter limits for unknown plan")
	}
	if plans.CanAccessFeature("", plans.FeatureCatalog) {
		t.Error("expected empty plan to be gated like starter")
	}
}

func TestCanAccessFeature_ExactTable(t *testing.T) {
	// starter, pro, business, enterprise
	table := map[plans.Feature][4]bool{
		plans.FeatureButtons:     {true, true, true, true},
		plans.FeatureCatalog:     {false, true, true, true},
		plans.FeaturePortfolio:   {false, true, true, true},
		plans.FeatureVideos:      {false, true, true, true},
		plans.FeatureCustomFonts: {false, true, true, true},
		plans.FeatureLeads:       {false, true, true, true},
		plans.FeatureAnalytics:   {false, true, true, true},
		plans.FeatureCommunity:   {false, true, true, true},
		plans.FeatureQRLogo:      {false, true, true, true},
		plans.FeatureNPS:         {false, false, true, true},
		plans.FeatureScheduling:  {false, false, true, true},
		plans.FeatureShowcase:    {false, false, true, true},
		plans.FeatureWhiteLabel:  {false, false, true, true},
		plans.FeatureCSVExport:   {false, false, true, true},
		plans.FeatureCRM:         {false, false, false, true},
	}
	if len(table) != len(plans.AllFeatures) {
		t.Fatalf("table covers %d features, registry has %d", len(table), len(plans.AllFeatures))
	}
	for f, row := range table {
		for i, p := range plans.Tiers() {
			if got := plans.CanAccessFeature(p, f); got != row[i] {
				t.Errorf("CanAccessFeature(%s, %s) = %v, want %v", p, f, got, row[i])
			}
		}
	}
}

func TestCanAccessFeature_HigherTiersAreSupersets(t *testing.T) {
	tiers := plans.Tiers()
	for _, f := range plans.AllFeatures {
		for i := 0; i < len(tiers); i++ {
			for j := i + 1; j < len(tiers); j++ {
				if plans.CanAccessFeature(tiers[i], f) && !plans.CanAccessFeature(tiers[j], f) {
					t.Errorf("feature %s available on %s but not on higher tier %s", f, tiers[i], tiers[j])
				}
			}
		}
	}
}

func TestCanAccessFeature_CRMOnlyOnEnterprise(t *testing.T) {
	if plans.CanAccessFeature(domain.PlanPro, plans.FeatureCRM) {
		t.Error("crm must be false for pro")
	}
	if plans.CanAccessFeature(domain.PlanBusiness, plans.FeatureCRM) {
		t.Error("crm must be false for business")
	}
	if !plans.CanAccessFeature(domain.PlanEnterprise, plans.FeatureCRM) {
		t.Error("crm must be true for enterprise")
	}
}

func TestCanAccessFeature_UnknownFeature(t *testing.T) {
	if plans.CanAccessFeature(domain.PlanEnterprise, "teleport") {
		t.Error("unknown feature must be denied")
	}
}

func TestParsePlan(t *testing.T) {
	cases := map[string]domain.PlanType{
		"starter":    domain.PlanStarter,
		" Business ": domain.PlanBusiness,
		"ENTERPRISE": domain.PlanEnterprise,
		"":           domain.PlanStarter,
		"gold":       domain.PlanStarter,
	}
	for in, want := range cases {
		if got := plans.ParsePlan(in); got != want {
			t.Errorf("ParsePlan(%q) = %s, want %s", in, got, want)
		}
	}
}

func TestRank(t *testing.T) {
	if !(plans.Rank(domain.PlanStarter) < plans.Rank(domain.PlanPro) &&
		plans.Rank(domain.PlanPro) < plans.Rank(domain.PlanBusiness) &&
		plans.Rank(domain.PlanBusiness) < plans.Rank(domain.PlanEnterprise)) {
		t.Error("expected starter < pro < business < enterprise")
	}
}

func TestRebaseMaxProfiles_KeepsBonus(t *testing.T) {
	// pro (3) + 2 bonus -> business (10) + 2 bonus
	if got := plans.RebaseMaxProfiles(5, domain.PlanPro, domain.PlanBusiness); got != 12 {
		t.Errorf("expected 12, got %d", got)
	}
	// no bonus, downgrade
	if got := plans.RebaseMaxProfiles(10, domain.PlanBusiness, domain.PlanStarter); got != 1 {
		t.Errorf("expected 1, got %d", got)
	}
	// quota below plan limit never produces a negative bonus
	if got := plans.RebaseMaxProfiles(0, domain.PlanPro, domain.PlanPro); got != 3 {
		t.Errorf("expected 3, got %d", got)
	}
}

func TestRequire(t *testing.T) {
	if err := plans.Require(domain.PlanBusiness, plans.FeatureShowcase); err != nil {
		t.Fatalf("expected nil, got %v", err)
	}
	err := plans.Require(domain.PlanPro, plans.FeatureShowcase)
	locked, ok := err.(*domain.ErrFeatureLocked)
	if !ok {
		t.Fatalf("expected ErrFeatureLocked, got %T", err)
	}
	if locked.Feature != "showcase" || locked.Plan != domain.PlanPro {
		t.Errorf("unexpected error payload: %+v", locked)
	}
}
