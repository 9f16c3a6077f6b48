// Package plans is the entitlement registry: the static table that maps each
// plan tier to its numeric limits and feature flags. Every quota check and
// feature gate in the service layer consults this table and nothing else.
package plans

import (
	"strings"

	"github.com/boddenberg/linkbio-api-go/internal/domain"
)

// Feature is a gated capability key.
type Feature string

const (
	FeatureButtons     Feature = "buttons"
	FeatureCatalog     Feature = "catalog"
	FeaturePortfolio   Feature = "portfolio"
	FeatureVideos      Feature = "videos"
	FeatureCustomFonts Feature = "customFonts"
	FeatureLeads       Feature = "leads"
	FeatureAnalytics   Feature = "analytics"
	FeatureCommunity   Feature = "community"
	FeatureQRLogo      Feature = "qrLogo"
	FeatureNPS         Feature = "nps"
	FeatureScheduling  Feature = "scheduling"
	FeatureShowcase    Feature = "showcase"
	FeatureWhiteLabel  Feature = "whiteLabel"
	FeatureCSVExport   Feature = "csvExport"
	FeatureCRM         Feature = "crm"
)

// AllFeatures lists every feature key in display order.
var AllFeatures = []Feature{
	FeatureButtons, FeatureCatalog, FeaturePortfolio, FeatureVideos, FeatureCustomFonts,
	FeatureLeads, FeatureAnalytics, FeatureCommunity, FeatureQRLogo, FeatureNPS,
	FeatureScheduling, FeatureShowcase, FeatureWhiteLabel, FeatureCSVExport, FeatureCRM,
}

// UnlimitedItems is the showcase cap used for "unlimited" tiers.
const UnlimitedItems = 9999

// Limits are the numeric quotas of a plan.
type Limits struct {
	MaxProfiles         int  `json:"maxProfiles"`
	CommunityHighlights int  `json:"communityHighlights"`
	MaxShowcaseItems    int  `json:"maxShowcaseItems"`
	HasWhiteLabel       bool `json:"hasWhiteLabel"`
}

// Config is one row of the registry.
type Config struct {
	Plan     domain.PlanType  `json:"plan"`
	Name     string           `json:"name"`
	Limits   Limits           `json:"limits"`
	Features map[Feature]bool `json:"features"`
}

var allTiers = []domain.PlanType{
	domain.PlanStarter,
	domain.PlanPro,
	domain.PlanBusiness,
	domain.PlanEnterprise,
}

var registry = map[domain.PlanType]Config{
	domain.PlanStarter: {
		Plan:   domain.PlanStarter,
		Name:   "Starter",
		Limits: Limits{MaxProfiles: 1, CommunityHighlights: 0, MaxShowcaseItems: 0, HasWhiteLabel: false},
		Features: map[Feature]bool{
			FeatureButtons: true,
		},
	},
	domain.PlanPro: {
		Plan:   domain.PlanPro,
		Name:   "Pro",
		Limits: Limits{MaxProfiles: 3, CommunityHighlights: 1, MaxShowcaseItems: 0, HasWhiteLabel: false},
		Features: map[Feature]bool{
			FeatureButtons:     true,
			FeatureCatalog:     true,
			FeaturePortfolio:   true,
			FeatureVideos:      true,
			FeatureCustomFonts: true,
			FeatureLeads:       true,
			FeatureAnalytics:   true,
			FeatureCommunity:   true,
			FeatureQRLogo:      true,
		},
	},
	domain.PlanBusiness: {
		Plan:   domain.PlanBusiness,
		Name:   "Business",
		Limits: Limits{MaxProfiles: 10, CommunityHighlights: 3, MaxShowcaseItems: 10, HasWhiteLabel: true},
		Features: map[Feature]bool{
			FeatureButtons:     true,
			FeatureCatalog:     true,
			FeaturePortfolio:   true,
			FeatureVideos:      true,
			FeatureCustomFonts: true,
			FeatureLeads:       true,
			FeatureAnalytics:   true,
			FeatureCommunity:   true,
			FeatureQRLogo:      true,
			FeatureNPS:         true,
			FeatureScheduling:  true,
			FeatureShowcase:    true,
			FeatureWhiteLabel:  true,
			FeatureCSVExport:   true,
			FeatureCRM:         false,
		},
	},
	domain.PlanEnterprise: {
		Plan:   domain.PlanEnterprise,
		Name:   "Enterprise",
		Limits: Limits{MaxProfiles: 50, CommunityHighlights: 10, MaxShowcaseItems: UnlimitedItems, HasWhiteLabel: true},
		Features: map[Feature]bool{
			FeatureButtons:     true,
			FeatureCatalog:     true,
			FeaturePortfolio:   true,
			FeatureVideos:      true,
			FeatureCustomFonts: true,
			FeatureLeads:       true,
			FeatureAnalytics:   true,
			FeatureCommunity:   true,
			FeatureQRLogo:      true,
			FeatureNPS:         true,
			FeatureScheduling:  true,
			FeatureShowcase:    true,
			FeatureWhiteLabel:  true,
			FeatureCSVExport:   true,
			FeatureCRM:         true,
		},
	},
}

// ParsePlan maps a raw string onto the closed enum. Anything unknown
// resolves to the most restrictive tier.
func ParsePlan(s string) domain.PlanType {
	p := domain.PlanType(strings.ToLower(strings.TrimSpace(s)))
	if _, ok := registry[p]; ok {
		return p
	}
	return domain.PlanStarter
}

// IsValid reports whether p is one of the four tiers.
func IsValid(p domain.PlanType) bool {
	_, ok := registry[p]
	return ok
}

// Get returns the registry row for p, defaulting to starter.
func Get(p domain.PlanType) Config {
	if c, ok := registry[p]; ok {
		return c
	}
	return registry[domain.PlanStarter]
}

// GetPlanLimits returns the numeric limits of p.
func GetPlanLimits(p domain.PlanType) Limits {
	return Get(p).Limits
}

// CanAccessFeature reports whether plan p includes feature f.
func CanAccessFeature(p domain.PlanType, f Feature) bool {
	return Get(p).Features[f]
}

// FeatureMap returns the full feature map of p, with every known key present.
func FeatureMap(p domain.PlanType) map[Feature]bool {
	out := make(map[Feature]bool, len(AllFeatures))
	for _, f := range AllFeatures {
		out[f] = CanAccessFeature(p, f)
	}
	return out
}

// Rank orders tiers from 0 (starter) to 3 (enterprise).
func Rank(p domain.PlanType) int {
	for i, t := range allTiers {
		if t == p {
			return i
		}
	}
	return 0
}

// Tiers returns the plans in ascending rank.
func Tiers() []domain.PlanType {
	return append([]domain.PlanType(nil), allTiers...)
}

// All returns every registry row in ascending rank.
func All() []Config {
	out := make([]Config, 0, len(allTiers))
	for _, t := range allTiers {
		out = append(out, registry[t])
	}
	return out
}

// Require returns ErrFeatureLocked when p lacks f.
func Require(p domain.PlanType, f Feature) error {
	if !CanAccessFeature(p, f) {
		return &domain.ErrFeatureLocked{Feature: string(f), Plan: p}
	}
	return nil
}

// RebaseMaxProfiles moves a client's profile quota from one plan to another
// while keeping any bonus slots granted on top of the old plan's limit.
func RebaseMaxProfiles(current int, from, to domain.PlanType) int {
	bonus := current - GetPlanLimits(from).MaxProfiles
	if bonus < 0 {
		bonus = 0
	}
	return GetPlanLimits(to).MaxProfiles + bonus
}
