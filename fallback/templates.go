package fallback

import "github.com/poiesic/triage/core"

// planTemplate is the static seed for one disaster type.
type planTemplate struct {
	summary      string
	baselineRisk core.RiskLevel
	impact       string
	sensitivity  string
	actions      []string
	resources    core.ResourceRequirements
	timeline     core.ResponseTimeline
	coordination core.CoordinationPlan
}

var templates = map[core.DisasterType]planTemplate{
	core.DisasterEarthquake: {
		summary:      "Earthquake response underway; structural damage and aftershocks expected.",
		baselineRisk: core.RiskHigh,
		impact:       "Structural damage, trapped persons, and utility disruption likely in the affected area.",
		sensitivity:  "Immediate response required; aftershock window is ongoing.",
		actions: []string{
			"Activate urban search and rescue teams for collapsed structures",
			"Shut off gas mains in the affected area to prevent fires",
			"Establish triage points near the hardest-hit blocks",
			"Issue aftershock warnings and keep residents away from damaged buildings",
		},
		resources: core.ResourceRequirements{
			Personnel:  []string{"search and rescue teams", "structural engineers", "paramedics", "utility crews"},
			Equipment:  []string{"heavy lifting equipment", "acoustic listening devices", "generators", "medical supplies"},
			Facilities: []string{"field hospitals", "temporary shelters", "staging areas"},
		},
		timeline: core.ResponseTimeline{
			Immediate:  []string{"Search and rescue in collapsed structures", "Utility shutoff and fire watch"},
			ShortTerm:  []string{"Structural inspection of occupied buildings", "Shelter operations for displaced residents"},
			MediumTerm: []string{"Debris removal and infrastructure repair", "Damage assessment for reconstruction aid"},
		},
		coordination: core.CoordinationPlan{
			LeadAgency:         "Emergency Management Agency",
			SupportingAgencies: []string{"Fire Department", "Urban Search and Rescue", "Utility Companies", "Red Cross"},
			CommunicationPlan:  "Coordinate through the emergency operations center; public updates via alert system each hour.",
		},
	},
	core.DisasterFlood: {
		summary:      "Flood response underway; rising water threatens low-lying areas.",
		baselineRisk: core.RiskHigh,
		impact:       "Inundation of low-lying neighborhoods, road closures, and contamination of water supply possible.",
		sensitivity:  "Response window tied to water levels; evacuate before routes are cut off.",
		actions: []string{
			"Evacuate residents from low-lying and riverside areas",
			"Deploy swift-water rescue teams to cut-off neighborhoods",
			"Open shelters on high ground above the flood line",
			"Close flooded roads and establish detour routes",
		},
		resources: core.ResourceRequirements{
			Personnel:  []string{"swift-water rescue teams", "evacuation coordinators", "public works crews", "medical staff"},
			Equipment:  []string{"rescue boats", "high-clearance vehicles", "sandbags", "water pumps", "potable water supplies"},
			Facilities: []string{"elevated shelters", "water distribution points", "emergency operations center"},
		},
		timeline: core.ResponseTimeline{
			Immediate:  []string{"Evacuation of threatened areas", "Swift-water rescue operations"},
			ShortTerm:  []string{"Shelter and feeding operations", "Water quality testing"},
			MediumTerm: []string{"Pump-out and drainage restoration", "Damage assessment and repair"},
		},
		coordination: core.CoordinationPlan{
			LeadAgency:         "Emergency Management Agency",
			SupportingAgencies: []string{"Coast Guard", "Public Works", "National Guard", "Red Cross"},
			CommunicationPlan:  "River gauge updates every 30 minutes; evacuation orders via alert system and door-to-door sweeps.",
		},
	},
	core.DisasterWildfire: {
		summary:      "Wildfire response underway; fire spread threatens populated areas.",
		baselineRisk: core.RiskHigh,
		impact:       "Fire spread into populated areas, smoke hazard, and loss of structures possible.",
		sensitivity:  "Wind-driven spread can outpace response; act ahead of the fire front.",
		actions: []string{
			"Evacuate communities in the projected fire path",
			"Establish firebreaks and defensive lines around structures",
			"Deploy air tankers and ground crews to the fire front",
			"Issue smoke advisories for downwind communities",
		},
		resources: core.ResourceRequirements{
			Personnel:  []string{"firefighting crews", "evacuation coordinators", "air operations staff", "paramedics"},
			Equipment:  []string{"fire engines", "air tankers", "bulldozers for firebreaks", "breathing apparatus"},
			Facilities: []string{"evacuation centers", "animal shelters", "incident command post"},
		},
		timeline: core.ResponseTimeline{
			Immediate:  []string{"Evacuation of the fire path", "Initial attack on the fire front"},
			ShortTerm:  []string{"Containment line construction", "Smoke impact monitoring"},
			MediumTerm: []string{"Mop-up and hotspot patrol", "Repopulation of evacuated areas"},
		},
		coordination: core.CoordinationPlan{
			LeadAgency:         "Fire Authority",
			SupportingAgencies: []string{"Forestry Service", "Law Enforcement", "Air Operations", "Red Cross"},
			CommunicationPlan:  "Fire-front updates each hour; evacuation warnings via alert system and patrol loudspeakers.",
		},
	},
	core.DisasterCyclone: {
		summary:      "Cyclone response underway; destructive winds and storm surge expected.",
		baselineRisk: core.RiskHigh,
		impact:       "Destructive winds, storm surge along the coast, and widespread power loss expected.",
		sensitivity:  "Preparation window closes at landfall; complete evacuations beforehand.",
		actions: []string{
			"Evacuate coastal and surge-prone zones before landfall",
			"Open reinforced cyclone shelters",
			"Pre-position relief supplies outside the impact zone",
			"Suspend transport services and secure critical infrastructure",
		},
		resources: core.ResourceRequirements{
			Personnel:  []string{"evacuation teams", "shelter managers", "line repair crews", "relief workers"},
			Equipment:  []string{"buses for evacuation", "emergency generators", "tarpaulins", "relief supply kits"},
			Facilities: []string{"cyclone shelters", "relief distribution centers", "emergency operations center"},
		},
		timeline: core.ResponseTimeline{
			Immediate:  []string{"Coastal evacuation", "Shelter activation"},
			ShortTerm:  []string{"Search and rescue after landfall", "Power and communications restoration"},
			MediumTerm: []string{"Relief distribution", "Housing damage assessment"},
		},
		coordination: core.CoordinationPlan{
			LeadAgency:         "Disaster Management Authority",
			SupportingAgencies: []string{"Coast Guard", "Power Utility", "Transport Authority", "Relief Organizations"},
			CommunicationPlan:  "Track updates every 3 hours pre-landfall; shelter locations broadcast continuously.",
		},
	},
	core.DisasterHeatwave: {
		summary:      "Heatwave response underway; dangerous heat threatens vulnerable residents.",
		baselineRisk: core.RiskModerate,
		impact:       "Heat illness among elderly and outdoor workers; strain on the power grid.",
		sensitivity:  "Risk accumulates over consecutive hot days; sustained response needed.",
		actions: []string{
			"Open cooling centers with extended hours",
			"Conduct welfare checks on elderly and isolated residents",
			"Distribute water at transit hubs and outdoor work sites",
			"Coordinate with the power utility on load management",
		},
		resources: core.ResourceRequirements{
			Personnel:  []string{"outreach teams", "medical staff", "cooling center staff"},
			Equipment:  []string{"portable cooling units", "bottled water", "misting stations"},
			Facilities: []string{"cooling centers", "hydration stations"},
		},
		timeline: core.ResponseTimeline{
			Immediate:  []string{"Cooling center activation", "Welfare checks on vulnerable residents"},
			ShortTerm:  []string{"Daily heat advisories", "Hospital surge monitoring"},
			MediumTerm: []string{"After-action review of heat plan", "Grid resilience assessment"},
		},
		coordination: core.CoordinationPlan{
			LeadAgency:         "Public Health Department",
			SupportingAgencies: []string{"Emergency Management Agency", "Power Utility", "Social Services"},
			CommunicationPlan:  "Heat advisories twice daily; cooling center locations published on all channels.",
		},
	},
	core.DisasterLandslide: {
		summary:      "Landslide response underway; slope failure threatens structures below.",
		baselineRisk: core.RiskHigh,
		impact:       "Buried structures, blocked roads, and continued slope instability possible.",
		sensitivity:  "Secondary slides are likely while slopes remain saturated.",
		actions: []string{
			"Evacuate structures below the unstable slope",
			"Deploy search and rescue teams to the debris field",
			"Close roads through the slide zone",
			"Install slope movement monitoring",
		},
		resources: core.ResourceRequirements{
			Personnel:  []string{"search and rescue teams", "geotechnical engineers", "heavy equipment operators"},
			Equipment:  []string{"excavators", "slope sensors", "shoring materials"},
			Facilities: []string{"temporary shelters", "equipment staging areas"},
		},
		timeline: core.ResponseTimeline{
			Immediate:  []string{"Evacuation below the slope", "Search of the debris field"},
			ShortTerm:  []string{"Slope stability assessment", "Temporary housing for displaced residents"},
			MediumTerm: []string{"Slope stabilization works", "Road reopening"},
		},
		coordination: core.CoordinationPlan{
			LeadAgency:         "Emergency Management Agency",
			SupportingAgencies: []string{"Geological Survey", "Public Works", "Red Cross"},
			CommunicationPlan:  "Slope monitoring updates every 2 hours; evacuation zone maintained until cleared by engineers.",
		},
	},
}

// allHazardTemplate covers unknown or unclassified disaster types.
var allHazardTemplate = planTemplate{
	summary:      "Emergency response underway; situation details are limited.",
	baselineRisk: core.RiskModerate,
	impact:       "Impact not yet characterized; assume potential threat to life and property.",
	sensitivity:  "Treat as time-sensitive until assessment proves otherwise.",
	actions: []string{
		"Dispatch assessment teams to establish situational awareness",
		"Activate the emergency operations center",
		"Alert residents in the affected area through available channels",
		"Stage general-purpose response resources nearby",
	},
	resources: core.ResourceRequirements{
		Personnel:  []string{"assessment teams", "first responders", "emergency operations staff"},
		Equipment:  []string{"communication equipment", "general rescue tools", "medical supplies"},
		Facilities: []string{"emergency operations center", "staging areas"},
	},
	timeline: core.ResponseTimeline{
		Immediate: []string{"Situation assessment", "Resident notification"},
		ShortTerm: []string{"Targeted response based on assessment", "Resource mobilization"},
		MediumTerm: []string{"Recovery planning", "After-action review"},
	},
	coordination: core.CoordinationPlan{
		LeadAgency:         "Emergency Management Agency",
		SupportingAgencies: []string{"Police", "Fire Department", "Medical Services"},
		CommunicationPlan:  "Situation reports each hour from the emergency operations center.",
	},
}

// templateFor returns the template for the disaster type and whether a
// type-specific template existed.
func templateFor(disaster core.DisasterType) (planTemplate, bool) {
	if t, ok := templates[disaster]; ok {
		return t, true
	}
	return allHazardTemplate, false
}

// HasTemplate reports whether a type-specific template exists for the
// disaster type.
func HasTemplate(disaster core.DisasterType) bool {
	_, ok := templates[disaster]
	return ok
}

// TemplateResources returns a copy of the static resource template for
// the disaster type, falling back to the all-hazard template.
func TemplateResources(disaster core.DisasterType) core.ResourceRequirements {
	t, _ := templateFor(disaster)
	return core.ResourceRequirements{
		Personnel:  append([]string(nil), t.resources.Personnel...),
		Equipment:  append([]string(nil), t.resources.Equipment...),
		Facilities: append([]string(nil), t.resources.Facilities...),
	}
}
