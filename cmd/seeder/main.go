package main

import (
	"context"
	"flag"
	"log/slog"
	"os"

	"github.com/poiesic/triage"
	"github.com/poiesic/triage/core"
	"github.com/poiesic/triage/ingestion"
)

var incidents = []ingestion.Document{
	{
		Title:    "Loma Prieta earthquake after-action report",
		Contents: "Magnitude 6.9 earthquake collapsed freeway structures and cut power to large parts of the Bay Area. Search and rescue teams worked collapsed structures for 72 hours; hospitals ran on generators.",
		Disaster: core.DisasterEarthquake,
		Severity: core.SeveritySevere,
		Location: "San Francisco",
	},
	{
		Title:    "Napa earthquake response summary",
		Contents: "Magnitude 6.0 earthquake damaged unreinforced masonry downtown. Gas leaks triggered structure fires; mutual aid engines staged at the fairgrounds.",
		Disaster: core.DisasterEarthquake,
		Severity: core.SeverityHigh,
		Location: "Napa, California",
	},
	{
		Title:    "Monsoon flooding incident log",
		Contents: "Sustained monsoon rain overwhelmed drainage across low-lying wards. Commuter rail suspended; boats deployed for evacuations from ground-floor housing near the Mithi river.",
		Disaster: core.DisasterFlood,
		Severity: core.SeveritySevere,
		Location: "Mumbai",
	},
	{
		Title:    "Flash flood report, river district",
		Contents: "A levee breach flooded the river district within two hours. Swift-water rescue teams extracted residents from rooftops; a shelter opened at the high school gymnasium.",
		Disaster: core.DisasterFlood,
		Severity: core.SeverityHigh,
		Location: "Sacramento",
	},
	{
		Title:    "Black Summer bushfire situation reports",
		Contents: "Fast-moving bushfires driven by extreme heat and northerly winds crossed containment lines. Aerial water bombers grounded by smoke; coastal towns evacuated by sea.",
		Disaster: core.DisasterWildfire,
		Severity: core.SeverityCritical,
		Location: "New South Wales",
	},
	{
		Title:    "Grassland fire incident report",
		Contents: "A grass fire ignited along the highway corridor and spread into scrubland. Two outbuildings lost; containment reached at 400 hectares after backburning.",
		Disaster: core.DisasterWildfire,
		Severity: core.SeverityModerate,
		Location: "New South Wales",
	},
	{
		Title:    "Cyclone landfall damage assessment",
		Contents: "Category 4 cyclone made landfall with destructive winds and storm surge. Coastal settlements lost roofing and power; road access cut by fallen timber and washouts.",
		Disaster: core.DisasterCyclone,
		Severity: core.SeveritySevere,
		Location: "Queensland",
	},
	{
		Title:    "Heatwave mortality review",
		Contents: "A ten-day heatwave with overnight minimums above 28 degrees strained the power grid and emergency departments. Cooling centres opened in libraries and community halls.",
		Disaster: core.DisasterHeatwave,
		Severity: core.SeverityHigh,
		Location: "Ahmedabad",
	},
	{
		Title:    "Hillside landslide incident report",
		Contents: "Saturated slopes failed after a week of rain, burying a section of the coastal highway. Geotechnical teams assessed adjacent slopes before rescue crews entered.",
		Disaster: core.DisasterLandslide,
		Severity: core.SeverityHigh,
		Location: "Uttarakhand",
	},
}

var protocols = []ingestion.Document{
	{
		Title:    "Earthquake response protocol",
		Contents: "Conduct rapid structural assessments, establish triage points near collapse sites, and shut gas mains in affected blocks. Stage urban search and rescue teams at pre-identified hard standing.",
		Disaster: core.DisasterEarthquake,
		Severity: core.SeverityHigh,
		Location: "California",
	},
	{
		Title:    "Urban flood evacuation protocol",
		Contents: "Stage evacuations by ward, starting with low-lying districts near drainage basins. Pre-position swift-water teams and high-clearance vehicles; open shelters above the flood line.",
		Disaster: core.DisasterFlood,
		Severity: core.SeverityCritical,
		Location: "Mumbai",
	},
	{
		Title:    "Bushfire response protocol",
		Contents: "Establish containment lines ahead of the predicted fire front, pre-position aerial water bombers, and issue leave-early warnings to communities in the path. Protect critical infrastructure with sprinkler lines.",
		Disaster: core.DisasterWildfire,
		Severity: core.SeverityHigh,
		Location: "New South Wales",
	},
	{
		Title:    "Cyclone preparedness protocol",
		Contents: "Issue warnings 48 hours before landfall, open cyclone shelters, and pre-stage generators and tarpaulins north and south of the predicted crossing point.",
		Disaster: core.DisasterCyclone,
		Severity: core.SeverityHigh,
		Location: "Queensland",
	},
	{
		Title:    "Heatwave action plan",
		Contents: "Activate cooling centres when forecast maximums exceed thresholds for three consecutive days. Conduct welfare checks on registered vulnerable residents and coordinate load-shedding with the grid operator.",
		Disaster: core.DisasterHeatwave,
		Severity: core.SeverityModerate,
		Location: "Ahmedabad",
	},
	{
		Title:    "Landslide response protocol",
		Contents: "Hold rescue crews until geotechnical assessment clears adjacent slopes. Establish exclusion zones, monitor for secondary failures, and route traffic around compromised sections.",
		Disaster: core.DisasterLandslide,
		Severity: core.SeverityHigh,
		Location: "Uttarakhand",
	},
}

var dbPath = flag.String("db", "./triage_db", "path to BadgerDB database directory")

func init() {
	handler := slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	})
	slog.SetDefault(slog.New(handler))
	flag.Parse()
}

func main() {
	sys, err := triage.Open(*dbPath)
	if err != nil {
		panic(err)
	}
	defer sys.Close()

	pipeline, err := sys.NewIngestionPipeline()
	if err != nil {
		panic(err)
	}
	defer pipeline.Release()

	ctx := context.Background()

	added, err := pipeline.IngestIncidents(ctx, incidents...)
	if err != nil {
		panic(err)
	}
	slog.Info("seeded incident reports", "count", len(added))

	added, err = pipeline.IngestProtocols(ctx, protocols...)
	if err != nil {
		panic(err)
	}
	slog.Info("seeded response protocols", "count", len(added))

	// Sweep so the process does not exit with vectors still pending
	for {
		count, err := pipeline.ProcessPending(ctx, 100)
		if err != nil {
			panic(err)
		}
		if count == 0 {
			break
		}
		slog.Info("embedded pending records", "count", count)
	}
}
