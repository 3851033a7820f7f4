package domain

// EnergySourceType tags the origin of an energy reading. Exactly one tag per
// record; grid is the sole non-renewable source.
type EnergySourceType string

const (
	SourceSolar      EnergySourceType = "solar"
	SourceWind       EnergySourceType = "wind"
	SourceHydro      EnergySourceType = "hydro"
	SourceGeothermal EnergySourceType = "geothermal"
	SourceBiomass    EnergySourceType = "biomass"
	SourceGrid       EnergySourceType = "grid"
)

// AllSources lists every known source type in display order.
var AllSources = []EnergySourceType{
	SourceSolar,
	SourceWind,
	SourceHydro,
	SourceGeothermal,
	SourceBiomass,
	SourceGrid,
}

// Renewable reports whether the source is green. False only for grid.
func Renewable(source EnergySourceType) bool {
	return source != SourceGrid
}

// Known reports whether the source is a member of the closed enum.
func Known(source EnergySourceType) bool {
	for _, s := range AllSources {
		if s == source {
			return true
		}
	}
	return false
}

// SourceStyle is the per-source chart display metadata.
type SourceStyle struct {
	Label      string `json:"label"`
	Border     string `json:"border"`
	Background string `json:"background"`
}

var sourceStyles = map[EnergySourceType]SourceStyle{
	SourceSolar:      {Label: "Solar", Border: "rgb(250, 204, 21)", Background: "rgba(250, 204, 21, 0.7)"},
	SourceWind:       {Label: "Wind", Border: "rgb(56, 189, 248)", Background: "rgba(56, 189, 248, 0.7)"},
	SourceHydro:      {Label: "Hydro", Border: "rgb(59, 130, 246)", Background: "rgba(59, 130, 246, 0.7)"},
	SourceGeothermal: {Label: "Geothermal", Border: "rgb(217, 70, 239)", Background: "rgba(217, 70, 239, 0.7)"},
	SourceBiomass:    {Label: "Biomass", Border: "rgb(132, 204, 22)", Background: "rgba(132, 204, 22, 0.7)"},
	SourceGrid:       {Label: "Grid", Border: "rgb(100, 116, 139)", Background: "rgba(100, 116, 139, 0.7)"},
}

// Fallback for sources the styling table does not know.
var defaultStyle = SourceStyle{Label: "Other", Border: "rgb(156, 163, 175)", Background: "rgba(156, 163, 175, 0.7)"}

// StyleFor returns the display metadata for a source type.
func StyleFor(source EnergySourceType) SourceStyle {
	if style, ok := sourceStyles[source]; ok {
		return style
	}
	return defaultStyle
}
