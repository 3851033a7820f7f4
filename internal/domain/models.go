package domain

import "time"

// Resolution is the time-bucketing granularity for a chart
type Resolution string

const (
	ResolutionHourly Resolution = "hourly"
	ResolutionDaily  Resolution = "daily"
	ResolutionWeekly Resolution = "weekly"
)

// ChartView selects the chart shape rendered from a dashboard view
type ChartView string

const (
	ChartViewGraph ChartView = "graph"
	ChartViewPie   ChartView = "pie"
)

// DataType selects which side of the energy balance a chart or alert reads
type DataType string

const (
	DataTypeConsumption DataType = "consumption"
	DataTypeGeneration  DataType = "generation"
	DataTypeBoth        DataType = "both"
)

// Record is a single consumption or generation reading as returned by the
// energy API. Records are immutable read models within a session.
type Record struct {
	ID         int64            `json:"id"`
	ProjectID  int64            `json:"project_id"`
	Timestamp  time.Time        `json:"timestamp"`
	ValueKWh   float64          `json:"value_kwh"`
	SourceType EnergySourceType `json:"source_type"`
	Efficiency *float64         `json:"efficiency,omitempty"`
	CreatedAt  time.Time        `json:"created_at"`
	UpdatedAt  *time.Time       `json:"updated_at,omitempty"`
}

// AggregatePoint is one pre-aggregated bucket (calendar day or ISO week
// start) produced by the backend. Date is a date-only string.
type AggregatePoint struct {
	Date     string  `json:"date"`
	ValueKWh float64 `json:"value_kwh"`
}

// AggregateResponse is the shape of the daily/weekly aggregate sub-resources.
// Exactly one of the bucket slices is populated depending on the endpoint.
type AggregateResponse struct {
	DailyConsumption  []AggregatePoint   `json:"daily_consumption,omitempty"`
	DailyGeneration   []AggregatePoint   `json:"daily_generation,omitempty"`
	WeeklyConsumption []AggregatePoint   `json:"weekly_consumption,omitempty"`
	WeeklyGeneration  []AggregatePoint   `json:"weekly_generation,omitempty"`
	TotalKWh          float64            `json:"total_kwh"`
	BySource          map[string]float64 `json:"by_source"`
	AvgEfficiency     *float64           `json:"avg_efficiency,omitempty"`
}

// Buckets returns whichever bucket slice the response carries.
func (a *AggregateResponse) Buckets() []AggregatePoint {
	switch {
	case a.DailyConsumption != nil:
		return a.DailyConsumption
	case a.DailyGeneration != nil:
		return a.DailyGeneration
	case a.WeeklyConsumption != nil:
		return a.WeeklyConsumption
	default:
		return a.WeeklyGeneration
	}
}

// EnergySummary compares consumption and generation over a period. The
// renewable percentage is computed server-side and displayed as-is.
type EnergySummary struct {
	TotalConsumption    float64 `json:"total_consumption"`
	TotalGeneration     float64 `json:"total_generation"`
	RenewablePercentage float64 `json:"renewable_percentage"`
	StartDate           string  `json:"start_date"`
	EndDate             string  `json:"end_date"`
	ProjectID           *int64  `json:"project_id,omitempty"`
}

// Project groups energy records under one site or installation.
type Project struct {
	ID          int64     `json:"id"`
	Name        string    `json:"name"`
	Description string    `json:"description,omitempty"`
	Location    string    `json:"location,omitempty"`
	UserID      int64     `json:"user_id"`
	CreatedAt   time.Time `json:"created_at"`
}

// User is the authenticated account returned by the auth endpoints.
type User struct {
	ID       int64  `json:"id"`
	Username string `json:"username"`
	Email    string `json:"email"`
	IsActive bool   `json:"is_active"`
	IsAdmin  bool   `json:"is_admin"`
}

// AlertCondition is the comparison direction of a threshold alert
type AlertCondition string

const (
	ConditionAbove AlertCondition = "above"
	ConditionBelow AlertCondition = "below"
)

// Alert is a locally persisted threshold rule. Global alerts apply to every
// project; non-global alerts only when the active project matches ProjectID.
type Alert struct {
	ID        string         `json:"id"`
	Name      string         `json:"name"`
	Type      DataType       `json:"type"`
	Threshold float64        `json:"threshold"`
	Condition AlertCondition `json:"condition"`
	Active    bool           `json:"active"`
	ProjectID *int64         `json:"project_id"`
	Global    bool           `json:"global"`
}

// ItemID returns the alert's collection identity.
func (a Alert) ItemID() string { return a.ID }

// Scoped lets Alert participate in project/global collection filtering.
func (a Alert) Scoped() (projectID *int64, global bool) { return a.ProjectID, a.Global }

// WithIdentity returns a copy stamped with a fresh id and scope.
func (a Alert) WithIdentity(id string, projectID *int64, global bool) Alert {
	a.ID = id
	a.ProjectID = projectID
	a.Global = global
	return a
}

// SavedVisualization is a snapshot of the chart-control state at save time.
// Loading one overwrites the live controls; no data is embedded.
type SavedVisualization struct {
	ID            string             `json:"id"`
	Name          string             `json:"name"`
	StartDate     string             `json:"startDate"`
	EndDate       string             `json:"endDate"`
	ChartView     ChartView          `json:"chartView"`
	DataType      DataType           `json:"dataType"`
	SourceFilters []EnergySourceType `json:"sourceFilters"`
	TimeFrame     Resolution         `json:"timeFrame"`
	ProjectID     *int64             `json:"project_id"`
	Global        bool               `json:"global"`
}

// ItemID returns the visualization's collection identity.
func (v SavedVisualization) ItemID() string { return v.ID }

// Scoped lets SavedVisualization participate in collection filtering.
func (v SavedVisualization) Scoped() (projectID *int64, global bool) { return v.ProjectID, v.Global }

// WithIdentity returns a copy stamped with a fresh id and scope.
func (v SavedVisualization) WithIdentity(id string, projectID *int64, global bool) SavedVisualization {
	v.ID = id
	v.ProjectID = projectID
	v.Global = global
	return v
}

// Recommendation is an insight suggestion from the backend.
type Recommendation struct {
	Type        string `json:"type"`
	Title       string `json:"title"`
	Description string `json:"description"`
}

// MonthlyTrend is one month of the consumption/generation trend series.
type MonthlyTrend struct {
	Month       string  `json:"month"`
	Consumption float64 `json:"consumption"`
	Generation  float64 `json:"generation"`
	NetUsage    float64 `json:"net_usage"`
}

// Trends is the /insights/trends response.
type Trends struct {
	MonthlyTrends       []MonthlyTrend     `json:"monthly_trends"`
	ConsumptionBySource map[string]float64 `json:"consumption_by_source"`
	GenerationBySource  map[string]float64 `json:"generation_by_source"`
}
