package trip

import "strings"

// TrafficStatus describes congestion on the driving route.
type TrafficStatus string

const (
	TrafficClear    TrafficStatus = "Clear"
	TrafficModerate TrafficStatus = "Moderate"
	TrafficHeavy    TrafficStatus = "Heavy"
	TrafficGridlock TrafficStatus = "Gridlock"
)

// TrafficTrend describes how congestion is expected to develop.
type TrafficTrend string

const (
	TrendImproving TrafficTrend = "improving"
	TrendStable    TrafficTrend = "stable"
	TrendWorsening TrafficTrend = "worsening"
)

// ParkingLot is a single parking candidate near the destination.
type ParkingLot struct {
	Name         string `json:"name"`
	WalkTimeMins int    `json:"walkTimeMins"`
	EntranceType string `json:"entranceType"` // Gate, Garage or Entrance
}

// GroundingSource is a citation the reasoning service used as evidence.
type GroundingSource struct {
	Title string `json:"title"`
	URI   string `json:"uri"`
}

// Driving holds the drive-side fields of a completed analysis.
type Driving struct {
	DriveTimeMins  int           `json:"driveTimeMins"`
	TrafficStatus  TrafficStatus `json:"trafficStatus"`
	TrafficTrend   TrafficTrend  `json:"trafficTrend"`
	ParkingOptions []ParkingLot  `json:"parkingOptions"`
	TotalTimeMins  int           `json:"totalTimeMins"` // drive + walk from first parking option
}

// Walking holds the walk-side fields of a completed analysis.
type Walking struct {
	WalkTimeMins         int      `json:"walkTimeMins"`
	Temperature          *float64 `json:"temperature,omitempty"` // Celsius
	WeatherCondition     string   `json:"weatherCondition,omitempty"`
	WeatherAlert         string   `json:"weatherAlert,omitempty"`
	IsRecommended        bool     `json:"isRecommended"`
	RecommendationReason string   `json:"recommendationReason,omitempty"`
}

// Analysis is the complete, displayable trip intelligence record. It is only
// ever built whole by Merge; callers never see a partially filled Analysis.
type Analysis struct {
	Destination      string            `json:"destination"`
	Timestamp        int64             `json:"timestamp"` // epoch milliseconds, set at merge time
	IsOpenAtArrival  bool              `json:"isOpenAtArrival"`
	ClosingTime      string            `json:"closingTime,omitempty"`
	NextOpeningTime  string            `json:"nextOpeningTime,omitempty"`
	Driving          Driving           `json:"driving"`
	Walking          Walking           `json:"walking"`
	GroundingSources []GroundingSource `json:"groundingSources"`
}

// CoreResult is the partial analysis returned by the fast core query.
// The JSON tags match the shape the reasoning service is instructed to emit.
type CoreResult struct {
	Destination     string `json:"destination"`
	IsOpenAtArrival *bool  `json:"isOpenAtArrival"`
	ClosingTime     string `json:"closingTime"`
	NextOpeningTime string `json:"nextOpeningTime"`
	Driving         struct {
		DriveTimeMins int    `json:"driveTimeMins"`
		TrafficStatus string `json:"trafficStatus"`
	} `json:"driving"`
	Walking struct {
		WalkTimeMins int `json:"walkTimeMins"`
	} `json:"walking"`
}

// DeepResult is the partial analysis returned by the deep context query.
type DeepResult struct {
	Driving struct {
		TrafficTrend   string       `json:"trafficTrend"`
		ParkingOptions []ParkingLot `json:"parkingOptions"`
	} `json:"driving"`
	Walking struct {
		Temperature          *float64 `json:"temperature"`
		WeatherCondition     string   `json:"weatherCondition"`
		WeatherAlert         string   `json:"weatherAlert"`
		IsRecommended        *bool    `json:"isRecommended"`
		RecommendationReason string   `json:"recommendationReason"`
	} `json:"walking"`
	GroundingSources []GroundingSource `json:"-"`
}

// NormalizeTrafficStatus maps a raw status string from the reasoning service
// onto the fixed enumeration. Missing values and "unknown" (any case) become
// Moderate; recognized values are case-normalized; anything else passes
// through unchanged.
func NormalizeTrafficStatus(raw string) TrafficStatus {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "", "unknown":
		return TrafficModerate
	case "clear":
		return TrafficClear
	case "moderate":
		return TrafficModerate
	case "heavy":
		return TrafficHeavy
	case "gridlock":
		return TrafficGridlock
	}
	return TrafficStatus(raw)
}

// NormalizeTrafficTrend maps a raw trend string onto the fixed enumeration,
// defaulting to stable.
func NormalizeTrafficTrend(raw string) TrafficTrend {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "improving":
		return TrendImproving
	case "worsening":
		return TrendWorsening
	}
	return TrendStable
}
