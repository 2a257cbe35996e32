package trip

import "time"

// Merge combines the core and deep partial results into one complete
// Analysis. It is a pure function of its inputs apart from the timestamp,
// which is assigned at merge time. Defaults applied here:
//
//   - destination falls back to the literal query text
//   - isOpenAtArrival defaults to true
//   - trafficTrend defaults to stable
//   - isRecommended defaults to true
//   - groundingSources defaults to an empty sequence
//
// DriveTimeMins and WalkTimeMins are validated upstream by the core fetch;
// Merge does not re-check them.
func Merge(destinationText string, core CoreResult, deep DeepResult) Analysis {
	destination := core.Destination
	if destination == "" {
		destination = destinationText
	}

	isOpen := true
	if core.IsOpenAtArrival != nil {
		isOpen = *core.IsOpenAtArrival
	}

	parking := deep.Driving.ParkingOptions
	walkFromParking := 0
	if len(parking) > 0 {
		walkFromParking = parking[0].WalkTimeMins
	}
	if parking == nil {
		parking = []ParkingLot{}
	}

	recommended := true
	if deep.Walking.IsRecommended != nil {
		recommended = *deep.Walking.IsRecommended
	}

	sources := deep.GroundingSources
	if sources == nil {
		sources = []GroundingSource{}
	}

	return Analysis{
		Destination:     destination,
		Timestamp:       time.Now().UnixMilli(),
		IsOpenAtArrival: isOpen,
		ClosingTime:     core.ClosingTime,
		NextOpeningTime: core.NextOpeningTime,
		Driving: Driving{
			DriveTimeMins:  core.Driving.DriveTimeMins,
			TrafficStatus:  NormalizeTrafficStatus(core.Driving.TrafficStatus),
			TrafficTrend:   NormalizeTrafficTrend(deep.Driving.TrafficTrend),
			ParkingOptions: parking,
			TotalTimeMins:  core.Driving.DriveTimeMins + walkFromParking,
		},
		Walking: Walking{
			WalkTimeMins:         core.Walking.WalkTimeMins,
			Temperature:          deep.Walking.Temperature,
			WeatherCondition:     deep.Walking.WeatherCondition,
			WeatherAlert:         deep.Walking.WeatherAlert,
			IsRecommended:        recommended,
			RecommendationReason: deep.Walking.RecommendationReason,
		},
		GroundingSources: sources,
	}
}
