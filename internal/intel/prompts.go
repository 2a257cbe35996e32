package intel

import "fmt"

const corePromptTemplate = `Analyze a trip to "%s" from (%f, %f) using the googleMaps tool.

**CRITICAL**: Your entire response MUST be a single, valid JSON object. Do not include markdown, comments, or any text outside of the JSON structure.
**CRITICAL**: Do NOT return 0 for "driveTimeMins" or "walkTimeMins". Provide a realistic estimate if a precise value is unavailable.
**CRITICAL**: If the tools do not provide enough information, you MUST still return the complete JSON structure with reasonable default values for the missing fields. NEVER return an empty response.

The JSON object MUST conform to this exact structure:
{
  "destination": "Name of Place",
  "isOpenAtArrival": boolean,
  "closingTime": "HH:MM AM/PM",
  "nextOpeningTime": "HH:MM AM/PM",
  "driving": {
    "driveTimeMins": number,
    "trafficStatus": "Clear" | "Moderate" | "Heavy" | "Gridlock"
  },
  "walking": {
    "walkTimeMins": number
  }
}`

const deepPromptTemplate = `Find deep details for "%s" at (%f, %f) using googleSearch and googleMaps.

**CRITICAL**: Your entire response MUST be a single, valid JSON object. Do not include markdown, comments, or any text outside of the JSON structure.
**CRITICAL**: If the tools do not provide enough information, you MUST still return the complete JSON structure with reasonable default values for the missing fields. NEVER return an empty response.

The JSON object MUST conform to this exact structure:
{
  "driving": {
    "trafficTrend": "improving" | "stable" | "worsening",
    "parkingOptions": [
      { "name": "Exact Lot Name", "walkTimeMins": number, "entranceType": "Gate" | "Garage" | "Entrance" }
    ]
  },
  "walking": {
    "temperature": number,
    "weatherCondition": "String",
    "weatherAlert": "Short alert for severe conditions (e.g. 'Hail Warning') or null if none.",
    "isRecommended": boolean,
    "recommendationReason": "Short reason for the recommendation (e.g. 'Heavy Rain', 'Pleasant Weather')."
  }
}`

// coreRequest builds the fast query: maps lookup only, deterministic output.
func coreRequest(destination string, lat, lng float64) GenerateRequest {
	return GenerateRequest{
		Contents: []Content{{Parts: []Part{{
			Text: fmt.Sprintf(corePromptTemplate, destination, lat, lng),
		}}}},
		Tools:            []Tool{{GoogleMaps: &struct{}{}}},
		GenerationConfig: &GenerationConfig{Temperature: 0},
	}
}

// deepRequest builds the enrichment query: maps plus web search, retrieval
// grounded at the caller's position.
func deepRequest(destination string, lat, lng float64) GenerateRequest {
	return GenerateRequest{
		Contents: []Content{{Parts: []Part{{
			Text: fmt.Sprintf(deepPromptTemplate, destination, lat, lng),
		}}}},
		Tools: []Tool{{GoogleMaps: &struct{}{}}, {GoogleSearch: &struct{}{}}},
		ToolConfig: &ToolConfig{
			RetrievalConfig: &RetrievalConfig{
				LatLng: LatLng{Latitude: lat, Longitude: lng},
			},
		},
		GenerationConfig: &GenerationConfig{Temperature: 0},
	}
}
