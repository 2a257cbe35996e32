package internal

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"lastmile-backend/config"
	"lastmile-backend/internal/api"
	"lastmile-backend/internal/intel"
	"lastmile-backend/internal/model"
	"lastmile-backend/internal/store"
	"lastmile-backend/internal/tracker"
	"lastmile-backend/internal/trip"
)

// TestTripLifecycle walks the whole flow against a mock reasoning service:
// log in, search, check history, share the result, read the recipient's
// inbox and clear it, verifying database state along the way.
func TestTripLifecycle(t *testing.T) {
	gin.SetMode(gin.TestMode)

	// 1. In-memory SQLite database.
	testDB, err := gorm.Open(sqlite.Open("file::memory:?cache=shared"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	sqlDB, err := testDB.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	defer sqlDB.Close()

	err = testDB.AutoMigrate(&model.User{}, &model.SearchRecord{}, &model.SharedSnapshot{}, &model.PushSubscription{})
	require.NoError(t, err)

	// 2. Mock server simulating the reasoning service. It inspects the
	// request tools to decide which of the two queries it is answering.
	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req intel.GenerateRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))

		deep := false
		for _, tool := range req.Tools {
			if tool.GoogleSearch != nil {
				deep = true
			}
		}

		var candidate intel.Candidate
		if deep {
			candidate.Content.Parts = []intel.Part{{Text: `Here you go: {
				"driving": {"trafficTrend": "worsening", "parkingOptions": [
					{"name": "Beach Street Garage", "walkTimeMins": 6, "entranceType": "Garage"}
				]},
				"walking": {"temperature": 17.5, "weatherCondition": "Foggy", "isRecommended": true, "recommendationReason": "Flat route"}
			}`}}
			candidate.GroundingMetadata = &intel.GroundingMetadata{
				GroundingChunks: []intel.GroundingChunk{
					{Maps: &intel.ChunkSource{Title: "Pier 39", URI: "https://maps.example/pier39"}},
				},
			}
		} else {
			candidate.Content.Parts = []intel.Part{{Text: `{
				"destination": "Pier 39",
				"isOpenAtArrival": true,
				"closingTime": "10:00 PM",
				"driving": {"driveTimeMins": 14, "trafficStatus": "Heavy"},
				"walking": {"walkTimeMins": 35}
			}`}}
		}

		w.Header().Set("Content-Type", "application/json")
		err := json.NewEncoder(w).Encode(intel.GenerateResponse{Candidates: []intel.Candidate{candidate}})
		assert.NoError(t, err)
	}))
	defer upstream.Close()

	// 3. Wire the real stack on top of the mocks.
	intelCfg := config.IntelConfig{
		BaseURL: upstream.URL,
		Model:   "test-model",
		APIKey:  "test-key",
		Timeout: 5 * time.Second,
	}
	analyzer := intel.NewService(intel.NewClient(&intelCfg))
	gormStore := store.NewGormStore(testDB)
	trk := tracker.New(analyzer, time.Hour, 5)
	defer trk.StopAll()

	serverCfg := config.ServerConfig{RateLimitPerSec: 1000, RateLimitBurst: 1000}
	router := api.NewRouter(&serverCfg, gormStore, analyzer, trk, nil, nil)

	do := func(method, path, username string, body any) *httptest.ResponseRecorder {
		var buf bytes.Buffer
		if body != nil {
			require.NoError(t, json.NewEncoder(&buf).Encode(body))
		}
		req, err := http.NewRequest(method, path, &buf)
		require.NoError(t, err)
		req.Header.Set("Content-Type", "application/json")
		if username != "" {
			req.Header.Set("X-Username", username)
		}
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)
		return w
	}

	var analysis trip.Analysis

	t.Run("Login And Search", func(t *testing.T) {
		w := do("POST", "/api/login", "", gin.H{"username": "@Alice"})
		require.Equal(t, http.StatusOK, w.Code)

		w = do("POST", "/api/search", "alice", gin.H{
			"destination": "pier 39",
			"latitude":    37.8087,
			"longitude":   -122.4098,
		})
		require.Equal(t, http.StatusOK, w.Code, w.Body.String())
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &analysis))

		assert.Equal(t, "Pier 39", analysis.Destination)
		assert.Equal(t, trip.TrafficHeavy, analysis.Driving.TrafficStatus)
		assert.Equal(t, trip.TrendWorsening, analysis.Driving.TrafficTrend)
		// 14 min drive + 6 min walk from the first parking option.
		assert.Equal(t, 20, analysis.Driving.TotalTimeMins)
		require.Len(t, analysis.Driving.ParkingOptions, 1)
		assert.Equal(t, "Beach Street Garage", analysis.Driving.ParkingOptions[0].Name)
		require.NotNil(t, analysis.Walking.Temperature)
		assert.InDelta(t, 17.5, *analysis.Walking.Temperature, 0.01)
		require.Len(t, analysis.GroundingSources, 1)
		assert.Equal(t, "Pier 39", analysis.GroundingSources[0].Title)
		assert.NotZero(t, analysis.Timestamp)
	})

	t.Run("Search Is Recorded In History", func(t *testing.T) {
		var count int64
		testDB.Model(&model.SearchRecord{}).Where("username = ?", "alice").Count(&count)
		assert.Equal(t, int64(1), count)

		w := do("GET", "/api/history", "alice", nil)
		require.Equal(t, http.StatusOK, w.Code)
		assert.JSONEq(t, `{"history":["pier 39"]}`, w.Body.String())
	})

	t.Run("Share And Inbox", func(t *testing.T) {
		w := do("POST", "/api/share", "alice", gin.H{"to": "@Bob", "analysis": analysis})
		require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

		var snapCount int64
		testDB.Model(&model.SharedSnapshot{}).Where("to_user = ?", "bob").Count(&snapCount)
		assert.Equal(t, int64(1), snapCount)

		w = do("GET", "/api/inbox", "bob", nil)
		require.Equal(t, http.StatusOK, w.Code)

		var resp struct {
			Inbox []struct {
				From string        `json:"from"`
				Data trip.Analysis `json:"data"`
			} `json:"inbox"`
		}
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
		require.Len(t, resp.Inbox, 1)
		assert.Equal(t, "alice", resp.Inbox[0].From)
		assert.Equal(t, "Pier 39", resp.Inbox[0].Data.Destination)

		// The sender's own inbox stays empty.
		w = do("GET", "/api/inbox", "alice", nil)
		require.Equal(t, http.StatusOK, w.Code)
		assert.JSONEq(t, `{"inbox":[]}`, w.Body.String())

		w = do("DELETE", "/api/inbox", "bob", nil)
		require.Equal(t, http.StatusNoContent, w.Code)
		testDB.Model(&model.SharedSnapshot{}).Where("to_user = ?", "bob").Count(&snapCount)
		assert.Equal(t, int64(0), snapCount)
	})

	t.Run("Repeated Searches Dedupe And Cap History", func(t *testing.T) {
		for i := 0; i < 6; i++ {
			w := do("POST", "/api/search", "alice", gin.H{
				"destination": fmt.Sprintf("stop %d", i),
				"latitude":    37.8,
				"longitude":   -122.4,
			})
			require.Equal(t, http.StatusOK, w.Code)
		}
		// A repeat moves to the front instead of duplicating.
		w := do("POST", "/api/search", "alice", gin.H{
			"destination": "STOP 4",
			"latitude":    37.8,
			"longitude":   -122.4,
		})
		require.Equal(t, http.StatusOK, w.Code)

		history, err := gormStore.History(context.Background(), "alice")
		require.NoError(t, err)
		assert.Equal(t, []string{"STOP 4", "stop 5", "stop 3", "stop 2", "stop 1"}, history)
	})
}
