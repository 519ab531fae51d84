package test

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync"

	"github.com/2beens/fittrack/internal/audio"
	"github.com/2beens/fittrack/internal/schedule"
	"github.com/2beens/fittrack/internal/tracker"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func (s *IntegrationTestSuite) doRequest(ctx context.Context, method, path, body string, target any) int {
	t := s.T()

	req, err := http.NewRequestWithContext(ctx, method, serverEndpoint+path, strings.NewReader(body))
	require.NoError(t, err)
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := s.httpClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	respBytes, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	if target != nil {
		require.NoError(t, json.Unmarshal(respBytes, target), string(respBytes))
	}
	return resp.StatusCode
}

func (s *IntegrationTestSuite) TestTrackerFlow() {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	t := s.T()
	week := schedule.NewWeekInfo(2031, 7)

	var writeResp tracker.WriteResponse
	status := s.doRequest(ctx, "POST", "/complete",
		fmt.Sprintf(`{"week":%q,"day":"Wednesday","key":0,"completed":true}`, week.Key), &writeResp)
	require.Equal(t, http.StatusOK, status)
	assert.True(t, writeResp.OK)

	// same call again leaves the document as it is
	status = s.doRequest(ctx, "POST", "/complete",
		fmt.Sprintf(`{"week":%q,"day":"Wednesday","key":0,"completed":true}`, week.Key), &writeResp)
	require.Equal(t, http.StatusOK, status)

	status = s.doRequest(ctx, "POST", "/weight",
		`{"day":"Wednesday","key":"squat","weights":{"Andy":"70 kg","Petronela":"40"}}`, &writeResp)
	require.Equal(t, http.StatusOK, status)
	assert.True(t, writeResp.OK)

	var stateResp tracker.StateResponse
	status = s.doRequest(ctx, "GET", "/state", "", &stateResp)
	require.Equal(t, http.StatusOK, status)
	assert.Empty(t, stateResp.Error)
	assert.Equal(t, map[string]any{"Wednesday": map[string]any{"0": true}}, stateResp.Status[week.Key])
	assert.Equal(t, map[string]any{
		"squat": map[string]any{"Andy": "70", "Petronela": "40"},
	}, stateResp.Weights["Wednesday"])

	var progressResp tracker.ProgressResponse
	status = s.doRequest(ctx, "GET", "/progress?week="+week.Key, "", &progressResp)
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, 4, progressResp.Total)
	assert.Equal(t, 1, progressResp.Completed)
	assert.Equal(t, 25, progressResp.Percentage)

	status = s.doRequest(ctx, "POST", "/complete", `{"day":"Wednesday","key":0}`, &writeResp)
	assert.Equal(t, http.StatusBadRequest, status)
	assert.False(t, writeResp.OK)
	assert.Equal(t, tracker.FailureValidation, writeResp.Kind)
}

func (s *IntegrationTestSuite) TestTrackerConcurrentCompletions() {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	t := s.T()
	week := schedule.NewWeekInfo(2031, 8)

	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			var writeResp tracker.WriteResponse
			status := s.doRequest(ctx, "POST", "/complete",
				fmt.Sprintf(`{"week":%q,"day":"Friday","key":%d,"completed":true}`, week.Key, i), &writeResp)
			assert.Equal(t, http.StatusOK, status)
			assert.True(t, writeResp.OK)
		}(i)
	}
	wg.Wait()

	var stateResp tracker.StateResponse
	require.Equal(t, http.StatusOK, s.doRequest(ctx, "GET", "/state", "", &stateResp))
	friday := stateResp.Status[week.Key].(map[string]any)["Friday"].(map[string]any)
	assert.Len(t, friday, 10)
}

func (s *IntegrationTestSuite) TestAudio() {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	t := s.T()

	var tracksResp audio.TracksResponse
	require.Equal(t, http.StatusOK, s.doRequest(ctx, "GET", "/audio", "", &tracksResp))
	assert.Equal(t, []audio.Track{
		{Name: "cool down", URL: "/audio/cool-down.ogg", File: "cool-down.ogg"},
		{Name: "Warm Up", URL: "/audio/Warm_Up.mp3", File: "Warm_Up.mp3"},
	}, tracksResp.Tracks)

	assert.Equal(t, http.StatusOK, s.doRequest(ctx, "GET", "/audio/Warm_Up.mp3", "", nil))
	assert.Equal(t, http.StatusNotFound, s.doRequest(ctx, "GET", "/audio/readme.txt", "", nil))
}

func (s *IntegrationTestSuite) TestMetricsEndpoint() {
	t := s.T()

	resp, err := s.httpClient.Get(fmt.Sprintf("http://%s:9002/metrics", serverHost))
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.Contains(t, string(body), "fittrack_main_life_signal 1")
}
