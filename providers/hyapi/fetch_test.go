package hyapi

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"aacsb-sync/apperrors"
	"aacsb-sync/config"
	"aacsb-sync/models"
)

func testClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	cfg := &config.Config{
		FacultyAPIURL:       srv.URL + "/faculty.json",
		ResearchAPIURL:      srv.URL + "/research.json",
		APIClientID:         "client",
		APISwapKey:          "swap",
		FacultyRemoteToken:  "ftoken",
		ResearchRemoteToken: "rtoken",
		APITimeout:          5 * time.Second,
	}
	loc := time.FixedZone("KST", 9*3600)
	return NewClient(cfg, zap.NewNop(), loc)
}

func TestFetchFaculty(t *testing.T) {
	c := testClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/faculty.json", r.URL.Path)
		assert.Equal(t, "%", r.URL.Query().Get("in_user_id"))
		assert.Equal(t, "client", r.Header.Get("client_id"))
		assert.Equal(t, "swap", r.Header.Get("swap_key"))
		assert.Equal(t, "ftoken", r.Header.Get("remote_token"))
		assert.Equal(t, "application/json", r.Header.Get("Accept"))
		_, _ = w.Write([]byte(`{"response":{"totalCount":2,"list":[
			{"userId":" F100 ","college":"경상대학","jobType":"교원","name":"김철수","highestDegree":"박사",
			 "doctoralDegreeYear":"2010","masterDegreeYear":null,"email":"","updatedAt":"2024/03/01 09:00:00"},
			{"userId":"F101","name":"","updatedAt":""}
		]}}`))
	})

	items, err := c.FetchFaculty(context.Background())
	require.NoError(t, err)
	require.Len(t, items, 2)

	rec, err := items[0].Faculty()
	require.NoError(t, err)
	assert.Equal(t, "F100", rec.UserID)
	assert.Equal(t, models.SourceAPI, rec.DataSource)
	assert.Nil(t, rec.Email)
	assert.Nil(t, rec.MasterDegreeYear)
	require.NotNil(t, rec.DoctoralDegreeYear)
	assert.Equal(t, 2010, *rec.DoctoralDegreeYear)
	require.NotNil(t, rec.SourceUpdatedAt)
	assert.Equal(t, time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC), rec.SourceUpdatedAt.UTC())

	_, err = items[1].Faculty()
	require.ErrorIs(t, err, apperrors.ErrValidation)
}

func TestFetchResearch(t *testing.T) {
	c := testClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "%", r.URL.Query().Get("in_published_year"))
		assert.Equal(t, "rtoken", r.Header.Get("remote_token"))
		_, _ = w.Write([]byte(`{"response":{"totalCount":"3","list":[
			{"researchId":12345,"userId":"F100","tiltle":" Digital Strategy ","publishedAt":"20230315",
			 "type":"논문","impactFactor":0,"isQ1Last3years":"TRUE","isDomestic":"false",
			 "updatedAt":"2024/01/02 03:04:05"},
			{"researchId":"R2","userId":"F100","title":"Fallback Title","publishedAt":"20230101","impactFactor":2.5},
			{"userId":"F100","tiltle":"No id","publishedAt":"20230101"}
		]}}`))
	})

	items, err := c.FetchResearch(context.Background())
	require.NoError(t, err)
	require.Len(t, items, 3)

	first, err := items[0].Research()
	require.NoError(t, err)
	require.NotNil(t, first.APIResearchID)
	assert.Equal(t, "12345", *first.APIResearchID)
	assert.Equal(t, "Digital Strategy", first.Title)
	assert.Equal(t, "2023-03-15", first.PublishedAt.Format("2006-01-02"))
	assert.Equal(t, models.KindPaper, first.Kind)
	assert.Nil(t, first.ImpactFactor)
	assert.Nil(t, first.Fingerprint)
	require.NotNil(t, first.IsQ1Last3Years)
	assert.True(t, *first.IsQ1Last3Years)
	require.NotNil(t, first.IsDomestic)
	assert.False(t, *first.IsDomestic)
	require.NotNil(t, first.SourceUpdatedAt)

	second, err := items[1].Research()
	require.NoError(t, err)
	assert.Equal(t, "Fallback Title", second.Title)
	require.NotNil(t, second.ImpactFactor)
	assert.InDelta(t, 2.5, *second.ImpactFactor, 1e-9)
	assert.Nil(t, second.SourceUpdatedAt)

	_, err = items[2].Research()
	var verr *apperrors.ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, []string{"api_research_id"}, verr.Missing)
}

func TestFetch_Non200(t *testing.T) {
	c := testClient(t, func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "denied", http.StatusForbidden)
	})
	_, err := c.FetchFaculty(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "403")
}

func TestFetch_MissingToken(t *testing.T) {
	c := testClient(t, func(w http.ResponseWriter, r *http.Request) {
		t.Fatal("no request expected")
	})
	c.Config.ResearchRemoteToken = ""
	_, err := c.FetchResearch(context.Background())
	require.Error(t, err)
}
