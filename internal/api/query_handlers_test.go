package api

import (
	"encoding/base64"
	"encoding/json/v2"
	"net/http"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sampleCSV = `Base,Checker,Owner
20221-US-LY,Approved,anastasia
20221-US-NF,Not Approved,benjamin
20232-US-LY,Not in time,anastasia
20233-US-NF,Approved,catherine
oddball,,delia
`

// uploadSample uploads the sample CSV for the authenticated session.
func (ts *testServer) uploadSample(t *testing.T, token string) DatasetResponse {
	t.Helper()

	resp := ts.api.Post("/api/v1/datasets/upload",
		"Authorization: Bearer "+token,
		map[string]any{
			"file_name": "report.csv",
			"content":   base64.StdEncoding.EncodeToString([]byte(sampleCSV)),
		})
	require.Equal(t, http.StatusOK, resp.Code, "Upload failed: %s", resp.Body.String())

	var envelope testEnvelope[DatasetResponse]
	require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &envelope))
	return envelope.Data
}

func TestUploadDataset(t *testing.T) {
	ts := setupTestServer(t)
	token, _ := ts.setupAndLogin(t)

	ds := ts.uploadSample(t, token)
	assert.Equal(t, "report.csv", ds.Name)
	assert.Equal(t, "upload", ds.Source)
	assert.Equal(t, "Base", ds.BaseColumn)
	assert.Equal(t, "Checker", ds.StatusColumn)
	assert.Equal(t, 5, ds.RowCount)
	assert.Equal(t, 3, ds.KeyCount)
}

func TestUploadDataset_BadBase64(t *testing.T) {
	ts := setupTestServer(t)
	token, _ := ts.setupAndLogin(t)

	resp := ts.api.Post("/api/v1/datasets/upload",
		"Authorization: Bearer "+token,
		map[string]any{
			"file_name": "report.csv",
			"content":   "not base64!!!",
		})
	assert.Equal(t, http.StatusBadRequest, resp.Code)
}

func TestLoadDataset_FromDataDir(t *testing.T) {
	ts := setupTestServer(t)
	token, _ := ts.setupAndLogin(t)

	require.NoError(t, os.WriteFile(filepath.Join(ts.dataDir, "report.csv"), []byte(sampleCSV), 0o600))
	ts.services.Files.Invalidate()

	resp := ts.api.Post("/api/v1/datasets/load",
		"Authorization: Bearer "+token,
		map[string]any{"file_name": "report.csv"})
	require.Equal(t, http.StatusOK, resp.Code, resp.Body.String())

	var envelope testEnvelope[DatasetResponse]
	require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &envelope))
	assert.Equal(t, "data_dir", envelope.Data.Source)
	assert.Equal(t, 5, envelope.Data.RowCount)
}

func TestLoadDataset_MissingFile(t *testing.T) {
	ts := setupTestServer(t)
	token, _ := ts.setupAndLogin(t)

	resp := ts.api.Post("/api/v1/datasets/load",
		"Authorization: Bearer "+token,
		map[string]any{"file_name": "nope.csv"})
	assert.Equal(t, http.StatusNotFound, resp.Code)
}

func TestListFiles(t *testing.T) {
	ts := setupTestServer(t)
	token, _ := ts.setupAndLogin(t)

	require.NoError(t, os.WriteFile(filepath.Join(ts.dataDir, "report.csv"), []byte(sampleCSV), 0o600))
	require.NoError(t, os.WriteFile(filepath.Join(ts.dataDir, "notes.txt"), []byte("x"), 0o600))
	ts.services.Files.Invalidate()

	resp := ts.api.Get("/api/v1/files", "Authorization: Bearer "+token)
	require.Equal(t, http.StatusOK, resp.Code)

	var envelope testEnvelope[ListFilesResponse]
	require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &envelope))
	require.Len(t, envelope.Data.Files, 1)
	assert.Equal(t, "report.csv", envelope.Data.Files[0].Name)
}

func TestGetCurrentDataset_EmptyIs422(t *testing.T) {
	ts := setupTestServer(t)
	token, _ := ts.setupAndLogin(t)

	resp := ts.api.Get("/api/v1/datasets/current", "Authorization: Bearer "+token)
	assert.Equal(t, http.StatusUnprocessableEntity, resp.Code)

	var envelope testEnvelope[struct{}]
	require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &envelope))
	assert.False(t, envelope.Success)
	assert.Equal(t, "EMPTY_DATASET", envelope.Code)
}

func TestListGroups(t *testing.T) {
	ts := setupTestServer(t)
	token, _ := ts.setupAndLogin(t)
	ts.uploadSample(t, token)

	resp := ts.api.Get("/api/v1/groups", "Authorization: Bearer "+token)
	require.Equal(t, http.StatusOK, resp.Code)

	var envelope testEnvelope[ListGroupsResponse]
	require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &envelope))
	require.Len(t, envelope.Data.Groups, 3)
	assert.Equal(t, "LY", envelope.Data.Groups[0].Key)
	assert.Equal(t, []string{"20221-US-LY", "20232-US-LY"}, envelope.Data.Groups[0].RawNames)
}

func TestGetGroupRecords(t *testing.T) {
	ts := setupTestServer(t)
	token, _ := ts.setupAndLogin(t)
	ts.uploadSample(t, token)

	resp := ts.api.Get("/api/v1/groups/NF/records", "Authorization: Bearer "+token)
	require.Equal(t, http.StatusOK, resp.Code)

	var envelope testEnvelope[RecordsResponse]
	require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &envelope))
	require.Len(t, envelope.Data.Records, 2)
	assert.Equal(t, "20221-US-NF", envelope.Data.Records[0].RawBase)
	assert.Equal(t, "20233-US-NF", envelope.Data.Records[1].RawBase)

	// Unknown keys yield an empty result, not an error.
	resp = ts.api.Get("/api/v1/groups/ZZ/records", "Authorization: Bearer "+token)
	require.Equal(t, http.StatusOK, resp.Code)
	require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &envelope))
	assert.Empty(t, envelope.Data.Records)
}

func TestGetGroupStats(t *testing.T) {
	ts := setupTestServer(t)
	token, _ := ts.setupAndLogin(t)
	ts.uploadSample(t, token)

	resp := ts.api.Get("/api/v1/groups/NF/stats", "Authorization: Bearer "+token)
	require.Equal(t, http.StatusOK, resp.Code)

	var envelope testEnvelope[StatsResponse]
	require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &envelope))
	assert.Equal(t, 2, envelope.Data.Count)
	assert.Equal(t, 1, envelope.Data.ApprovedCount)
	assert.Equal(t, 1, envelope.Data.DeniedCount)
	assert.Equal(t, 0, envelope.Data.OtherCount)
}

func TestGetStats_TotalsAndPercentages(t *testing.T) {
	ts := setupTestServer(t)
	token, _ := ts.setupAndLogin(t)
	ts.uploadSample(t, token)

	resp := ts.api.Get("/api/v1/stats", "Authorization: Bearer "+token)
	require.Equal(t, http.StatusOK, resp.Code)

	var envelope testEnvelope[AllStatsResponse]
	require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &envelope))
	assert.Equal(t, 5, envelope.Data.Totals.Count)

	var percent float64
	for _, ks := range envelope.Data.Keys {
		percent += ks.Percent
		assert.Equal(t, ks.Count, ks.ApprovedCount+ks.DeniedCount+ks.OtherCount)
	}
	assert.InDelta(t, 100.0, percent, 0.001)
}

func TestCombine_DeduplicatesAndOrders(t *testing.T) {
	ts := setupTestServer(t)
	token, _ := ts.setupAndLogin(t)
	ts.uploadSample(t, token)

	resp := ts.api.Post("/api/v1/query/combine",
		"Authorization: Bearer "+token,
		map[string]any{"bases": []string{"NF", "LY", "nf"}})
	require.Equal(t, http.StatusOK, resp.Code)

	var envelope testEnvelope[RecordsResponse]
	require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &envelope))
	require.Len(t, envelope.Data.Records, 4)
	for i := 1; i < len(envelope.Data.Records); i++ {
		assert.Less(t, envelope.Data.Records[i-1].Index, envelope.Data.Records[i].Index)
	}
}

func TestSearch_PartialVersusExact(t *testing.T) {
	ts := setupTestServer(t)
	token, _ := ts.setupAndLogin(t)
	ts.uploadSample(t, token)

	resp := ts.api.Get("/api/v1/query/search?term=us&mode=partial", "Authorization: Bearer "+token)
	require.Equal(t, http.StatusOK, resp.Code)

	var envelope testEnvelope[RecordsResponse]
	require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &envelope))
	assert.Len(t, envelope.Data.Records, 4)

	resp = ts.api.Get("/api/v1/query/search?term=us&mode=exact", "Authorization: Bearer "+token)
	require.Equal(t, http.StatusOK, resp.Code)
	require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &envelope))
	assert.Empty(t, envelope.Data.Records)

	resp = ts.api.Get("/api/v1/query/search?term=Anastasia&mode=exact", "Authorization: Bearer "+token)
	require.Equal(t, http.StatusOK, resp.Code)
	require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &envelope))
	assert.Len(t, envelope.Data.Records, 2)
}

func TestFuzzySearch_ToleratesTypos(t *testing.T) {
	ts := setupTestServer(t)
	token, _ := ts.setupAndLogin(t)
	ts.uploadSample(t, token)

	resp := ts.api.Get("/api/v1/query/fuzzy?term=benjamim", "Authorization: Bearer "+token)
	require.Equal(t, http.StatusOK, resp.Code)

	var envelope testEnvelope[FuzzySearchResponse]
	require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &envelope))
	require.NotEmpty(t, envelope.Data.Hits)
	assert.Equal(t, 1, envelope.Data.Hits[0].Row)
}

func TestListRecords_PagingAndStatusFilter(t *testing.T) {
	ts := setupTestServer(t)
	token, _ := ts.setupAndLogin(t)
	ts.uploadSample(t, token)

	resp := ts.api.Get("/api/v1/records?offset=1&limit=2", "Authorization: Bearer "+token)
	require.Equal(t, http.StatusOK, resp.Code)

	var envelope testEnvelope[RecordsResponse]
	require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &envelope))
	assert.Equal(t, 5, envelope.Data.Total)
	require.Len(t, envelope.Data.Records, 2)
	assert.Equal(t, 1, envelope.Data.Records[0].Index)

	resp = ts.api.Get("/api/v1/records?status=approved", "Authorization: Bearer "+token)
	require.Equal(t, http.StatusOK, resp.Code)
	require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &envelope))
	assert.Equal(t, 2, envelope.Data.Total)

	resp = ts.api.Get("/api/v1/records?status=bogus", "Authorization: Bearer "+token)
	assert.Equal(t, http.StatusBadRequest, resp.Code)
}

func TestQueries_EmptySessionReturnEmpty(t *testing.T) {
	ts := setupTestServer(t)
	token, _ := ts.setupAndLogin(t)

	resp := ts.api.Get("/api/v1/groups", "Authorization: Bearer "+token)
	require.Equal(t, http.StatusOK, resp.Code)

	var envelope testEnvelope[ListGroupsResponse]
	require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &envelope))
	assert.Empty(t, envelope.Data.Groups)
}
