package api

import (
	"context"
	"net/http"

	"github.com/danielgtaylor/huma/v2"

	"github.com/basegroupapp/basegroup-server/internal/basegroup"
	"github.com/basegroupapp/basegroup-server/internal/domain"
	domainerrors "github.com/basegroupapp/basegroup-server/internal/errors"
)

func (s *Server) registerQueryRoutes() {
	huma.Register(s.api, huma.Operation{
		OperationID: "listGroups",
		Method:      http.MethodGet,
		Path:        "/api/v1/groups",
		Summary:     "List groups",
		Description: "Returns every group key with its member base names and record count",
		Tags:        []string{"Groups"},
		Security:    []map[string][]string{{"bearer": {}}},
	}, s.handleListGroups)

	huma.Register(s.api, huma.Operation{
		OperationID: "getGroupRecords",
		Method:      http.MethodGet,
		Path:        "/api/v1/groups/{key}/records",
		Summary:     "Get group records",
		Description: "Returns the records grouped under a key, or under an exact base name",
		Tags:        []string{"Groups"},
		Security:    []map[string][]string{{"bearer": {}}},
	}, s.handleGetGroupRecords)

	huma.Register(s.api, huma.Operation{
		OperationID: "getGroupStats",
		Method:      http.MethodGet,
		Path:        "/api/v1/groups/{key}/stats",
		Summary:     "Get group stats",
		Description: "Returns approval status counts for one group",
		Tags:        []string{"Groups"},
		Security:    []map[string][]string{{"bearer": {}}},
	}, s.handleGetGroupStats)

	huma.Register(s.api, huma.Operation{
		OperationID: "getStats",
		Method:      http.MethodGet,
		Path:        "/api/v1/stats",
		Summary:     "Get dataset stats",
		Description: "Returns per-group status counts with dataset totals and percentages",
		Tags:        []string{"Stats"},
		Security:    []map[string][]string{{"bearer": {}}},
	}, s.handleGetStats)

	huma.Register(s.api, huma.Operation{
		OperationID: "combine",
		Method:      http.MethodPost,
		Path:        "/api/v1/query/combine",
		Summary:     "Combine groups",
		Description: "Returns the deduplicated union of records across several keys or base names",
		Tags:        []string{"Query"},
		Security:    []map[string][]string{{"bearer": {}}},
	}, s.handleCombine)

	huma.Register(s.api, huma.Operation{
		OperationID: "search",
		Method:      http.MethodGet,
		Path:        "/api/v1/query/search",
		Summary:     "Search records",
		Description: "Scans all record fields for a term, partial or exact",
		Tags:        []string{"Query"},
		Security:    []map[string][]string{{"bearer": {}}},
	}, s.handleSearch)

	huma.Register(s.api, huma.Operation{
		OperationID: "fuzzySearch",
		Method:      http.MethodGet,
		Path:        "/api/v1/query/fuzzy",
		Summary:     "Fuzzy search",
		Description: "Runs a ranked, typo-tolerant search over the session's dataset",
		Tags:        []string{"Query"},
		Security:    []map[string][]string{{"bearer": {}}},
	}, s.handleFuzzySearch)

	huma.Register(s.api, huma.Operation{
		OperationID: "listRecords",
		Method:      http.MethodGet,
		Path:        "/api/v1/records",
		Summary:     "List records",
		Description: "Returns a page of records in dataset order, optionally filtered by status",
		Tags:        []string{"Records"},
		Security:    []map[string][]string{{"bearer": {}}},
	}, s.handleListRecords)
}

// === DTOs ===

// RecordResponse is the API view of one dataset record.
type RecordResponse struct {
	Index     int               `json:"index" doc:"Zero-based dataset position"`
	RawBase   string            `json:"raw_base" doc:"Base name as it appears in the file"`
	Key       string            `json:"key" doc:"Canonical group key"`
	Ungrouped bool              `json:"ungrouped,omitempty" doc:"True when the base name carried no group marker"`
	Status    string            `json:"status" doc:"Classified approval status"`
	Fields    map[string]string `json:"fields" doc:"All cell values keyed by column header"`
}

// GroupResponse describes one group.
type GroupResponse struct {
	Key      string   `json:"key" doc:"Canonical group key"`
	RawNames []string `json:"raw_names" doc:"Base names observed under this key"`
	Count    int      `json:"count" doc:"Number of records in the group"`
}

// ListGroupsInput contains parameters for listing groups.
type ListGroupsInput struct {
	Authorization string `header:"Authorization"`
}

// ListGroupsResponse contains all groups.
type ListGroupsResponse struct {
	Groups []GroupResponse `json:"groups" doc:"Groups in first-appearance order"`
}

// ListGroupsOutput wraps the groups response for Huma.
type ListGroupsOutput struct {
	Body ListGroupsResponse
}

// GroupRecordsInput contains parameters for fetching a group's records.
type GroupRecordsInput struct {
	Authorization string `header:"Authorization"`
	Key           string `path:"key" doc:"Group key or exact base name"`
}

// RecordsResponse contains a list of records.
type RecordsResponse struct {
	Records []RecordResponse `json:"records" doc:"Records in dataset order"`
	Total   int              `json:"total" doc:"Total records matching"`
}

// RecordsOutput wraps a records response for Huma.
type RecordsOutput struct {
	Body RecordsResponse
}

// GroupStatsInput contains parameters for one group's stats.
type GroupStatsInput struct {
	Authorization string `header:"Authorization"`
	Key           string `path:"key" doc:"Group key or exact base name"`
}

// StatsResponse contains status counts for one group.
type StatsResponse struct {
	Key           string `json:"key" doc:"Group key"`
	Count         int    `json:"count" doc:"Total records"`
	ApprovedCount int    `json:"approved_count" doc:"Approved records"`
	DeniedCount   int    `json:"denied_count" doc:"Denied records"`
	OtherCount    int    `json:"other_count" doc:"Records with any other status"`
}

// StatsOutput wraps the stats response for Huma.
type StatsOutput struct {
	Body StatsResponse
}

// KeyStatsResponse is one row of the all-groups stats view.
type KeyStatsResponse struct {
	StatsResponse
	Percent float64 `json:"percent" doc:"Share of all dataset rows"`
}

// AllStatsResponse contains stats for every group plus totals.
type AllStatsResponse struct {
	Keys   []KeyStatsResponse `json:"keys" doc:"Per-group stats in first-appearance order"`
	Totals StatsResponse      `json:"totals" doc:"Dataset-wide totals"`
}

// AllStatsInput contains parameters for the dataset stats.
type AllStatsInput struct {
	Authorization string `header:"Authorization"`
}

// AllStatsOutput wraps the all-stats response for Huma.
type AllStatsOutput struct {
	Body AllStatsResponse
}

// CombineRequest selects the groups to combine.
type CombineRequest struct {
	Bases []string `json:"bases" validate:"required,min=1,max=100" doc:"Group keys or base names"`
}

// CombineInput wraps the combine request for Huma.
type CombineInput struct {
	Authorization string `header:"Authorization"`
	Body          CombineRequest
}

// SearchInput contains parameters for the deterministic search.
type SearchInput struct {
	Authorization string `header:"Authorization"`
	Term          string `query:"term" doc:"Search term"`
	Mode          string `query:"mode" enum:"partial,exact" default:"partial" doc:"Matching mode"`
}

// FuzzySearchInput contains parameters for the ranked search.
type FuzzySearchInput struct {
	Authorization string `header:"Authorization"`
	Term          string `query:"term" doc:"Search term"`
	Limit         int    `query:"limit" default:"20" minimum:"1" maximum:"100" doc:"Maximum hits"`
}

// FuzzyHitResponse is one ranked search hit.
type FuzzyHitResponse struct {
	Row      int     `json:"row" doc:"Dataset position of the record"`
	RawBase  string  `json:"raw_base" doc:"Base name of the record"`
	Key      string  `json:"key" doc:"Group key of the record"`
	Score    float64 `json:"score" doc:"Relevance score"`
	Fragment string  `json:"fragment,omitempty" doc:"Highlighted match fragment"`
}

// FuzzySearchResponse contains ranked search hits.
type FuzzySearchResponse struct {
	Query  string             `json:"query" doc:"Search term as executed"`
	Total  uint64             `json:"total" doc:"Total matching records"`
	TookMs int64              `json:"took_ms" doc:"Search duration in milliseconds"`
	Hits   []FuzzyHitResponse `json:"hits" doc:"Hits by descending score"`
}

// FuzzySearchOutput wraps the fuzzy search response for Huma.
type FuzzySearchOutput struct {
	Body FuzzySearchResponse
}

// ListRecordsInput contains paging and filter parameters.
type ListRecordsInput struct {
	Authorization string `header:"Authorization"`
	Offset        int    `query:"offset" default:"0" minimum:"0" doc:"Rows to skip"`
	Limit         int    `query:"limit" default:"50" minimum:"1" maximum:"500" doc:"Maximum rows to return"`
	Status        string `query:"status" doc:"Optional status filter: approved, denied, or other"`
}

// === Handlers ===

func (s *Server) handleListGroups(ctx context.Context, input *ListGroupsInput) (*ListGroupsOutput, error) {
	sessionID, err := s.authenticateRequest(ctx, input.Authorization)
	if err != nil {
		return nil, err
	}

	groups, err := s.services.Dataset.Groups(ctx, sessionID)
	if err != nil {
		return nil, err
	}

	resp := make([]GroupResponse, len(groups))
	for i, g := range groups {
		resp[i] = GroupResponse{Key: g.Key, RawNames: g.RawNames, Count: g.Count}
	}

	return &ListGroupsOutput{Body: ListGroupsResponse{Groups: resp}}, nil
}

func (s *Server) handleGetGroupRecords(ctx context.Context, input *GroupRecordsInput) (*RecordsOutput, error) {
	sessionID, err := s.authenticateRequest(ctx, input.Authorization)
	if err != nil {
		return nil, err
	}

	records, err := s.services.Dataset.FilterByBase(ctx, sessionID, input.Key)
	if err != nil {
		return nil, err
	}

	return &RecordsOutput{Body: mapRecords(records, len(records))}, nil
}

func (s *Server) handleGetGroupStats(ctx context.Context, input *GroupStatsInput) (*StatsOutput, error) {
	sessionID, err := s.authenticateRequest(ctx, input.Authorization)
	if err != nil {
		return nil, err
	}

	stats, err := s.services.Dataset.GroupStats(ctx, sessionID, input.Key)
	if err != nil {
		return nil, err
	}

	return &StatsOutput{Body: mapStats(stats)}, nil
}

func (s *Server) handleGetStats(ctx context.Context, input *AllStatsInput) (*AllStatsOutput, error) {
	sessionID, err := s.authenticateRequest(ctx, input.Authorization)
	if err != nil {
		return nil, err
	}

	all, err := s.services.Dataset.StatsAll(ctx, sessionID)
	if err != nil {
		return nil, err
	}

	keys := make([]KeyStatsResponse, len(all.Keys))
	for i, ks := range all.Keys {
		keys[i] = KeyStatsResponse{StatsResponse: mapStats(ks.Stats), Percent: ks.Percent}
	}

	return &AllStatsOutput{
		Body: AllStatsResponse{
			Keys:   keys,
			Totals: mapStats(all.Totals),
		},
	}, nil
}

func (s *Server) handleCombine(ctx context.Context, input *CombineInput) (*RecordsOutput, error) {
	sessionID, err := s.authenticateRequest(ctx, input.Authorization)
	if err != nil {
		return nil, err
	}

	records, err := s.services.Dataset.Combine(ctx, sessionID, input.Body.Bases)
	if err != nil {
		return nil, err
	}

	return &RecordsOutput{Body: mapRecords(records, len(records))}, nil
}

func (s *Server) handleSearch(ctx context.Context, input *SearchInput) (*RecordsOutput, error) {
	sessionID, err := s.authenticateRequest(ctx, input.Authorization)
	if err != nil {
		return nil, err
	}

	mode := basegroup.ModePartial
	if input.Mode == string(basegroup.ModeExact) {
		mode = basegroup.ModeExact
	}

	records, err := s.services.Dataset.Search(ctx, sessionID, basegroup.SearchQuery{
		Term: input.Term,
		Mode: mode,
	})
	if err != nil {
		return nil, err
	}

	return &RecordsOutput{Body: mapRecords(records, len(records))}, nil
}

func (s *Server) handleFuzzySearch(ctx context.Context, input *FuzzySearchInput) (*FuzzySearchOutput, error) {
	sessionID, err := s.authenticateRequest(ctx, input.Authorization)
	if err != nil {
		return nil, err
	}

	res, err := s.services.Dataset.FuzzySearch(ctx, sessionID, input.Term, input.Limit)
	if err != nil {
		return nil, err
	}

	hits := make([]FuzzyHitResponse, len(res.Hits))
	for i, h := range res.Hits {
		hits[i] = FuzzyHitResponse{
			Row:      h.Row,
			RawBase:  h.RawBase,
			Key:      h.Key,
			Score:    h.Score,
			Fragment: h.Fragment,
		}
	}

	return &FuzzySearchOutput{
		Body: FuzzySearchResponse{
			Query:  res.Query,
			Total:  res.Total,
			TookMs: res.TookMs,
			Hits:   hits,
		},
	}, nil
}

func (s *Server) handleListRecords(ctx context.Context, input *ListRecordsInput) (*RecordsOutput, error) {
	sessionID, err := s.authenticateRequest(ctx, input.Authorization)
	if err != nil {
		return nil, err
	}

	if input.Status != "" {
		status, err := parseStatus(input.Status)
		if err != nil {
			return nil, err
		}
		records, err := s.services.Dataset.FilterByStatus(ctx, sessionID, status)
		if err != nil {
			return nil, err
		}
		return &RecordsOutput{Body: mapRecords(pageOf(records, input.Offset, input.Limit), len(records))}, nil
	}

	records, total, err := s.services.Dataset.Records(ctx, sessionID, input.Offset, input.Limit)
	if err != nil {
		return nil, err
	}

	return &RecordsOutput{Body: mapRecords(records, total)}, nil
}

// === Helpers ===

func mapRecords(records []domain.Record, total int) RecordsResponse {
	resp := make([]RecordResponse, len(records))
	for i, rec := range records {
		resp[i] = RecordResponse{
			Index:     rec.Index,
			RawBase:   rec.RawBase,
			Key:       rec.Key,
			Ungrouped: rec.Ungrouped,
			Status:    string(rec.Status),
			Fields:    rec.Fields,
		}
	}
	return RecordsResponse{Records: resp, Total: total}
}

func mapStats(st basegroup.Stats) StatsResponse {
	return StatsResponse{
		Key:           st.Key,
		Count:         st.Count,
		ApprovedCount: st.ApprovedCount,
		DeniedCount:   st.DeniedCount,
		OtherCount:    st.OtherCount,
	}
}

func parseStatus(s string) (domain.Status, error) {
	switch s {
	case string(domain.StatusApproved):
		return domain.StatusApproved, nil
	case string(domain.StatusDenied):
		return domain.StatusDenied, nil
	case string(domain.StatusOther):
		return domain.StatusOther, nil
	default:
		return "", domainerrors.Validationf("unknown status %q", s)
	}
}

func pageOf(records []domain.Record, offset, limit int) []domain.Record {
	if offset < 0 {
		offset = 0
	}
	if offset >= len(records) {
		return nil
	}
	end := len(records)
	if limit > 0 && offset+limit < end {
		end = offset + limit
	}
	return records[offset:end]
}
