package api

import (
	"context"
	"encoding/base64"
	"net/http"
	"time"

	"github.com/danielgtaylor/huma/v2"

	"github.com/basegroupapp/basegroup-server/internal/domain"
	domainerrors "github.com/basegroupapp/basegroup-server/internal/errors"
	"github.com/basegroupapp/basegroup-server/internal/service"
)

// defaultMaxUploadBytes is the raw file size limit when none is configured.
const defaultMaxUploadBytes = 32 << 20

// uploadBodyLimit bounds the upload request body. Sized above the raw file
// limit to leave room for base64 overhead and the JSON wrapper.
func (s *Server) uploadBodyLimit() int64 {
	limit := s.maxUploadBytes
	if limit <= 0 {
		limit = defaultMaxUploadBytes
	}
	return limit + limit/2
}

func (s *Server) registerDatasetRoutes() {
	huma.Register(s.api, huma.Operation{
		OperationID: "listFiles",
		Method:      http.MethodGet,
		Path:        "/api/v1/files",
		Summary:     "List data directory files",
		Description: "Returns the loadable files in the server data directory",
		Tags:        []string{"Datasets"},
		Security:    []map[string][]string{{"bearer": {}}},
	}, s.handleListFiles)

	huma.Register(s.api, huma.Operation{
		OperationID: "listSheets",
		Method:      http.MethodGet,
		Path:        "/api/v1/files/{name}/sheets",
		Summary:     "List workbook sheets",
		Description: "Returns the worksheet names of an Excel file in the data directory",
		Tags:        []string{"Datasets"},
		Security:    []map[string][]string{{"bearer": {}}},
	}, s.handleListSheets)

	huma.Register(s.api, huma.Operation{
		OperationID: "loadDataset",
		Method:      http.MethodPost,
		Path:        "/api/v1/datasets/load",
		Summary:     "Load dataset from data directory",
		Description: "Parses a file from the data directory and makes it the session's active dataset",
		Tags:        []string{"Datasets"},
		Security:    []map[string][]string{{"bearer": {}}},
	}, s.handleLoadDataset)

	huma.Register(s.api, huma.Operation{
		OperationID:  "uploadDataset",
		Method:       http.MethodPost,
		Path:         "/api/v1/datasets/upload",
		MaxBodyBytes: s.uploadBodyLimit(),
		Summary:      "Upload dataset",
		Description:  "Parses uploaded file content and makes it the session's active dataset",
		Tags:         []string{"Datasets"},
		Security:     []map[string][]string{{"bearer": {}}},
	}, s.handleUploadDataset)

	huma.Register(s.api, huma.Operation{
		OperationID: "getCurrentDataset",
		Method:      http.MethodGet,
		Path:        "/api/v1/datasets/current",
		Summary:     "Get current dataset",
		Description: "Returns a summary of the session's loaded dataset",
		Tags:        []string{"Datasets"},
		Security:    []map[string][]string{{"bearer": {}}},
	}, s.handleGetCurrentDataset)
}

// === DTOs ===

// FileResponse describes one loadable file.
type FileResponse struct {
	Name       string    `json:"name" doc:"File name"`
	Size       int64     `json:"size" doc:"Size in bytes"`
	ModifiedAt time.Time `json:"modified_at" doc:"Last modification time"`
}

// ListFilesResponse contains the data directory listing.
type ListFilesResponse struct {
	Files []FileResponse `json:"files" doc:"Loadable files"`
}

// ListFilesInput contains parameters for listing files.
type ListFilesInput struct {
	Authorization string `header:"Authorization"`
}

// ListFilesOutput wraps the file listing for Huma.
type ListFilesOutput struct {
	Body ListFilesResponse
}

// ListSheetsInput contains parameters for listing workbook sheets.
type ListSheetsInput struct {
	Authorization string `header:"Authorization"`
	Name          string `path:"name" doc:"File name in the data directory"`
}

// SheetsResponse contains worksheet names.
type SheetsResponse struct {
	Sheets []string `json:"sheets" doc:"Worksheet names in workbook order"`
}

// ListSheetsOutput wraps the sheets response for Huma.
type ListSheetsOutput struct {
	Body SheetsResponse
}

// LoadDatasetRequest selects a data directory file to load.
type LoadDatasetRequest struct {
	FileName string   `json:"file_name" validate:"required,max=255" doc:"File name in the data directory"`
	Sheets   []string `json:"sheets,omitempty" doc:"Excel sheets to load; all when empty"`
}

// LoadDatasetInput wraps the load request for Huma.
type LoadDatasetInput struct {
	Authorization string `header:"Authorization"`
	Body          LoadDatasetRequest
}

// UploadDatasetRequest carries uploaded file content.
type UploadDatasetRequest struct {
	FileName string   `json:"file_name" validate:"required,max=255" doc:"Original file name, used for format detection"`
	Content  string   `json:"content" validate:"required" doc:"Base64-encoded file content"`
	Sheets   []string `json:"sheets,omitempty" doc:"Excel sheets to load; all when empty"`
}

// UploadDatasetInput wraps the upload request for Huma.
type UploadDatasetInput struct {
	Authorization string `header:"Authorization"`
	Body          UploadDatasetRequest
}

// DatasetResponse is the API view of a loaded dataset.
type DatasetResponse struct {
	ID           string    `json:"id" doc:"Dataset ID"`
	Name         string    `json:"name" doc:"Source file name"`
	Source       string    `json:"source" doc:"Where the dataset came from: upload or data_dir"`
	Sheets       []string  `json:"sheets,omitempty" doc:"Loaded Excel sheets"`
	Columns      []string  `json:"columns" doc:"Column headers in file order"`
	BaseColumn   string    `json:"base_column" doc:"Detected base name column"`
	StatusColumn string    `json:"status_column,omitempty" doc:"Detected status column"`
	RowCount     int       `json:"row_count" doc:"Number of data rows"`
	KeyCount     int       `json:"key_count" doc:"Number of group keys"`
	LoadedAt     time.Time `json:"loaded_at" doc:"Load time"`
}

// DatasetOutput wraps the dataset response for Huma.
type DatasetOutput struct {
	Body DatasetResponse
}

// GetCurrentDatasetInput contains parameters for the current dataset.
type GetCurrentDatasetInput struct {
	Authorization string `header:"Authorization"`
}

// === Handlers ===

func (s *Server) handleListFiles(ctx context.Context, input *ListFilesInput) (*ListFilesOutput, error) {
	if _, err := s.authenticateRequest(ctx, input.Authorization); err != nil {
		return nil, err
	}

	files, err := s.services.Files.List()
	if err != nil {
		return nil, err
	}

	resp := make([]FileResponse, len(files))
	for i, f := range files {
		resp[i] = FileResponse{Name: f.Name, Size: f.Size, ModifiedAt: f.ModifiedAt}
	}

	return &ListFilesOutput{Body: ListFilesResponse{Files: resp}}, nil
}

func (s *Server) handleListSheets(ctx context.Context, input *ListSheetsInput) (*ListSheetsOutput, error) {
	if _, err := s.authenticateRequest(ctx, input.Authorization); err != nil {
		return nil, err
	}

	sheets, err := s.services.Dataset.Sheets(input.Name)
	if err != nil {
		return nil, err
	}

	return &ListSheetsOutput{Body: SheetsResponse{Sheets: sheets}}, nil
}

func (s *Server) handleLoadDataset(ctx context.Context, input *LoadDatasetInput) (*DatasetOutput, error) {
	sessionID, err := s.authenticateRequest(ctx, input.Authorization)
	if err != nil {
		return nil, err
	}

	summary, err := s.services.Dataset.Load(ctx, sessionID, service.LoadRequest{
		FileName: input.Body.FileName,
		Sheets:   input.Body.Sheets,
	})
	if err != nil {
		return nil, err
	}

	return &DatasetOutput{Body: mapDatasetSummary(summary)}, nil
}

func (s *Server) handleUploadDataset(ctx context.Context, input *UploadDatasetInput) (*DatasetOutput, error) {
	sessionID, err := s.authenticateRequest(ctx, input.Authorization)
	if err != nil {
		return nil, err
	}

	data, err := base64.StdEncoding.DecodeString(input.Body.Content)
	if err != nil {
		return nil, domainerrors.Validation("content is not valid base64")
	}

	limit := s.maxUploadBytes
	if limit <= 0 {
		limit = defaultMaxUploadBytes
	}
	if int64(len(data)) > limit {
		return nil, domainerrors.Validationf("file exceeds the %d byte upload limit", limit)
	}

	summary, err := s.services.Dataset.Load(ctx, sessionID, service.LoadRequest{
		FileName: input.Body.FileName,
		Sheets:   input.Body.Sheets,
		Data:     data,
	})
	if err != nil {
		return nil, err
	}

	return &DatasetOutput{Body: mapDatasetSummary(summary)}, nil
}

func (s *Server) handleGetCurrentDataset(ctx context.Context, input *GetCurrentDatasetInput) (*DatasetOutput, error) {
	sessionID, err := s.authenticateRequest(ctx, input.Authorization)
	if err != nil {
		return nil, err
	}

	summary, err := s.services.Dataset.Current(ctx, sessionID)
	if err != nil {
		return nil, err
	}

	return &DatasetOutput{Body: mapDatasetSummary(summary)}, nil
}

// === Helpers ===

func mapDatasetSummary(summary *domain.DatasetSummary) DatasetResponse {
	return DatasetResponse{
		ID:           summary.ID,
		Name:         summary.Name,
		Source:       summary.Source,
		Sheets:       summary.Sheets,
		Columns:      summary.Columns,
		BaseColumn:   summary.BaseColumn,
		StatusColumn: summary.StatusColumn,
		RowCount:     summary.RowCount,
		KeyCount:     summary.KeyCount,
		LoadedAt:     summary.LoadedAt,
	}
}
