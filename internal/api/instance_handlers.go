package api

import (
	"context"
	"net/http"
	"time"

	"github.com/danielgtaylor/huma/v2"
)

func (s *Server) registerInstanceRoutes() {
	huma.Register(s.api, huma.Operation{
		OperationID: "getInstance",
		Method:      http.MethodGet,
		Path:        "/api/v1/instance",
		Summary:     "Get instance",
		Description: "Returns the server instance configuration and whether setup is still required",
		Tags:        []string{"Instance"},
	}, s.handleGetInstance)
}

// InstanceResponse contains instance data in API responses.
type InstanceResponse struct {
	ID            string    `json:"id" doc:"Instance ID"`
	Name          string    `json:"name" doc:"Server name"`
	Version       string    `json:"version" doc:"Server version"`
	SetupRequired bool      `json:"setup_required" doc:"Whether the gate password still needs to be set"`
	CreatedAt     time.Time `json:"created_at" doc:"Creation time"`
	UpdatedAt     time.Time `json:"updated_at" doc:"Last update time"`
}

// InstanceOutput wraps the instance response for Huma.
type InstanceOutput struct {
	Body InstanceResponse
}

func (s *Server) handleGetInstance(ctx context.Context, _ *struct{}) (*InstanceOutput, error) {
	instance, err := s.services.Instance.GetInstance(ctx)
	if err != nil {
		return nil, err
	}

	return &InstanceOutput{
		Body: InstanceResponse{
			ID:            instance.ID,
			Name:          instance.Name,
			Version:       instance.Version,
			SetupRequired: !instance.Configured,
			CreatedAt:     instance.CreatedAt,
			UpdatedAt:     instance.UpdatedAt,
		},
	}, nil
}
