package catalog

import (
	"context"
	"net/http"
	"slices"

	"github.com/danielgtaylor/huma/v2"
	"go.uber.org/zap"

	"github.com/janisto/campus-market/internal/market/catalog"
	applog "github.com/janisto/campus-market/internal/platform/logging"
)

const cacheControl = "public, max-age=3600"

// Register wires the catalog route into the provided API router.
func Register(api huma.API) {
	huma.Register(api, huma.Operation{
		OperationID: "get-catalog",
		Method:      http.MethodGet,
		Path:        "/catalog",
		Summary:     "Get form choices",
		Description: "Returns the categories, skills, departments and roles the forms accept. No authentication required.",
		Tags:        []string{"Catalog"},
	}, getHandler)
}

func getHandler(ctx context.Context, _ *struct{}) (*GetOutput, error) {
	applog.LogInfo(ctx, "catalog get", zap.String("path", "/catalog"))
	return &GetOutput{
		CacheControl: cacheControl,
		Body: Data{
			Categories:  slices.Clone(catalog.Categories),
			Skills:      slices.Clone(catalog.Skills),
			Departments: slices.Clone(catalog.Departments),
			Roles:       []string{catalog.RoleStudent, catalog.RoleStaff},
			Statuses:    []string{catalog.StatusActive, catalog.StatusSold},
		},
	}, nil
}
