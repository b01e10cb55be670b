package api

import (
	"context"
	"net/http"
)

// List retrieves the smart filters configured for the portal.
func (s SmartFiltersService) List(ctx context.Context) ([]SmartFilter, error) {
	return listSmartFilters(ctx, s)
}

func listSmartFilters(ctx context.Context, r Requester) ([]SmartFilter, error) {
	var result []SmartFilter
	if err := r.do(ctx, http.MethodGet, "v4/smartfilters/", nil, &result); err != nil {
		return nil, err
	}
	return result, nil
}
