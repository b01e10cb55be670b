package api

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/google/go-querystring/query"
)

const (
	metapropertiesModule = "metaproperties"
	optionsModule        = "metaproperty options"
)

// MetapropertyListParams filters the metaproperty listing.
type MetapropertyListParams struct {
	Count   bool     `url:"count,int,omitempty"`
	Options bool     `url:"options,int,omitempty"`
	Type    string   `url:"type,omitempty"`
	IDs     []string `url:"-"`
}

// List retrieves all metaproperties keyed by name.
func (s MetapropertiesService) List(ctx context.Context, params MetapropertyListParams) (map[string]Metaproperty, error) {
	return listMetaproperties(ctx, s, params)
}

func listMetaproperties(ctx context.Context, r Requester, params MetapropertyListParams) (map[string]Metaproperty, error) {
	values, err := query.Values(params)
	if err != nil {
		return nil, fmt.Errorf("failed to encode metaproperty query: %w", err)
	}
	if len(params.IDs) > 0 {
		values.Set("ids", strings.Join(params.IDs, ","))
	}

	result := map[string]Metaproperty{}
	if err := r.do(ctx, http.MethodGet, "v4/metaproperties/", values, &result); err != nil {
		return nil, err
	}
	return result, nil
}

// Get retrieves a metaproperty by ID.
func (s MetapropertiesService) Get(ctx context.Context, id string) (Metaproperty, error) {
	return getMetaproperty(ctx, s, id)
}

func getMetaproperty(ctx context.Context, r Requester, id string) (Metaproperty, error) {
	if err := requireFields(metapropertiesModule, requiredField{"id", id}); err != nil {
		return nil, err
	}

	var result Metaproperty
	if err := r.do(ctx, http.MethodGet, metapropertyPath(id), nil, &result); err != nil {
		return nil, err
	}
	return result, nil
}

// Create saves a new metaproperty.
func (s MetapropertiesService) Create(ctx context.Context, data Metaproperty) (Result, error) {
	return createMetaproperty(ctx, s, data)
}

func createMetaproperty(ctx context.Context, r Requester, data Metaproperty) (Result, error) {
	form, err := dataForm(data)
	if err != nil {
		return nil, err
	}

	var result Result
	if err := r.do(ctx, http.MethodPost, "v4/metaproperties", form, &result); err != nil {
		return nil, err
	}
	return result, nil
}

// Edit modifies an existing metaproperty.
func (s MetapropertiesService) Edit(ctx context.Context, id string, data Metaproperty) (Result, error) {
	return editMetaproperty(ctx, s, id, data)
}

func editMetaproperty(ctx context.Context, r Requester, id string, data Metaproperty) (Result, error) {
	if err := requireFields(metapropertiesModule, requiredField{"id", id}); err != nil {
		return nil, err
	}
	form, err := dataForm(data)
	if err != nil {
		return nil, err
	}

	var result Result
	if err := r.do(ctx, http.MethodPost, metapropertyPath(id), form, &result); err != nil {
		return nil, err
	}
	return result, nil
}

// Delete deletes a metaproperty.
func (s MetapropertiesService) Delete(ctx context.Context, id string) (Result, error) {
	return deleteMetaproperty(ctx, s, id)
}

func deleteMetaproperty(ctx context.Context, r Requester, id string) (Result, error) {
	if err := requireFields(metapropertiesModule, requiredField{"id", id}); err != nil {
		return nil, err
	}

	var result Result
	if err := r.do(ctx, http.MethodDelete, metapropertyPath(id), nil, &result); err != nil {
		return nil, err
	}
	return result, nil
}

// CreateOption adds an option to a metaproperty. The option must carry a name.
func (s MetapropertiesService) CreateOption(ctx context.Context, metapropertyID string, option MetapropertyOption) (Result, error) {
	return createMetapropertyOption(ctx, s, metapropertyID, option)
}

func createMetapropertyOption(ctx context.Context, r Requester, metapropertyID string, option MetapropertyOption) (Result, error) {
	if err := requireFields(optionsModule,
		requiredField{"id", metapropertyID},
		requiredField{"name", stringField(option, "name")},
	); err != nil {
		return nil, err
	}
	form, err := dataForm(option)
	if err != nil {
		return nil, err
	}

	var result Result
	path := metapropertyPath(metapropertyID) + "options/"
	if err := r.do(ctx, http.MethodPost, path, form, &result); err != nil {
		return nil, err
	}
	return result, nil
}

// EditOption modifies an existing metaproperty option.
func (s MetapropertiesService) EditOption(ctx context.Context, metapropertyID, optionID string, option MetapropertyOption) (Result, error) {
	return editMetapropertyOption(ctx, s, metapropertyID, optionID, option)
}

func editMetapropertyOption(ctx context.Context, r Requester, metapropertyID, optionID string, option MetapropertyOption) (Result, error) {
	if err := requireFields(optionsModule,
		requiredField{"id", metapropertyID},
		requiredField{"optionId", optionID},
	); err != nil {
		return nil, err
	}
	form, err := dataForm(option)
	if err != nil {
		return nil, err
	}

	var result Result
	path := fmt.Sprintf("%soptions/%s/", metapropertyPath(metapropertyID), url.PathEscape(optionID))
	if err := r.do(ctx, http.MethodPost, path, form, &result); err != nil {
		return nil, err
	}
	return result, nil
}

func metapropertyPath(id string) string {
	return fmt.Sprintf("v4/metaproperties/%s/", url.PathEscape(id))
}

// dataForm serializes a payload into the single "data" form field the
// metaproperty endpoints expect.
func dataForm(payload map[string]any) (url.Values, error) {
	if payload == nil {
		payload = map[string]any{}
	}
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request body: %w", err)
	}
	return url.Values{"data": {string(data)}}, nil
}
