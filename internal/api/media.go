package api

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/google/go-querystring/query"
)

const mediaModule = "media"

// MediaListParams filters a media listing.
//
// PropertyOptionIDs is always sent: several values are comma-joined and an
// empty slice is sent as an empty filter. IDs is comma-joined when set.
type MediaListParams struct {
	Keyword           string   `url:"keyword,omitempty"`
	Type              string   `url:"type,omitempty"`
	BrandID           string   `url:"brandId,omitempty"`
	SubBrandID        string   `url:"subBrandId,omitempty"`
	CategoryID        string   `url:"categoryId,omitempty"`
	CollectionID      string   `url:"collectionId,omitempty"`
	OrderBy           string   `url:"orderBy,omitempty"`
	DateCreated       string   `url:"dateCreated,omitempty"`
	DateModified      string   `url:"dateModified,omitempty"`
	IsPublic          *bool    `url:"isPublic,omitempty"`
	Limit             int      `url:"limit,omitempty"`
	Page              int      `url:"page,omitempty"`
	PropertyOptionIDs []string `url:"-"`
	IDs               []string `url:"-"`
}

func (p MediaListParams) values() (url.Values, error) {
	values, err := query.Values(p)
	if err != nil {
		return nil, fmt.Errorf("failed to encode media query: %w", err)
	}
	if len(p.IDs) > 0 {
		values.Set("ids", strings.Join(p.IDs, ","))
	}
	return values, nil
}

// MediaInfoParams identifies a single media item.
type MediaInfoParams struct {
	ID       string `url:"-"`
	Versions bool   `url:"versions,int,omitempty"`
}

// MediaEditParams updates a media item. Properties carries extra form
// fields, for example "metaproperty.<id>" option assignments.
type MediaEditParams struct {
	ID            string            `url:"id"`
	Name          string            `url:"name,omitempty"`
	Description   string            `url:"description,omitempty"`
	Copyright     string            `url:"copyright,omitempty"`
	DatePublished string            `url:"datePublished,omitempty"`
	Archive       *bool             `url:"archive,omitempty"`
	IsPublic      *bool             `url:"isPublic,omitempty"`
	Properties    map[string]string `url:"-"`
}

// Form encodes the edit as the form body sent to the media endpoint.
func (p MediaEditParams) Form() (url.Values, error) {
	form, err := query.Values(p)
	if err != nil {
		return nil, fmt.Errorf("failed to encode media form: %w", err)
	}
	for key, value := range p.Properties {
		form.Set(key, value)
	}
	return form, nil
}

// MediaPage is the result of Media().All. Err is nil when every page was
// fetched; otherwise Items holds the pages gathered before the failure.
type MediaPage struct {
	Items []Media
	Pages int
	Err   error
}

// Complete reports whether pagination finished without error.
func (p *MediaPage) Complete() bool {
	return p.Err == nil
}

// List retrieves one page of media. The count flag is always disabled.
func (s MediaService) List(ctx context.Context, params MediaListParams) ([]Media, error) {
	return listMedia(ctx, s, params)
}

func listMedia(ctx context.Context, r Requester, params MediaListParams) ([]Media, error) {
	values, err := params.values()
	if err != nil {
		return nil, err
	}
	values.Set("count", "false")
	values.Set("propertyOptionId", strings.Join(params.PropertyOptionIDs, ","))

	var result []Media
	if err := r.do(ctx, http.MethodGet, "v4/media/", values, &result); err != nil {
		return nil, err
	}
	return result, nil
}

// Get retrieves a single media item.
func (s MediaService) Get(ctx context.Context, params MediaInfoParams) (Media, error) {
	return getMedia(ctx, s, params)
}

func getMedia(ctx context.Context, r Requester, params MediaInfoParams) (Media, error) {
	if err := requireFields(mediaModule, requiredField{"id", params.ID}); err != nil {
		return nil, err
	}
	values, err := query.Values(params)
	if err != nil {
		return nil, fmt.Errorf("failed to encode media query: %w", err)
	}

	var result Media
	path := fmt.Sprintf("v4/media/%s/", url.PathEscape(params.ID))
	if err := r.do(ctx, http.MethodGet, path, values, &result); err != nil {
		return nil, err
	}
	return result, nil
}

// Total returns the number of media items matching params without
// retrieving them.
func (s MediaService) Total(ctx context.Context, params MediaListParams) (int, error) {
	return mediaTotal(ctx, s, params)
}

func mediaTotal(ctx context.Context, r Requester, params MediaListParams) (int, error) {
	values, err := params.values()
	if err != nil {
		return 0, err
	}
	values.Set("count", "true")
	if len(params.PropertyOptionIDs) > 0 {
		values.Set("propertyOptionId", strings.Join(params.PropertyOptionIDs, ","))
	}

	var result struct {
		Count struct {
			Total FlexInt `json:"total"`
		} `json:"count"`
	}
	if err := r.do(ctx, http.MethodGet, "v4/media/", values, &result); err != nil {
		return 0, err
	}
	return int(result.Count.Total), nil
}

// All pages through the media listing, starting at page 1, until a page
// shorter than the page size comes back. Limit defaults to DefaultPageSize.
//
// On failure the returned page carries the items fetched so far together
// with the error, which is also returned.
func (s MediaService) All(ctx context.Context, params MediaListParams) (*MediaPage, error) {
	return allMedia(ctx, s, params)
}

func allMedia(ctx context.Context, r Requester, params MediaListParams) (*MediaPage, error) {
	if params.Limit <= 0 {
		params.Limit = DefaultPageSize
	}

	result := &MediaPage{Items: []Media{}}
	for page := 1; ; page++ {
		params.Page = page
		items, err := listMedia(ctx, r, params)
		if err != nil {
			result.Err = fmt.Errorf("page %d: %w", page, err)
			return result, result.Err
		}
		result.Items = append(result.Items, items...)
		result.Pages = page
		if len(items) < params.Limit {
			return result, nil
		}
	}
}

// Edit updates a media item's properties.
func (s MediaService) Edit(ctx context.Context, params MediaEditParams) (Result, error) {
	return editMedia(ctx, s, params)
}

func editMedia(ctx context.Context, r Requester, params MediaEditParams) (Result, error) {
	if err := requireFields(mediaModule, requiredField{"id", params.ID}); err != nil {
		return nil, err
	}
	form, err := params.Form()
	if err != nil {
		return nil, err
	}

	var result Result
	if err := r.do(ctx, http.MethodPost, "v4/media", form, &result); err != nil {
		return nil, err
	}
	return result, nil
}

// Delete deletes a media item.
func (s MediaService) Delete(ctx context.Context, id string) (Result, error) {
	return deleteMedia(ctx, s, id)
}

func deleteMedia(ctx context.Context, r Requester, id string) (Result, error) {
	if err := requireFields(mediaModule, requiredField{"id", id}); err != nil {
		return nil, err
	}

	var result Result
	path := fmt.Sprintf("v4/media/%s/", url.PathEscape(id))
	if err := r.do(ctx, http.MethodDelete, path, nil, &result); err != nil {
		return nil, err
	}
	return result, nil
}
