package api

// Service accessors group Client methods by resource.
// Each service embeds *Client so it satisfies Requester directly.

type MediaService struct{ *Client }

type MetapropertiesService struct{ *Client }

type SmartFiltersService struct{ *Client }

type UsersService struct{ *Client }

func (c *Client) Media() MediaService {
	return MediaService{c}
}

func (c *Client) Metaproperties() MetapropertiesService {
	return MetapropertiesService{c}
}

func (c *Client) SmartFilters() SmartFiltersService {
	return SmartFiltersService{c}
}

func (c *Client) Users() UsersService {
	return UsersService{c}
}
