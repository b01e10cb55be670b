package api

import (
	"context"
	"fmt"
	"net/http"

	"github.com/google/go-querystring/query"
)

const usersModule = "users"

// LoginParams are the credentials for a user login.
type LoginParams struct {
	Username   string `url:"username"`
	Password   string `url:"password"`
	ConsumerID string `url:"consumerId"`
}

// Login authenticates a user against the portal.
func (s UsersService) Login(ctx context.Context, params LoginParams) (LoginResult, error) {
	return userLogin(ctx, s, params)
}

func userLogin(ctx context.Context, r Requester, params LoginParams) (LoginResult, error) {
	if err := requireFields(usersModule,
		requiredField{"username", params.Username},
		requiredField{"password", params.Password},
		requiredField{"consumerId", params.ConsumerID},
	); err != nil {
		return nil, err
	}
	form, err := query.Values(params)
	if err != nil {
		return nil, fmt.Errorf("failed to encode login form: %w", err)
	}

	var result LoginResult
	if err := r.do(ctx, http.MethodPost, "v4/users/login/", form, &result); err != nil {
		return nil, err
	}
	return result, nil
}
