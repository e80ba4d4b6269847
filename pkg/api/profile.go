package api

import (
	"context"
	"net/http"
)

func (c *Client) GetProfile(ctx context.Context) (*ProfileResponse, error) {
	var out ProfileResponse
	if err := c.get(ctx, "/user/profile", &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) UpdateProfile(ctx context.Context, req UpdateProfileRequest) (*ProfileResponse, error) {
	var out ProfileResponse
	if err := c.do(ctx, http.MethodPut, "/user/profile", req, &out); err != nil {
		return nil, err
	}
	return &out, nil
}
