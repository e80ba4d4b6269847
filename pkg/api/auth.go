package api

import (
	"context"
	"fmt"

	"github.com/nexuspay/nexuspay/pkg/logger"
	"github.com/nexuspay/nexuspay/pkg/session"
)

// Login submits credentials; the backend answers by sending an OTP to the phone.
func (c *Client) Login(ctx context.Context, req LoginRequest) (*LoginResponse, error) {
	var out LoginResponse
	if err := c.post(ctx, "/auth/login", req, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// VerifyOTP exchanges a one-time code for a session. A successful answer
// carrying a token is written to the session store before returning.
func (c *Client) VerifyOTP(ctx context.Context, req VerifyOTPRequest) (*VerifyOTPResponse, error) {
	var out VerifyOTPResponse
	if err := c.post(ctx, "/auth/login/verify", req, &out); err != nil {
		return nil, err
	}

	if out.Success && out.Data != nil && out.Data.Token != "" && c.store != nil {
		sess := session.Session{
			Token:         out.Data.Token,
			WalletAddress: out.Data.WalletAddress,
			PhoneNumber:   out.Data.PhoneNumber,
		}
		if err := c.store.Set(sess); err != nil {
			return &out, fmt.Errorf("persist session: %w", err)
		}
		logger.InfoCF("api", "Session established", map[string]any{
			"wallet": out.Data.WalletAddress,
		})
	}
	return &out, nil
}

func (c *Client) Register(ctx context.Context, req RegisterRequest) (*GenericResponse, error) {
	var out GenericResponse
	if err := c.post(ctx, "/auth/register", req, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Logout tells the backend to end the session and clears the local session
// whatever the outcome. The backend's error, if any, is returned.
func (c *Client) Logout(ctx context.Context) (*GenericResponse, error) {
	var out GenericResponse
	callErr := c.post(ctx, "/auth/logout", nil, &out)

	if c.store != nil {
		if err := c.store.Clear(); err != nil {
			logger.ErrorCF("api", "Failed to clear session", map[string]any{"error": err.Error()})
			if callErr == nil {
				callErr = fmt.Errorf("clear session: %w", err)
			}
		}
	}

	if callErr != nil {
		return nil, callErr
	}
	return &out, nil
}
