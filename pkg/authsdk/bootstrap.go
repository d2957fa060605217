package authsdk

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
)

// BootstrapRequest is the one-time setup payload: the first branch and its
// superadmin account.
type BootstrapRequest struct {
	BranchName    string `json:"branchName"`
	BranchCode    string `json:"branchCode"`
	AdminEmail    string `json:"adminEmail"`
	AdminName     string `json:"adminName"`
	AdminPassword string `json:"adminPassword"`
}

// BootstrapResponse reports what bootstrap created.
type BootstrapResponse struct {
	BranchID string `json:"branchId"`
	UserID   string `json:"userId"`
}

// Validate checks the request fields, returning a map of field name to
// problem for anything wrong. Returns nil when the request is valid.
func (r BootstrapRequest) Validate() map[string]string {
	errs := make(map[string]string)
	if r.BranchName == "" {
		errs["branchName"] = "branch name is required"
	}
	if r.BranchCode == "" {
		errs["branchCode"] = "branch code is required"
	}
	if r.AdminEmail == "" {
		errs["adminEmail"] = "admin email is required"
	}
	if r.AdminName == "" {
		errs["adminName"] = "admin name is required"
	}
	if len(r.AdminPassword) < 12 {
		errs["adminPassword"] = "admin password must be at least 12 characters"
	}
	if len(errs) == 0 {
		return nil
	}
	return errs
}

// Bootstrap initializes the auth service with its first branch and
// superadmin. Guarded by the pre-shared bootstrap token and refused once
// any user exists.
func (c *SDKClient) Bootstrap(ctx context.Context, token string, req BootstrapRequest) (*BootstrapResponse, error) {
	body, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(
		ctx,
		http.MethodPost,
		c.url("/v1/bootstrap"),
		bytes.NewReader(body),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("X-Bootstrap-Token", token)

	resp, err := c.HTTPClient.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("failed to send request: %w", err)
	}

	var bootstrapResp BootstrapResponse
	if err := decodeEnvelope(resp, &bootstrapResp, http.StatusCreated); err != nil {
		return nil, err
	}
	return &bootstrapResp, nil
}
