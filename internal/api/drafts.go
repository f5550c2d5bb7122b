package api

import (
	"context"
	"fmt"
	"net/http"

	"github.com/wttnguyen/draftolio/internal/drafts"
)

const draftsBase = "/api/v1/drafts"

// CreateDraft creates a new draft. The request is validated before it leaves
// the process so the backend never sees a malformed payload.
func (c *Client) CreateDraft(ctx context.Context, req drafts.CreateRequest) (*drafts.Draft, error) {
	if err := c.validate.Struct(&req); err != nil {
		return nil, fmt.Errorf("invalid draft request: %w", err)
	}

	var draft drafts.Draft
	if err := c.do(ctx, http.MethodPost, draftsBase, req, &draft, true); err != nil {
		return nil, fmt.Errorf("creating draft: %w", err)
	}
	if err := c.validate.Struct(&draft); err != nil {
		return nil, fmt.Errorf("invalid draft payload: %w", err)
	}
	return &draft, nil
}

// GetDraft fetches a draft by ID.
func (c *Client) GetDraft(ctx context.Context, draftID string) (*drafts.Draft, error) {
	var draft drafts.Draft
	if err := c.do(ctx, http.MethodGet, draftsBase+"/"+draftID, nil, &draft, true); err != nil {
		return nil, fmt.Errorf("fetching draft %s: %w", draftID, err)
	}
	if err := c.validate.Struct(&draft); err != nil {
		return nil, fmt.Errorf("invalid draft payload: %w", err)
	}
	return &draft, nil
}

// ListUserDrafts lists a user's drafts.
func (c *Client) ListUserDrafts(ctx context.Context, userID string) ([]drafts.Draft, error) {
	var list []drafts.Draft
	if err := c.do(ctx, http.MethodGet, draftsBase+"/user/"+userID, nil, &list, true); err != nil {
		return nil, fmt.Errorf("listing drafts for user %s: %w", userID, err)
	}
	for i := range list {
		if err := c.validate.Struct(&list[i]); err != nil {
			return nil, fmt.Errorf("invalid draft payload at index %d: %w", i, err)
		}
	}
	return list, nil
}

// GetDraftBySpectateToken fetches a draft through its shareable spectator
// token. No identity header: spectate links work unauthenticated.
func (c *Client) GetDraftBySpectateToken(ctx context.Context, token string) (*drafts.Draft, error) {
	var draft drafts.Draft
	if err := c.do(ctx, http.MethodGet, draftsBase+"/spectate/"+token, nil, &draft, false); err != nil {
		return nil, fmt.Errorf("fetching spectated draft: %w", err)
	}
	if err := c.validate.Struct(&draft); err != nil {
		return nil, fmt.Errorf("invalid draft payload: %w", err)
	}
	return &draft, nil
}

// GenerateSpectateURL asks the backend for a shareable spectator link.
func (c *Client) GenerateSpectateURL(ctx context.Context, draftID string) (*drafts.SpectateLink, error) {
	var link drafts.SpectateLink
	if err := c.do(ctx, http.MethodPost, draftsBase+"/"+draftID+"/spectate", struct{}{}, &link, true); err != nil {
		return nil, fmt.Errorf("generating spectate URL for draft %s: %w", draftID, err)
	}
	if err := c.validate.Struct(&link); err != nil {
		return nil, fmt.Errorf("invalid spectate payload: %w", err)
	}
	return &link, nil
}

// ListModes fetches the draft mode metadata.
func (c *Client) ListModes(ctx context.Context) ([]drafts.Mode, error) {
	var modes []drafts.Mode
	if err := c.do(ctx, http.MethodGet, draftsBase+"/modes", nil, &modes, false); err != nil {
		return nil, fmt.Errorf("listing draft modes: %w", err)
	}
	return modes, nil
}

// ActiveDraftCount returns how many of the user's drafts are still active.
func (c *Client) ActiveDraftCount(ctx context.Context, userID string) (int, error) {
	var resp activeCountResponse
	if err := c.do(ctx, http.MethodGet, draftsBase+"/user/"+userID+"/active-count", nil, &resp, true); err != nil {
		return 0, fmt.Errorf("counting active drafts for user %s: %w", userID, err)
	}
	return resp.ActiveCount, nil
}
