package api

import (
	"context"
	"net/http"

	"github.com/omprakashsrv/ampairs-app-sub000/pkg/validation"
)

// Workspace, member, and role endpoints: conventional CRUD, no special
// contract. The workspace listing is unscoped; everything else is scoped by
// the transport workspace header.

func (c *Client) ListWorkspaces(ctx context.Context) ([]Workspace, error) {
	var out []Workspace
	if err := c.do(ctx, http.MethodGet, "/workspace/v1", nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Client) CreateWorkspace(ctx context.Context, req CreateWorkspaceRequest) (*Workspace, error) {
	if err := validation.Validate(req); err != nil {
		return nil, err
	}
	var out Workspace
	if err := c.do(ctx, http.MethodPost, "/workspace/v1", req, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) GetWorkspace(ctx context.Context, workspaceID string) (*Workspace, error) {
	var out Workspace
	if err := c.do(ctx, http.MethodGet, "/workspace/v1/"+workspaceID, nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) UpdateWorkspace(ctx context.Context, workspaceID string, req UpdateWorkspaceRequest) (*Workspace, error) {
	if err := validation.Validate(req); err != nil {
		return nil, err
	}
	var out Workspace
	if err := c.do(ctx, http.MethodPut, "/workspace/v1/"+workspaceID, req, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) ListMembers(ctx context.Context) ([]Member, error) {
	var out []Member
	if err := c.do(ctx, http.MethodGet, "/member/v1", nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Client) InviteMember(ctx context.Context, req InviteMemberRequest) (*Member, error) {
	if err := validation.Validate(req); err != nil {
		return nil, err
	}
	var out Member
	if err := c.do(ctx, http.MethodPost, "/member/v1", req, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) RemoveMember(ctx context.Context, memberID string) error {
	return c.do(ctx, http.MethodDelete, "/member/v1/"+memberID, nil, nil)
}

func (c *Client) ListRoles(ctx context.Context) ([]Role, error) {
	var out []Role
	if err := c.do(ctx, http.MethodGet, "/role/v1", nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Client) UpdateRole(ctx context.Context, roleID string, req UpdateRoleRequest) (*Role, error) {
	if err := validation.Validate(req); err != nil {
		return nil, err
	}
	var out Role
	if err := c.do(ctx, http.MethodPut, "/role/v1/"+roleID, req, &out); err != nil {
		return nil, err
	}
	return &out, nil
}
