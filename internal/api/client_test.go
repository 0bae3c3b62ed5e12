package api

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/omprakashsrv/ampairs-app-sub000/internal/stubserver"
	"github.com/omprakashsrv/ampairs-app-sub000/internal/transport"
	"github.com/omprakashsrv/ampairs-app-sub000/pkg/apierrors"
)

type rtFunc func(*http.Request) (*http.Response, error)

func (f rtFunc) RoundTrip(r *http.Request) (*http.Response, error) { return f(r) }

// bearer injects a fixed access token, standing in for the session-backed
// auth middleware these tests don't need.
func bearer(token string) transport.Middleware {
	return func(next http.RoundTripper) http.RoundTripper {
		return rtFunc(func(req *http.Request) (*http.Response, error) {
			out := req.Clone(req.Context())
			out.Header.Set("Authorization", "Bearer "+token)
			return next.RoundTrip(out)
		})
	}
}

type staticScope string

func (s staticScope) Current() string { return string(s) }

func newTestClient(t *testing.T) (*Client, *stubserver.Server) {
	t.Helper()

	stub := stubserver.New(stubserver.Options{})
	server := httptest.NewServer(stub.Handler())
	t.Cleanup(server.Close)

	log := slog.New(slog.NewTextHandler(io.Discard, nil))
	access, _ := stub.MintTokens(time.Hour)

	rt := transport.Chain(http.DefaultTransport,
		transport.WorkspaceScoping(staticScope("ws-1")),
		bearer(access),
		transport.EnvelopeUnwrap(log),
	)
	client, err := New(server.URL, rt, 0, log)
	require.NoError(t, err)
	return client, stub
}

func TestNewRejectsRelativeBaseURL(t *testing.T) {
	log := slog.New(slog.NewTextHandler(io.Discard, nil))
	_, err := New("localhost:8080", http.DefaultTransport, 0, log)
	assert.Error(t, err)
}

func TestNewAppliesTimeout(t *testing.T) {
	log := slog.New(slog.NewTextHandler(io.Discard, nil))
	client, err := New("http://localhost:8080", http.DefaultTransport, 5*time.Second, log)
	require.NoError(t, err)
	assert.Equal(t, 5*time.Second, client.http.Timeout)
}

func TestWorkspaceCRUD(t *testing.T) {
	client, _ := newTestClient(t)
	ctx := context.Background()

	created, err := client.CreateWorkspace(ctx, CreateWorkspaceRequest{Name: "Rao Stores", Slug: "rao"})
	require.NoError(t, err)
	require.NotEmpty(t, created.ID)

	fetched, err := client.GetWorkspace(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, "Rao Stores", fetched.Name)

	updated, err := client.UpdateWorkspace(ctx, created.ID, UpdateWorkspaceRequest{Name: "Rao & Sons"})
	require.NoError(t, err)
	assert.Equal(t, "Rao & Sons", updated.Name)
	assert.Equal(t, "rao", updated.Slug, "omitted fields stay unchanged")

	fetched, err = client.GetWorkspace(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, "Rao & Sons", fetched.Name)

	_, err = client.GetWorkspace(ctx, "ws-missing")
	assert.True(t, apierrors.HasCode(err, apierrors.CodeNotFound))

	_, err = client.UpdateWorkspace(ctx, "ws-missing", UpdateWorkspaceRequest{Name: "x"})
	assert.True(t, apierrors.HasCode(err, apierrors.CodeNotFound))
}

func TestCreateWorkspaceValidatesClientSide(t *testing.T) {
	client, _ := newTestClient(t)

	_, err := client.CreateWorkspace(context.Background(), CreateWorkspaceRequest{Name: "   "})
	assert.True(t, apierrors.HasCode(err, apierrors.CodeValidation))
}

func TestMembers(t *testing.T) {
	client, stub := newTestClient(t)
	ctx := context.Background()

	members, err := client.ListMembers(ctx)
	require.NoError(t, err)
	require.NotEmpty(t, members)
	assert.Equal(t, "ws-1", stub.LastWorkspaceHeader.Load(), "member calls carry the workspace header")

	invited, err := client.InviteMember(ctx, InviteMemberRequest{Phone: "9123456780", CountryCode: "91", Role: "staff"})
	require.NoError(t, err)
	assert.Equal(t, "9123456780", invited.Phone)
	assert.Equal(t, "staff", invited.Role)

	_, err = client.InviteMember(ctx, InviteMemberRequest{Phone: "123", CountryCode: "91", Role: "staff"})
	assert.True(t, apierrors.HasCode(err, apierrors.CodeValidation))

	require.NoError(t, client.RemoveMember(ctx, invited.ID))
}

func TestRoles(t *testing.T) {
	client, _ := newTestClient(t)
	ctx := context.Background()

	roles, err := client.ListRoles(ctx)
	require.NoError(t, err)
	require.Len(t, roles, 2)

	var staff Role
	for _, r := range roles {
		if r.Name == "staff" {
			staff = r
		}
	}
	require.NotEmpty(t, staff.ID)

	updated, err := client.UpdateRole(ctx, staff.ID, UpdateRoleRequest{
		Permissions: []string{"orders:read", "orders:write", "invoices:read"},
	})
	require.NoError(t, err)
	assert.Equal(t, "staff", updated.Name, "omitted name stays unchanged")
	assert.Contains(t, updated.Permissions, "invoices:read")

	_, err = client.UpdateRole(ctx, "role-missing", UpdateRoleRequest{Name: "x"})
	assert.True(t, apierrors.HasCode(err, apierrors.CodeNotFound))
}
