package router

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/questx-lab/raffle/config"
	"github.com/questx-lab/raffle/pkg/errorx"
	"github.com/questx-lab/raffle/pkg/xcontext"
	"github.com/stretchr/testify/require"
)

type echoRequest struct {
	Name string `json:"name" form:"name"`
}

type echoResponse struct {
	Name   string `json:"name"`
	Caller string `json:"caller"`
}

func echo(ctx context.Context, req *echoRequest) (*echoResponse, error) {
	if req.Name == "" {
		return nil, errorx.New(errorx.InvalidInput, "Name is required")
	}

	return &echoResponse{Name: req.Name, Caller: xcontext.RequestUserID(ctx)}, nil
}

func serve(t *testing.T, handler http.Handler, req *http.Request) response {
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, req)
	require.Equal(t, http.StatusOK, w.Code)

	var resp response
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	return resp
}

func TestRouter(t *testing.T) {
	ctx := xcontext.WithConfigs(context.Background(), config.Configs{})
	r := New(ctx)

	closed := []string{}
	r.AddCloser(func(ctx context.Context) {
		closed = append(closed, xcontext.HTTPRequest(ctx).URL.Path)
	})

	GET(r, "/echo", echo)
	POST(r, "/echo", echo)

	authRouter := r.Branch()
	authRouter.Before(func(ctx context.Context) (context.Context, error) {
		if xcontext.HTTPRequest(ctx).Header.Get("Authorization") == "" {
			return ctx, errorx.New(errorx.Unauthenticated, "You need to authenticate before")
		}

		return xcontext.WithRequestUserID(ctx, "alice"), nil
	})
	POST(authRouter, "/secureEcho", echo)

	t.Run("get binds the query", func(t *testing.T) {
		resp := serve(t, r.Handler(), httptest.NewRequest(http.MethodGet, "/echo?name=bob", nil))
		require.Equal(t, int64(0), resp.Code)
		require.Equal(t, map[string]any{"name": "bob", "caller": ""}, resp.Data)
	})

	t.Run("post binds the body", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPost, "/echo", strings.NewReader(`{"name":"carol"}`))
		resp := serve(t, r.Handler(), req)
		require.Equal(t, map[string]any{"name": "carol", "caller": ""}, resp.Data)
	})

	t.Run("handler error", func(t *testing.T) {
		resp := serve(t, r.Handler(), httptest.NewRequest(http.MethodGet, "/echo", nil))
		require.Equal(t, int64(errorx.InvalidInput), resp.Code)
		require.Equal(t, "Name is required", resp.Error)
	})

	t.Run("invalid body", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPost, "/echo", strings.NewReader(`{`))
		resp := serve(t, r.Handler(), req)
		require.Equal(t, int64(errorx.BadRequest), resp.Code)
	})

	t.Run("middleware rejects", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPost, "/secureEcho", strings.NewReader(`{"name":"bob"}`))
		resp := serve(t, r.Handler(), req)
		require.Equal(t, int64(errorx.Unauthenticated), resp.Code)
	})

	t.Run("middleware enriches the context", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPost, "/secureEcho", strings.NewReader(`{"name":"bob"}`))
		req.Header.Set("Authorization", "Bearer token")
		resp := serve(t, r.Handler(), req)
		require.Equal(t, map[string]any{"name": "bob", "caller": "alice"}, resp.Data)
	})

	t.Run("unknown error is hidden", func(t *testing.T) {
		require.Equal(t, response{
			Code:  int64(errorx.Unknown.Code),
			Error: errorx.Unknown.Message,
		}, newErrorResponse(context.Canceled))
	})

	require.Equal(t, []string{"/echo", "/echo", "/echo", "/echo", "/secureEcho", "/secureEcho"}, closed)
}
