package router

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/questx-lab/raffle/pkg/xcontext"
	"github.com/rs/cors"
)

type HandlerFunc[Request, Response any] func(ctx context.Context, req *Request) (*Response, error)

// MiddlewareFunc runs before the handler. It may enrich the context, a returned error stops the
// request and is written as the response.
type MiddlewareFunc func(ctx context.Context) (context.Context, error)

// CloserFunc runs after the response was decided, whatever the result is.
type CloserFunc func(ctx context.Context)

type Router struct {
	inner  gin.IRouter
	engine *gin.Engine
	ctx    context.Context

	befores []MiddlewareFunc
	closers []CloserFunc
}

// New creates a router. Every request context inherits the values of ctx (configs, logger,
// database).
func New(ctx context.Context) *Router {
	gin.SetMode(gin.ReleaseMode)
	engine := gin.New()
	engine.Use(gin.Recovery())

	return &Router{inner: engine, engine: engine, ctx: ctx}
}

// Branch returns a router sharing the same routes, middlewares added to the branch do not affect
// the parent.
func (r *Router) Branch() *Router {
	return &Router{
		inner:   r.inner,
		engine:  r.engine,
		ctx:     r.ctx,
		befores: append([]MiddlewareFunc{}, r.befores...),
		closers: append([]CloserFunc{}, r.closers...),
	}
}

func (r *Router) Before(m MiddlewareFunc) {
	r.befores = append(r.befores, m)
}

func (r *Router) AddCloser(c CloserFunc) {
	r.closers = append(r.closers, c)
}

func GET[Request, Response any](r *Router, pattern string, handler HandlerFunc[Request, Response]) {
	r.inner.GET(pattern, wrapHandler(r, http.MethodGet, handler))
}

func POST[Request, Response any](r *Router, pattern string, handler HandlerFunc[Request, Response]) {
	r.inner.POST(pattern, wrapHandler(r, http.MethodPost, handler))
}

func (r *Router) Handler() http.Handler {
	cfg := xcontext.Configs(r.ctx).ApiServer
	origins := cfg.AllowOrigins
	if len(origins) == 0 {
		origins = []string{"*"}
	}

	return cors.New(cors.Options{
		AllowedOrigins:   origins,
		AllowedMethods:   []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowedHeaders:   []string{"Accept", "Content-Type", "Authorization", "X-Callback-Signature"},
		AllowCredentials: true,
	}).Handler(r.engine)
}
