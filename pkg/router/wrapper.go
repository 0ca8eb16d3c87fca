package router

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/questx-lab/raffle/pkg/errorx"
	"github.com/questx-lab/raffle/pkg/xcontext"
)

func wrapHandler[Request, Response any](
	router *Router,
	method string,
	handler HandlerFunc[Request, Response],
) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx := xcontext.WithHTTPRequest(router.ctx, c.Request)
		ctx = xcontext.WithHTTPWriter(ctx, c.Writer)

		resp, err := func() (*Response, error) {
			var err error
			for _, before := range router.befores {
				if ctx, err = before(ctx); err != nil {
					return nil, err
				}
			}

			var req Request
			switch method {
			case http.MethodGet:
				err = c.ShouldBindQuery(&req)
			case http.MethodPost:
				err = c.ShouldBindJSON(&req)
			default:
				err = errorx.New(errorx.NotImplemented, "Unsupported method %s", method)
			}

			if err != nil {
				xcontext.Logger(ctx).Debugf("Cannot bind the request: %v", err)
				return nil, errorx.New(errorx.BadRequest, "Invalid request format")
			}

			return handler(ctx, &req)
		}()

		if err != nil {
			ctx = xcontext.WithError(ctx, err)
			c.JSON(http.StatusOK, newErrorResponse(err))
		} else {
			c.JSON(http.StatusOK, newResponse(resp))
		}

		runClosers(ctx, router.closers)
	}
}

func runClosers(ctx context.Context, closers []CloserFunc) {
	for _, closer := range closers {
		closer(ctx)
	}
}
