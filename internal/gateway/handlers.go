package gateway

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/vyrodovalexey/avaroute/internal/observability"
	"github.com/vyrodovalexey/avaroute/internal/proxy"
	"github.com/vyrodovalexey/avaroute/internal/util"
)

// WelcomeMessage is the body of GET /.
const WelcomeMessage = "Welcome to API Gateway!"

func indexHandler(c *gin.Context) {
	c.String(http.StatusOK, WelcomeMessage)
}

// proxyHandler resolves "/"+path against the route table. A miss answers
// 404 without touching any upstream.
func (g *Gateway) proxyHandler(c *gin.Context) {
	path := c.Param("path")
	method := c.Request.Method

	route, ok := g.table.Match(path, method)
	if !ok {
		err := util.NewRouteNotFoundError(method, path)
		g.logger.WithContext(c.Request.Context()).Debug("no route matched",
			observability.String("method", method),
			observability.String("path", path),
		)
		c.JSON(http.StatusNotFound, gin.H{
			"error":   "Not Found",
			"message": err.Error(),
		})
		return
	}

	ctx := util.ContextWithRoute(c.Request.Context(), route.Name)
	c.Request = c.Request.WithContext(ctx)

	outcome := g.dispatcher.Dispatch(ctx, route, proxy.NewRequest(c.Request, path))
	if outcome.Err != nil {
		_ = c.Error(outcome.Err)
	}

	c.String(outcome.HTTPStatus(), outcome.Message())
}
