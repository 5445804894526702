package mcpserver

import (
	"context"
	"net/http"

	sdkserver "github.com/mark3labs/mcp-go/server"

	"github.com/gaspardpetit/echoflow/internal/logx"
)

// HTTPHandler exposes the same tool surface over the Streamable HTTP
// transport, for clients that cannot spawn a stdio subprocess. Each request
// carries a correlation ID, taken from the X-Correlation-Id header when the
// client provides one.
func (s *Server) HTTPHandler() http.Handler {
	return sdkserver.NewStreamableHTTPServer(
		s.mcp,
		sdkserver.WithHTTPContextFunc(func(ctx context.Context, r *http.Request) context.Context {
			ctx, _ = logx.WithCorrelationID(ctx, r.Header.Get("X-Correlation-Id"))
			return ctx
		}),
	)
}
