package iochttp

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/sectrean/ioc-kit"
	"github.com/sectrean/ioc-kit/internal/errors"
	"github.com/sectrean/ioc-kit/ioccontext"
)

// Identifier keys registered with each request container.
const (
	// RequestKey is the identifier key of the current [*http.Request].
	RequestKey = "http.request"

	// RouteContextKey is the identifier key of the request's [*chi.Context], when the
	// middleware runs inside a chi router. It is not registered otherwise.
	RouteContextKey = "http.routeContext"
)

// NewRequestScopeMiddleware creates middleware that creates a child container for each request.
// The child container is closed after the request has been processed.
//
// The current [*http.Request] is registered with the child container under [RequestKey], and
// chi's route context under [RouteContextKey]. Both can be injected into services registered
// with the child container using [WithContainerOptions].
//
// The child container is stored on the request context and can be accessed using
// [ioccontext.Container], [ioccontext.Get], or [ioccontext.MustGet].
//
// Available options:
//   - [WithContainerOptions] sets options used when creating each child container.
//   - [WithNewContainerErrorHandler] handles errors creating the child container.
//   - [WithContainerCloseErrorHandler] handles errors closing the child container.
func NewRequestScopeMiddleware(
	parent *ioc.Container,
	opts ...RequestScopeMiddlewareOption,
) (func(http.Handler) http.Handler, error) {
	if parent == nil {
		return nil, errors.New("iochttp.NewRequestScopeMiddleware: parent is nil")
	}

	cfg := &middlewareConfig{
		parent:       parent,
		newHandler:   defaultNewContainerErrorHandler,
		closeHandler: defaultContainerCloseErrorHandler,
	}

	var errs errors.MultiError
	for _, opt := range opts {
		errs = errs.Append(opt.applyRequestScopeMiddleware(cfg))
	}
	if err := errs.Wrap("iochttp.NewRequestScopeMiddleware"); err != nil {
		return nil, err
	}

	return func(next http.Handler) http.Handler {
		return &requestScopeMiddleware{
			middlewareConfig: cfg,
			next:             next,
		}
	}, nil
}

// NewContainerErrorHandler writes an error response to the client.
// It is called by the middleware when creating the child [ioc.Container] fails.
//
// The default handler logs the error to [slog.Default] and writes a 500 Internal Server Error response.
type NewContainerErrorHandler = func(w http.ResponseWriter, r *http.Request, err error)

func defaultNewContainerErrorHandler(w http.ResponseWriter, r *http.Request, err error) {
	slog.ErrorContext(r.Context(), "error creating HTTP request container", "error", err)
	http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
}

// ContainerCloseErrorHandler handles errors when closing the child [ioc.Container]
// after the request has completed.
//
// The default handler logs the error to [slog.Default].
type ContainerCloseErrorHandler = func(r *http.Request, err error)

func defaultContainerCloseErrorHandler(r *http.Request, err error) {
	slog.ErrorContext(r.Context(), "error closing HTTP request container", "error", err)
}

type middlewareConfig struct {
	parent       *ioc.Container
	opts         []ioc.ContainerOption
	newHandler   NewContainerErrorHandler
	closeHandler ContainerCloseErrorHandler
}

type requestScopeMiddleware struct {
	*middlewareConfig
	next http.Handler
}

func (m *requestScopeMiddleware) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	reg := m.parent.Registry()

	opts := make([]ioc.ContainerOption, 0, len(m.opts)+2)
	opts = append(opts, m.opts...)
	opts = append(opts, ioc.WithInstance(reg.Identifier(RequestKey), r))
	if rctx := chi.RouteContext(r.Context()); rctx != nil {
		opts = append(opts, ioc.WithInstance(reg.Identifier(RouteContextKey), rctx))
	}

	c, err := m.parent.NewChild(opts...)
	if err != nil {
		m.newHandler(w, r, err)
		return
	}

	ctx := ioccontext.WithContainer(r.Context(), c)
	m.next.ServeHTTP(w, r.WithContext(ctx))

	err = c.Close(ctx)
	if err != nil {
		m.closeHandler(r, err)
	}
}
