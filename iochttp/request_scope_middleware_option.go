package iochttp

import (
	"github.com/sectrean/ioc-kit"
	"github.com/sectrean/ioc-kit/internal/errors"
)

// RequestScopeMiddlewareOption configures the middleware when calling [NewRequestScopeMiddleware].
type RequestScopeMiddlewareOption interface {
	applyRequestScopeMiddleware(*middlewareConfig) error
}

type requestScopeMiddlewareOption func(*middlewareConfig) error

func (o requestScopeMiddlewareOption) applyRequestScopeMiddleware(m *middlewareConfig) error {
	return o(m)
}

// WithContainerOptions sets the options to use when calling [ioc.Container.NewChild] for each request.
func WithContainerOptions(opts ...ioc.ContainerOption) RequestScopeMiddlewareOption {
	return requestScopeMiddlewareOption(func(m *middlewareConfig) error {
		m.opts = append(m.opts, opts...)
		return nil
	})
}

// WithNewContainerErrorHandler sets the handler for errors creating a request container.
func WithNewContainerErrorHandler(h NewContainerErrorHandler) RequestScopeMiddlewareOption {
	return requestScopeMiddlewareOption(func(m *middlewareConfig) error {
		if h == nil {
			return errors.New("WithNewContainerErrorHandler: h is nil")
		}

		m.newHandler = h
		return nil
	})
}

// WithContainerCloseErrorHandler sets the handler for errors closing a request container.
func WithContainerCloseErrorHandler(h ContainerCloseErrorHandler) RequestScopeMiddlewareOption {
	return requestScopeMiddlewareOption(func(m *middlewareConfig) error {
		if h == nil {
			return errors.New("WithContainerCloseErrorHandler: h is nil")
		}

		m.closeHandler = h
		return nil
	})
}
