package iochttp_test

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sectrean/ioc-kit"
	"github.com/sectrean/ioc-kit/internal/testtypes"
	"github.com/sectrean/ioc-kit/internal/testutils"
	"github.com/sectrean/ioc-kit/iochttp"
	"github.com/sectrean/ioc-kit/ioccontext"
)

func Test_NewRequestScopeMiddleware(t *testing.T) {
	t.Run("nil parent", func(t *testing.T) {
		mw, err := iochttp.NewRequestScopeMiddleware(nil)
		testutils.LogError(t, err)

		assert.Nil(t, mw)
		assert.EqualError(t, err, "iochttp.NewRequestScopeMiddleware: parent is nil")
	})

	t.Run("with new container error handler nil", func(t *testing.T) {
		c, err := ioc.NewContainer(ioc.NewRegistry())
		require.NoError(t, err)

		mw, err := iochttp.NewRequestScopeMiddleware(c,
			iochttp.WithNewContainerErrorHandler(nil),
		)
		testutils.LogError(t, err)

		assert.Nil(t, mw)
		assert.EqualError(t, err, "iochttp.NewRequestScopeMiddleware: WithNewContainerErrorHandler: h is nil")
	})

	t.Run("with container close error handler nil", func(t *testing.T) {
		c, err := ioc.NewContainer(ioc.NewRegistry())
		require.NoError(t, err)

		mw, err := iochttp.NewRequestScopeMiddleware(c,
			iochttp.WithContainerCloseErrorHandler(nil),
		)
		testutils.LogError(t, err)

		assert.Nil(t, mw)
		assert.EqualError(t, err, "iochttp.NewRequestScopeMiddleware: WithContainerCloseErrorHandler: h is nil")
	})

	t.Run("multiple middleware calls", func(t *testing.T) {
		c, err := ioc.NewContainer(ioc.NewRegistry())
		require.NoError(t, err)

		mw, err := iochttp.NewRequestScopeMiddleware(c)
		require.NoError(t, err)

		handlerA := mw(http.NotFoundHandler())
		handlerB := mw(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			w.WriteHeader(http.StatusInternalServerError)
		}))

		assert.Equal(t, http.StatusNotFound, RunRequest(t, handlerA, "/"))
		assert.Equal(t, http.StatusInternalServerError, RunRequest(t, handlerB, "/"))
	})
}

func Test_Middleware(t *testing.T) {
	t.Run("request container", func(t *testing.T) {
		reg := ioc.NewRegistry()
		c, err := ioc.NewContainer(reg)
		require.NoError(t, err)

		mw, err := iochttp.NewRequestScopeMiddleware(c)
		require.NoError(t, err)

		handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			child := ioccontext.Container(r.Context())
			require.NotNil(t, child)
			assert.Same(t, c, child.Parent())

			req, resolveErr := ioccontext.Get[*http.Request](r.Context(), iochttp.RequestKey)
			assert.NoError(t, resolveErr)
			assert.Equal(t, r, req.WithContext(r.Context()))

			// Not running inside a chi router.
			assert.False(t, child.Has(reg.Identifier(iochttp.RouteContextKey)))

			w.WriteHeader(http.StatusOK)
		})

		assert.Equal(t, http.StatusOK, RunRequest(t, mw(handler), "/"))
	})

	t.Run("parent service", func(t *testing.T) {
		reg := ioc.NewRegistry()
		aID, bID := reg.Identifier("a"), reg.Identifier("b")
		c, err := ioc.NewContainer(reg,
			ioc.WithDescriptor(aID, ioc.NewDescriptor(reg.MustConstructor(testtypes.NewInterfaceA), nil)),
		)
		require.NoError(t, err)

		mw, err := iochttp.NewRequestScopeMiddleware(c,
			iochttp.WithContainerOptions(
				ioc.WithDescriptor(bID, ioc.NewDescriptor(reg.MustConstructor(testtypes.NewInterfaceB, ioc.Inject(aID, 0)), nil)),
			),
		)
		require.NoError(t, err)

		var seen []testtypes.InterfaceB
		handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			b, resolveErr := ioccontext.Get[testtypes.InterfaceB](r.Context(), "b")
			assert.NoError(t, resolveErr)
			seen = append(seen, b)

			w.WriteHeader(http.StatusOK)
		})

		assert.Equal(t, http.StatusOK, RunRequest(t, mw(handler), "/"))
		assert.Equal(t, http.StatusOK, RunRequest(t, mw(handler), "/"))

		// Each request builds its own b around the shared a.
		require.Len(t, seen, 2)
		assert.NotSame(t, seen[0], seen[1])
		assert.Same(t, seen[0].(*testtypes.StructB).A, seen[1].(*testtypes.StructB).A)
	})

	t.Run("chi route context", func(t *testing.T) {
		reg := ioc.NewRegistry()
		itemID := reg.Identifier("item")
		newItem := func(rctx *chi.Context) *testtypes.StructA {
			return &testtypes.StructA{Tag: rctx.URLParam("id")}
		}

		c, err := ioc.NewContainer(reg)
		require.NoError(t, err)

		mw, err := iochttp.NewRequestScopeMiddleware(c,
			iochttp.WithContainerOptions(
				ioc.WithDescriptor(itemID, ioc.NewDescriptor(
					reg.MustConstructor(newItem, ioc.Inject(reg.Identifier(iochttp.RouteContextKey), 0)), nil)),
			),
		)
		require.NoError(t, err)

		r := chi.NewRouter()
		r.Use(mw)
		r.Get("/items/{id}", func(w http.ResponseWriter, r *http.Request) {
			item := ioccontext.MustGet[*testtypes.StructA](r.Context(), "item")
			assert.Equal(t, "42", item.Tag)

			w.WriteHeader(http.StatusOK)
		})

		assert.Equal(t, http.StatusOK, RunRequest(t, r, "/items/42"))
	})

	t.Run("concurrent requests", func(t *testing.T) {
		// Run a number of concurrent requests and inject the *http.Request into
		// a request service. Check that the injected request matches the request
		// passed to the handler.
		const concurrency = 1000

		reg := ioc.NewRegistry()
		aID := reg.Identifier("a")
		newA := func(r *http.Request) *testtypes.StructA {
			return &testtypes.StructA{Tag: r.URL.Path}
		}

		c, err := ioc.NewContainer(reg)
		require.NoError(t, err)

		mw, err := iochttp.NewRequestScopeMiddleware(c,
			iochttp.WithContainerOptions(
				ioc.WithDescriptor(aID, ioc.NewDescriptor(
					reg.MustConstructor(newA, ioc.Inject(reg.Identifier(iochttp.RequestKey), 0)), nil)),
			),
		)
		require.NoError(t, err)

		tags := make(chan any, concurrency)
		expectedTags := make(chan any, concurrency)

		var handler http.Handler
		handler = http.HandlerFunc(func(_ http.ResponseWriter, r *http.Request) {
			a, resolveErr := ioccontext.Get[*testtypes.StructA](r.Context(), "a")
			assert.NotNil(t, a)
			assert.NoError(t, resolveErr)

			assert.Equal(t, r.URL.Path, a.Tag)
			tags <- a.Tag
		})
		handler = mw(handler)

		testutils.RunParallel(concurrency, func(i int) {
			path := fmt.Sprintf("/%d", i)
			expectedTags <- path

			RunRequest(t, handler, path)
		})

		close(tags)
		close(expectedTags)

		assert.ElementsMatch(t, testutils.CollectChannel(expectedTags), testutils.CollectChannel(tags))
	})

	t.Run("concurrent requests build parent services once", func(t *testing.T) {
		const concurrency = 200

		reg := ioc.NewRegistry()
		aID, bID := reg.Identifier("a"), reg.Identifier("b")
		f := &testtypes.Factory{}

		c, err := ioc.NewContainer(reg,
			ioc.WithDescriptor(aID, ioc.NewDescriptor(reg.MustConstructor(f.NewInterfaceA), nil)),
			ioc.WithDescriptor(bID, ioc.NewDescriptor(reg.MustConstructor(f.NewInterfaceB, ioc.Inject(aID, 0)), nil)),
		)
		require.NoError(t, err)

		mw, err := iochttp.NewRequestScopeMiddleware(c)
		require.NoError(t, err)

		services := make(chan testtypes.InterfaceB, concurrency)
		handler := mw(http.HandlerFunc(func(_ http.ResponseWriter, r *http.Request) {
			b, resolveErr := ioccontext.Get[testtypes.InterfaceB](r.Context(), "b")
			assert.NoError(t, resolveErr)
			services <- b
		}))

		testutils.RunParallel(concurrency, func(i int) {
			assert.Equal(t, http.StatusOK, RunRequest(t, handler, fmt.Sprintf("/%d", i)))
		})
		close(services)

		// One a and one b, shared by every request.
		assert.Equal(t, 2, f.Count())
		want := parentService(t, c, bID)
		for b := range services {
			assert.Same(t, want, b)
		}
	})

	t.Run("new container error", func(t *testing.T) {
		c, err := ioc.NewContainer(ioc.NewRegistry())
		require.NoError(t, err)

		called := false

		mw, err := iochttp.NewRequestScopeMiddleware(c,
			iochttp.WithContainerOptions(
				ioc.WithInstance(nil, 1),
			),
			iochttp.WithNewContainerErrorHandler(func(w http.ResponseWriter, r *http.Request, err error) {
				assert.NotNil(t, w)
				assert.NotNil(t, r)
				assert.EqualError(t, err, "ioc.Container.NewChild: with instance: identifier is nil")
				called = true

				w.WriteHeader(599)
			}),
		)
		require.NoError(t, err)

		handler := http.HandlerFunc(func(http.ResponseWriter, *http.Request) {
			assert.Fail(t, "handler should not get called")
		})

		assert.Equal(t, 599, RunRequest(t, mw(handler), "/"))
		assert.True(t, called)
	})

	t.Run("default new container error handler", func(t *testing.T) {
		c, err := ioc.NewContainer(ioc.NewRegistry())
		require.NoError(t, err)

		mw, err := iochttp.NewRequestScopeMiddleware(c,
			iochttp.WithContainerOptions(ioc.WithInstance(nil, 1)),
		)
		require.NoError(t, err)

		assert.Equal(t, http.StatusInternalServerError, RunRequest(t, mw(http.NotFoundHandler()), "/"))
	})

	t.Run("close error", func(t *testing.T) {
		reg := ioc.NewRegistry()
		closerID := reg.Identifier("closer")
		var log []string
		newCloser := func() *testtypes.CloseRecorder {
			return &testtypes.CloseRecorder{Name: "closer", Log: &log, Err: errors.New("close error")}
		}

		c, err := ioc.NewContainer(reg)
		require.NoError(t, err)

		called := false

		mw, err := iochttp.NewRequestScopeMiddleware(c,
			iochttp.WithContainerOptions(
				ioc.WithDescriptor(closerID, ioc.NewDescriptor(reg.MustConstructor(newCloser), nil)),
			),
			iochttp.WithContainerCloseErrorHandler(func(r *http.Request, err error) {
				assert.NotNil(t, r)
				assert.EqualError(t, err, "ioc.Container.Close: close error")
				called = true
			}),
		)
		require.NoError(t, err)

		handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			closer, resolveErr := ioccontext.Get[*testtypes.CloseRecorder](r.Context(), "closer")
			assert.NotNil(t, closer)
			assert.NoError(t, resolveErr)

			w.WriteHeader(http.StatusOK)
		})

		assert.Equal(t, http.StatusOK, RunRequest(t, mw(handler), "/"))

		assert.True(t, called)
		assert.Equal(t, []string{"closer"}, log)
	})
}

func RunRequest(t *testing.T, h http.Handler, path string) int {
	res := httptest.NewRecorder()
	req, err := http.NewRequest(http.MethodGet, path, http.NoBody)
	require.NoError(t, err)

	h.ServeHTTP(res, req)
	return res.Code
}

func parentService(t *testing.T, c *ioc.Container, id *ioc.Identifier) testtypes.InterfaceB {
	b, err := ioc.InvokeValue(context.Background(), c, func(a ioc.Accessor) (testtypes.InterfaceB, error) {
		return ioc.Get[testtypes.InterfaceB](a, id)
	})
	require.NoError(t, err)
	return b
}
