/*
Package iochttp provides HTTP middleware that creates a child [ioc.Container] for each request.

Example:

	reg := ioc.NewRegistry()
	c, err := ioc.NewContainer(reg,
		ioc.WithDescriptor(storeID, ioc.NewDescriptor(storeCtor, nil)),
	)

	// handlerCtor injects the request: ioc.Inject(reg.Identifier(iochttp.RequestKey), 0)
	mw, err := iochttp.NewRequestScopeMiddleware(c,
		iochttp.WithContainerOptions(
			ioc.WithDescriptor(handlerID, ioc.NewDescriptor(handlerCtor, nil)),
		),
	)

	r := chi.NewRouter()
	r.Use(mw)
	r.Get("/items/{id}", func(w http.ResponseWriter, r *http.Request) {
		h := ioccontext.MustGet[*ItemHandler](r.Context(), "itemHandler")
		h.ServeHTTP(w, r)
	})

Requests are served concurrently. A parent service resolved by several requests at
once is built a single time and shared. Services registered through
[WithContainerOptions] are built in the request container and are not shared.
*/
package iochttp
