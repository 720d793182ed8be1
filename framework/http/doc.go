// Package http holds the unit of work the framework dispatches: a Context
// wrapping the request, the Response a module produces and the Pipelines
// every request runs through.
//
// # Request
//
// Request wraps *http.Request with read helpers.
//
//	req := gohttp.NewRequest(r)
//
//	page := req.Query("page", "1")
//	id   := req.RouteParam("id")
//	val  := req.Header("X-Custom")
//
// Body decoding lives in the binding package.
//
// # Response
//
// Modules return a *Response value; the engine writes it once the
// AfterRequest pipeline has run.
//
//	return gohttp.JSON(200, data), nil      // raw JSON with status
//	return gohttp.Success(data), nil        // 200 {"data": ...}
//	return gohttp.Created(data), nil        // 201 {"data": ...}
//	return gohttp.NoContent(), nil          // 204
//	return gohttp.NotFound(), nil           // 404 {"message": "Not found."}
//	return gohttp.Text(200, "pong"), nil
//	return gohttp.File("./public/app.css", "text/css"), nil
//
// # Context
//
// A Context carries two typed slots the framework fills lazily: the request
// scope (a child resolver) and the request pipelines. Each is built at most
// once per Context, and Dispose releases the scope.
//
//	ctx := gohttp.NewContext(r)
//	defer ctx.Dispose()
package http
