// Package server hosts the local web front started by `equipx serve`.
//
// # Router Infrastructure
//
// The [Router] interface defines HTTP routing with middleware support.
//
// [Middleware] wraps handlers in reverse order (last added executes first), following the standard Go pattern.
// [Logging], [Recover] and [NoCache] are installed on every route.
//
// The [BasicRouter] implementation uses [http.ServeMux] method patterns ("GET /login").
//
// # Sessions
//
// The bearer token lives in an HttpOnly cookie named after session.TokenKey. Each
// request builds its own session.Manager over a [CookieStore], so a 401 from the
// lending API clears the cookie through the same path the CLI uses to clear its
// stored token.
//
// Every page runs router.Guard before rendering. Anonymous visitors are redirected
// (303) to /login?next=<path>; an expired token is cleared and reported with a toast.
//
// # Forms
//
// All POST forms carry a gorilla/csrf token. Toasts raised by a POST survive the
// redirect in a short-lived flash cookie.
//
// # Handler Interface
//
// Custom handlers implement the [Handler] interface, which wraps the stdlib handler interface and adds routes,
// allowing handlers to register multiple routes to encapsulate route definitions within the implementation.
package server
