// Package server provides HTTP routing, middleware, OAuth handling and the streaming conversion endpoint.
//
// # Router Infrastructure
//
// [BasicRouter] implements [Router] on top of [http.ServeMux] method patterns.
// [Middleware] is applied in the order it is added (first added is outermost).
// Custom handlers implement [Handler], which adds the list of patterns they serve.
//
// # Web Application
//
// [New] assembles the web application:
//
//	GET  /              conversion form and authorization status
//	GET  /check_auth    {"yt_authorized": bool}
//	GET  /auth/youtube  redirect to the Google consent page
//	GET  /callback      store the YouTube token, redirect to /
//	POST /convert       text/event-stream of progress lines ending with END_OF_STREAM
//
// # Command Line Authorization
//
// [OAuthHandler] serves the single callback of `sp2yt auth youtube`. It validates the state
// parameter (CSRF protection), exchanges the code and reports the result through a channel.
// Only the first callback is processed.
package server
