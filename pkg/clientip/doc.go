// Package clientip resolves the address of the client behind an HTTP request.
//
// Forwarding headers are only consulted when explicitly trusted, since any
// client can send them. Deployments behind a load balancer list the header
// their proxy sets:
//
//	ip := clientip.New("X-Forwarded-For")
//	r.Use(ip.Middleware)
//	...
//	addr := clientip.FromContext(r.Context())
package clientip
