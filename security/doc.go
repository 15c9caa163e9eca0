// Package security builds client TLS settings shared by the outbound
// transports: the HTTP adapters behind the query endpoints and the redis
// persistence client.
package security
