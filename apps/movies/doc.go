// Package movies searches OMDb through the query cache and keeps a
// persisted list of watched movies with a summary.
package movies
