// Package blog is a searchable post list built from scope providers: a
// search query, the posts derived from it, and a theme toggle. The post
// provider can only be installed on a context that already carries the
// search provider.
package blog
