// Package router provides the ordered route table and route matching for
// the gateway.
//
// A Table is compiled once from configuration and is never mutated
// afterwards, so any number of request goroutines may call Match on it
// without locking.
//
// # Matching
//
// Routes are evaluated in declaration order and the first route whose
// path and method both match wins. There is no specificity ranking: an
// earlier wildcard route shadows a later exact route.
//
// A path pattern ending in "/*" matches by byte prefix after the two
// trailing bytes are removed. "/api/*" therefore matches "/api",
// "/api/", "/api/users" and also "/apiary". No normalisation is applied
// to either side. Any other pattern requires exact equality.
//
// A method pattern of "*" matches every verb. Otherwise the pattern is a
// "|" delimited verb set such as "GET|POST"; each token is trimmed of
// surrounding spaces and compared case-sensitively.
package router
