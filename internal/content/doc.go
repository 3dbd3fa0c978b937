// Package content provides the strategies that put an item in front of the
// human: inline text panes, the system web browser, and a web archive with an
// optional document-store fallback.
//
// Every provider implements classify.ContentProvider. Providers that cannot
// lay out two items side by side report that through SupportsMode so a
// session refuses the combination at construction.
package content
