// Package graph implements the authenticated HTTP client and data model for
// the remote chat message API. The client performs bearer-token GETs only;
// token acquisition and refresh are the caller's concern.
package graph
