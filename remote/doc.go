// Package remote provides the store collaborator returned by Client.Open.
//
// A Store addresses one named database on the backend. Documents live under
// /<store>/<id>; listing uses /<store>/_all_docs with include_docs=true.
// Reads can be backed by a cache.ReadThrough, so the last fetched copy of a
// document or query is served while the backend is unreachable.
//
// All requests go through the owning client's gateway, so they carry the
// same base URL, hooks and error normalization as any other request.
package remote
