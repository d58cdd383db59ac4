// Package recipes holds the local recipe collection and keeps it in step with the server.
//
// # Collection
//
// [Collection] is an ordered list of records indexed by id. Ids are unique at all times:
// inserting a record whose id is already present replaces it in place.
//
// # Repository
//
// [Repository] performs the remote calls and applies their results to the collection only
// after the server confirms them. A failed call never changes the collection.
//
// Full fetches are sequenced. Each fetch remembers its sequence number and the local mutation
// generation at the moment it started. When it completes, its result is applied only if no
// later fetch has been applied and no local mutation (insert, update, remove, clear) happened
// while it was in flight. Otherwise the result is discarded and the current collection is
// returned with Applied set to false.
//
// Update and Remove on the same id are serialized: a second mutation while one is in flight
// fails with [shared.ErrRecordConflict] without contacting the server.
//
// Authorization rejections are handed to the session before being returned.
package recipes
