// Package session owns the persisted bearer credential and the session state derived from it.
//
// [TokenStore] reads and writes the credential slot. [Controller] projects the credential into
// a [State] on every read; nothing caches whether the user is logged in.
//
// Every authenticated call site routes authorization rejections through
// [Controller.HandleUnauthorized] (usually via [Controller.Check]). That is the single logout
// path for expired sessions: it clears the credential once and notifies subscribers once, no
// matter how many concurrent calls fail.
package session
