// Package models defines the recipe records exchanged with the recipe service.
//
//   - [Recipe] : a server-issued recipe record, identified by a stable integer id
//   - [RecipePatch] : a partial update sent with PUT /recipes/{id}
//   - [Credentials] : email and password for login and registration
//
// Instructions have two wire shapes: an ordered list of steps, and an older single markdown
// block. [Recipe] always holds the ordered list; a block is split into steps on decode.
package models
