// Package view provides typed, zero-copy windows over body fields.
//
// A view is bound either to one field of a body, through the transaction that
// owns it, or to a plain Go value, in which case it is read-only. Views are
// handles, not copies: they read the body's current bytes on every call and
// every edit goes through the body's splice primitive. A view and any slice it
// returns are only valid for the duration of the calling scope; the next
// mutation of the body may move or reshape the underlying bytes.
//
// Element equality is bitwise.
package view
