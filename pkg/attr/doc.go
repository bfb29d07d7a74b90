// Package attr defines the tagged wire value exchanged with a key/value store.
//
// Every value carries exactly one tag:
//
//	N     number, as a decimal string
//	S     string
//	BOOL  boolean
//	NULL  null (payload is always true)
//	L     ordered list of values
//	M     string-keyed map of values
//	SS    string set
//	NS    number set, members as decimal strings
//	B/BS  binary and binary set
//
// Value is a closed sum type: a type switch over the ten concrete types is
// exhaustive. The package also provides the store's JSON form ({"S":"x"}) and
// an equivalent canonical CBOR form.
package attr
