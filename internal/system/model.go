// Package system serves the public reference data clients need before a
// session exists, currently the supported story languages.
package system

// Language is one language stories can be generated in.
type Language struct {
	ID   int64  `json:"id"`
	Code string `json:"code"`
	Name string `json:"name"`
}
