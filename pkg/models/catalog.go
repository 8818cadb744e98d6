package models

// Catalog binds a published catalog ID to the upstream language it crawls.
type Catalog struct {
	ID       string `json:"id"`       // catalog ID in routes and storage, e.g. "malayalam"
	Name     string `json:"name"`     // display name in the manifest
	Language string `json:"language"` // upstream original-language code, e.g. "ml"
}
