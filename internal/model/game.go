package model

// Game is one entry in the arcade catalog.
type Game struct {
	ID           string `json:"id"           yaml:"id"`
	Name         string `json:"name"         yaml:"name"`
	Description  string `json:"description"  yaml:"description"`
	Instructions string `json:"instructions" yaml:"instructions"`
	DevelopedBy  string `json:"developedBy,omitempty" yaml:"developedBy,omitempty"`
}
