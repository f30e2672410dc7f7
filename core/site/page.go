package site

// Page is a named, filenamed unit of generated source text.
type Page struct {
	Name     string `json:"name"`
	Filename string `json:"filename"`
	Source   string `json:"source"`
}
