package http

// Handlers groups every HTTP handler method, holding the shared Deps
// each one reads from. Grouping by struct (rather than free functions)
// follows haowjy-meridian's handler.* package convention.
type Handlers struct {
	deps *Deps
}
