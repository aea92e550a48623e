package query

// Schedule asks for the local schedule document
type Schedule struct{}
