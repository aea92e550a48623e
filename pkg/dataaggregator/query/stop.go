package query

type StopSearch struct {
	Query string
}
