package models

// Page bounds a list query. Skip/Limit mirror the list endpoints' query params.
type Page struct {
	Skip  int
	Limit int
}
