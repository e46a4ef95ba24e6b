package storage

type OperationCategory struct {
	ID   string `json:"id"`
	Code string `json:"code"`
	Name string `json:"name"`
}

// Operation is a manual-labour operation definition with its standard time.
type Operation struct {
	ID             string  `json:"id"`
	CategoryID     string  `json:"category_id"`
	Code           string  `json:"code"`
	Name           string  `json:"name"`
	SecondsPerUnit float64 `json:"seconds_per_unit"`
	IsActive       bool    `json:"is_active"`
}
