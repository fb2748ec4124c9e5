package contracts

// Direction says which way a criterion's measured value is good
type Direction string

const (
	LowerIsBetter  Direction = "LOWER_IS_BETTER"
	HigherIsBetter Direction = "HIGHER_IS_BETTER"
)

// Criterion is one scoring dimension of the competition (delays,
// breakdowns, fuel efficiency, ...). Referenced by scores, never owned.
type Criterion struct {
	ID        int64     `json:"id"`
	Name      string    `json:"name"`
	SortIndex int       `json:"sort_index"`
	Direction Direction `json:"direction"`
	Unit      string    `json:"unit"`
	Active    bool      `json:"active"`
	Precision int       `json:"precision"`
}

// Sector is a competing branch of the organization
type Sector struct {
	ID     int64  `json:"id"`
	Name   string `json:"name"`
	Active bool   `json:"active"`
}
