package jsm

// Observation is one input row: an id and its boolean attribute values.
type Observation struct {
	ID     ExampleID
	Values []bool
}

// Example is an observation admitted into a model. Step is the round at
// which the example received its current label (0 for ingested labels).
type Example struct {
	ID     ExampleID
	Vector Vector
	Step   int
	Label  Label
}

// ResultRow is one example in the combined result view.
type ResultRow struct {
	ID     ExampleID `json:"id"`
	Values []bool    `json:"values"`
	Step   int       `json:"step"`
	Label  Label     `json:"target"`
}
