package jsm

// Term is an intent together with the ids of the examples supporting it.
type Term struct {
	Intent Vector
	Extent IDSet
}

// Cause is a term that survived filtration and falsification in the
// induction round Step.
type Cause struct {
	Term
	Step int
}

// CauseSet holds the causes of both labels produced by one induction round.
type CauseSet struct {
	Positive []Cause
	Negative []Cause
}

// For returns the causes explaining label l. Only Positive and Negative
// carry causes; any other label yields nil.
func (c CauseSet) For(l Label) []Cause {
	switch l {
	case Positive:
		return c.Positive
	case Negative:
		return c.Negative
	default:
		return nil
	}
}

// Completeness is the verdict of the abduction stage.
type Completeness struct {
	Complete     bool
	LostPositive IDSet
	LostNegative IDSet
}
