package closure

import (
	"gojsm/domain/jsm"
)

// AttributeDriven walks the attributes in schema order. For each attribute
// not yet resolved it intersects the vectors of the examples that hold it and
// unions the vectors of those that do not. When at least two examples hold
// the attribute and the two results share nothing, the intersection is
// emitted as a term (extent: the holders) and all of its attributes become
// resolved; otherwise only the attribute itself is resolved.
type AttributeDriven struct{}

func (AttributeDriven) Name() string { return MethodKhazanovskiy }

func (AttributeDriven) Exact() bool { return false }

func (AttributeDriven) Compute(examples []jsm.Example) []jsm.Term {
	objs := sortedByID(examples)
	if len(objs) == 0 {
		return nil
	}
	width := objs[0].Vector.Len()
	resolved := jsm.NewVector(width)
	var terms []jsm.Term

	for a := 0; a < width; a++ {
		if resolved.Sum() == width {
			break
		}
		if resolved.Get(a) {
			continue
		}

		common := jsm.Full(width)
		complement := jsm.NewVector(width)
		holders := make([]jsm.ExampleID, 0, len(objs))
		for _, obj := range objs {
			if obj.Vector.Get(a) {
				holders = append(holders, obj.ID)
				common = common.Intersect(obj.Vector)
			} else {
				complement = complement.Union(obj.Vector)
			}
		}

		if len(holders) >= 2 && !common.Intersects(complement) {
			resolved = resolved.Union(common)
			terms = append(terms, jsm.Term{Intent: common, Extent: jsm.NewIDSet(holders...)})
			continue
		}
		resolved = resolved.With(a, true)
	}
	return terms
}
