package transientnd

// Real is the scalar type used for all accumulation math.
type Real = float64

// RGB stores color components; each should be in [0,1].
type RGB struct {
	R, G, B Real
}

// Sample is a single transient contribution: a continuous position whose
// last coordinate lies on the time axis, one value per non-weight channel,
// and an active flag. Samples do not outlive the Put call that consumes
// them.
type Sample struct {
	Pos    []Real
	Values []Real
	Active bool
}
