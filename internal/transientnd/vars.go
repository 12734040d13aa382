package transientnd

var (
	Debug    = false // set to true for verbose debug output
	UseLocks = true  // set to false to disable locks for parallel writes
	PNG      = false // set to true to save a 16-bit PNG sequence instead of a GIF
	RAW      = false // set to true to save a raw checkpoint of the accumulated block
)
