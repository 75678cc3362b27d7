package counter

// Globals is the process-wide storage used by the Static and StaticVolatile
// disciplines.
//
// Every Counter created against the same Globals shares its totals, so
// benchmark runs that happen one after another, or at the same time, see
// and change each other's values. The process instance is created when the
// package is initialized and is never reset.
type Globals struct {
	static         cell
	staticVolatile cell
}

var process = NewGlobals()

// NewGlobals creates an isolated set of process-wide cells. Tests use it to
// observe carry-over without depending on other tests in the same binary.
func NewGlobals() *Globals {
	return &Globals{}
}

// Process returns the Globals that live for the whole process.
func Process() *Globals {
	return process
}

// Snapshot returns the current static totals.
func (g *Globals) Snapshot() (static, staticVolatile int64) {
	return g.static.plain, g.staticVolatile.visible.Load()
}
