package orchestrator

// State is the lifecycle of the current submission. It is a closed set:
// Idle, Loading, Ready and Failed are the only implementations.
type State interface {
	Name() string
	state()
}

// Idle means nothing has been submitted since creation or the last Reset.
type Idle struct{}

// Loading means a model call is in flight.
type Loading struct{}

// Ready carries the artifact of a successful submission.
type Ready struct {
	Code string
}

// Failed carries the error of the last submission. A new Submit is
// always permitted from here.
type Failed struct {
	Err error
}

func (Idle) Name() string    { return "idle" }
func (Loading) Name() string { return "loading" }
func (Ready) Name() string   { return "ready" }
func (Failed) Name() string  { return "failed" }

func (Idle) state()    {}
func (Loading) state() {}
func (Ready) state()   {}
func (Failed) state()  {}
