package race

// Kind names the variant of a State.
type Kind string

const (
	KindWaiting    Kind = "waiting"
	KindPlaying    Kind = "playing"
	KindRespawning Kind = "respawning"
	KindFinished   Kind = "finished"
)

// State is the race-wide state. Each variant carries only the timers that
// exist in it: there is no countdown while Playing and no elapsed time while
// Waiting.
type State interface {
	Kind() Kind
	isState()
}

// Waiting is the pre-race countdown. No input is accepted.
type Waiting struct {
	Countdown float64
}

// Playing is the running race. Elapsed ticks up.
type Playing struct {
	Elapsed float64
}

// Respawning follows a crash. Elapsed keeps ticking while the respawn
// countdown runs. No input is accepted.
type Respawning struct {
	Elapsed   float64
	Countdown float64
}

// Finished is terminal; Elapsed is the final time.
type Finished struct {
	Elapsed float64
}

func (Waiting) Kind() Kind    { return KindWaiting }
func (Playing) Kind() Kind    { return KindPlaying }
func (Respawning) Kind() Kind { return KindRespawning }
func (Finished) Kind() Kind   { return KindFinished }

func (Waiting) isState()    {}
func (Playing) isState()    {}
func (Respawning) isState() {}
func (Finished) isState()   {}

// ElapsedOf returns the race time carried by s, zero while Waiting.
func ElapsedOf(s State) float64 {
	switch st := s.(type) {
	case Playing:
		return st.Elapsed
	case Respawning:
		return st.Elapsed
	case Finished:
		return st.Elapsed
	default:
		return 0
	}
}

// CountdownOf returns the running countdown of s, zero when none exists.
func CountdownOf(s State) float64 {
	switch st := s.(type) {
	case Waiting:
		return st.Countdown
	case Respawning:
		return st.Countdown
	default:
		return 0
	}
}
