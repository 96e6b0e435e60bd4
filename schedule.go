package weaveecs

import (
	"sort"
	"time"
)

// Schedule names one of the phases a System can be registered against
// (spec.md §4.8). Startup phases run exactly once; Fixed phases run once
// per fixed step inside a Tick; the per-frame phases run exactly once per
// Tick; Cleanup runs once when the World is torn down.
type Schedule int

const (
	FirstStartup Schedule = iota
	PreStartup
	Startup
	PostStartup
	LastStartup

	FixedFirst
	FixedPreUpdate
	FixedUpdate
	FixedPostUpdate
	FixedFlush

	First
	PreUpdate
	Update
	PostUpdate
	Last

	Cleanup
)

// InjectionDescriptor is a build-time record of one parameter a System's
// Update function needs resolved for it. Rather than a reflection/
// decorator-driven DI step (spec.md §6's "external build step"), this core
// has the registering caller write the metadata by hand as a struct
// literal, which the caller resolves through an InjectionResolver when it
// builds the Update closure (see injection.go). The Scheduler itself does
// not read Injections.
type InjectionDescriptor struct {
	Name string
	Kind string // "res", "res_readonly", "local", "query", or a caller-defined kind
}

// System is one unit of scheduled work. RunCriteria, when set, gates
// whether Update runs this tick; a system with none always runs.
//
// Dependencies names other systems, by Name, that must be registered
// somewhere in the Scheduler for this system to run; RequiredComponents
// names component types, by their TypeNameOf string, that must be
// registered in the global component registry. Either kind of unmet
// dependency skips the system for the tick with a logged warning, rather
// than failing the phase (spec.md §4.8).
type System struct {
	Name               string
	Schedule           Schedule
	Order              int // lower runs first; ties break by registration order
	RunCriteria        func(*World) bool
	Update             func(*World) error
	Injections         []InjectionDescriptor
	Dependencies       []string
	RequiredComponents []string

	registrationIndex int
}

// defaultFixedStep matches DefaultConfig's FixedStepMillis.
const defaultFixedStep = 16 * time.Millisecond

// Scheduler owns every registered System, grouped by Schedule and sorted
// by (Order, registration index) — the same stable-sort-by-priority idiom
// katsu2d's SystemManager.sortSystemsByPriority uses, implemented here with
// sort.SliceStable instead of a bubble sort.
type Scheduler struct {
	world            *World
	phases           map[Schedule][]*System
	systemNames      map[string]bool
	nextRegistration int
	startupRan       bool
	frame            uint64
	lastTick         time.Time
	resolver         *InjectionResolver

	fixedStep   time.Duration
	accumulator time.Duration
}

// NewScheduler creates a Scheduler bound to w, using the default fixed-step
// duration. Use NewSchedulerWithConfig to take the duration from a Config.
func NewScheduler(w *World) *Scheduler {
	return &Scheduler{
		world:       w,
		phases:      make(map[Schedule][]*System),
		systemNames: make(map[string]bool),
		resolver:    NewInjectionResolver(),
		fixedStep:   defaultFixedStep,
	}
}

// NewSchedulerWithConfig creates a Scheduler bound to w, taking its
// fixed-step duration from cfg.
func NewSchedulerWithConfig(w *World, cfg Config) *Scheduler {
	s := NewScheduler(w)
	s.fixedStep = cfg.FixedStep()
	return s
}

// SetFixedStep changes the fixed-step duration the accumulator in Tick
// compares against.
func (s *Scheduler) SetFixedStep(d time.Duration) {
	s.fixedStep = d
}

// AddSystem registers sys against its Schedule, re-sorting that phase.
func (s *Scheduler) AddSystem(sys *System) {
	sys.registrationIndex = s.nextRegistration
	s.nextRegistration++
	s.phases[sys.Schedule] = append(s.phases[sys.Schedule], sys)
	s.systemNames[sys.Name] = true
	s.sortPhase(sys.Schedule)
}

// dependenciesMet reports whether every system/component sys declared as a
// dependency is currently registered.
func (s *Scheduler) dependenciesMet(sys *System) bool {
	for _, dep := range sys.Dependencies {
		if !s.systemNames[dep] {
			return false
		}
	}
	for _, comp := range sys.RequiredComponents {
		if !IsComponentNameRegistered(comp) {
			return false
		}
	}
	return true
}

func (s *Scheduler) sortPhase(ph Schedule) {
	list := s.phases[ph]
	sort.SliceStable(list, func(i, j int) bool {
		if list[i].Order != list[j].Order {
			return list[i].Order < list[j].Order
		}
		return list[i].registrationIndex < list[j].registrationIndex
	})
}

// runPhase runs every system registered for ph, in order, flushing the
// command buffer once afterward. A system whose RunCriteria returns false,
// or whose Dependencies/RequiredComponents are unmet, is skipped entirely
// (the latter logs a warning, per spec.md §4.8). An error from a system's
// Update is logged via HandlerError and the remaining systems in the phase
// still run, per spec.md §7's recoverable-error policy. No condition aborts
// a phase early, and runPhase never sets LoopControl.Stop.
func (s *Scheduler) runPhase(ph Schedule) {
	log := GetNamespacedLogger("scheduler")
	for _, sys := range s.phases[ph] {
		if !s.dependenciesMet(sys) {
			log.WithField("system", sys.Name).Warn("system skipped: unmet dependency")
			continue
		}
		if sys.RunCriteria != nil && !sys.RunCriteria(s.world) {
			continue
		}
		if err := sys.Update(s.world); err != nil {
			log.WithError(&HandlerError{Source: sys.Name, Cause: err}).Warn("system returned an error")
		}
	}
	s.world.Commands.Flush()
}

// RunStartup runs every startup phase, in order, exactly once. Calling it
// again is a no-op.
func (s *Scheduler) RunStartup() {
	if s.startupRan {
		return
	}
	s.startupRan = true
	for _, ph := range []Schedule{FirstStartup, PreStartup, Startup, PostStartup, LastStartup} {
		s.runPhase(ph)
	}
}

// Tick runs one frame per spec.md §4.8's "Tick execution": the per-frame
// phases run exactly once, then the fixed-step phases run once for every
// fixed_step duration accumulated since the last Tick (zero or more times),
// so a slow frame catches up and a fast one may run no fixed step at all.
// The command buffer is flushed after every phase; WorldTick.Frame advances
// once per fixed step actually run. It reports whether the schedule should
// keep running (false once a system has set LoopControl.Stop).
func (s *Scheduler) Tick() bool {
	now := time.Now()
	var elapsed time.Duration
	if !s.lastTick.IsZero() {
		elapsed = now.Sub(s.lastTick)
	}
	s.lastTick = now

	tick, err := MustGetResource[WorldTick](s.world.Resources)
	if err != nil {
		// NewWorld always installs WorldTick as a core resource.
		panic(err)
	}
	resetTickResources(s.world.Resources)

	for _, ph := range []Schedule{First, PreUpdate, Update, PostUpdate, Last} {
		s.runPhase(ph)
	}

	s.accumulator += elapsed
	for s.accumulator >= s.fixedStep {
		s.frame++
		tick.Frame = s.frame
		tick.Elapsed = s.fixedStep
		for _, ph := range []Schedule{FixedFirst, FixedPreUpdate, FixedUpdate, FixedPostUpdate, FixedFlush} {
			s.runPhase(ph)
		}
		s.accumulator -= s.fixedStep
	}

	if lc, _ := GetResource[LoopControl](s.world.Resources); lc != nil && lc.Stop {
		return false
	}
	return true
}

// RunCleanup runs the Cleanup phase once, intended for World teardown.
func (s *Scheduler) RunCleanup() {
	s.runPhase(Cleanup)
}

// Run drives RunStartup once, then Tick in a loop until it reports false.
func (s *Scheduler) Run() {
	s.RunStartup()
	for s.Tick() {
	}
	s.RunCleanup()
}
