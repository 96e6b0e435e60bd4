package weaveecs

import "fmt"

// Plugin bundles a set of systems, resources, and event subscriptions into
// an installable unit (spec.md §4.9). Dependencies names other plugins
// that must already be built before this one's Build runs.
type Plugin interface {
	Name() string
	Dependencies() []string
	Build(*World) bool
}

// StartupHooks is implemented by a Plugin that wants to run code around its
// Build: InstallPlugins calls FirstStartup and PreStartup just before that
// plugin's Build and PostStartup and LastStartup just after it. The hooks
// are not tied to the Scheduler's startup phases.
type StartupHooks interface {
	FirstStartup(*World)
	PreStartup(*World)
	PostStartup(*World)
	LastStartup(*World)
}

// Removable is implemented by a Plugin that needs to run teardown logic.
type Removable interface {
	Remove(*World)
}

// InstallPlugins topologically sorts plugins by Dependencies (Kahn's
// algorithm, grounded on katsu2d's World façade composing its managers in
// a fixed dependency order, generalized here to an explicit graph) and
// calls Build on each in that order. It returns an error naming any
// plugin whose dependency cannot be satisfied, and stops before building
// anything if a cycle is detected.
func InstallPlugins(w *World, plugins []Plugin) ([]Plugin, error) {
	byName := make(map[string]Plugin, len(plugins))
	for _, p := range plugins {
		byName[p.Name()] = p
	}

	indegree := make(map[string]int, len(plugins))
	dependents := make(map[string][]string, len(plugins))
	for _, p := range plugins {
		if _, ok := indegree[p.Name()]; !ok {
			indegree[p.Name()] = 0
		}
		for _, dep := range p.Dependencies() {
			if _, ok := byName[dep]; !ok {
				return nil, fmt.Errorf("%w: plugin %q requires %q", ErrMissingDependency, p.Name(), dep)
			}
			indegree[p.Name()]++
			dependents[dep] = append(dependents[dep], p.Name())
		}
	}

	var queue []string
	for _, p := range plugins {
		if indegree[p.Name()] == 0 {
			queue = append(queue, p.Name())
		}
	}

	var order []Plugin
	for len(queue) > 0 {
		name := queue[0]
		queue = queue[1:]
		order = append(order, byName[name])
		for _, dep := range dependents[name] {
			indegree[dep]--
			if indegree[dep] == 0 {
				queue = append(queue, dep)
			}
		}
	}
	if len(order) != len(plugins) {
		return nil, fmt.Errorf("weaveecs: cycle detected among plugin dependencies")
	}

	for _, p := range order {
		if hooks, ok := p.(StartupHooks); ok {
			hooks.FirstStartup(w)
			hooks.PreStartup(w)
		}
		if !p.Build(w) {
			return order, fmt.Errorf("weaveecs: plugin %q failed to build", p.Name())
		}
		if hooks, ok := p.(StartupHooks); ok {
			hooks.PostStartup(w)
			hooks.LastStartup(w)
		}
	}
	return order, nil
}

// RemovePlugins calls Remove on every plugin that implements Removable, in
// reverse of the order InstallPlugins built them.
func RemovePlugins(w *World, installed []Plugin) {
	for i := len(installed) - 1; i >= 0; i-- {
		if r, ok := installed[i].(Removable); ok {
			r.Remove(w)
		}
	}
}
