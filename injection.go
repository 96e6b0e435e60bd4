package weaveecs

// Res is an injection marker for mutable access to a resource of type T.
type Res[T any] struct {
	Value *T
}

// ResReadonly is an injection marker for read-only access to a resource
// of type T.
type ResReadonly[T any] struct {
	Value *T
}

// Local is an injection marker for per-system private state of type T,
// persisted across ticks but never shared with another system.
type Local[T any] struct {
	Value *T
}

// InjectionResolver resolves an InjectionDescriptor.Kind into the value a
// System's Update closure should capture. Because System.Update is a plain
// func(*World) error rather than a reflected/codegen'd signature (spec.md
// DESIGN NOTES' guidance to replace decorator DI with a build-time table),
// resolution in this core happens once, at registration time: a caller
// builds its Update closure using resolver.Resolve for each
// InjectionDescriptor it declared, rather than the scheduler reflecting
// into the closure's parameter list on every tick.
type InjectionResolver struct {
	resolvers map[string]func(*World, *System) any
	locals    map[*System]map[string]any
}

// NewInjectionResolver creates an empty resolver. Res[T], ResReadonly[T],
// and Local[T] are resolved directly through ResolveRes, ResolveResReadonly,
// and LocalFor, since a generic T can't round-trip through the string-keyed
// Kind here; Register/Resolve are for caller-defined kinds that don't need
// a type parameter (e.g. a query marker carrying only component ids).
func NewInjectionResolver() *InjectionResolver {
	r := &InjectionResolver{
		resolvers: make(map[string]func(*World, *System) any),
		locals:    make(map[*System]map[string]any),
	}
	return r
}

// Register installs a resolver function for the given injection kind.
func (r *InjectionResolver) Register(kind string, fn func(*World, *System) any) {
	r.resolvers[kind] = fn
}

// Resolve looks up d.Kind and invokes its resolver against w and sys. It
// returns nil if the kind has no registered resolver.
func (r *InjectionResolver) Resolve(w *World, sys *System, d InjectionDescriptor) any {
	fn, ok := r.resolvers[d.Kind]
	if !ok {
		return nil
	}
	return fn(w, sys)
}

// ResolveRes resolves a Res[T] marker for a system's Update closure,
// reading straight from w.Resources.
func ResolveRes[T any](w *World) Res[T] {
	v, _ := GetResource[T](w.Resources)
	return Res[T]{Value: v}
}

// ResolveResReadonly resolves a ResReadonly[T] marker.
func ResolveResReadonly[T any](w *World) ResReadonly[T] {
	v, _ := GetResource[T](w.Resources)
	return ResReadonly[T]{Value: v}
}

// LocalFor resolves a Local[T] marker for sys under name, allocating a
// zero-valued T the first time it's requested and returning the same
// pointer on every later call for that (system, name) pair.
func LocalFor[T any](r *InjectionResolver, sys *System, name string) *T {
	bucket, ok := r.locals[sys]
	if !ok {
		bucket = make(map[string]any)
		r.locals[sys] = bucket
	}
	if v, ok := bucket[name]; ok {
		return v.(*T)
	}
	v := new(T)
	bucket[name] = v
	return v
}
