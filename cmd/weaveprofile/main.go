// Profiling:
// go build ./cmd/weaveprofile
// go tool pprof -http=":8000" -nodefraction=0.001 ./weaveprofile mem.pprof
package main

import (
	"github.com/edwinsyarief/weaveecs"
	"github.com/pkg/profile"
)

type comp1 struct {
	V int64
	W int64
}

type comp2 struct {
	V int64
	W int64
}

func main() {
	count := 50
	iters := 10000
	numEntities := 1000
	p := profile.Start(profile.MemProfileAllocs, profile.ProfilePath("."), profile.NoShutdownHook)
	run(count, iters, numEntities)
	p.Stop()
}

// run drives a world through a spawn/query/despawn loop using a named
// schedule rather than raw archetype churn, so the profile reflects the
// cost real systems pay going through Scheduler.Tick.
func run(rounds, iters, numEntities int) {
	for range rounds {
		w := weaveecs.NewWorld()
		s := weaveecs.NewScheduler(w)

		s.AddSystem(&weaveecs.System{
			Name:     "spawn",
			Schedule: weaveecs.First,
			Update: func(w *weaveecs.World) error {
				batch := weaveecs.CreateBatch2[comp1, comp2](w, numEntities)
				for i := 0; i < batch.Len(); i++ {
					c1, c2 := batch.Get(i)
					c1.V, c1.W = 1, 1
					c2.V, c2.W = 2, 2
				}
				return nil
			},
		})

		s.AddSystem(&weaveecs.System{
			Name:     "accumulate",
			Schedule: weaveecs.Update,
			Update: func(w *weaveecs.World) error {
				q := weaveecs.CreateQuery2[comp1, comp2](w, nil, nil)
				defer q.Release()
				for q.Next() {
					c1, c2 := q.Get()
					c1.V += c2.V
					c1.W += c2.W
				}
				return nil
			},
		})

		s.AddSystem(&weaveecs.System{
			Name:     "despawn",
			Schedule: weaveecs.Last,
			Update: func(w *weaveecs.World) error {
				q := weaveecs.CreateQuery2[comp1, comp2](w, nil, nil)
				var dead []weaveecs.EntityID
				for q.Next() {
					dead = append(dead, q.Entity())
				}
				q.Release()
				weaveecs.DespawnBatch(w, dead)
				return nil
			},
		})

		for i := 0; i < iters; i++ {
			s.Tick()
		}
	}
}
