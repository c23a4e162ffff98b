package swarm

import (
	"cmp"
	"slices"
	"time"

	"github.com/cdietze/zombie-toolkit/pkg/geometry"
	"github.com/mlange-42/ark/ecs"
)

// refreshFriends runs the cached friend list countdown of one unit.
// When the countdown lapses, the oldest friend is dropped half of the time
// and, half of the time, one random new candidate within the query radius
// joins, as long as the list is below MaxFriends.
func (c *Controller) refreshFriends(self ecs.Entity, origin geometry.Vector2D, state *BehaviorState, elapsed time.Duration) {
	c.trimFriends(state)
	state.NextRefresh -= elapsed
	if state.NextRefresh > 0 {
		return
	}
	state.NextRefresh = c.refreshDelay()

	if len(state.Friends) > 0 && c.rng.IntN(100) <= 50 {
		state.Friends = append(state.Friends[:0], state.Friends[1:]...)
	}
	if c.rng.IntN(100) <= 50 {
		return
	}
	if len(state.Friends) >= c.settings.MaxFriends {
		return
	}

	c.candidates = Neighbors(c.phys, self, origin, c.settings.QueryRadius(), c.candidates[:0])
	fresh := c.candidates[:0]
	for _, n := range c.candidates {
		if !state.hasFriend(n.Entity) {
			fresh = append(fresh, n)
		}
	}
	if len(fresh) == 0 {
		return
	}
	// broad phase order is not stable across physics worlds, distance is
	slices.SortFunc(fresh, func(a, b Neighbor) int { return cmp.Compare(a.DistSq, b.DistSq) })
	state.Friends = append(state.Friends, fresh[c.rng.IntN(len(fresh))].Entity)
}

// trimFriends drops the oldest friends beyond MaxFriends. The cap can
// shrink between ticks through SetSettings.
func (c *Controller) trimFriends(state *BehaviorState) {
	if over := len(state.Friends) - c.settings.MaxFriends; over > 0 {
		state.Friends = append(state.Friends[:0], state.Friends[over:]...)
	}
}

// refreshDelay draws the next countdown in [interval/2, interval*3/2) so
// units do not refresh in lockstep.
func (c *Controller) refreshDelay() time.Duration {
	interval := c.settings.FriendRefresh
	return interval/2 + time.Duration(c.rng.Int64N(int64(interval)))
}

// friendNeighbors reads the cached friends into dst. Friends the physics
// world no longer knows are dropped from the list.
func (c *Controller) friendNeighbors(self ecs.Entity, origin geometry.Vector2D, state *BehaviorState, dst []Neighbor) []Neighbor {
	kept := state.Friends[:0]
	for _, f := range state.Friends {
		if f == self || !c.phys.IsDynamic(f) {
			continue
		}
		n, ok := readNeighbor(c.phys, f, origin)
		if !ok {
			continue
		}
		kept = append(kept, f)
		dst = append(dst, n)
	}
	state.Friends = kept
	return dst
}
