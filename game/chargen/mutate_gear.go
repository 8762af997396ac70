package chargen

import "slices"

// AddAugment installs an augment. Rated augments start at rating 1 unless
// rating says otherwise. Essence and nuyen overspend is left to validation.
func AddAugment(s *CharacterState, c *Catalog, id, grade string, rating int) (*CharacterState, bool) {
	if Locked(s) {
		return s, false
	}
	if _, ok := s.Augments[id]; ok {
		return s, false
	}
	def, ok := c.Augment(id)
	if !ok {
		return s, false
	}
	if _, ok := c.Grade(grade); !ok {
		return s, false
	}
	sel := AugmentSelection{Grade: grade}
	if def.MaxRating > 0 {
		if rating == 0 {
			rating = 1
		}
		if rating < 1 || rating > def.MaxRating {
			return s, false
		}
		sel.Rating = rating
	} else if rating != 0 {
		return s, false
	}
	next := s.Clone()
	next.Augments[id] = sel
	return next, true
}

func RemoveAugment(s *CharacterState, _ *Catalog, id string) (*CharacterState, bool) {
	if Locked(s) {
		return s, false
	}
	if _, ok := s.Augments[id]; !ok {
		return s, false
	}
	next := s.Clone()
	delete(next.Augments, id)
	return next, true
}

func SetAugmentGrade(s *CharacterState, c *Catalog, id, grade string) (*CharacterState, bool) {
	if Locked(s) {
		return s, false
	}
	sel, ok := s.Augments[id]
	if !ok || sel.Grade == grade {
		return s, false
	}
	if _, ok := c.Grade(grade); !ok {
		return s, false
	}
	next := s.Clone()
	sel.Grade = grade
	next.Augments[id] = sel
	return next, true
}

// AdjustAugmentRating moves a rated augment within [1, MaxRating].
func AdjustAugmentRating(s *CharacterState, c *Catalog, id string, delta int) (*CharacterState, bool) {
	if Locked(s) {
		return s, false
	}
	sel, ok := s.Augments[id]
	if !ok {
		return s, false
	}
	def, ok := c.Augment(id)
	if !ok || def.MaxRating <= 0 {
		return s, false
	}
	res := Bump(id, delta, BumpOptions{
		Current: map[string]int{id: max(1, sel.Rating)},
		Min:     1,
		Max:     func() int { return def.MaxRating },
	})
	if !res.OK {
		return s, false
	}
	next := s.Clone()
	sel.Rating = res.Values[id]
	next.Augments[id] = sel
	return next, true
}

// AddGear buys one unit. Stackable items grow their quantity up to MaxQuantity
// (0 is unbounded); other items can be held once.
func AddGear(s *CharacterState, c *Catalog, id string) (*CharacterState, bool) {
	return adjustGear(s, c, id, 1)
}

// RemoveGear drops one unit, removing the entry at zero.
func RemoveGear(s *CharacterState, c *Catalog, id string) (*CharacterState, bool) {
	return adjustGear(s, c, id, -1)
}

func adjustGear(s *CharacterState, c *Catalog, id string, delta int) (*CharacterState, bool) {
	if Locked(s) {
		return s, false
	}
	def, ok := c.GearItem(id)
	if !ok {
		return s, false
	}
	var ceiling func() int
	switch {
	case !def.Stackable:
		ceiling = func() int { return 1 }
	case def.MaxQuantity > 0:
		ceiling = func() int { return def.MaxQuantity }
	}
	qty := map[string]int{}
	if n := s.GearQuantity(id); n > 0 {
		qty[id] = n
	}
	res := Bump(id, delta, BumpOptions{Current: qty, Max: ceiling, DeleteOnZero: true})
	if !res.OK {
		return s, false
	}
	next := s.Clone()
	n, kept := res.Values[id]
	idx := slices.IndexFunc(next.Gear, func(g GearEntry) bool { return g.ItemID == id })
	switch {
	case !kept:
		next.Gear = slices.Delete(next.Gear, idx, idx+1)
	case idx < 0:
		next.Gear = append(next.Gear, GearEntry{ItemID: id, Quantity: n})
	default:
		next.Gear[idx] = GearEntry{ItemID: id, Quantity: n}
	}
	return next, true
}

func AddDrone(s *CharacterState, c *Catalog, id string) (*CharacterState, bool) {
	if Locked(s) {
		return s, false
	}
	if _, ok := s.Drones[id]; ok {
		return s, false
	}
	if _, ok := c.Drone(id); !ok {
		return s, false
	}
	next := s.Clone()
	next.Drones[id] = DroneLoadout{}
	return next, true
}

// RemoveDrone sells a drone together with its installed mods.
func RemoveDrone(s *CharacterState, _ *Catalog, id string) (*CharacterState, bool) {
	if Locked(s) {
		return s, false
	}
	if _, ok := s.Drones[id]; !ok {
		return s, false
	}
	next := s.Clone()
	delete(next.Drones, id)
	return next, true
}

// InstallDroneMod fits a mod on an owned drone. The mod must allow the drone's
// category and stay within its per-drone count (0 is unbounded).
func InstallDroneMod(s *CharacterState, c *Catalog, droneID, modID string) (*CharacterState, bool) {
	if Locked(s) {
		return s, false
	}
	loadout, owned := s.Drones[droneID]
	drone, ok := c.Drone(droneID)
	if !owned || !ok {
		return s, false
	}
	mod, ok := c.DroneMod(modID)
	if !ok || !mod.Allows(drone.Category) {
		return s, false
	}
	installed := 0
	for _, m := range loadout.Mods {
		if m == modID {
			installed++
		}
	}
	if mod.MaxPerDrone > 0 && installed >= mod.MaxPerDrone {
		return s, false
	}
	next := s.Clone()
	l := next.Drones[droneID]
	l.Mods = append(l.Mods, modID)
	next.Drones[droneID] = l
	return next, true
}

// RemoveDroneMod uninstalls the most recently fitted copy of a mod.
func RemoveDroneMod(s *CharacterState, _ *Catalog, droneID, modID string) (*CharacterState, bool) {
	if Locked(s) {
		return s, false
	}
	loadout, owned := s.Drones[droneID]
	if !owned {
		return s, false
	}
	idx := -1
	for i, m := range loadout.Mods {
		if m == modID {
			idx = i
		}
	}
	if idx < 0 {
		return s, false
	}
	next := s.Clone()
	l := next.Drones[droneID]
	l.Mods = slices.Delete(l.Mods, idx, idx+1)
	next.Drones[droneID] = l
	return next, true
}
