package ir

import "slices"

// UnlockSet maps each category to the instructions the player may use.
//
// The set only grows. A fresh set holds exactly MoveForward under Movement.
type UnlockSet struct {
	byCategory map[Category]map[Instruction]struct{}
}

// NewUnlockSet creates the seeded unlock set.
func NewUnlockSet() *UnlockSet {
	u := &UnlockSet{byCategory: make(map[Category]map[Instruction]struct{})}
	u.Unlock(MoveForward)
	return u
}

// Unlock adds inst under its own category.
// Returns true if the set changed.
func (u *UnlockSet) Unlock(inst Instruction) bool {
	return u.UnlockAs(inst.Category(), inst)
}

// UnlockAs adds inst under an explicit category.
// Returns true if the set changed.
func (u *UnlockSet) UnlockAs(cat Category, inst Instruction) bool {
	set, ok := u.byCategory[cat]
	if !ok {
		set = make(map[Instruction]struct{})
		u.byCategory[cat] = set
	}
	if _, exists := set[inst]; exists {
		return false
	}
	set[inst] = struct{}{}
	return true
}

// Contains reports whether inst is unlocked under any category.
func (u *UnlockSet) Contains(inst Instruction) bool {
	for _, set := range u.byCategory {
		if _, ok := set[inst]; ok {
			return true
		}
	}
	return false
}

// InCategory returns the unlocked instructions of cat in declaration order.
func (u *UnlockSet) InCategory(cat Category) []Instruction {
	set := u.byCategory[cat]
	out := make([]Instruction, 0, len(set))
	for inst := range set {
		out = append(out, inst)
	}
	slices.Sort(out)
	return out
}

// All returns every unlocked instruction in declaration order, without duplicates.
func (u *UnlockSet) All() []Instruction {
	var out []Instruction
	for _, inst := range Instructions {
		if u.Contains(inst) {
			out = append(out, inst)
		}
	}
	return out
}

// Len returns the number of (category, instruction) entries.
func (u *UnlockSet) Len() int {
	n := 0
	for _, set := range u.byCategory {
		n += len(set)
	}
	return n
}
