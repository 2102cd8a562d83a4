package search

import "sort"

// Archive keeps the best distinct plans seen during a run, ordered by
// ascending fitness. Plans with the same fingerprint are stored once.
type Archive struct {
	size    int
	members []Individual
	prints  map[uint64]struct{}
}

// NewArchive returns an archive holding at most size plans.
func NewArchive(size int) *Archive {
	if size < 1 {
		size = 1
	}
	return &Archive{size: size, prints: make(map[uint64]struct{})}
}

// Offer inserts ind if it is better than the worst member or the archive is
// not full. It reports whether ind was kept.
func (a *Archive) Offer(ind Individual) bool {
	fp := ind.Plan.Fingerprint()
	if _, dup := a.prints[fp]; dup {
		return false
	}
	if len(a.members) == a.size && ind.Result.Fitness >= a.members[len(a.members)-1].Result.Fitness {
		return false
	}
	i := sort.Search(len(a.members), func(i int) bool {
		return a.members[i].Result.Fitness > ind.Result.Fitness
	})
	ind.Plan = ind.Plan.Clone()
	a.members = append(a.members, Individual{})
	copy(a.members[i+1:], a.members[i:])
	a.members[i] = ind
	a.prints[fp] = struct{}{}
	if len(a.members) > a.size {
		last := a.members[len(a.members)-1]
		delete(a.prints, last.Plan.Fingerprint())
		a.members = a.members[:a.size]
	}
	return true
}

// Best returns the fittest member.
func (a *Archive) Best() (Individual, bool) {
	if len(a.members) == 0 {
		return Individual{}, false
	}
	return a.members[0], true
}

// Members returns the archived plans, best first.
func (a *Archive) Members() []Individual {
	return append([]Individual(nil), a.members...)
}

// Len returns the number of archived plans.
func (a *Archive) Len() int { return len(a.members) }
