package scoring

// Bonus awards for beating a team from the same or a numerically
// lower-ranked division tier. Division rank is an opaque ordinal, only the
// comparison direction matters.
const (
	SameTierBonus  = 2
	CrossTierBonus = 3
)

// ComputeBonus previews the bonus points either side would be eligible for.
// At most one side is nonzero and a tied score awards nothing. The result is
// never persisted, an operator may enter it as the game's point award.
func ComputeBonus(rankA int, rankB int, scoreA int, scoreB int) (bonusA float64, bonusB float64) {
	// Divisions without an explicit rank count as rank 1.
	if rankA == 0 {
		rankA = 1
	}
	if rankB == 0 {
		rankB = 1
	}
	if scoreA > scoreB {
		return winnerBonus(rankA, rankB), 0
	}
	if scoreB > scoreA {
		return 0, winnerBonus(rankB, rankA)
	}
	return 0, 0
}

func winnerBonus(winnerRank int, loserRank int) float64 {
	if winnerRank == loserRank {
		return SameTierBonus
	}
	if winnerRank > loserRank {
		return CrossTierBonus
	}
	return 0
}
