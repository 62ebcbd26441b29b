package combat

// TurnOrder returns the repeating order in which the sides act.
//
// When both speeds are set, the faster side goes first and an exact tie is a
// coin flip; otherwise the player goes first. A pre-emptive encounter puts the
// player first, and if the player was already first the player acts twice per
// cycle: the order becomes player, player, enemy for the whole battle.
//
// Precondition: r must be non-nil; speeds must be >= 0.
// Postcondition: result[0] == SidePlayer when preemptive is true.
func TurnOrder(playerSpeed, enemySpeed int, preemptive bool, r Roller) []Side {
	order := []Side{SidePlayer, SideEnemy}
	if playerSpeed > 0 && enemySpeed > 0 {
		switch {
		case enemySpeed > playerSpeed:
			order = []Side{SideEnemy, SidePlayer}
		case enemySpeed == playerSpeed:
			if !r.Chance("initiative", 0.5) {
				order = []Side{SideEnemy, SidePlayer}
			}
		}
	}
	if !preemptive {
		return order
	}
	if order[0] == SidePlayer {
		return append([]Side{SidePlayer}, order...)
	}
	return []Side{SidePlayer, SideEnemy}
}
