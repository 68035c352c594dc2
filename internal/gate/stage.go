package gate

// Stage is the visitor's position in the unlock flow. Transitions are
// monotonic: Locked → Unlocked → Opened. A stage never moves backwards
// except through the admin reset support operation.
type Stage string

const (
	// StageLocked means the countdown has not elapsed for this browser.
	StageLocked Stage = "locked"
	// StageUnlocked means the open-gift action is available but unused.
	StageUnlocked Stage = "unlocked"
	// StageOpened means the visitor has performed the one-time open ceremony.
	StageOpened Stage = "opened"
)

// StageOf derives the stage from persisted flags. An opened flag without the
// unlocked flag is treated as unlocked-and-opened; opening implies unlocking.
func StageOf(flags Flags) Stage {
	switch {
	case flags.Opened:
		return StageOpened
	case flags.Unlocked:
		return StageUnlocked
	default:
		return StageLocked
	}
}
