package pipeline

type Stage string

const (
	StagePending     Stage = "PENDING"
	StageFetching    Stage = "FETCHING"
	StageNormalizing Stage = "NORMALIZING"
	StageDeduping    Stage = "DEDUPING"
	StageScoring     Stage = "SCORING"
	StageRanking     Stage = "RANKING"
	StageComplete    Stage = "COMPLETE"
	StageFailed      Stage = "FAILED"
)

var stageOrder = []Stage{StagePending, StageFetching, StageNormalizing, StageDeduping,
	StageScoring, StageRanking, StageComplete}

// Index is the position of the stage in a successful run, -1 for FAILED.
func (s Stage) Index() int {
	for i, stage := range stageOrder {
		if stage == s {
			return i
		}
	}
	return -1
}

func (s Stage) Terminal() bool {
	return s == StageComplete || s == StageFailed
}

// CanTransition allows moving one stage forward or failing from any non-terminal stage.
func CanTransition(from, to Stage) bool {
	if from.Terminal() {
		return false
	}
	if to == StageFailed {
		return true
	}
	i, j := from.Index(), to.Index()
	return i >= 0 && j == i+1
}
