package featuremodule

import "github.com/mantonx/mediacatalog/internal/database"

var transitions = map[database.FeatureStatus][]database.FeatureStatus{
	database.FeatureStatusPending:    {database.FeatureStatusInProgress, database.FeatureStatusDiscarded},
	database.FeatureStatusInProgress: {database.FeatureStatusCompleted, database.FeatureStatusDiscarded, database.FeatureStatusPending},
	database.FeatureStatusDiscarded:  {database.FeatureStatusPending},
	database.FeatureStatusCompleted:  nil,
}

// CanTransition reports whether a request may move from one status to
// another. Staying in place is always allowed.
func CanTransition(from, to database.FeatureStatus) bool {
	if from == to {
		_, known := transitions[from]
		return known
	}
	for _, next := range transitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

func validStatus(s database.FeatureStatus) bool {
	_, ok := transitions[s]
	return ok
}

func validPriority(p database.FeaturePriority) bool {
	switch p {
	case database.FeaturePriorityLow, database.FeaturePriorityMedium, database.FeaturePriorityHigh:
		return true
	}
	return false
}

func validType(t database.FeatureType) bool {
	switch t {
	case database.FeatureTypeIdea, database.FeatureTypeBug, database.FeatureTypeFeature:
		return true
	}
	return false
}
