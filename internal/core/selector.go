package core

// SelectLatestApproved reduces the update log to the single authoritative
// update per place id.
//
// Only approved records with a non-blank place id take part; approved records
// without one are new-point proposals and belong to ExtractNewPoints.
// A later-listed record displaces the current holder only when its timestamp
// is strictly greater, so on equal timestamps the first one seen wins.
// Unparseable timestamps are UnknownTime and lose to any parseable one.
func SelectLatestApproved(updates []UpdateRecord) map[string]UpdateRecord {
	latest := make(map[string]UpdateRecord)
	for _, u := range updates {
		if !u.Approved {
			continue
		}
		key := CleanText(u.PlaceID)
		if key == "" {
			continue
		}
		cur, ok := latest[key]
		if !ok || u.Timestamp.After(cur.Timestamp) {
			latest[key] = u
		}
	}
	return latest
}
