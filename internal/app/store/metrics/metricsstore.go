// internal/app/store/metrics/metricsstore.go
package metricsstore

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
)

// Counts is the set of totals shown on the admin dashboard.
type Counts struct {
	Users            int64
	Admins           int64
	Clubs            int64
	Events           int64
	UpcomingEvents   int64
	OpenRecruitments int64
	Registrations    int64
	RoleRequests     int64
	Announcements    int64
}

// FetchDashboardCounts returns the high-level counts used by the dashboard.
// Intentionally tolerant: on error it returns 0 for that counter.
func FetchDashboardCounts(ctx context.Context, db *mongo.Database, now time.Time) Counts {
	var out Counts
	live := bson.M{"deleted": bson.M{"$ne": true}}

	count := func(coll string, filter bson.M, dst *int64) {
		if n, err := db.Collection(coll).CountDocuments(ctx, filter); err == nil {
			*dst = n
		}
	}

	count("users", live, &out.Users)
	count("users", bson.M{"role": "admin", "deleted": bson.M{"$ne": true}}, &out.Admins)
	count("users", bson.M{"role_request": bson.M{"$exists": true, "$ne": nil}, "deleted": bson.M{"$ne": true}}, &out.RoleRequests)
	count("clubs", bson.M{}, &out.Clubs)
	count("events", bson.M{}, &out.Events)
	count("events", bson.M{"end_date": bson.M{"$gte": now.UTC().Truncate(24 * time.Hour)}}, &out.UpcomingEvents)
	count("recruitments", bson.M{"active": true, "deadline": bson.M{"$gte": now}}, &out.OpenRecruitments)
	count("registrations", bson.M{}, &out.Registrations)
	count("announcements", bson.M{}, &out.Announcements)

	return out
}
