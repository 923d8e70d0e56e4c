package strava

import (
	"context"

	"hotpot/herr"
	"hotpot/ingest"
)

// WebhookEvent is Strava's push subscription payload (POST body of
// /strava/webhook).
type WebhookEvent struct {
	ObjectType string `json:"object_type"`
	ObjectID   int64  `json:"object_id"`
	AspectType string `json:"aspect_type"`
	OwnerID    int64  `json:"owner_id"`
}

// ActivityStore is the persistence surface Dispatch needs beyond
// ingest.Store: looking up and deleting by strava_id.
type ActivityStore interface {
	ingest.Store
	FindByStravaID(ctx context.Context, stravaID int64) (int64, error)
	DeleteActivity(ctx context.Context, id int64) error
}

// Dispatch handles one webhook event per spec.md §6/§9 Open Question
// (b): "update" is a full re-fetch-and-upsert (delete then re-ingest
// under the same strava_id), not a partial property patch. Non-activity
// object types (e.g. athlete deauthorization) are ignored.
func Dispatch(ctx context.Context, mgr *Manager, st ActivityStore, trimDist float64, ev WebhookEvent) error {
	if ev.ObjectType != "activity" {
		return nil
	}

	switch ev.AspectType {
	case "create":
		return fetchAndStore(ctx, mgr, st, trimDist, ev.ObjectID)
	case "update":
		if id, err := st.FindByStravaID(ctx, ev.ObjectID); err == nil {
			if err := st.DeleteActivity(ctx, id); err != nil {
				return err
			}
		}
		return fetchAndStore(ctx, mgr, st, trimDist, ev.ObjectID)
	case "delete":
		id, err := st.FindByStravaID(ctx, ev.ObjectID)
		if err != nil {
			return nil // already absent; delete is idempotent
		}
		return st.DeleteActivity(ctx, id)
	default:
		return herr.Protocol("unrecognized strava aspect_type: " + ev.AspectType)
	}
}

func fetchAndStore(ctx context.Context, mgr *Manager, st ActivityStore, trimDist float64, stravaID int64) error {
	token, err := mgr.AccessToken(ctx)
	if err != nil {
		return err
	}
	raw, err := FetchActivity(token, stravaID)
	if err != nil {
		return err
	}
	id := stravaID
	_, err = ingest.FromRaw(ctx, st, raw, "strava", &id, trimDist)
	return err
}
