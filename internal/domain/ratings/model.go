package ratings

import "taxi-pet/internal/schema"

const Collection = "ratings"

// Rating es la calificación de ratedBy a ratedUser por un viaje.
type Rating struct {
	ID        string
	RideID    string
	RatedBy   string
	RatedUser string
	Score     float64
	Comment   string
	Created   string
	Updated   string
}

func FromRecord(rec schema.Record) Rating {
	score, _ := rec.Float("rating")
	return Rating{
		ID:        rec.ID(),
		RideID:    rec.String("rideId"),
		RatedBy:   rec.String("ratedBy"),
		RatedUser: rec.String("ratedUser"),
		Score:     score,
		Comment:   rec.String("comment"),
		Created:   rec.String("created"),
		Updated:   rec.String("updated"),
	}
}

func (r Rating) Record() schema.Record {
	return schema.Record{
		"rideId":    r.RideID,
		"ratedBy":   r.RatedBy,
		"ratedUser": r.RatedUser,
		"rating":    r.Score,
		"comment":   r.Comment,
	}
}
