package repo

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	dmn "github.com/robel-ketema/wayfinder-api/domain"
	"github.com/robel-ketema/wayfinder-api/pathfind"
	"github.com/robel-ketema/wayfinder-api/service/i"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// routeDoc is the stored form of one visitor's planned route. Positions are
// pixel pairs, the unit the mobile map view works in; unset positions are
// stored as explicit nulls.
type routeDoc struct {
	ID        uuid.UUID        `bson:"_id"`
	Start     *dmn.PixelPoint  `bson:"start"`
	End       *dmn.PixelPoint  `bson:"end"`
	Current   *dmn.PixelPoint  `bson:"current"`
	Path      []dmn.PixelPoint `bson:"path"`
	Algorithm string           `bson:"algorithm"`
	UpdatedAt time.Time        `bson:"updatedAt"`
}

// RouteRepo handles the persistence of planned routes, one per visitor.
type RouteRepo struct {
	collection *mongo.Collection
}

// NewRouteRepo creates a new RouteRepo with the given MongoDB client, database name, and collection name.
func NewRouteRepo(client *mongo.Client, dbName, collectionName string) *RouteRepo {
	collection := client.Database(dbName).Collection(collectionName)
	return &RouteRepo{
		collection: collection,
	}
}

// Save inserts or replaces the user's route record.
func (r *RouteRepo) Save(route *dmn.Route) error {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	filter := bson.M{"_id": route.UserID}
	update := bson.M{
		"$set": bson.M{
			"start":     route.Start,
			"end":       route.End,
			"current":   route.Current,
			"path":      route.Path,
			"algorithm": route.Algorithm.String(),
			"updatedAt": time.Now(),
		},
	}

	opts := options.Update().SetUpsert(true)
	if _, err := r.collection.UpdateOne(ctx, filter, update, opts); err != nil {
		return errors.New("unexpected error: " + err.Error())
	}

	return nil
}

// ByUser retrieves the user's route record. Returns i.ErrNotFound when the
// user never planned a route. An unknown stored algorithm name degrades to
// the default rather than failing the read.
func (r *RouteRepo) ByUser(userID uuid.UUID) (*dmn.Route, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	filter := bson.M{"_id": userID}
	var doc routeDoc
	if err := r.collection.FindOne(ctx, filter).Decode(&doc); err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, i.ErrNotFound
		}
		return nil, errors.New("unexpected error: " + err.Error())
	}

	return routeFromDoc(doc), nil
}

// UpdateCurrent persists only the live walking position of the route.
func (r *RouteRepo) UpdateCurrent(userID uuid.UUID, p *dmn.PixelPoint) error {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	filter := bson.M{"_id": userID}
	update := bson.M{
		"$set": bson.M{
			"current":   p,
			"updatedAt": time.Now(),
		},
	}

	opts := options.Update().SetUpsert(true)
	if _, err := r.collection.UpdateOne(ctx, filter, update, opts); err != nil {
		return errors.New("unexpected error: " + err.Error())
	}

	return nil
}

// routeFromDoc converts a stored record to the domain form.
func routeFromDoc(doc routeDoc) *dmn.Route {
	algo, err := pathfind.ParseAlgorithm(doc.Algorithm)
	if err != nil {
		algo = pathfind.AStar
	}

	return &dmn.Route{
		UserID:    doc.ID,
		Start:     doc.Start,
		End:       doc.End,
		Current:   doc.Current,
		Path:      doc.Path,
		Algorithm: algo,
	}
}
