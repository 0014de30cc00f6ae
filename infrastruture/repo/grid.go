package repo

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/robel-ketema/wayfinder-api/grid"
	"github.com/robel-ketema/wayfinder-api/service/i"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// gridDoc is the stored form of one visitor's occupancy map.
type gridDoc struct {
	ID        uuid.UUID `bson:"_id"`
	Size      int       `bson:"size"`
	Cells     [][]int   `bson:"cells"`
	UpdatedAt time.Time `bson:"updatedAt"`
}

// GridRepo handles the persistence of occupancy grids, one per visitor.
type GridRepo struct {
	collection *mongo.Collection
}

// NewGridRepo creates a new GridRepo with the given MongoDB client, database name, and collection name.
func NewGridRepo(client *mongo.Client, dbName, collectionName string) *GridRepo {
	collection := client.Database(dbName).Collection(collectionName)
	return &GridRepo{
		collection: collection,
	}
}

// Save inserts or replaces the user's grid.
func (r *GridRepo) Save(userID uuid.UUID, g *grid.Grid) error {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	filter := bson.M{"_id": userID}
	update := bson.M{
		"$set": bson.M{
			"size":      g.Size(),
			"cells":     g.Matrix(),
			"updatedAt": time.Now(),
		},
	}

	opts := options.Update().SetUpsert(true)
	if _, err := r.collection.UpdateOne(ctx, filter, update, opts); err != nil {
		return errors.New("unexpected error: " + err.Error())
	}

	return nil
}

// ByUser retrieves the user's saved grid. Returns i.ErrNotFound when the
// user never saved one, and grid validation errors when the stored record
// does not decode into a usable grid.
func (r *GridRepo) ByUser(userID uuid.UUID) (*grid.Grid, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	filter := bson.M{"_id": userID}
	var doc gridDoc
	if err := r.collection.FindOne(ctx, filter).Decode(&doc); err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, i.ErrNotFound
		}
		return nil, errors.New("unexpected error: " + err.Error())
	}

	return gridFromDoc(doc)
}

// gridFromDoc validates a stored record into a Grid. Size mismatches, ragged
// rows and unknown cell values are all rejected so callers can fall back to
// the default layout.
func gridFromDoc(doc gridDoc) (*grid.Grid, error) {
	if doc.Size != len(doc.Cells) {
		return nil, grid.ErrMalformedMatrix
	}
	return grid.FromMatrix(doc.Cells)
}
