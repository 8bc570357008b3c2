package docstore

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// MongoStore implementa Store sobre una base MongoDB: cada segmento inicial
// de la ruta es una colección y el segmento final el _id del documento.
type MongoStore struct {
	db *mongo.Database
}

// NewMongoStore envuelve una base ya conectada.
func NewMongoStore(db *mongo.Database) *MongoStore {
	return &MongoStore{db: db}
}

// ConnectMongo abre el cliente, verifica la conexión y devuelve la base.
func ConnectMongo(ctx context.Context, uri, database string) (*mongo.Client, *mongo.Database, error) {
	pingCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	client, err := mongo.Connect(pingCtx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, nil, fmt.Errorf("mongo connect: %w", err)
	}
	if err := client.Ping(pingCtx, nil); err != nil {
		return nil, nil, fmt.Errorf("mongo ping: %w", err)
	}
	return client, client.Database(database), nil
}

// Get decodifica el documento completo en out.
func (m *MongoStore) Get(ctx context.Context, path string, out any) error {
	coll, id, err := SplitPath(path)
	if err != nil {
		return err
	}

	err = m.db.Collection(coll).FindOne(ctx, bson.M{"_id": id}).Decode(out)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return ErrNotFound
	}
	return err
}

// Set sobreescribe el documento completo (upsert).
func (m *MongoStore) Set(ctx context.Context, path string, value any) error {
	coll, id, err := SplitPath(path)
	if err != nil {
		return err
	}

	doc, err := toBsonDoc(value)
	if err != nil {
		return err
	}
	doc["_id"] = id

	opts := options.Replace().SetUpsert(true)
	_, err = m.db.Collection(coll).ReplaceOne(ctx, bson.M{"_id": id}, doc, opts)
	return err
}

// Update aplica $set campo a campo sobre el documento.
func (m *MongoStore) Update(ctx context.Context, path string, fields map[string]any) error {
	coll, id, err := SplitPath(path)
	if err != nil {
		return err
	}

	res, err := m.db.Collection(coll).UpdateOne(ctx, bson.M{"_id": id}, bson.M{"$set": fields})
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return ErrNotFound
	}
	return nil
}

// Exists consulta la presencia del documento sin traerlo completo.
func (m *MongoStore) Exists(ctx context.Context, path string) (bool, error) {
	coll, id, err := SplitPath(path)
	if err != nil {
		return false, err
	}

	count, err := m.db.Collection(coll).CountDocuments(ctx, bson.M{"_id": id}, options.Count().SetLimit(1))
	if err != nil {
		return false, err
	}
	return count > 0, nil
}

// AddToArray agrega el valor al final del campo array vía $push.
func (m *MongoStore) AddToArray(ctx context.Context, path, field string, value any) error {
	coll, id, err := SplitPath(path)
	if err != nil {
		return err
	}

	res, err := m.db.Collection(coll).UpdateOne(ctx, bson.M{"_id": id}, bson.M{"$push": bson.M{field: value}})
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return ErrNotFound
	}
	return nil
}

// RemoveFromArray elimina vía $pull el elemento igual al valor completo.
// El $eq envuelve el documento para exigir igualdad estricta del elemento
// entero; un $pull desnudo lo trataría como condición campo a campo y un
// elemento con los mismos campos más extras aún coincidiría. Si la copia
// local difiere del valor almacenado no se elimina nada y removed queda en
// false, exactamente la semántica que el mutador detecta.
func (m *MongoStore) RemoveFromArray(ctx context.Context, path, field string, value any) (bool, error) {
	coll, id, err := SplitPath(path)
	if err != nil {
		return false, err
	}

	res, err := m.db.Collection(coll).UpdateOne(ctx, bson.M{"_id": id}, bson.M{"$pull": bson.M{field: bson.M{"$eq": value}}})
	if err != nil {
		return false, err
	}
	if res.MatchedCount == 0 {
		return false, ErrNotFound
	}
	return res.ModifiedCount > 0, nil
}

func toBsonDoc(value any) (bson.M, error) {
	raw, err := bson.Marshal(value)
	if err != nil {
		return nil, err
	}
	var doc bson.M
	if err := bson.Unmarshal(raw, &doc); err != nil {
		return nil, err
	}
	return doc, nil
}
