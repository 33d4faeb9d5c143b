package store

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/snapkeep/printworks/config"
	"github.com/snapkeep/printworks/internal/model"
)

const (
	ordersCollection = "printableimagesets"
	usersCollection  = "users"
)

// Mongo bundles the MongoDB-backed stores over one client.
type Mongo struct {
	client *mongo.Client
	orders *mongo.Collection
	users  *mongo.Collection
}

// Connect dials MongoDB and verifies the connection with a ping.
// The caller must eventually call Close.
func Connect(ctx context.Context, cfg config.Mongo) (*Mongo, error) {
	opts := options.Client().ApplyURI(cfg.URI).
		SetConnectTimeout(5 * time.Second).
		SetServerSelectionTimeout(5 * time.Second).
		SetMaxPoolSize(10)

	client, err := mongo.Connect(ctx, opts)
	if err != nil {
		return nil, fmt.Errorf("store: connect: %w", err)
	}
	if err := client.Ping(ctx, nil); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, fmt.Errorf("store: ping: %w", err)
	}

	db := client.Database(cfg.Database)
	return &Mongo{
		client: client,
		orders: db.Collection(ordersCollection),
		users:  db.Collection(usersCollection),
	}, nil
}

// Close disconnects the underlying client.
func (m *Mongo) Close(ctx context.Context) error {
	return m.client.Disconnect(ctx)
}

// Orders returns the order store.
func (m *Mongo) Orders() OrderStore { return &mongoOrders{col: m.orders} }

// Users returns the user store.
func (m *Mongo) Users() UserStore { return &mongoUsers{col: m.users} }

type mongoOrders struct {
	col *mongo.Collection
}

func (s *mongoOrders) FindByID(ctx context.Context, id string) (*model.Order, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, fmt.Errorf("store: order id %q: %w", id, ErrNotFound)
	}

	var order model.Order
	err = s.col.FindOne(ctx, bson.M{"_id": oid}).Decode(&order)
	if err == mongo.ErrNoDocuments {
		return nil, fmt.Errorf("store: order %s: %w", id, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("store: find order %s: %w", id, err)
	}
	return &order, nil
}

func (s *mongoOrders) Save(ctx context.Context, order *model.Order) error {
	if order.ID.IsZero() {
		order.ID = primitive.NewObjectID()
	}
	_, err := s.col.ReplaceOne(ctx,
		bson.M{"_id": order.ID},
		order,
		options.Replace().SetUpsert(true),
	)
	if err != nil {
		return fmt.Errorf("store: save order %s: %w", order.ID.Hex(), err)
	}
	return nil
}

type mongoUsers struct {
	col *mongo.Collection
}

func (s *mongoUsers) FindByID(ctx context.Context, id string) (*model.User, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, fmt.Errorf("store: user id %q: %w", id, ErrNotFound)
	}

	var user model.User
	err = s.col.FindOne(ctx, bson.M{"_id": oid}).Decode(&user)
	if err == mongo.ErrNoDocuments {
		return nil, fmt.Errorf("store: user %s: %w", id, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("store: find user %s: %w", id, err)
	}
	return &user, nil
}
