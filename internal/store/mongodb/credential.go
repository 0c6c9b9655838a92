package mongodb

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/Harshitk-cp/crmgate/internal/domain"
	"github.com/Harshitk-cp/crmgate/internal/store"
	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"
)

// CredentialStore keeps credentials in the "tokens" collection, one document
// per domain, using the document layout of the earlier Node deployment.
type CredentialStore struct {
	client *mongo.Client
	tokens *mongo.Collection
	now    func() time.Time
}

type credentialDoc struct {
	ObjectID     bson.ObjectID `bson:"_id,omitempty"`
	CredentialID string        `bson:"credentialId"`
	Domain       string        `bson:"domain"`
	AccessToken  string        `bson:"accessToken"`
	RefreshToken string        `bson:"refreshToken"`
	ExpiresIn    int           `bson:"expiresIn"`
	ExpiresAt    time.Time     `bson:"expiresAt"`
	Status       string        `bson:"status"`
	CreatedAt    time.Time     `bson:"createdAt"`
	UpdatedAt    time.Time     `bson:"updatedAt"`
}

// New connects to MongoDB and ensures the unique domain index.
func New(ctx context.Context, uri, database string) (*CredentialStore, error) {
	const op = "store.mongodb.New"

	client, err := mongo.Connect(options.Client().ApplyURI(uri))
	if err != nil {
		return nil, fmt.Errorf("%s: connect: %w", op, err)
	}

	if err := client.Ping(ctx, nil); err != nil {
		return nil, fmt.Errorf("%s: ping: %w", op, err)
	}

	s := &CredentialStore{
		client: client,
		tokens: client.Database(database).Collection("tokens"),
		now:    time.Now,
	}

	_, err = s.tokens.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "domain", Value: 1}},
		Options: options.Index().SetUnique(true),
	})
	if err != nil {
		return nil, fmt.Errorf("%s: tokens.domain index: %w", op, err)
	}

	return s, nil
}

func (s *CredentialStore) Close(ctx context.Context) error {
	return s.client.Disconnect(ctx)
}

func (s *CredentialStore) Ping(ctx context.Context) error {
	return s.client.Ping(ctx, nil)
}

func (s *CredentialStore) Get(ctx context.Context, domainName string) (*domain.Credential, error) {
	const op = "store.mongodb.Get"

	var doc credentialDoc
	err := s.tokens.FindOne(ctx, bson.D{{Key: "domain", Value: domainName}}).Decode(&doc)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, store.ErrNotFound
		}
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return doc.toDomain(), nil
}

// UpsertActive swaps the domain's document in one FindOneAndReplace so the
// replacement is atomic with respect to other writers.
func (s *CredentialStore) UpsertActive(ctx context.Context, domainName, accessToken, refreshToken string, expiresIn int) (*domain.Credential, error) {
	const op = "store.mongodb.UpsertActive"

	now := s.now()
	doc := credentialDoc{
		CredentialID: uuid.NewString(),
		Domain:       domainName,
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
		ExpiresIn:    expiresIn,
		ExpiresAt:    now.Add(time.Duration(expiresIn) * time.Second),
		Status:       string(domain.CredentialActive),
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	opts := options.FindOneAndReplace().SetUpsert(true).SetReturnDocument(options.After)
	var saved credentialDoc
	err := s.tokens.FindOneAndReplace(ctx, bson.D{{Key: "domain", Value: domainName}}, doc, opts).Decode(&saved)
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return nil, fmt.Errorf("%s: %w", op, store.ErrConflict)
		}
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return saved.toDomain(), nil
}

func (s *CredentialStore) UpdateTokens(ctx context.Context, domainName, accessToken, refreshToken string, expiresIn int) (*domain.Credential, error) {
	const op = "store.mongodb.UpdateTokens"

	now := s.now()
	filter := bson.D{
		{Key: "domain", Value: domainName},
		{Key: "status", Value: string(domain.CredentialActive)},
	}
	update := bson.D{{Key: "$set", Value: bson.D{
		{Key: "accessToken", Value: accessToken},
		{Key: "refreshToken", Value: refreshToken},
		{Key: "expiresIn", Value: expiresIn},
		{Key: "expiresAt", Value: now.Add(time.Duration(expiresIn) * time.Second)},
		{Key: "updatedAt", Value: now},
	}}}

	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)
	var saved credentialDoc
	err := s.tokens.FindOneAndUpdate(ctx, filter, update, opts).Decode(&saved)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, store.ErrNotFound
		}
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return saved.toDomain(), nil
}

func (s *CredentialStore) MarkInvalid(ctx context.Context, domainName string) error {
	const op = "store.mongodb.MarkInvalid"

	res, err := s.tokens.UpdateOne(ctx,
		bson.D{{Key: "domain", Value: domainName}},
		bson.D{{Key: "$set", Value: bson.D{
			{Key: "status", Value: string(domain.CredentialInvalid)},
			{Key: "updatedAt", Value: s.now()},
		}}},
	)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	if res.MatchedCount == 0 {
		return store.ErrNotFound
	}
	return nil
}

func (d credentialDoc) toDomain() *domain.Credential {
	id, _ := uuid.Parse(d.CredentialID)
	return &domain.Credential{
		ID:           id,
		Domain:       d.Domain,
		AccessToken:  d.AccessToken,
		RefreshToken: d.RefreshToken,
		ExpiresIn:    d.ExpiresIn,
		ExpiresAt:    d.ExpiresAt,
		Status:       domain.CredentialStatus(d.Status),
		CreatedAt:    d.CreatedAt,
		UpdatedAt:    d.UpdatedAt,
	}
}
