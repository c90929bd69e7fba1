package repository

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"booklib/internal/library/config"
	"booklib/internal/library/model"
)

// Server error codes
const (
	mongoCodeDocumentValidation = 121
	mongoCodeNamespaceExists    = 48
)

type bookDocument struct {
	ID            string    `bson:"_id"`
	Name          string    `bson:"name"`
	Author        string    `bson:"author"`
	YearPublished *int64    `bson:"year_published"`
	BookType      *string   `bson:"book_type,omitempty"`
	Status        string    `bson:"status"`
	CreatedAt     time.Time `bson:"created_at"`
	UpdatedAt     time.Time `bson:"updated_at"`
}

func toDocument(b *model.Book) bookDocument {
	doc := bookDocument{
		ID:        b.ID.String(),
		Name:      b.Name,
		Author:    b.Author,
		BookType:  b.BookType,
		Status:    b.Status,
		CreatedAt: b.CreatedAt,
		UpdatedAt: b.UpdatedAt,
	}
	if b.YearPublished != nil {
		year := int64(*b.YearPublished)
		doc.YearPublished = &year
	}
	return doc
}

func (d bookDocument) toBook() (*model.Book, error) {
	id, err := uuid.Parse(d.ID)
	if err != nil {
		return nil, fmt.Errorf("stored book has invalid id %q: %w", d.ID, err)
	}
	book := &model.Book{
		ID:        id,
		Name:      d.Name,
		Author:    d.Author,
		BookType:  d.BookType,
		Status:    d.Status,
		CreatedAt: d.CreatedAt,
		UpdatedAt: d.UpdatedAt,
	}
	if d.YearPublished != nil {
		year := int(*d.YearPublished)
		book.YearPublished = &year
	}
	return book, nil
}

// MongoBookRepository stores books in a collection guarded by a $jsonSchema
// validator and a unique index on name.
type MongoBookRepository struct {
	DB    *mongo.Database
	Books *mongo.Collection
}

func NewMongoBookRepository(db *mongo.Database, collectionName string) *MongoBookRepository {
	return &MongoBookRepository{
		DB:    db,
		Books: db.Collection(collectionName),
	}
}

// ConnectMongo opens a client for cfg.MongoURI and pings it.
func ConnectMongo(ctx context.Context, cfg *config.Config) (*mongo.Client, error) {
	ctx, cancel := context.WithTimeout(ctx, cfg.Timeout)
	defer cancel()

	client, err := mongo.Connect(ctx, options.Client().ApplyURI(cfg.MongoURI))
	if err != nil {
		return nil, fmt.Errorf("failed to connect to mongo: %w", err)
	}
	if err := client.Ping(ctx, nil); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, fmt.Errorf("failed to ping mongo: %w", err)
	}
	return client, nil
}

func bookSchema() bson.M {
	statuses := bson.A{}
	for _, s := range []string{model.StatusAvailable, model.StatusBorrowed, model.StatusReserved, model.StatusLost} {
		statuses = append(statuses, s)
	}

	return bson.M{
		"$jsonSchema": bson.M{
			"bsonType": "object",
			"required": bson.A{model.ColName, model.ColAuthor, model.ColStatus},
			"properties": bson.M{
				model.ColName:          bson.M{"bsonType": "string", "maxLength": model.MaxNameLength},
				model.ColAuthor:        bson.M{"bsonType": "string", "maxLength": model.MaxAuthorLength},
				model.ColYearPublished: bson.M{"bsonType": bson.A{"int", "long", "null"}},
				model.ColBookType:      bson.M{"bsonType": "string", "maxLength": model.MaxBookTypeLength},
				model.ColStatus:        bson.M{"enum": statuses},
			},
		},
	}
}

func (r *MongoBookRepository) EnsureSchema(ctx context.Context) error {
	validator := bookSchema()
	err := r.DB.CreateCollection(ctx, r.Books.Name(), options.CreateCollection().SetValidator(validator))
	if err != nil {
		var cmdErr mongo.CommandError
		if !errors.As(err, &cmdErr) || cmdErr.Code != mongoCodeNamespaceExists {
			return fmt.Errorf("failed to create books collection: %w", err)
		}
		// Already there: refresh the validator in place.
		err = r.DB.RunCommand(ctx, bson.D{
			{Key: "collMod", Value: r.Books.Name()},
			{Key: "validator", Value: validator},
		}).Err()
		if err != nil {
			return fmt.Errorf("failed to update books validator: %w", err)
		}
	}

	idxName := mongo.IndexModel{
		Keys:    bson.D{{Key: model.ColName, Value: 1}},
		Options: options.Index().SetUnique(true).SetName("uq_books_name"),
	}
	idxAuthor := mongo.IndexModel{
		Keys:    bson.D{{Key: model.ColAuthor, Value: 1}},
		Options: options.Index().SetName("idx_books_author"),
	}
	_, err = r.Books.Indexes().CreateMany(ctx, []mongo.IndexModel{idxName, idxAuthor})
	return err
}

func (r *MongoBookRepository) DropSchema(ctx context.Context) error {
	return r.Books.Drop(ctx)
}

func (r *MongoBookRepository) CreateBook(ctx context.Context, book *model.Book) error {
	if err := book.Validate(); err != nil {
		return err
	}
	if book.ID == uuid.Nil {
		book.ID = uuid.New()
	}
	now := time.Now().UTC()
	book.CreatedAt = now
	book.UpdatedAt = now

	_, err := r.Books.InsertOne(ctx, toDocument(book))
	return classifyMongoError(err)
}

func (r *MongoBookRepository) GetBook(ctx context.Context, id uuid.UUID) (*model.Book, error) {
	return r.findOne(ctx, bson.M{"_id": id.String()})
}

func (r *MongoBookRepository) FirstBook(ctx context.Context, filter model.BookFilter) (*model.Book, error) {
	return r.findOne(ctx, bson.M(filter.Conditions()))
}

func (r *MongoBookRepository) findOne(ctx context.Context, query bson.M) (*model.Book, error) {
	opts := options.FindOne().SetSort(bson.D{{Key: model.ColName, Value: 1}})

	var doc bookDocument
	if err := r.Books.FindOne(ctx, query, opts).Decode(&doc); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return doc.toBook()
}

func (r *MongoBookRepository) FindBooks(ctx context.Context, filter model.BookFilter) ([]*model.Book, error) {
	opts := options.Find().SetSort(bson.D{{Key: model.ColName, Value: 1}})
	if filter.Limit > 0 {
		opts.SetLimit(int64(filter.Limit))
	}
	if filter.Offset > 0 {
		opts.SetSkip(int64(filter.Offset))
	}

	cursor, err := r.Books.Find(ctx, bson.M(filter.Conditions()), opts)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var docs []bookDocument
	if err := cursor.All(ctx, &docs); err != nil {
		return nil, err
	}

	books := make([]*model.Book, 0, len(docs))
	for _, d := range docs {
		b, err := d.toBook()
		if err != nil {
			return nil, err
		}
		books = append(books, b)
	}
	return books, nil
}

func (r *MongoBookRepository) CountBooks(ctx context.Context, filter model.BookFilter) (int64, error) {
	return r.Books.CountDocuments(ctx, bson.M(filter.Conditions()))
}

func (r *MongoBookRepository) UpdateBook(ctx context.Context, id uuid.UUID, patch model.BookPatch) (*model.Book, error) {
	book, err := r.GetBook(ctx, id)
	if err != nil {
		return nil, err
	}

	patch.Apply(book)
	if err := book.Validate(); err != nil {
		return nil, err
	}
	book.UpdatedAt = time.Now().UTC()

	res, err := r.Books.ReplaceOne(ctx, bson.M{"_id": id.String()}, toDocument(book))
	if err != nil {
		return nil, classifyMongoError(err)
	}
	if res.MatchedCount == 0 {
		return nil, ErrNotFound
	}
	return book, nil
}

func (r *MongoBookRepository) DeleteBook(ctx context.Context, id uuid.UUID) error {
	res, err := r.Books.DeleteOne(ctx, bson.M{"_id": id.String()})
	if err != nil {
		return err
	}
	if res.DeletedCount == 0 {
		return ErrNotFound
	}
	return nil
}

// classifyMongoError maps duplicate keys and schema validation failures onto
// the model error kinds.
func classifyMongoError(err error) error {
	if err == nil {
		return nil
	}
	if mongo.IsDuplicateKeyError(err) {
		return model.IntegrityError(model.ColName, model.ConstraintUnique, err)
	}

	var we mongo.WriteException
	if errors.As(err, &we) {
		for _, e := range we.WriteErrors {
			if e.Code == mongoCodeDocumentValidation {
				return validationFailure(e.Details.String(), err)
			}
		}
	}

	var ce mongo.CommandError
	if errors.As(err, &ce) && ce.Code == mongoCodeDocumentValidation {
		return validationFailure(ce.Raw.String(), err)
	}

	return err
}

func validationFailure(details string, err error) error {
	if strings.Contains(details, "missingProperties") {
		return model.IntegrityError("", model.ConstraintNotNull, err)
	}
	return model.DataError("", "schema", err)
}
