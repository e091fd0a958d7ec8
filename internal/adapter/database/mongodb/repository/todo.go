package repository

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/lutheralien/to-do-api/internal/core/domain"
	"github.com/lutheralien/to-do-api/internal/core/port"
	tel "github.com/lutheralien/to-do-api/internal/core/telemetry"
)

// Server code for a write rejected by the collection validator.
const documentValidationFailure = 121

type todoDocument struct {
	ID          primitive.ObjectID `bson:"_id,omitempty"`
	Title       string             `bson:"title"`
	Description string             `bson:"description"`
	Completed   bool               `bson:"completed"`
}

func (d todoDocument) toDomain() domain.Todo {
	return domain.Todo{
		ID:          d.ID.Hex(),
		Title:       d.Title,
		Description: d.Description,
		Completed:   d.Completed,
	}
}

type TodoRepository struct {
	coll      *mongo.Collection
	telemetry port.Telemetry
}

func NewTodoRepository(coll *mongo.Collection, telemetry port.Telemetry) port.TodoRepository {
	if telemetry == nil {
		telemetry = tel.NewNoOpProbe()
	}

	return &TodoRepository{
		coll:      coll,
		telemetry: telemetry,
	}
}

// track runs fn inside a repository span and records its duration and outcome.
func (tr *TodoRepository) track(ctx context.Context, operation string, attrs map[string]interface{}, fn func(context.Context) error) error {
	if attrs == nil {
		attrs = map[string]interface{}{}
	}
	attrs["db.system"] = "mongodb"
	attrs["db.collection"] = tr.coll.Name()

	ctx, span := tr.telemetry.StartRepositorySpan(ctx, operation, "todo", attrs)
	defer span.End()

	startTime := time.Now()
	err := fn(ctx)
	duration := time.Since(startTime)

	span.SetAttributes(map[string]interface{}{
		"operation.duration_ns": duration.Nanoseconds(),
	})

	if err != nil {
		span.SetStatus("error", err.Error())
		span.RecordError(err)
	} else {
		span.SetStatus("ok", "")
	}

	tr.telemetry.RecordRepositoryOperation(ctx, operation, "todo", duration, err)

	return err
}

func parseID(id string) (primitive.ObjectID, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return primitive.NilObjectID, domain.ErrInvalidID
	}

	return oid, nil
}

// translateError maps validator rejections onto the domain; everything else
// is returned unchanged.
func translateError(err error) error {
	var writeErr mongo.WriteException
	if errors.As(err, &writeErr) {
		for _, we := range writeErr.WriteErrors {
			if we.Code == documentValidationFailure {
				return domain.NewValidationError(validationDetail(we.Message, we.Details))
			}
		}
	}

	var cmdErr mongo.CommandError
	if errors.As(err, &cmdErr) && cmdErr.Code == documentValidationFailure {
		var info bson.Raw
		if value, err := cmdErr.Raw.LookupErr("errInfo"); err == nil {
			info, _ = value.DocumentOK()
		}

		return domain.NewValidationError(validationDetail(cmdErr.Message, info))
	}

	return err
}

type schemaFailure struct {
	Details struct {
		SchemaRulesNotSatisfied []struct {
			PropertiesNotSatisfied []struct {
				PropertyName string `bson:"propertyName"`
				Description  string `bson:"description"`
			} `bson:"propertiesNotSatisfied"`
			MissingProperties []string `bson:"missingProperties"`
		} `bson:"schemaRulesNotSatisfied"`
	} `bson:"details"`
}

// validationDetail appends the first failing rule from the server's errInfo
// to message, preferring the description declared in the collection schema.
func validationDetail(message string, info bson.Raw) string {
	if len(info) == 0 {
		return message
	}

	var failure schemaFailure
	if err := bson.Unmarshal(info, &failure); err != nil {
		return message
	}

	for _, rule := range failure.Details.SchemaRulesNotSatisfied {
		if len(rule.PropertiesNotSatisfied) > 0 {
			property := rule.PropertiesNotSatisfied[0]
			if property.Description == "" {
				return fmt.Sprintf("%s: %s is invalid", message, property.PropertyName)
			}

			return message + ": " + property.Description
		}

		if len(rule.MissingProperties) > 0 {
			return fmt.Sprintf("%s: missing %s", message, strings.Join(rule.MissingProperties, ", "))
		}
	}

	return message
}

func (tr *TodoRepository) Insert(ctx context.Context, todo domain.Todo) (domain.Todo, error) {
	doc := todoDocument{
		ID:          primitive.NewObjectID(),
		Title:       todo.Title,
		Description: todo.Description,
		Completed:   todo.Completed,
	}

	err := tr.track(ctx, "Insert", map[string]interface{}{"db.operation": "insertOne"}, func(ctx context.Context) error {
		if _, err := tr.coll.InsertOne(ctx, doc); err != nil {
			return translateError(err)
		}

		return nil
	})

	if err != nil {
		return domain.Todo{}, err
	}

	return doc.toDomain(), nil
}

func (tr *TodoRepository) FindAll(ctx context.Context) ([]domain.Todo, error) {
	todos := []domain.Todo{}

	err := tr.track(ctx, "FindAll", map[string]interface{}{"db.operation": "find"}, func(ctx context.Context) error {
		cursor, err := tr.coll.Find(ctx, bson.D{})
		if err != nil {
			return err
		}

		var docs []todoDocument
		if err := cursor.All(ctx, &docs); err != nil {
			return err
		}

		for _, doc := range docs {
			todos = append(todos, doc.toDomain())
		}

		return nil
	})

	if err != nil {
		return nil, err
	}

	return todos, nil
}

func (tr *TodoRepository) FindByID(ctx context.Context, id string) (domain.Todo, error) {
	oid, err := parseID(id)
	if err != nil {
		return domain.Todo{}, err
	}

	var doc todoDocument

	err = tr.track(ctx, "FindByID", map[string]interface{}{"db.operation": "findOne", "todo.id": id}, func(ctx context.Context) error {
		err := tr.coll.FindOne(ctx, bson.D{{Key: "_id", Value: oid}}).Decode(&doc)
		if errors.Is(err, mongo.ErrNoDocuments) {
			return domain.ErrNotFound
		}

		return err
	})

	if err != nil {
		return domain.Todo{}, err
	}

	return doc.toDomain(), nil
}

func (tr *TodoRepository) UpdateByID(ctx context.Context, id string, patch domain.TodoPatch) (domain.Todo, error) {
	oid, err := parseID(id)
	if err != nil {
		return domain.Todo{}, err
	}

	set := bson.M{}
	for field, value := range patch {
		set[field] = value
	}

	update := bson.D{{Key: "$set", Value: set}}
	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)

	var doc todoDocument

	err = tr.track(ctx, "UpdateByID", map[string]interface{}{"db.operation": "findOneAndUpdate", "todo.id": id}, func(ctx context.Context) error {
		err := tr.coll.FindOneAndUpdate(ctx, bson.D{{Key: "_id", Value: oid}}, update, opts).Decode(&doc)
		if errors.Is(err, mongo.ErrNoDocuments) {
			return domain.ErrNotFound
		}

		return translateError(err)
	})

	if err != nil {
		return domain.Todo{}, err
	}

	return doc.toDomain(), nil
}

func (tr *TodoRepository) DeleteByID(ctx context.Context, id string) error {
	oid, err := parseID(id)
	if err != nil {
		return err
	}

	return tr.track(ctx, "DeleteByID", map[string]interface{}{"db.operation": "deleteOne", "todo.id": id}, func(ctx context.Context) error {
		result, err := tr.coll.DeleteOne(ctx, bson.D{{Key: "_id", Value: oid}})
		if err != nil {
			return fmt.Errorf("deleting %s: %w", id, err)
		}

		if result.DeletedCount == 0 {
			return domain.ErrNotFound
		}

		return nil
	})
}
