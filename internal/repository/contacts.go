package repository

import (
	"context"
	"regexp"
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"golang.org/x/sync/errgroup"

	"github.com/moviehub/moviehub/internal/domain"
	"github.com/moviehub/moviehub/internal/store"
)

// ContactsRepository provides persistence helpers for contact messages.
type ContactsRepository struct {
	store *store.Store
}

// ContactListFilters encapsulates the admin inbox search options.
type ContactListFilters struct {
	Q     string
	From  *time.Time
	To    *time.Time
	Limit int
	Page  int
}

// ContactListResult returns the paginated inbox payload.
type ContactListResult struct {
	Items []domain.ContactMessage `json:"items"`
	Total int64                   `json:"total"`
	Page  int                     `json:"page"`
	Limit int                     `json:"limit"`
}

// ContactStats summarizes inbox volume.
type ContactStats struct {
	Total int64 `json:"total"`
	Today int64 `json:"today"`
	Week  int64 `json:"week"`
}

func (r *ContactsRepository) collection() *mongo.Collection {
	return r.store.Database().Collection(contactsCollection)
}

func (f ContactListFilters) query() bson.M {
	query := bson.M{}
	if q := strings.TrimSpace(f.Q); q != "" {
		pattern := bson.M{"$regex": regexp.QuoteMeta(q), "$options": "i"}
		query["$or"] = bson.A{
			bson.M{"subject": pattern},
			bson.M{"name": pattern},
			bson.M{"email": pattern},
			bson.M{"message": pattern},
		}
	}
	if f.From != nil || f.To != nil {
		createdAt := bson.M{}
		if f.From != nil {
			createdAt["$gte"] = *f.From
		}
		if f.To != nil {
			// Include the whole end day.
			end := time.Date(f.To.Year(), f.To.Month(), f.To.Day(), 23, 59, 59, int(time.Second-time.Nanosecond), f.To.Location())
			createdAt["$lte"] = end
		}
		query["createdAt"] = createdAt
	}
	return query
}

// Create inserts a submitted contact message.
func (r *ContactsRepository) Create(ctx context.Context, msg domain.ContactMessage) (domain.ContactMessage, error) {
	if !r.store.Connected() {
		return domain.ContactMessage{}, ErrUnavailable
	}
	if msg.CreatedAt.IsZero() {
		msg.CreatedAt = time.Now().UTC()
	}
	res, err := r.collection().InsertOne(ctx, msg)
	if err != nil {
		return domain.ContactMessage{}, err
	}
	msg.ID = res.InsertedID.(primitive.ObjectID)
	return msg, nil
}

// CountRecentByIP counts messages submitted from an address since the given
// time. Used by the contact form quota.
func (r *ContactsRepository) CountRecentByIP(ctx context.Context, ip string, since time.Time) (int64, error) {
	if !r.store.Connected() {
		return 0, ErrUnavailable
	}
	return r.collection().CountDocuments(ctx, bson.M{
		"ip":        ip,
		"createdAt": bson.M{"$gte": since},
	})
}

// List returns messages matching the filters, most recent first.
func (r *ContactsRepository) List(ctx context.Context, filters ContactListFilters) (ContactListResult, error) {
	if !r.store.Connected() {
		return ContactListResult{}, ErrUnavailable
	}
	if filters.Limit <= 0 {
		filters.Limit = defaultPageSize
	} else if filters.Limit > maxPageSize {
		filters.Limit = maxPageSize
	}
	if filters.Page < 1 {
		filters.Page = 1
	}

	query := filters.query()
	skip := int64((filters.Page - 1) * filters.Limit)

	var (
		items []domain.ContactMessage
		total int64
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		cursor, err := r.collection().Find(gctx, query, options.Find().
			SetSort(bson.D{{Key: "createdAt", Value: -1}}).
			SetLimit(int64(filters.Limit)).
			SetSkip(skip))
		if err != nil {
			return err
		}
		return cursor.All(gctx, &items)
	})
	g.Go(func() error {
		count, err := r.collection().CountDocuments(gctx, query)
		if err != nil {
			return err
		}
		total = count
		return nil
	})
	if err := g.Wait(); err != nil {
		return ContactListResult{}, err
	}

	if items == nil {
		items = []domain.ContactMessage{}
	}
	return ContactListResult{
		Items: items,
		Total: total,
		Page:  filters.Page,
		Limit: filters.Limit,
	}, nil
}

// Delete removes a message.
func (r *ContactsRepository) Delete(ctx context.Context, id string) error {
	if !r.store.Connected() {
		return ErrUnavailable
	}
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return ErrNotFound
	}
	res, err := r.collection().DeleteOne(ctx, bson.M{"_id": oid})
	if err != nil {
		return err
	}
	if res.DeletedCount == 0 {
		return ErrNotFound
	}
	return nil
}

// Stats returns total, today, and trailing-week message counts.
func (r *ContactsRepository) Stats(ctx context.Context, now time.Time) (ContactStats, error) {
	if !r.store.Connected() {
		return ContactStats{}, ErrUnavailable
	}
	startToday := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
	startWeek := startToday.AddDate(0, 0, -7)

	var stats ContactStats
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		count, err := r.collection().CountDocuments(gctx, bson.M{})
		stats.Total = count
		return err
	})
	g.Go(func() error {
		count, err := r.collection().CountDocuments(gctx, bson.M{"createdAt": bson.M{"$gte": startToday}})
		stats.Today = count
		return err
	})
	g.Go(func() error {
		count, err := r.collection().CountDocuments(gctx, bson.M{"createdAt": bson.M{"$gte": startWeek}})
		stats.Week = count
		return err
	})
	if err := g.Wait(); err != nil {
		return ContactStats{}, err
	}
	return stats, nil
}

// Export streams every message matching the filters, most recent first,
// through fn. Used by the CSV export endpoint.
func (r *ContactsRepository) Export(ctx context.Context, filters ContactListFilters, fn func(domain.ContactMessage) error) error {
	if !r.store.Connected() {
		return ErrUnavailable
	}
	cursor, err := r.collection().Find(ctx, filters.query(), options.Find().
		SetSort(bson.D{{Key: "createdAt", Value: -1}}))
	if err != nil {
		return err
	}
	defer cursor.Close(ctx)

	for cursor.Next(ctx) {
		var msg domain.ContactMessage
		if err := cursor.Decode(&msg); err != nil {
			return err
		}
		if err := fn(msg); err != nil {
			return err
		}
	}
	return cursor.Err()
}
