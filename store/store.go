// Package store is the sync adapter between the in-memory ledgers and the
// shared remote store. The whole ledger object is persisted as a single
// document, so each write is an atomic replace; change notifications fan out
// over a Redis pub/sub channel and subscribers reload the document.
package store

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"time"

	"avivia/db"
	"avivia/models"
	"avivia/rdx"
	"avivia/utils"

	"github.com/google/uuid"
	"github.com/julienschmidt/httprouter"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const changeChannel = "ledger-events"

const (
	KindLedger   = "ledger"
	KindWaitlist = "waitlist"
)

type changeEvent struct {
	Kind   string `json:"kind"`
	Origin string `json:"origin"`
}

type ledgerDoc struct {
	ID        string                      `bson:"_id"`
	Slots     map[string][]models.Booking `bson:"slots"`
	UpdatedAt int64                       `bson:"updatedAt"`
}

type waitlistDoc struct {
	ID        string                            `bson:"_id"`
	Entries   map[string][]models.WaitlistEntry `bson:"entries"`
	UpdatedAt int64                             `bson:"updatedAt"`
}

// Store implements the Persister interfaces of ledger and waitlist and the
// push-notification side of the sync protocol.
type Store struct {
	origin string
}

func New() *Store {
	return &Store{origin: uuid.NewString()}
}

func (s *Store) SaveLedger(ctx context.Context, snapshot map[string][]models.Booking) error {
	doc := ledgerDoc{ID: "main", Slots: snapshot, UpdatedAt: time.Now().Unix()}
	_, err := db.LedgersCollection.ReplaceOne(ctx,
		bson.M{"_id": doc.ID}, doc, options.Replace().SetUpsert(true))
	if err != nil {
		return err
	}
	s.publish(ctx, KindLedger)
	return nil
}

func (s *Store) SaveWaitlist(ctx context.Context, snapshot map[string][]models.WaitlistEntry) error {
	doc := waitlistDoc{ID: "main", Entries: snapshot, UpdatedAt: time.Now().Unix()}
	_, err := db.WaitlistCollection.ReplaceOne(ctx,
		bson.M{"_id": doc.ID}, doc, options.Replace().SetUpsert(true))
	if err != nil {
		return err
	}
	s.publish(ctx, KindWaitlist)
	return nil
}

func (s *Store) LoadLedger(ctx context.Context) (map[string][]models.Booking, error) {
	var doc ledgerDoc
	err := db.LedgersCollection.FindOne(ctx, bson.M{"_id": "main"}).Decode(&doc)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return map[string][]models.Booking{}, nil
	}
	if err != nil {
		return nil, err
	}
	if doc.Slots == nil {
		doc.Slots = map[string][]models.Booking{}
	}
	return doc.Slots, nil
}

func (s *Store) LoadWaitlist(ctx context.Context) (map[string][]models.WaitlistEntry, error) {
	var doc waitlistDoc
	err := db.WaitlistCollection.FindOne(ctx, bson.M{"_id": "main"}).Decode(&doc)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return map[string][]models.WaitlistEntry{}, nil
	}
	if err != nil {
		return nil, err
	}
	if doc.Entries == nil {
		doc.Entries = map[string][]models.WaitlistEntry{}
	}
	return doc.Entries, nil
}

func (s *Store) publish(ctx context.Context, kind string) {
	data, err := json.Marshal(changeEvent{Kind: kind, Origin: s.origin})
	if err != nil {
		return
	}
	if err := rdx.Conn.Publish(ctx, changeChannel, data).Err(); err != nil {
		log.Println("store publish error:", err)
	}
}

// Subscribe listens for change events from other sessions and invokes
// onChange with the event kind. Events this process published are skipped;
// its replica is already current.
func (s *Store) Subscribe(ctx context.Context, onChange func(kind string)) {
	sub := rdx.Conn.Subscribe(ctx, changeChannel)
	ch := sub.Channel()

	go func() {
		defer sub.Close()
		for {
			select {
			case <-ctx.Done():
				return
			case msg, ok := <-ch:
				if !ok {
					return
				}
				var ev changeEvent
				if err := json.Unmarshal([]byte(msg.Payload), &ev); err != nil {
					log.Println("store: bad change event:", err)
					continue
				}
				if ev.Origin == s.origin {
					continue
				}
				onChange(ev.Kind)
			}
		}
	}()
}

// Connectivity pings both halves of the adapter: Redis carries the push
// channel, Mongo holds the authoritative documents.
func (s *Store) Connectivity(ctx context.Context) models.Connectivity {
	ctx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()

	conn := models.Connectivity{}
	if err := rdx.Conn.Ping(ctx).Err(); err == nil {
		conn.Online = true
	}
	if err := db.Client.Ping(ctx, nil); err == nil {
		conn.StoreConnected = true
	}
	return conn
}

// Status reports connectivity for the UI's connection indicator.
func (s *Store) Status(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	utils.RespondWithJSON(w, http.StatusOK, s.Connectivity(r.Context()))
}
