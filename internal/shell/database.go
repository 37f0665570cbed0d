package shell

import (
	"sort"
	"strings"
	"sync"

	"github.com/google/uuid"
)

// DefaultDatabase is the database selected when a session starts.
const DefaultDatabase = "production_db"

// Database is an in-memory set of named databases, each holding named
// collections of ordered documents. It lives as long as its owner.
type Database struct {
	mu      sync.Mutex
	current string
	dbs     map[string]map[string][]*Document
}

// NewDatabase returns an empty database with DefaultDatabase selected.
func NewDatabase() *Database {
	return &Database{
		current: DefaultDatabase,
		dbs:     make(map[string]map[string][]*Document),
	}
}

// NewSeededDatabase returns a database holding the sample data used by the
// shell: production_db with products and users, and an empty test database.
func NewSeededDatabase() *Database {
	db := NewDatabase()
	db.dbs[DefaultDatabase] = map[string][]*Document{
		"products": {
			seedDoc("1", "name", "Gaming Laptop", "price", 1299.0, "stock", 15.0),
			seedDoc("2", "name", "Wireless Mouse", "price", 49.0, "stock", 120.0),
		},
		"users": {
			seedDoc("u1", "username", "admin_user", "role", "admin"),
		},
	}
	db.dbs["test"] = map[string][]*Document{}
	return db
}

func seedDoc(id string, kv ...any) *Document {
	doc := NewDocument()
	doc.Set("_id", id)
	for i := 0; i+1 < len(kv); i += 2 {
		doc.Set(kv[i].(string), kv[i+1])
	}
	return doc
}

// Use selects name as the current database.
func (d *Database) Use(name string) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.current = name
}

// Current returns the selected database name.
func (d *Database) Current() string {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.current
}

// Databases returns the known database names in sorted order.
func (d *Database) Databases() []string {
	d.mu.Lock()
	defer d.mu.Unlock()
	return sortedKeys(d.dbs)
}

// Collections returns the collections of the current database.
func (d *Database) Collections() []string {
	d.mu.Lock()
	defer d.mu.Unlock()
	return sortedKeys(d.dbs[d.current])
}

// Find returns the documents of collection in insertion order.
func (d *Database) Find(collection string) []*Document {
	d.mu.Lock()
	defer d.mu.Unlock()
	docs := d.dbs[d.current][collection]
	return append([]*Document{}, docs...)
}

// InsertOne appends doc to collection, assigning an _id when absent, and
// returns the id.
func (d *Database) InsertOne(collection string, doc *Document) any {
	if doc == nil {
		doc = NewDocument()
	}
	id, ok := doc.Get("_id")
	if !ok || id == nil || id == "" {
		id = NewObjectID()
		doc.Set("_id", id)
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	colls := d.dbs[d.current]
	if colls == nil {
		colls = make(map[string][]*Document)
		d.dbs[d.current] = colls
	}
	colls[collection] = append(colls[collection], doc)
	return id
}

// NewObjectID returns a random 24 character hex identifier.
func NewObjectID() string {
	return strings.ReplaceAll(uuid.NewString(), "-", "")[:24]
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
