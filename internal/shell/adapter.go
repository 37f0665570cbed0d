// Package shell implements the interactive shell for the nodejs and mongodb
// languages: common database commands are answered locally against an owned
// Database, everything else goes to the remote simulator.
package shell

import (
	"context"
	"errors"
	"regexp"
	"strings"

	"pkt.systems/codelab/core"
	"pkt.systems/codelab/schema"
	"pkt.systems/pslog"
)

// ErrNoShell is returned for languages without an interactive shell.
var ErrNoShell = errors.New("language has no interactive shell")

// ConnectionError is emitted when the remote fallback fails.
const ConnectionError = "Connection Error"

// Repler answers a shell line remotely.
type Repler interface {
	Repl(ctx context.Context, lang schema.Language, input string) (string, error)
}

// Config wires an Adapter.
type Config struct {
	DB     *Database
	Remote Repler
	Logger pslog.Logger
}

// Adapter answers shell lines.
type Adapter struct {
	db     *Database
	remote Repler
	log    pslog.Logger
}

// NewAdapter constructs an adapter. A nil DB gets a fresh seeded database.
func NewAdapter(cfg Config) *Adapter {
	db := cfg.DB
	if db == nil {
		db = NewSeededDatabase()
	}
	log := cfg.Logger
	if log == nil {
		log = pslog.Ctx(context.Background())
	}
	return &Adapter{db: db, remote: cfg.Remote, log: log}
}

// DB returns the owned database.
func (a *Adapter) DB() *Database {
	return a.db
}

var (
	findPattern   = regexp.MustCompile(`db\.(\w+)\.find\(\)`)
	insertPattern = regexp.MustCompile(`db\.(\w+)\.insertOne\((.+)\)`)
)

// Execute echoes req.Input, answers it locally when a pattern matches and
// otherwise asks the remote simulator. Remote failures are reported as
// output, not returned.
func (a *Adapter) Execute(ctx context.Context, req schema.ShellRequest, emit core.Emitter) error {
	if !req.Language.HasShell() {
		return ErrNoShell
	}
	input := strings.TrimSpace(req.Input)
	if input == "" {
		return nil
	}
	emit(schema.SeverityInfo, "CMD:"+input)
	if req.Language == schema.LanguageMongoDB {
		if out, ok := a.local(input); ok {
			a.log.Debug("shell local match", "language", req.Language, "input_len", len(input))
			emit(schema.SeverityInfo, out)
			return nil
		}
	}
	if a.remote == nil {
		emit(schema.SeverityError, ConnectionError)
		return nil
	}
	reply, err := a.remote.Repl(ctx, req.Language, input)
	if err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		a.log.Warn("shell remote fallback failed", "language", req.Language, "err", err)
		emit(schema.SeverityError, ConnectionError)
		return nil
	}
	emit(schema.SeverityInfo, reply)
	return nil
}

// local answers the database commands it recognizes. Any failure reports no
// match so the line falls through to the remote path.
func (a *Adapter) local(input string) (string, bool) {
	switch {
	case strings.HasPrefix(input, "use "):
		fields := strings.Fields(input)
		if len(fields) < 2 {
			return "", false
		}
		name := strings.TrimSuffix(fields[1], ";")
		a.db.Use(name)
		return "switched to db " + name, true
	case input == "show dbs":
		return strings.Join(a.db.Databases(), "\n"), true
	case input == "show collections":
		return strings.Join(a.db.Collections(), "\n"), true
	}
	if m := findPattern.FindStringSubmatch(input); m != nil {
		out, err := prettyJSON(a.db.Find(m[1]))
		if err != nil {
			return "", false
		}
		return out, true
	}
	if m := insertPattern.FindStringSubmatch(input); m != nil {
		doc, err := ParseObject(m[2])
		if err != nil {
			a.log.Debug("shell literal rejected", "err", err)
			return "", false
		}
		id := a.db.InsertOne(m[1], doc)
		ack := NewDocument()
		ack.Set("acknowledged", true)
		ack.Set("insertedId", id)
		out, err := prettyJSON(ack)
		if err != nil {
			return "", false
		}
		return out, true
	}
	return "", false
}

