// Command weft is the development sync server: it compiles a template
// file, serves the rendered document over HTTP and streams live patch
// operations to browser mirrors over WebSocket.
package main

import (
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"sync"

	"github.com/weftui/weft"
	"github.com/weftui/weft/internal/session"
)

func main() {
	configPath := flag.String("config", "weft.yaml", "path of the YAML config file")
	flag.Parse()

	cfg, err := weft.LoadConfig(*configPath)
	if err != nil {
		log.Fatalf("weft: %v", err)
	}

	source, err := os.ReadFile(cfg.Template)
	if err != nil {
		log.Fatalf("weft: read template: %v", err)
	}
	tmplSource := string(source)

	// Compile once up front so a broken template fails at startup, not
	// on the first request.
	var compileOpts []weft.Option
	if cfg.Minify {
		compileOpts = append(compileOpts, weft.WithMinify())
	}
	if _, err := weft.Compile(tmplSource, compileOpts...); err != nil {
		log.Fatalf("weft: compile %s: %v", cfg.Template, err)
	}

	store, err := openSessionStore(cfg.Sessions)
	if err != nil {
		log.Fatalf("weft: %v", err)
	}
	defer store.Close()

	ctor := func() weft.Component {
		return newFileComponent(tmplSource, cfg.Data)
	}
	server := weft.NewServer(ctor, weft.WithSessionStore(store))

	log.Printf("weft: serving %s on http://%s", cfg.Template, cfg.Addr)
	if err := http.ListenAndServe(cfg.Addr, server); err != nil {
		log.Fatalf("weft: %v", err)
	}
}

func openSessionStore(cfg weft.SessionConfig) (session.Store, error) {
	switch cfg.Backend {
	case "sqlite":
		store, err := session.NewSQLiteStore(cfg.Path, cfg.TTL)
		if err != nil {
			return nil, fmt.Errorf("open session store: %w", err)
		}
		return store, nil
	default:
		return session.NewMemoryStore(cfg.TTL), nil
	}
}

// fileComponent serves a template file with the config's data map as
// state. The generic "set" action assigns incoming keys, which is
// enough to exercise live updates without writing Go code.
type fileComponent struct {
	source string

	mu   sync.RWMutex
	data map[string]interface{}
}

func newFileComponent(source string, initial map[string]interface{}) *fileComponent {
	data := make(map[string]interface{}, len(initial))
	for k, v := range initial {
		data[k] = v
	}
	return &fileComponent{source: source, data: data}
}

func (c *fileComponent) Template() string { return c.source }

func (c *fileComponent) Data() weft.Scope {
	c.mu.RLock()
	defer c.mu.RUnlock()
	scope := make(weft.Scope, len(c.data))
	for k, v := range c.data {
		scope[k] = v
	}
	return scope
}

func (c *fileComponent) HandleAction(action string, data map[string]interface{}) error {
	if action != "set" {
		return fmt.Errorf("unknown action %q", action)
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	for k, v := range data {
		c.data[k] = v
	}
	return nil
}
