// Package sprites looks up shiny sprite URLs on PokeAPI.
package sprites

import (
	"context"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/hashicorp/go-retryablehttp"
	"github.com/pokecounter/pokecounter/internal/utils"
	"github.com/pokecounter/pokecounter/pkg/whttp"
	"github.com/tidwall/gjson"
)

const DefaultBaseURL = "https://pokeapi.co/api/v2"

// maxCached bounds the number of remembered lookups.
const maxCached = 1024

// Translator maps a name in any supported language to its English spelling.
type Translator interface {
	English(name string) (string, bool)
}

type Client struct {
	baseURL string
	names   Translator
	http    *retryablehttp.Client

	mu         sync.Mutex
	cache      map[string]string
	cacheLimit int
}

// New returns a Client. An empty baseURL means DefaultBaseURL.
func New(baseURL string, names Translator) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		names:   names,
		http:    whttp.NewClient(2, 10*time.Second),
		cache:   make(map[string]string),

		cacheLimit: maxCached,
	}
}

// Key turns an English name into a PokeAPI resource key.
func Key(english string) string {
	k := strings.ToLower(strings.TrimSpace(english))
	k = strings.NewReplacer(
		"♀", "-f",
		"♂", "-m",
		"'", "",
		".", "",
		" ", "-",
	).Replace(k)
	return strings.Trim(k, "-")
}

// Lookup returns the sprite URL for name. Any failure is logged and reported
// as no sprite. With a Translator, names it does not know are never fetched.
func (c *Client) Lookup(ctx context.Context, name string) (string, bool) {
	english := name
	if c.names != nil {
		e, ok := c.names.English(name)
		if !ok {
			return "", false
		}
		english = e
	}
	key := Key(english)
	if key == "" {
		return "", false
	}

	c.mu.Lock()
	cached, hit := c.cache[key]
	c.mu.Unlock()
	if hit {
		return cached, cached != ""
	}

	log := utils.Log.WithField("pokemon", key)
	res, err := whttp.SendHTTPRequest(ctx, &whttp.WHTTPReq{
		URL:    c.baseURL + "/pokemon/" + url.PathEscape(key),
		Method: http.MethodGet,
	}, c.http)
	if err != nil {
		log.WithError(err).Warn("Sprite lookup failed")
		return "", false
	}
	if res.StatusCode == http.StatusNotFound {
		log.Debug("No sprite for pokemon")
		c.store(key, "")
		return "", false
	}
	if !res.OK() {
		log.WithField("status", res.StatusCode).Warn("Sprite lookup failed")
		return "", false
	}

	sprite := gjson.Get(res.BodyString, "sprites.front_shiny").String()
	if sprite == "" {
		sprite = gjson.Get(res.BodyString, "sprites.front_default").String()
	}
	c.store(key, sprite)
	if sprite == "" {
		log.Debug("Pokemon has no sprite")
		return "", false
	}
	return sprite, true
}

func (c *Client) store(key, sprite string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if _, ok := c.cache[key]; !ok && len(c.cache) >= c.cacheLimit {
		return
	}
	c.cache[key] = sprite
}
