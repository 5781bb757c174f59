/*
Package devapi is an in-memory stand-in for the upstream social API.

This file wires the routing table: chi with request-id, real-ip, recoverer,
and request-logging middleware, CORS for browser-hosted frontends pointed at
the fixture, and a per-IP rate limiter on the write endpoints. Route paths
match the upstream contract verbatim.
*/
package devapi

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/gorilla/websocket"
	"github.com/rs/cors"
	"golang.org/x/time/rate"

	"yapnet/internal/pkg/logx"
)

// Write-endpoint rate limits, per client IP.
const (
	writeRate  rate.Limit = 5
	writeBurst            = 20
)

// API bundles the fixture's dependencies and implements http.Handler
// construction via Router.
type API struct {
	store    *Store
	hub      *Hub
	secret   string
	upgrader websocket.Upgrader
}

// NewAPI constructs the fixture around an existing store. secret signs and
// verifies the fixture's bearer tokens.
func NewAPI(store *Store, secret string) *API {
	return &API{
		store:  store,
		hub:    NewHub(store),
		secret: secret,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  4096,
			WriteBufferSize: 4096,
			// The fixture serves local development; any origin may connect.
			CheckOrigin: func(r *http.Request) bool { return true },
		},
	}
}

// Hub exposes the chat hub, letting tests toggle duplicate delivery.
func (a *API) Hub() *Hub {
	return a.hub
}

// Router builds the fixture's routing table.
func (a *API) Router() http.Handler {
	writeLimiter := newIPRateLimiter(writeRate, writeBurst)

	r := chi.NewRouter()

	c := cors.New(cors.Options{
		AllowedOrigins:   []string{"*"},
		AllowedMethods:   []string{"GET", "POST", "PUT", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-Request-ID"},
		AllowCredentials: false,
		MaxAge:           300,
	})
	r.Use(c.Handler)

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(logx.RequestLogger())
	r.Use(middleware.Recoverer)

	r.Get("/ping", a.handleHealth)
	r.Post("/dev/token", a.handleMintToken)
	r.Get("/chat", a.ServeWS)

	r.Group(func(auth chi.Router) {
		auth.Use(authMiddleware(a.secret))

		auth.Post("/Auth", a.handleRegister)
		auth.Post("/complete-profile", writeLimiter.wrap(a.handleCompleteProfile))

		auth.Get("/posts", a.handleFeed(collPosts))
		auth.Get("/news", a.handleFeed(collNews))
		auth.Get("/blog", a.handleFeed(collUpdates))

		mine := func(it *storedItem, uid string) bool {
			return it.UserID == uid
		}
		liked := func(it *storedItem, uid string) bool {
			_, ok := it.Likes[uid]
			return ok
		}
		saved := func(it *storedItem, uid string) bool {
			_, ok := it.Saves[uid]
			return ok
		}

		auth.Get("/my-posts", a.handleMyItems(collPosts, mine))
		auth.Get("/my-liked-posts", a.handleMyItems(collPosts, liked))
		auth.Get("/my-saved-posts", a.handleMyItems(collPosts, saved))
		auth.Get("/my-updates", a.handleMyItems(collUpdates, mine))
		auth.Get("/my-liked-updates", a.handleMyItems(collUpdates, liked))
		auth.Get("/my-saved-updates", a.handleMyItems(collUpdates, saved))

		auth.Post("/posts", writeLimiter.wrap(a.handleCreateItem(collPosts, "post_id")))
		auth.Post("/add_updates", writeLimiter.wrap(a.handleCreateItem(collUpdates, "update_id")))

		for _, root := range []struct {
			path string
			coll string
		}{
			{"posts", collPosts},
			{"updates", collUpdates},
		} {
			coll := root.coll
			auth.Route("/"+root.path+"/{id}", func(item chi.Router) {
				item.Get("/comments", a.handleComments(coll))
				for _, verb := range []string{"like", "unlike", "save", "unsave"} {
					item.Post("/"+verb, writeLimiter.wrap(a.handleEngagement(coll, verb)))
				}
				item.Post("/comment", writeLimiter.wrap(a.handleComment(coll)))
			})
		}

		auth.Route("/profile", func(p chi.Router) {
			p.Get("/{username}", a.handleGetProfile)
			p.Put("/{username}", writeLimiter.wrap(a.handleUpdateProfile))
			p.Get("/{username}/posts", a.handleProfilePosts)
		})
		auth.Get("/check-username/{username}", a.handleCheckUsername)
	})

	return r
}
