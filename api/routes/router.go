package routes

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/00goop/lets-link/api/controllers"
	"github.com/00goop/lets-link/api/middleware"
	"github.com/00goop/lets-link/internal/friends"
	"github.com/00goop/lets-link/internal/memberships"
	"github.com/00goop/lets-link/internal/notifications"
	"github.com/00goop/lets-link/internal/parties"
	"github.com/00goop/lets-link/internal/photos"
	"github.com/00goop/lets-link/internal/polls"
	"github.com/00goop/lets-link/internal/suggestions"
	"github.com/00goop/lets-link/pkg/config"
	"github.com/00goop/lets-link/pkg/logger"
)

// Deps bundles everything the router mounts.
type Deps struct {
	Config *config.Config
	Logger *logger.Logger

	Pingers map[string]controllers.Pinger

	IdempotencyStore middleware.IdempotencyStore

	Parties       parties.Service
	Memberships   memberships.Service
	Polls         polls.Service
	Suggestions   suggestions.Service
	Friends       friends.Service
	Notifications notifications.Service
	Photos        photos.Service
}

func NewRouter(deps Deps) http.Handler {
	cfg := deps.Config
	logg := deps.Logger

	r := chi.NewRouter()
	r.Use(
		middleware.Recoverer(logg),
		middleware.RequestID(logg),
		middleware.Logging(logg),
		middleware.CORS(),
	)

	r.Route("/health", func(r chi.Router) {
		r.Get("/live", controllers.HealthLive(cfg))
		r.Get("/ready", controllers.HealthReady(cfg, logg, deps.Pingers))
	})

	r.Handle("/metrics", promhttp.Handler())

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(middleware.Auth(cfg.JWT, logg))
		r.Use(middleware.Idempotency(deps.IdempotencyStore, logg))

		r.Route("/parties", func(r chi.Router) {
			r.Post("/", controllers.CreateParty(deps.Parties, logg))
			r.Get("/", controllers.ListMyParties(deps.Parties, logg))
			r.Post("/join", controllers.JoinPartyByCode(deps.Parties, logg))
			r.Route("/{partyID}", func(r chi.Router) {
				r.Get("/", controllers.GetParty(deps.Parties, logg))
				r.Patch("/", controllers.UpdateParty(deps.Parties, logg))
				r.Post("/join", controllers.JoinParty(deps.Memberships, logg))
				// reference binding alias for join
				r.Post("/members", controllers.JoinParty(deps.Memberships, logg))
				r.Get("/members", controllers.ListMembers(deps.Memberships, logg))
				r.Post("/polls", controllers.CreatePoll(deps.Polls, logg))
				r.Get("/polls", controllers.ListPartyPolls(deps.Polls, logg))
				r.Get("/suggestions", controllers.PartySuggestions(deps.Suggestions, logg))
				r.Post("/photos", controllers.CreatePhotoUpload(deps.Photos, logg))
				r.Get("/photos", controllers.ListPartyPhotos(deps.Photos, logg))
			})
		})

		r.Route("/party-members/{memberID}", func(r chi.Router) {
			r.Patch("/", controllers.UpdateMember(deps.Memberships, logg))
			r.Delete("/", controllers.LeaveParty(deps.Memberships, logg))
		})

		r.Route("/polls/{pollID}", func(r chi.Router) {
			r.Get("/", controllers.GetPoll(deps.Polls, logg))
			r.Post("/votes", controllers.CastVote(deps.Polls, logg))
			r.Post("/close", controllers.ClosePoll(deps.Polls, logg))
			r.Get("/tally", controllers.GetTally(deps.Polls, logg))
		})

		r.Route("/friends", func(r chi.Router) {
			r.Post("/", controllers.RequestFriend(deps.Friends, logg))
			r.Get("/", controllers.ListFriends(deps.Friends, logg))
			r.Post("/{friendshipID}/accept", controllers.AcceptFriend(deps.Friends, logg))
			r.Delete("/{friendshipID}", controllers.RemoveFriend(deps.Friends, logg))
		})

		r.Route("/notifications", func(r chi.Router) {
			r.Get("/", controllers.ListNotifications(deps.Notifications, logg))
			r.Get("/unread-count", controllers.UnreadNotificationCount(deps.Notifications, logg))
			r.Post("/{notificationID}/read", controllers.MarkNotificationRead(deps.Notifications, logg))
			r.Post("/read-all", controllers.MarkAllNotificationsRead(deps.Notifications, logg))
		})

		r.Delete("/photos/{photoID}", controllers.DeletePhoto(deps.Photos, logg))
	})

	return r
}
