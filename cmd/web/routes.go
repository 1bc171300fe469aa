package main

import (
	"database/sql"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/AdamBeresnev/op-ladder/internal/config"
	"github.com/AdamBeresnev/op-ladder/internal/events"
	"github.com/AdamBeresnev/op-ladder/internal/httputil"
	"github.com/AdamBeresnev/op-ladder/internal/ladder"
	"github.com/AdamBeresnev/op-ladder/internal/middleware"
	"github.com/AdamBeresnev/op-ladder/internal/service"
	"github.com/AdamBeresnev/op-ladder/internal/store"
	"github.com/AdamBeresnev/op-ladder/internal/utils"
	"github.com/alexedwards/scs/v2"
	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
)

type application struct {
	stores         *store.Stores
	ladder         *service.LadderService
	scheduler      *service.SchedulerService
	matches        *service.MatchService
	market         *service.MarketService
	overview       *service.EventService
	defaultStagger int
}

func newApplication(database *sqlx.DB, cfg *config.Config, publisher events.Publisher) *application {
	stores := store.New(database)
	ladderService := service.NewLadderService(database, stores)
	schedulerService := service.NewSchedulerService(database, stores)
	marketService := service.NewMarketService(database, stores, publisher, cfg.NeutralOdds)

	return &application{
		stores:         stores,
		ladder:         ladderService,
		scheduler:      schedulerService,
		market:         marketService,
		matches:        service.NewMatchService(database, stores, ladderService, marketService, publisher),
		overview:       service.NewEventService(database, stores, schedulerService, marketService),
		defaultStagger: int(cfg.MatchStagger / time.Minute),
	}
}

func decode(w http.ResponseWriter, r *http.Request, v any) bool {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		httputil.BadRequest(w, "Invalid JSON body", err)
		return false
	}
	return true
}

func uuidParam(w http.ResponseWriter, r *http.Request, name string) (uuid.UUID, bool) {
	id, err := uuid.Parse(chi.URLParam(r, name))
	if err != nil {
		httputil.BadRequest(w, "Invalid "+name, err)
		return uuid.Nil, false
	}
	return id, true
}

func positionParam(w http.ResponseWriter, r *http.Request) (int, bool) {
	position, err := strconv.Atoi(chi.URLParam(r, "position"))
	if err != nil {
		httputil.BadRequest(w, "Invalid position", err)
		return 0, false
	}
	return position, true
}

func newRouter(app *application, sessionManager *scs.SessionManager) http.Handler {
	r := chi.NewRouter()

	r.Use(chimiddleware.Logger)
	r.Use(chimiddleware.Recoverer)
	r.Use(sessionManager.LoadAndSave)
	r.Use(middleware.LoadSessionUser(sessionManager, app.stores.Users))

	r.Post("/events", func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			Name string `json:"name"`
		}
		if !decode(w, r, &req) {
			return
		}
		event, err := app.ladder.CreateEvent(r.Context(), req.Name)
		if err != nil {
			serviceError(w, "Failed to create event", err)
			return
		}
		httputil.JSON(w, http.StatusCreated, event)
	})

	r.Post("/competitors", func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			Name string `json:"name"`
		}
		if !decode(w, r, &req) {
			return
		}
		competitor, err := app.ladder.CreateCompetitor(r.Context(), req.Name)
		if err != nil {
			serviceError(w, "Failed to create competitor", err)
			return
		}
		httputil.JSON(w, http.StatusCreated, competitor)
	})

	r.Post("/users", func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			Username string `json:"username"`
			Points   int64  `json:"points"`
		}
		if !decode(w, r, &req) {
			return
		}
		user, err := app.ladder.CreateUser(r.Context(), req.Username, req.Points)
		if err != nil {
			serviceError(w, "Failed to create user", err)
			return
		}
		httputil.JSON(w, http.StatusCreated, user)
	})

	// Binds a bettor to the session, identity only
	r.Post("/session", func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			UserID uuid.UUID `json:"user_id"`
		}
		if !decode(w, r, &req) {
			return
		}
		user, err := app.stores.Users.GetUser(r.Context(), req.UserID)
		if err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				httputil.NotFound(w, "User not found", err)
				return
			}
			httputil.InternalServerError(w, "Failed to get user", err)
			return
		}
		if err := sessionManager.RenewToken(r.Context()); err != nil {
			httputil.InternalServerError(w, "Failed to renew session", err)
			return
		}
		sessionManager.Put(r.Context(), middleware.SessionUserKey, user.ID.String())
		httputil.JSON(w, http.StatusOK, user)
	})

	r.Get("/session", func(w http.ResponseWriter, r *http.Request) {
		user := middleware.GetAuthenticatedUser(r.Context())
		if user == nil {
			httputil.Unauthorized(w, "session has no user")
			return
		}
		httputil.JSON(w, http.StatusOK, user)
	})

	r.Route("/events/{eventID}", func(r chi.Router) {
		r.Get("/", func(w http.ResponseWriter, r *http.Request) {
			eventID, ok := uuidParam(w, r, "eventID")
			if !ok {
				return
			}
			overview, err := app.overview.GetOverview(r.Context(), eventID)
			if err != nil {
				serviceError(w, "Failed to get event", err)
				return
			}
			httputil.JSON(w, http.StatusOK, overview)
		})

		r.Get("/ladder", func(w http.ResponseWriter, r *http.Request) {
			eventID, ok := uuidParam(w, r, "eventID")
			if !ok {
				return
			}
			slots, err := app.ladder.GetLadder(r.Context(), eventID)
			if err != nil {
				serviceError(w, "Failed to get ladder", err)
				return
			}
			httputil.JSON(w, http.StatusOK, slots)
		})

		r.Get("/ladder/{position}", func(w http.ResponseWriter, r *http.Request) {
			eventID, ok := uuidParam(w, r, "eventID")
			if !ok {
				return
			}
			position, ok := positionParam(w, r)
			if !ok {
				return
			}
			slot, err := app.ladder.GetSlot(r.Context(), eventID, position)
			if err != nil {
				serviceError(w, "Failed to get slot", err)
				return
			}
			httputil.JSON(w, http.StatusOK, slot)
		})

		r.Put("/ladder/{position}", func(w http.ResponseWriter, r *http.Request) {
			eventID, ok := uuidParam(w, r, "eventID")
			if !ok {
				return
			}
			position, ok := positionParam(w, r)
			if !ok {
				return
			}
			var req struct {
				CompetitorID string `json:"competitor_id"`
			}
			if !decode(w, r, &req) {
				return
			}
			competitorID, err := utils.UUIDOrNil(req.CompetitorID)
			if err != nil {
				httputil.BadRequest(w, "Invalid competitor_id", err)
				return
			}
			slot, err := app.ladder.AssignSlot(r.Context(), eventID, position, competitorID)
			if err != nil {
				serviceError(w, "Failed to assign slot", err)
				return
			}
			httputil.JSON(w, http.StatusOK, slot)
		})

		r.Get("/pairings", func(w http.ResponseWriter, r *http.Request) {
			eventID, ok := uuidParam(w, r, "eventID")
			if !ok {
				return
			}
			var hint *ladder.Parity
			if phase := utils.StringOrNil(r.URL.Query().Get("phase")); phase != nil {
				parity, err := ladder.ParseParity(*phase)
				if err != nil {
					httputil.BadRequest(w, "Phase must be odd or even", err)
					return
				}
				hint = &parity
			}
			preview, err := app.scheduler.PreviewPairings(r.Context(), eventID, hint)
			if err != nil {
				serviceError(w, "Failed to preview pairings", err)
				return
			}
			httputil.JSON(w, http.StatusOK, preview)
		})

		r.Post("/rounds", func(w http.ResponseWriter, r *http.Request) {
			eventID, ok := uuidParam(w, r, "eventID")
			if !ok {
				return
			}
			var req struct {
				Preview        *service.Preview `json:"preview"`
				StartTime      time.Time        `json:"start_time"`
				StaggerMinutes *int             `json:"stagger_minutes"`
			}
			if !decode(w, r, &req) {
				return
			}
			if req.StartTime.IsZero() {
				req.StartTime = time.Now().UTC()
			}
			stagger := app.defaultStagger
			if req.StaggerMinutes != nil {
				stagger = *req.StaggerMinutes
			}
			ids, err := app.scheduler.CommitPairings(r.Context(), eventID, req.Preview, req.StartTime, stagger)
			if err != nil {
				serviceError(w, "Failed to commit pairings", err)
				return
			}
			httputil.JSON(w, http.StatusCreated, map[string]any{"match_ids": ids})
		})
	})

	r.Route("/matches/{matchID}", func(r chi.Router) {
		r.Get("/", func(w http.ResponseWriter, r *http.Request) {
			matchID, ok := uuidParam(w, r, "matchID")
			if !ok {
				return
			}
			match, err := app.matches.GetMatch(r.Context(), matchID)
			if err != nil {
				serviceError(w, "Failed to get match", err)
				return
			}
			httputil.JSON(w, http.StatusOK, match)
		})

		r.Post("/start", func(w http.ResponseWriter, r *http.Request) {
			matchID, ok := uuidParam(w, r, "matchID")
			if !ok {
				return
			}
			match, err := app.matches.StartMatch(r.Context(), matchID)
			if err != nil {
				serviceError(w, "Failed to start match", err)
				return
			}
			httputil.JSON(w, http.StatusOK, match)
		})

		r.Post("/betting/toggle", func(w http.ResponseWriter, r *http.Request) {
			matchID, ok := uuidParam(w, r, "matchID")
			if !ok {
				return
			}
			locked, err := app.matches.ToggleBetting(r.Context(), matchID)
			if err != nil {
				serviceError(w, "Failed to toggle betting", err)
				return
			}
			httputil.JSON(w, http.StatusOK, map[string]bool{"betting_locked": locked})
		})

		r.Post("/settle", func(w http.ResponseWriter, r *http.Request) {
			matchID, ok := uuidParam(w, r, "matchID")
			if !ok {
				return
			}
			var req struct {
				WinnerID uuid.UUID `json:"winner_id"`
			}
			if !decode(w, r, &req) {
				return
			}
			settlement, err := app.matches.SettleMatch(r.Context(), matchID, req.WinnerID)
			if err != nil {
				serviceError(w, "Failed to settle match", err)
				return
			}
			httputil.JSON(w, http.StatusOK, settlement)
		})

		r.Get("/odds", func(w http.ResponseWriter, r *http.Request) {
			matchID, ok := uuidParam(w, r, "matchID")
			if !ok {
				return
			}
			odds, err := app.market.GetOdds(r.Context(), matchID)
			if err != nil {
				serviceError(w, "Failed to get odds", err)
				return
			}
			httputil.JSON(w, http.StatusOK, odds)
		})

		r.With(middleware.RequireUser).Post("/bets", func(w http.ResponseWriter, r *http.Request) {
			matchID, ok := uuidParam(w, r, "matchID")
			if !ok {
				return
			}
			userID, _ := middleware.GetUserIDFromContext(r.Context())
			var req struct {
				CompetitorID uuid.UUID `json:"competitor_id"`
				Amount       int64     `json:"amount"`
			}
			if !decode(w, r, &req) {
				return
			}
			result, err := app.market.PlaceBet(r.Context(), userID, matchID, req.CompetitorID, req.Amount)
			if err != nil {
				serviceError(w, "Failed to place bet", err)
				return
			}
			httputil.JSON(w, http.StatusCreated, result)
		})
	})

	return r
}
