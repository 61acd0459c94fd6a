package web

import (
	"context"
	"crypto/subtle"
	"embed"
	"encoding/json"
	"errors"
	"io/fs"
	"net/http"
	"strconv"
	"strings"
	"time"

	"meditrack/internal/calendar"
	"meditrack/internal/config"
	"meditrack/internal/daypart"
	appLog "meditrack/internal/log"
	"meditrack/internal/medicine"
	"meditrack/internal/model"
	"meditrack/internal/reminder"
)

// Schedule is the dose feed view the server needs: event days per month
// and the doses of a single day.
type Schedule interface {
	calendar.ScheduleSource
	DosesOn(ctx context.Context, date time.Time) ([]model.Dose, error)
}

// Options wires the server to the application state.
type Options struct {
	Config *config.Config
	Store  *medicine.Store
	Inbox  *reminder.Inbox
	// Schedule may be nil when no feeds are configured.
	Schedule Schedule
	// PreviewPath is the PNG served at /preview.png.
	PreviewPath string
	// Now defaults to time.Now.
	Now func() time.Time
}

// Server provides the HTTP API and the embedded calendar page.
type Server struct {
	cfg      *config.Config
	store    *medicine.Store
	inbox    *reminder.Inbox
	schedule Schedule
	preview  string
	now      func() time.Time
	loc      *time.Location
	mux      *http.ServeMux
}

// embeddedStatic contains the single-page calendar UI. The page sets
// data-ready="true" on its root once the month grid is rendered.
//
//go:embed all:static
var embeddedStatic embed.FS

// NewServer constructs a new Server.
func NewServer(opts Options) *Server {
	cfg := opts.Config
	if cfg == nil {
		cfg = config.DefaultConfig()
	}
	store := opts.Store
	if store == nil {
		store = medicine.New(nil)
	}
	inbox := opts.Inbox
	if inbox == nil {
		inbox = reminder.NewInbox(0)
	}
	now := opts.Now
	if now == nil {
		now = time.Now
	}
	s := &Server{
		cfg:      cfg,
		store:    store,
		inbox:    inbox,
		schedule: opts.Schedule,
		preview:  opts.PreviewPath,
		now:      now,
		loc:      resolveLocationOrLocal(cfg.Timezone),
		mux:      http.NewServeMux(),
	}
	s.registerRoutes()
	return s
}

// Handler returns the underlying http.Handler for this server.
func (s *Server) Handler() http.Handler {
	h := http.Handler(s.mux)
	if s.basicAuthEnabled() {
		appLog.Info("HTTP basic auth enabled", "listen", "http://"+s.cfg.Listen)
		return s.basicAuthMiddleware(h)
	}
	return h
}

// basicAuthEnabled reports whether HTTP Basic Auth is configured.
func (s *Server) basicAuthEnabled() bool {
	if s.cfg.BasicAuth == nil {
		return false
	}
	// Empty credentials disable auth.
	return s.cfg.BasicAuth.Username != "" && s.cfg.BasicAuth.Password != ""
}

// basicAuthMiddleware wraps all handlers except /health with HTTP Basic Auth.
func (s *Server) basicAuthMiddleware(next http.Handler) http.Handler {
	username := s.cfg.BasicAuth.Username
	password := s.cfg.BasicAuth.Password

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/health" {
			next.ServeHTTP(w, r)
			return
		}

		u, p, ok := r.BasicAuth()
		if !ok || !secureCompare(u, username) || !secureCompare(p, password) {
			w.Header().Set("WWW-Authenticate", `Basic realm="MediTrack", charset="UTF-8"`)
			http.Error(w, "Unauthorized", http.StatusUnauthorized)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// secureCompare compares two strings in constant time.
func secureCompare(a, b string) bool {
	if len(a) != len(b) {
		return false
	}
	return subtle.ConstantTimeCompare([]byte(a), []byte(b)) == 1
}

// Run serves on cfg.Listen until ctx is cancelled, then shuts down
// gracefully.
func (s *Server) Run(ctx context.Context) error {
	srv := &http.Server{
		Addr:              s.cfg.Listen,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		appLog.Info("starting HTTP server", "listen", "http://"+s.cfg.Listen)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	appLog.Info("stopping HTTP server")
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	return nil
}

func (s *Server) registerRoutes() {
	s.mux.HandleFunc("GET /health", s.handleHealth)
	s.mux.HandleFunc("GET /api/calendar", s.handleCalendar)
	s.mux.HandleFunc("GET /api/calendar/navigate", s.handleNavigate)
	s.mux.HandleFunc("GET /api/calendar/day", s.handleDay)
	s.mux.HandleFunc("GET /api/medicines", s.handleMedicines)
	s.mux.HandleFunc("POST /api/medicines/{id}/taken", s.handleTaken)
	s.mux.HandleFunc("GET /api/notifications", s.handleNotifications)
	s.mux.HandleFunc("POST /api/notifications/read", s.handleNotificationsRead)
	s.mux.HandleFunc("GET /api/stats", s.handleStats)
	s.mux.HandleFunc("GET /preview.png", s.handlePreview)

	// Everything else falls back to the embedded UI.
	s.mux.Handle("/", s.staticFileServer())
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("OK"))
}

// calendarResponse is a month layout plus the reason event days are
// missing, if the schedule could not be read.
type calendarResponse struct {
	calendar.Layout
	ScheduleError string `json:"schedule_error,omitempty"`
}

// cursorFromQuery reads month (0..11) and year, defaulting to the current
// month in the configured timezone.
func (s *Server) cursorFromQuery(r *http.Request) (calendar.Cursor, error) {
	c := calendar.CursorFor(s.now().In(s.loc))
	q := r.URL.Query()
	if v := q.Get("month"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return c, errors.New("month must be an integer")
		}
		c.Month = n
	}
	if v := q.Get("year"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return c, errors.New("year must be an integer")
		}
		c.Year = n
	}
	if !c.Valid() {
		return c, errors.New("month must be between 0 and 11")
	}
	return c, nil
}

func (s *Server) writeLayout(w http.ResponseWriter, r *http.Request, c calendar.Cursor) {
	today := calendar.DateOf(s.now().In(s.loc))

	var src calendar.ScheduleSource
	if s.schedule != nil {
		src = s.schedule
	}
	layout, err := calendar.LayoutWithSource(r.Context(), c, today, src)
	resp := calendarResponse{Layout: layout}
	if err != nil {
		appLog.Error("api calendar: schedule unavailable", err, "month", c.Month, "year", c.Year)
		resp.ScheduleError = "schedule unavailable"
	}
	writeJSON(w, http.StatusOK, resp)
}

// handleCalendar returns the layout of a month.
//
// GET /api/calendar?month=2&year=2024
func (s *Server) handleCalendar(w http.ResponseWriter, r *http.Request) {
	c, err := s.cursorFromQuery(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	s.writeLayout(w, r, c)
}

// handleNavigate moves the cursor by dir months and returns the new layout.
//
// GET /api/calendar/navigate?month=11&year=2024&dir=1
func (s *Server) handleNavigate(w http.ResponseWriter, r *http.Request) {
	c, err := s.cursorFromQuery(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	dir, err := strconv.Atoi(r.URL.Query().Get("dir"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "dir must be an integer")
		return
	}
	s.writeLayout(w, r, calendar.Navigate(c, dir))
}

type doseDTO struct {
	SourceID string    `json:"source_id"`
	UID      string    `json:"uid"`
	Medicine string    `json:"medicine"`
	Notes    string    `json:"notes,omitempty"`
	Location string    `json:"location,omitempty"`
	AllDay   bool      `json:"all_day"`
	Start    time.Time `json:"start"`
	End      time.Time `json:"end"`
}

type dayResponse struct {
	Date  string    `json:"date"`
	Doses []doseDTO `json:"doses"`
}

// handleDay lists the feed doses of one day.
//
// GET /api/calendar/day?date=2024-03-15
func (s *Server) handleDay(w http.ResponseWriter, r *http.Request) {
	date := s.now().In(s.loc)
	if v := r.URL.Query().Get("date"); v != "" {
		d, err := time.ParseInLocation("2006-01-02", v, s.loc)
		if err != nil {
			writeError(w, http.StatusBadRequest, "date must be YYYY-MM-DD")
			return
		}
		date = d
	}

	resp := dayResponse{Date: date.Format("2006-01-02"), Doses: []doseDTO{}}
	if s.schedule == nil {
		writeJSON(w, http.StatusOK, resp)
		return
	}

	doses, err := s.schedule.DosesOn(r.Context(), date)
	if err != nil {
		appLog.Error("api day: schedule unavailable", err, "date", resp.Date)
		writeError(w, http.StatusBadGateway, "schedule unavailable")
		return
	}
	for _, d := range doses {
		resp.Doses = append(resp.Doses, doseDTO{
			SourceID: d.SourceID,
			UID:      d.UID,
			Medicine: d.Medicine,
			Notes:    d.Notes,
			Location: d.Location,
			AllDay:   d.AllDay,
			Start:    d.Start,
			End:      d.End,
		})
	}
	writeJSON(w, http.StatusOK, resp)
}

type medicineDTO struct {
	model.Medicine
	Daypart string `json:"daypart,omitempty"`
}

type medicinesResponse struct {
	Filter    daypart.Bucket `json:"filter"`
	Query     string         `json:"query,omitempty"`
	Medicines []medicineDTO  `json:"medicines"`
}

func toMedicineDTO(m model.Medicine) medicineDTO {
	dto := medicineDTO{Medicine: m}
	if c, err := daypart.ParseClock(m.Time); err == nil {
		dto.Daypart = string(daypart.Of(c))
	}
	return dto
}

// handleMedicines lists medicines matching a search query and a day bucket.
//
// GET /api/medicines?filter=morning&q=vit
func (s *Server) handleMedicines(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	bucket, err := daypart.ParseBucket(q.Get("filter"))
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	query := strings.TrimSpace(q.Get("q"))

	meds := s.store.Filter(query, bucket)
	resp := medicinesResponse{Filter: bucket, Query: query, Medicines: make([]medicineDTO, 0, len(meds))}
	for _, m := range meds {
		resp.Medicines = append(resp.Medicines, toMedicineDTO(m))
	}
	writeJSON(w, http.StatusOK, resp)
}

// handleTaken marks a medicine as taken for today.
//
// POST /api/medicines/{id}/taken
func (s *Server) handleTaken(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	m, err := s.store.MarkTaken(id, s.now().In(s.loc))
	if errors.Is(err, medicine.ErrNotFound) {
		writeError(w, http.StatusNotFound, "medicine not found")
		return
	}
	if err != nil {
		appLog.Error("api taken: mark failed", err, "id", id)
		writeError(w, http.StatusInternalServerError, "failed to mark medicine")
		return
	}

	s.inbox.Add(model.Notification{
		Kind:    model.KindSuccess,
		Title:   "Medicine Taken",
		Message: m.Name + " marked as taken",
	})
	writeJSON(w, http.StatusOK, toMedicineDTO(m))
}

type notificationsResponse struct {
	Unread        int                  `json:"unread"`
	Notifications []model.Notification `json:"notifications"`
}

func (s *Server) handleNotifications(w http.ResponseWriter, _ *http.Request) {
	list := s.inbox.List()
	if list == nil {
		list = []model.Notification{}
	}
	writeJSON(w, http.StatusOK, notificationsResponse{
		Unread:        s.inbox.UnreadCount(),
		Notifications: list,
	})
}

func (s *Server) handleNotificationsRead(w http.ResponseWriter, _ *http.Request) {
	s.inbox.MarkAllRead()
	writeJSON(w, http.StatusOK, notificationsResponse{
		Unread:        0,
		Notifications: s.inbox.List(),
	})
}

type upcomingDTO struct {
	ID      string    `json:"id"`
	Name    string    `json:"name"`
	Due     time.Time `json:"due"`
	Minutes int       `json:"minutes"`
}

type statsResponse struct {
	medicine.Stats
	Upcoming []upcomingDTO `json:"upcoming"`
}

// handleStats reports today's adherence and the medicines due within the
// reminder lead time.
func (s *Server) handleStats(w http.ResponseWriter, _ *http.Request) {
	resp := statsResponse{Stats: s.store.Stats(), Upcoming: []upcomingDTO{}}
	for _, u := range s.store.Upcoming(s.now().In(s.loc), s.cfg.ReminderLead()) {
		resp.Upcoming = append(resp.Upcoming, upcomingDTO{
			ID:      u.Medicine.ID,
			Name:    u.Medicine.Name,
			Due:     u.Due,
			Minutes: u.Minutes,
		})
	}
	writeJSON(w, http.StatusOK, resp)
}

// staticFileServer serves the embedded UI from internal/web/static.
func (s *Server) staticFileServer() http.Handler {
	sub, err := fs.Sub(embeddedStatic, "static")
	if err != nil {
		appLog.Error("failed to initialize embedded static filesystem", err)
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			http.Error(w, "static UI not available", http.StatusServiceUnavailable)
		})
	}

	fileServer := http.FileServer(http.FS(sub))

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		// Unknown /api/* paths must not fall through to HTML.
		if r.URL.Path == "/api" || strings.HasPrefix(r.URL.Path, "/api/") {
			writeError(w, http.StatusNotFound, "not found")
			return
		}
		fileServer.ServeHTTP(w, r)
	})
}

// handlePreview serves the last calendar snapshot from disk.
func (s *Server) handlePreview(w http.ResponseWriter, r *http.Request) {
	if s.preview == "" {
		http.NotFound(w, r)
		return
	}
	// ServeFile maps missing files to 404.
	http.ServeFile(w, r, s.preview)
}

func resolveLocationOrLocal(name string) *time.Location {
	if name == "" || name == "Local" {
		return time.Local
	}
	loc, err := time.LoadLocation(name)
	if err != nil {
		appLog.Error("failed to load timezone; falling back to local", err, "name", name)
		return time.Local
	}
	return loc
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		appLog.Error("failed to write JSON response", err)
	}
}

func writeError(w http.ResponseWriter, status int, msg string) {
	type errResp struct {
		Error string `json:"error"`
	}
	writeJSON(w, status, errResp{Error: msg})
}
