// Package testutil provides an in-memory stand-in for the remote store so
// package tests can exercise real HTTP round trips without a backend.
package testutil

import (
	"encoding/csv"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/unionhall/gameshelf/model"
)

type stubUser struct {
	password string
	role     model.Role
}

// StubServer is a fake games API with the same wire contract the gateway
// consumes. It tracks per-route call counts and can be told to fail requests,
// so tests can assert both behavior and traffic.
type StubServer struct {
	*httptest.Server

	mu       sync.Mutex
	games    []model.Game
	nextID   int64
	users    map[string]stubUser
	sessions map[string]string // token → username
	ttl      time.Duration
	calls    map[string]int
	failNext map[string]int
}

// NewServer starts a stub store seeded with one account per role:
// admin/admin, host/host, user/user (password equals username).
func NewServer(t *testing.T) *StubServer {
	t.Helper()
	gin.SetMode(gin.TestMode)

	s := &StubServer{
		nextID: 1,
		users: map[string]stubUser{
			"admin": {password: "admin", role: model.RoleAdmin},
			"host":  {password: "host", role: model.RoleHost},
			"user":  {password: "user", role: model.RoleUser},
		},
		sessions: make(map[string]string),
		ttl:      72 * time.Hour,
		calls:    make(map[string]int),
		failNext: make(map[string]int),
	}

	r := gin.New()
	r.POST("/api/auth/login", s.handleLogin)
	r.POST("/api/auth/refresh", s.handleRefresh)
	r.GET("/api/games", s.handleList)
	r.POST("/api/games", s.handleCreate)
	r.GET("/api/games/:id", s.handleGet)
	r.PATCH("/api/games/:id", s.handlePatch)
	r.DELETE("/api/games/:id", s.handleDelete)
	r.POST("/api/games/:id/checkout", s.handleCheckout)
	r.POST("/api/games/:id/return", s.handleReturn)
	r.PUT("/api/games/return-all", s.handleReturnAll)
	r.POST("/api/games/import", s.handleImport)
	r.GET("/api/games/download-csv", s.handleExport)
	r.GET("/api/games/stats", s.handleStats)

	s.Server = httptest.NewServer(r)
	t.Cleanup(s.Server.Close)
	return s
}

// AddGame seeds a catalog entry and returns it with its assigned id.
func (s *StubServer) AddGame(g model.Game) model.Game {
	s.mu.Lock()
	defer s.mu.Unlock()
	g.ID = s.nextID
	s.nextID++
	s.games = append(s.games, g)
	return g
}

// Game returns the server-side copy of one entry.
func (s *StubServer) Game(id int64) (model.Game, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if i := s.index(id); i >= 0 {
		return s.games[i], true
	}
	return model.Game{}, false
}

// Calls reports how many requests a route has served (including failed ones).
func (s *StubServer) Calls(route string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.calls[route]
}

// FailNext makes the next n requests to a route answer 500.
func (s *StubServer) FailNext(route string, n int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.failNext[route] = n
}

// SetTTL controls the expiry attached to tokens issued after the call.
func (s *StubServer) SetTTL(d time.Duration) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.ttl = d
}

// RevokeAll invalidates every issued token, so the next authenticated call
// sees 401.
func (s *StubServer) RevokeAll() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sessions = make(map[string]string)
}

// track counts the request and applies any scheduled failure. Callers hold no
// lock.
func (s *StubServer) track(c *gin.Context, route string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls[route]++
	if s.failNext[route] > 0 {
		s.failNext[route]--
		c.JSON(http.StatusInternalServerError, gin.H{"error": "induced failure"})
		return false
	}
	return true
}

// caller resolves the bearer token. Missing token is a guest, unknown token
// is reported as expired.
func (s *StubServer) caller(c *gin.Context) (username string, role model.Role, ok bool) {
	header := c.GetHeader("Authorization")
	if !strings.HasPrefix(header, "Bearer ") {
		return "", model.RoleGuest, true
	}
	token := strings.TrimPrefix(header, "Bearer ")
	s.mu.Lock()
	defer s.mu.Unlock()
	name, found := s.sessions[token]
	if !found {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "session expired"})
		return "", model.RoleGuest, false
	}
	return name, s.users[name].role, true
}

func (s *StubServer) requireRole(c *gin.Context, min model.Role) bool {
	_, role, ok := s.caller(c)
	if !ok {
		return false
	}
	if role == model.RoleGuest {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "missing token"})
		return false
	}
	if !role.AtLeast(min) {
		c.JSON(http.StatusForbidden, gin.H{"error": "insufficient role"})
		return false
	}
	return true
}

func (s *StubServer) issueToken(username string) (token string, expiry time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()
	token = "tok-" + uuid.New().String()
	s.sessions[token] = username
	return token, time.Now().Add(s.ttl)
}

func (s *StubServer) handleLogin(c *gin.Context) {
	if !s.track(c, "login") {
		return
	}
	var req struct {
		Username string `json:"username"`
		Password string `json:"password"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "bad request"})
		return
	}
	s.mu.Lock()
	u, ok := s.users[req.Username]
	s.mu.Unlock()
	if !ok || u.password != req.Password {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid credentials"})
		return
	}
	token, expiry := s.issueToken(req.Username)
	c.JSON(http.StatusOK, gin.H{
		"token":    token,
		"role":     u.role.String(),
		"identity": req.Username,
		"expiry":   expiry,
	})
}

func (s *StubServer) handleRefresh(c *gin.Context) {
	if !s.track(c, "refresh") {
		return
	}
	name, role, ok := s.caller(c)
	if !ok {
		return
	}
	if name == "" {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "missing token"})
		return
	}
	// Old token is invalidated; a fresh one replaces it.
	header := strings.TrimPrefix(c.GetHeader("Authorization"), "Bearer ")
	s.mu.Lock()
	delete(s.sessions, header)
	s.mu.Unlock()
	token, expiry := s.issueToken(name)
	c.JSON(http.StatusOK, gin.H{
		"token":    token,
		"role":     role.String(),
		"identity": name,
		"expiry":   expiry,
	})
}

func (s *StubServer) handleList(c *gin.Context) {
	if !s.track(c, "list") {
		return
	}
	_, role, ok := s.caller(c)
	if !ok {
		return
	}
	s.mu.Lock()
	out := make([]model.Game, len(s.games))
	copy(out, s.games)
	s.mu.Unlock()
	if role == model.RoleGuest {
		for i := range out {
			out[i].InternalNotes = ""
		}
	}
	c.JSON(http.StatusOK, out)
}

func (s *StubServer) handleGet(c *gin.Context) {
	if !s.track(c, "get") {
		return
	}
	_, role, ok := s.caller(c)
	if !ok {
		return
	}
	id, _ := strconv.ParseInt(c.Param("id"), 10, 64)
	s.mu.Lock()
	defer s.mu.Unlock()
	i := s.index(id)
	if i < 0 {
		c.JSON(http.StatusNotFound, gin.H{"error": fmt.Sprintf("game not found with id %d", id), "code": "A105"})
		return
	}
	g := s.games[i]
	if role == model.RoleGuest {
		g.InternalNotes = ""
	}
	c.JSON(http.StatusOK, g)
}

func (s *StubServer) handleCreate(c *gin.Context) {
	if !s.track(c, "create") {
		return
	}
	if !s.requireRole(c, model.RoleAdmin) {
		return
	}
	var draft model.Game
	if err := c.ShouldBindJSON(&draft); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "bad request"})
		return
	}
	if strings.TrimSpace(draft.Name) == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "the name field is required", "code": "A103"})
		return
	}
	s.mu.Lock()
	for i := range s.games {
		if strings.EqualFold(s.games[i].Name, draft.Name) {
			s.mu.Unlock()
			c.JSON(http.StatusBadRequest, gin.H{"error": "a game with that name already exists", "code": "A104"})
			return
		}
	}
	draft.ID = s.nextID
	s.nextID++
	draft.AvailableCopies = draft.Quantity
	draft.CheckoutCount = 0
	s.games = append(s.games, draft)
	s.mu.Unlock()
	c.JSON(http.StatusCreated, draft)
}

func (s *StubServer) handlePatch(c *gin.Context) {
	if !s.track(c, "patch") {
		return
	}
	if !s.requireRole(c, model.RoleAdmin) {
		return
	}
	id, _ := strconv.ParseInt(c.Param("id"), 10, 64)
	var patch model.GamePatch
	if err := c.ShouldBindJSON(&patch); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "bad request"})
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	i := s.index(id)
	if i < 0 {
		c.JSON(http.StatusNotFound, gin.H{"error": fmt.Sprintf("game not found with id %d", id), "code": "A105"})
		return
	}
	g := &s.games[i]
	if patch.Name != nil {
		g.Name = *patch.Name
	}
	if patch.Genre != nil {
		g.Genre = *patch.Genre
	}
	if patch.Description != nil {
		g.Description = *patch.Description
	}
	if patch.BoxImageURL != nil {
		g.BoxImageURL = *patch.BoxImageURL
	}
	if patch.InternalNotes != nil {
		g.InternalNotes = *patch.InternalNotes
	}
	if patch.MinPlayerCount != nil {
		g.MinPlayerCount = patch.MinPlayerCount
	}
	if patch.MaxPlayerCount != nil {
		g.MaxPlayerCount = patch.MaxPlayerCount
	}
	if patch.MinPlaytime != nil {
		g.MinPlaytime = patch.MinPlaytime
	}
	if patch.MaxPlaytime != nil {
		g.MaxPlaytime = patch.MaxPlaytime
	}
	if patch.Quantity != nil {
		g.Quantity = *patch.Quantity
		if g.AvailableCopies > g.Quantity {
			g.AvailableCopies = g.Quantity
		}
	}
	c.JSON(http.StatusOK, *g)
}

func (s *StubServer) handleDelete(c *gin.Context) {
	if !s.track(c, "delete") {
		return
	}
	if !s.requireRole(c, model.RoleAdmin) {
		return
	}
	id, _ := strconv.ParseInt(c.Param("id"), 10, 64)
	s.mu.Lock()
	defer s.mu.Unlock()
	i := s.index(id)
	if i < 0 {
		c.JSON(http.StatusNotFound, gin.H{"error": fmt.Sprintf("game not found with id %d", id), "code": "A105"})
		return
	}
	s.games = append(s.games[:i], s.games[i+1:]...)
	c.Status(http.StatusNoContent)
}

func (s *StubServer) handleCheckout(c *gin.Context) {
	if !s.track(c, "checkout") {
		return
	}
	if !s.requireRole(c, model.RoleUser) {
		return
	}
	id, _ := strconv.ParseInt(c.Param("id"), 10, 64)
	s.mu.Lock()
	defer s.mu.Unlock()
	i := s.index(id)
	if i < 0 {
		c.JSON(http.StatusNotFound, gin.H{"error": "game not found", "code": "A105"})
		return
	}
	if s.games[i].AvailableCopies <= 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "no copies available for checkout", "code": "A106"})
		return
	}
	s.games[i].AvailableCopies--
	s.games[i].CheckoutCount++
	c.JSON(http.StatusOK, gin.H{"message": "game checked out"})
}

func (s *StubServer) handleReturn(c *gin.Context) {
	if !s.track(c, "return") {
		return
	}
	if !s.requireRole(c, model.RoleUser) {
		return
	}
	id, _ := strconv.ParseInt(c.Param("id"), 10, 64)
	s.mu.Lock()
	defer s.mu.Unlock()
	i := s.index(id)
	if i < 0 {
		c.JSON(http.StatusNotFound, gin.H{"error": "game not found", "code": "A105"})
		return
	}
	if s.games[i].AvailableCopies >= s.games[i].Quantity {
		c.JSON(http.StatusBadRequest, gin.H{"error": "all copies already returned", "code": "A107"})
		return
	}
	s.games[i].AvailableCopies++
	c.JSON(http.StatusOK, gin.H{"message": "game returned"})
}

func (s *StubServer) handleReturnAll(c *gin.Context) {
	if !s.track(c, "return-all") {
		return
	}
	if !s.requireRole(c, model.RoleAdmin) {
		return
	}
	s.mu.Lock()
	var changed []model.Game
	for i := range s.games {
		if s.games[i].AvailableCopies < s.games[i].Quantity {
			s.games[i].AvailableCopies = s.games[i].Quantity
			changed = append(changed, s.games[i])
		}
	}
	s.mu.Unlock()
	c.JSON(http.StatusOK, changed)
}

func (s *StubServer) handleImport(c *gin.Context) {
	if !s.track(c, "import") {
		return
	}
	if !s.requireRole(c, model.RoleAdmin) {
		return
	}
	file, _, err := c.Request.FormFile("file")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "missing file"})
		return
	}
	defer file.Close()

	records, err := csv.NewReader(file).ReadAll()
	if err != nil || len(records) < 1 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "bad csv"})
		return
	}
	header := records[0]
	col := func(name string) int {
		for i, h := range header {
			if strings.EqualFold(strings.TrimSpace(h), name) {
				return i
			}
		}
		return -1
	}
	nameCol, qtyCol := col("Name"), col("Quantity")

	s.mu.Lock()
	defer s.mu.Unlock()
	for _, rec := range records[1:] {
		if nameCol < 0 || nameCol >= len(rec) {
			continue
		}
		name := strings.TrimSpace(rec[nameCol])
		if name == "" {
			continue
		}
		dup := false
		for i := range s.games {
			if strings.EqualFold(s.games[i].Name, name) {
				dup = true
				break
			}
		}
		if dup {
			continue
		}
		qty := 1
		if qtyCol >= 0 && qtyCol < len(rec) {
			if n, err := strconv.Atoi(strings.TrimSpace(rec[qtyCol])); err == nil {
				qty = n
			}
		}
		s.games = append(s.games, model.Game{
			ID:              s.nextID,
			Name:            name,
			Quantity:        qty,
			AvailableCopies: qty,
		})
		s.nextID++
	}
	c.Status(http.StatusOK)
}

func (s *StubServer) handleExport(c *gin.Context) {
	if !s.track(c, "export") {
		return
	}
	if !s.requireRole(c, model.RoleAdmin) {
		return
	}
	s.mu.Lock()
	games := make([]model.Game, len(s.games))
	copy(games, s.games)
	s.mu.Unlock()

	c.Header("Content-Disposition", "attachment; filename=games.csv")
	c.Header("Content-Type", "application/octet-stream")
	w := csv.NewWriter(c.Writer)
	_ = w.Write([]string{"ID", "Name", "Quantity", "Available Copies", "Checkout Count"})
	for _, g := range games {
		_ = w.Write([]string{
			strconv.FormatInt(g.ID, 10),
			g.Name,
			strconv.Itoa(g.Quantity),
			strconv.Itoa(g.AvailableCopies),
			strconv.Itoa(g.CheckoutCount),
		})
	}
	w.Flush()
}

func (s *StubServer) handleStats(c *gin.Context) {
	if !s.track(c, "stats") {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	stats := model.Stats{MostPopularGameName: "N/A"}
	best := -1
	for i := range s.games {
		stats.TotalCheckouts += s.games[i].CheckoutCount
		stats.TotalAvailableCopies += s.games[i].AvailableCopies
		if s.games[i].CheckoutCount > best {
			best = s.games[i].CheckoutCount
			stats.MostPopularGameID = strconv.FormatInt(s.games[i].ID, 10)
			stats.MostPopularGameName = s.games[i].Name
		}
	}
	if n := len(s.games); n > 0 {
		stats.AverageGamesCheckout = float64(stats.TotalCheckouts) / float64(n)
	}
	c.JSON(http.StatusOK, stats)
}

func (s *StubServer) index(id int64) int {
	for i := range s.games {
		if s.games[i].ID == id {
			return i
		}
	}
	return -1
}
