// Package navapi handles the map editing and navigation endpoints.
package navapi

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/robel-ketema/wayfinder-api/api/identity"
	dmn "github.com/robel-ketema/wayfinder-api/domain"
	"github.com/robel-ketema/wayfinder-api/grid"
	"github.com/robel-ketema/wayfinder-api/pathfind"
	"github.com/robel-ketema/wayfinder-api/service/i"
)

const defaultTrailLimit = 100

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin:     func(*http.Request) bool { return true },
}

// NavController manages the map and navigation endpoints.
type NavController struct {
	planner  i.Planner
	sessions i.SessionManager
	cache    i.LiveCache
}

// NewNavController initializes a NavController.
func NewNavController(p i.Planner, sm i.SessionManager, lc i.LiveCache) (*NavController, error) {
	return &NavController{
		planner:  p,
		sessions: sm,
		cache:    lc,
	}, nil
}

// RegisterPublic registers public routes.
func (nc *NavController) RegisterPublic(route *gin.RouterGroup) {}

// RegisterProtected registers protected routes.
func (nc *NavController) RegisterProtected(route *gin.RouterGroup) {
	maps := route.Group("/map")
	{
		maps.GET("/", nc.getMap)
		maps.PUT("/", nc.putMap)
		maps.POST("/cell", nc.setCell)
		maps.POST("/reset", nc.resetMap)
	}

	nav := route.Group("/nav")
	{
		nav.POST("/point", nc.selectPoint)
		nav.POST("/algorithm", nc.toggleAlgorithm)
		nav.GET("/route", nc.route)
		nav.POST("/start", nc.start)
		nav.POST("/stop", nc.stop)
		nav.GET("/state", nc.state)
		nav.GET("/trail", nc.trail)
		nav.GET("/live", nc.live)
	}
}

// visitorID extracts the authenticated visitor from the claims the bearer
// middleware attached.
func visitorID(ctx *gin.Context) (uuid.UUID, bool) {
	raw, ok := ctx.Get(identity.ContextUserClaims)
	if !ok {
		return uuid.Nil, false
	}

	claims, ok := raw.(map[string]interface{})
	if !ok {
		return uuid.Nil, false
	}

	idStr, ok := claims["userID"].(string)
	if !ok {
		return uuid.Nil, false
	}

	id, err := uuid.Parse(idStr)
	if err != nil {
		return uuid.Nil, false
	}
	return id, true
}

// statusFor maps service errors onto HTTP statuses.
func statusFor(err error) int {
	switch {
	case errors.Is(err, i.ErrMapLocked), errors.Is(err, i.ErrSessionBusy):
		return http.StatusConflict
	case errors.Is(err, i.ErrNoSession):
		return http.StatusNotFound
	case errors.Is(err, pathfind.ErrNoPathFound), errors.Is(err, pathfind.ErrInvalidEndpoint):
		return http.StatusUnprocessableEntity
	default:
		return http.StatusBadRequest
	}
}

// getMap returns the visitor's occupancy map.
func (nc *NavController) getMap(ctx *gin.Context) {
	id, ok := visitorID(ctx)
	if !ok {
		ctx.Status(http.StatusUnauthorized)
		return
	}

	g, err := nc.planner.Grid(id)
	if err != nil {
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	ctx.JSON(http.StatusOK, &MapResponse{Size: g.Size(), Cells: g.Matrix()})
}

// putMap replaces the visitor's occupancy map.
func (nc *NavController) putMap(ctx *gin.Context) {
	id, ok := visitorID(ctx)
	if !ok {
		ctx.Status(http.StatusUnauthorized)
		return
	}

	var request MapRequest
	if err := ctx.ShouldBind(&request); err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	g, err := nc.planner.SaveGrid(id, request.Cells)
	if err != nil {
		ctx.JSON(statusFor(err), gin.H{"error": err.Error()})
		return
	}

	ctx.JSON(http.StatusOK, &MapResponse{Size: g.Size(), Cells: g.Matrix()})
}

// setCell marks one cell of the visitor's map free or blocked.
func (nc *NavController) setCell(ctx *gin.Context) {
	id, ok := visitorID(ctx)
	if !ok {
		ctx.Status(http.StatusUnauthorized)
		return
	}

	var request CellRequest
	if err := ctx.ShouldBind(&request); err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	cellType := grid.Free
	if request.Wall {
		cellType = grid.Wall
	}

	g, err := nc.planner.SetCell(id, grid.Cell{X: *request.X, Y: *request.Y}, cellType)
	if err != nil {
		ctx.JSON(statusFor(err), gin.H{"error": err.Error()})
		return
	}

	ctx.JSON(http.StatusOK, &MapResponse{Size: g.Size(), Cells: g.Matrix()})
}

// resetMap restores the default wall layout.
func (nc *NavController) resetMap(ctx *gin.Context) {
	id, ok := visitorID(ctx)
	if !ok {
		ctx.Status(http.StatusUnauthorized)
		return
	}

	g, err := nc.planner.ResetGrid(id)
	if err != nil {
		ctx.JSON(statusFor(err), gin.H{"error": err.Error()})
		return
	}

	ctx.JSON(http.StatusOK, &MapResponse{Size: g.Size(), Cells: g.Matrix()})
}

// selectPoint advances the two-tap endpoint cycle. A plan failure still
// returns the persisted route so the client can render the chosen pins.
func (nc *NavController) selectPoint(ctx *gin.Context) {
	id, ok := visitorID(ctx)
	if !ok {
		ctx.Status(http.StatusUnauthorized)
		return
	}

	var request PointRequest
	if err := ctx.ShouldBind(&request); err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	route, err := nc.planner.SelectPoint(id, dmn.PixelPoint{Dx: *request.Dx, Dy: *request.Dy})
	if err != nil {
		body := gin.H{"error": err.Error()}
		if route != nil {
			body["route"] = routeResponse(route)
		}
		ctx.JSON(statusFor(err), body)
		return
	}

	ctx.JSON(http.StatusOK, routeResponse(route))
}

// toggleAlgorithm flips between the two route algorithms.
func (nc *NavController) toggleAlgorithm(ctx *gin.Context) {
	id, ok := visitorID(ctx)
	if !ok {
		ctx.Status(http.StatusUnauthorized)
		return
	}

	route, err := nc.planner.ToggleAlgorithm(id)
	if err != nil {
		body := gin.H{"error": err.Error()}
		if route != nil {
			body["route"] = routeResponse(route)
		}
		ctx.JSON(statusFor(err), body)
		return
	}

	ctx.JSON(http.StatusOK, routeResponse(route))
}

// route returns the visitor's current route record.
func (nc *NavController) route(ctx *gin.Context) {
	id, ok := visitorID(ctx)
	if !ok {
		ctx.Status(http.StatusUnauthorized)
		return
	}

	route, err := nc.planner.Route(id)
	if err != nil {
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	ctx.JSON(http.StatusOK, routeResponse(route))
}

// start begins or resumes walking the planned route.
func (nc *NavController) start(ctx *gin.Context) {
	id, ok := visitorID(ctx)
	if !ok {
		ctx.Status(http.StatusUnauthorized)
		return
	}

	if err := nc.sessions.Start(id); err != nil {
		ctx.JSON(statusFor(err), gin.H{"error": err.Error()})
		return
	}

	st, err := nc.sessions.State(id)
	if err != nil {
		ctx.JSON(statusFor(err), gin.H{"error": err.Error()})
		return
	}
	ctx.JSON(http.StatusOK, st)
}

// stop pauses the visitor's walk.
func (nc *NavController) stop(ctx *gin.Context) {
	id, ok := visitorID(ctx)
	if !ok {
		ctx.Status(http.StatusUnauthorized)
		return
	}

	if err := nc.sessions.Stop(id); err != nil {
		ctx.JSON(statusFor(err), gin.H{"error": err.Error()})
		return
	}

	st, err := nc.sessions.State(id)
	if err != nil {
		ctx.JSON(statusFor(err), gin.H{"error": err.Error()})
		return
	}
	ctx.JSON(http.StatusOK, st)
}

// state returns the live navigation snapshot.
func (nc *NavController) state(ctx *gin.Context) {
	id, ok := visitorID(ctx)
	if !ok {
		ctx.Status(http.StatusUnauthorized)
		return
	}

	st, err := nc.sessions.State(id)
	if err != nil {
		ctx.JSON(statusFor(err), gin.H{"error": err.Error()})
		return
	}

	ctx.JSON(http.StatusOK, st)
}

// trail returns recent breadcrumbs, newest first.
func (nc *NavController) trail(ctx *gin.Context) {
	id, ok := visitorID(ctx)
	if !ok {
		ctx.Status(http.StatusUnauthorized)
		return
	}

	limit, err := strconv.ParseInt(ctx.DefaultQuery("limit", strconv.Itoa(defaultTrailLimit)), 10, 64)
	if err != nil || limit <= 0 {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "limit must be a positive integer"})
		return
	}

	points, err := nc.cache.RecentTrail(id, limit)
	if err != nil {
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	ctx.JSON(http.StatusOK, &TrailResponse{Points: points})
}

// live streams state snapshots over a WebSocket until the client leaves or
// the session ends.
func (nc *NavController) live(ctx *gin.Context) {
	id, ok := visitorID(ctx)
	if !ok {
		ctx.Status(http.StatusUnauthorized)
		return
	}

	states, cancel, err := nc.sessions.Watch(id)
	if err != nil {
		ctx.JSON(statusFor(err), gin.H{"error": err.Error()})
		return
	}

	conn, err := upgrader.Upgrade(ctx.Writer, ctx.Request, nil)
	if err != nil {
		cancel()
		return
	}
	defer conn.Close()
	defer cancel()

	// A closed or misbehaving client cancels the watch, which closes the
	// state channel below.
	go func() {
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				cancel()
				return
			}
		}
	}()

	for st := range states {
		if err := conn.WriteJSON(st); err != nil {
			return
		}
	}

	_ = conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, "session ended"))
}
