package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"senate-votes/database"
	"senate-votes/logging"
	"senate-votes/models"
)

// Store is the read side of the database the handlers use.
type Store interface {
	RollCalls(limit, offset int) ([]database.RollCallRecord, error)
	RollCall(id string) (*database.RollCallRecord, error)
	Senators(state string) ([]models.Senator, error)
	CountRollCalls() (int64, error)
	LastUpdated() (*models.UpdateLog, error)
}

type Handlers struct {
	store  Store
	logger *zap.Logger
}

func New(store Store, logger *zap.Logger) *Handlers {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Handlers{store: store, logger: logger}
}

// NewRouter wires every route. gatherer may be nil to omit /metrics.
func NewRouter(store Store, logger *zap.Logger, gatherer prometheus.Gatherer) *gin.Engine {
	h := New(store, logger)

	gin.SetMode(gin.ReleaseMode)
	r := gin.New()
	r.Use(logging.Middleware(h.logger), gin.Recovery())

	r.GET("/", func(c *gin.Context) {
		c.Redirect(http.StatusFound, "/api/status")
	})

	api := r.Group("/api")
	{
		api.GET("/rollcalls", h.ListRollCalls)
		api.GET("/rollcalls/:id", h.GetRollCall)
		api.GET("/senators", h.ListSenators)
		api.GET("/status", h.GetStatus)
	}

	if gatherer != nil {
		r.GET("/metrics", gin.WrapH(promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})))
	}
	return r
}
