package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"

	"github.com/zhouzirui/trait-interview/backend/internal/handler/interview"
	"github.com/zhouzirui/trait-interview/backend/internal/handler/speech"
	"github.com/zhouzirui/trait-interview/backend/internal/handler/trait"
	middlewarePkg "github.com/zhouzirui/trait-interview/backend/internal/middleware"
	speechModel "github.com/zhouzirui/trait-interview/backend/internal/model/speech"
	traitModel "github.com/zhouzirui/trait-interview/backend/internal/model/trait"
	speechService "github.com/zhouzirui/trait-interview/backend/internal/service/speech"
	"github.com/zhouzirui/trait-interview/backend/pkg/utils"
)

// Deps 汇总路由需要的服务。Transcriber 与 Gatherer 可以为空。
type Deps struct {
	Interviews       interview.Service
	Catalog          traitModel.Catalog
	Transcriber      speechService.Transcriber
	SpeechProvider   speechModel.Provider
	Gatherer         prometheus.Gatherer
	AllowedOrigins   []string
	UploadLimitBytes int64
	Logger           zerolog.Logger
}

// NewRouter wires HTTP routes to core services.
func NewRouter(deps Deps) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middlewarePkg.RequestLogger(deps.Logger))
	r.Use(middleware.Recoverer)
	r.Use(middlewarePkg.CORS(deps.AllowedOrigins))

	interviewHandler := interview.New(deps.Interviews, deps.UploadLimitBytes)
	traitHandler := trait.New(deps.Catalog)
	speechHandler := speech.New(deps.Transcriber, deps.SpeechProvider, deps.UploadLimitBytes)

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		utils.RespondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})
	if deps.Gatherer != nil {
		r.Handle("/metrics", promhttp.HandlerFor(deps.Gatherer, promhttp.HandlerOpts{}))
	}

	r.Route("/api", func(api chi.Router) {
		interviewHandler.RegisterRoutes(api)
		traitHandler.RegisterRoutes(api)
		speechHandler.RegisterRoutes(api)
	})

	// 旧版前端直接请求根路径
	interviewHandler.RegisterLegacyRoutes(r)

	return r
}
