package httpapi

import (
	"encoding/json"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"inferd/pkg/serving"
	"inferd/pkg/types"
)

// Service defines the facade methods required by the HTTP API layer.
// *serving.Server satisfies it.
type Service interface {
	IsLive() (bool, *serving.Error)
	IsReady() (bool, *serving.Error)
	Status() (*serving.Payload, *serving.Error)
	ModelStatus(modelName string) (*serving.Payload, *serving.Error)
	InferAsync(req *serving.Request, complete serving.CompleteFn, userp any) *serving.Error
}

// NewMux builds the API router over the serving facade.
func NewMux(svc Service) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Compress(5))
	r.Use(MetricsMiddleware)
	r.Use(RequestLogger)
	if corsEnabled {
		r.Use(cors.Handler(cors.Options{
			AllowedOrigins: corsAllowedOrigins,
			AllowedMethods: corsAllowedMethods,
			AllowedHeaders: corsAllowedHeaders,
		}))
	}
	// Security headers
	r.Use(func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("X-Content-Type-Options", "nosniff")
			next.ServeHTTP(w, r)
		})
	})

	r.Get("/api/health/live", handleHealth(svc.IsLive))
	r.Get("/api/health/ready", handleHealth(svc.IsReady))

	r.Get("/api/status", func(w http.ResponseWriter, r *http.Request) {
		p, err := svc.Status()
		writeStatusPayload(w, p, err)
	})
	r.Get("/api/status/{model}", func(w http.ResponseWriter, r *http.Request) {
		p, err := svc.ModelStatus(chi.URLParam(r, "model"))
		writeStatusPayload(w, p, err)
	})

	r.Post("/api/infer/{model}", func(w http.ResponseWriter, r *http.Request) {
		handleInfer(svc, w, r)
	})

	r.Get("/metrics", promhttp.Handler().ServeHTTP)

	MountSwagger(r)
	return r
}

// handleHealth answers a liveness or readiness probe.
//
// @Summary  Health probe
// @Produce  json
// @Success  200 {object} types.HealthResponse
// @Failure  503 {object} types.HealthResponse
// @Router   /api/health/live [get]
func handleHealth(probe func() (bool, *serving.Error)) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		healthy, err := probe()
		if err != nil {
			writeFacadeError(w, err)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		if !healthy {
			w.WriteHeader(http.StatusServiceUnavailable)
		}
		_ = json.NewEncoder(w).Encode(types.HealthResponse{Healthy: healthy})
	}
}

// writeStatusPayload writes the already-serialized status payload.
func writeStatusPayload(w http.ResponseWriter, p *serving.Payload, err *serving.Error) {
	if err != nil {
		writeFacadeError(w, err)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	_, _ = w.Write(p.Bytes())
}

// handleInfer runs one inference over the facade's asynchronous protocol,
// bridging it back to the synchronous HTTP exchange with a one-shot channel.
//
// @Summary  Run inference
// @Accept   json
// @Produce  json
// @Param    model path string true "Model name"
// @Param    version query int false "Model version (-1 = latest)"
// @Param    request body types.InferRequest true "Inference request"
// @Success  200 {object} types.InferResponse
// @Failure  400 {object} types.ErrorResponse
// @Failure  404 {object} types.ErrorResponse
// @Router   /api/infer/{model} [post]
func handleInfer(svc Service, w http.ResponseWriter, r *http.Request) {
	ct := r.Header.Get("Content-Type")
	if ct == "" || !strings.HasPrefix(strings.ToLower(ct), "application/json") {
		writeJSONError(w, http.StatusUnsupportedMediaType, "Content-Type must be application/json")
		return
	}
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	var body types.InferRequest
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeJSONError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}

	model := chi.URLParam(r, "model")
	version := serving.VersionLatest
	if v := r.URL.Query().Get("version"); v != "" {
		n, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			writeJSONError(w, http.StatusBadRequest, "invalid version")
			return
		}
		version = n
	}

	headerBytes, err := json.Marshal(body.Header)
	if err != nil {
		writeJSONError(w, http.StatusBadRequest, "invalid request header")
		return
	}
	req, ferr := serving.NewRequest(model, version, headerBytes)
	if ferr != nil {
		writeFacadeError(w, ferr)
		return
	}
	for _, in := range body.Inputs {
		req.SetInputData(in.Name, in.Data)
	}

	// One-shot completion channel; a scheduled call always completes, so
	// waiting without a timeout cannot leak.
	done := make(chan *serving.Response, 1)
	if ferr := svc.InferAsync(req, func(_ *serving.Server, resp *serving.Response, _ any) {
		done <- resp
	}, nil); ferr != nil {
		writeFacadeError(w, ferr)
		return
	}
	resp := <-done

	if ferr := resp.Status(); ferr != nil {
		writeFacadeError(w, ferr)
		return
	}
	headerPayload, ferr := resp.Header()
	if ferr != nil {
		writeFacadeError(w, ferr)
		return
	}
	var respHeader types.InferResponseHeader
	if err := json.Unmarshal(headerPayload.Bytes(), &respHeader); err != nil {
		writeJSONError(w, http.StatusInternalServerError, "failed to decode response header")
		return
	}
	out := types.InferResponse{Header: respHeader}
	for _, o := range respHeader.Outputs {
		data, ferr := resp.OutputData(o.Name)
		if ferr != nil {
			writeFacadeError(w, ferr)
			return
		}
		out.Outputs = append(out.Outputs, types.InferOutputBlob{Name: o.Name, Data: data})
	}
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(out); err != nil {
		writeJSONError(w, http.StatusInternalServerError, "failed to encode response")
	}
}
